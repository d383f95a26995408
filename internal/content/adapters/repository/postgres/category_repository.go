package postgres

import (
	"context"
	"fmt"

	"github.com/pressline/pressline/internal/content/domain/model"
	"github.com/pressline/pressline/internal/platform/database"
	"github.com/pressline/pressline/internal/platform/logger"
	"github.com/pressline/pressline/internal/search/domain/repository"
)

type CategoryRepository struct {
	db     *database.DB
	logger logger.Logger
}

func NewCategoryRepository(db *database.DB, log logger.Logger) *CategoryRepository {
	return &CategoryRepository{db: db, logger: log}
}

// SearchByName matches active categories by trigram similarity on the
// name, best match first.
func (r *CategoryRepository) SearchByName(ctx context.Context, query string, threshold float64, limit int) ([]model.CategoryMatch, error) {
	const q = `
		SELECT c.id, c.name, c.slug, c.post_count, similarity(c.name, $1) AS sim
		FROM categories c
		WHERE c.is_active
		  AND similarity(c.name, $1) >= $2
		ORDER BY sim DESC, c.post_count DESC
		LIMIT $3`

	rows, err := r.db.QueryContext(ctx, q, query, threshold, limit)
	if err != nil {
		r.logger.Error("category search failed", "error", err)
		return nil, fmt.Errorf("search categories: %w: %w", repository.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var matches []model.CategoryMatch
	for rows.Next() {
		var m model.CategoryMatch
		if err := rows.Scan(&m.ID, &m.Name, &m.Slug, &m.PostCount, &m.Similarity); err != nil {
			return nil, fmt.Errorf("scan category match: %w: %w", repository.ErrStoreUnavailable, err)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate category matches: %w: %w", repository.ErrStoreUnavailable, err)
	}

	return matches, nil
}

// Tree returns active top-level categories with their active
// subcategories, ordered by display order then name at both levels.
func (r *CategoryRepository) Tree(ctx context.Context) ([]model.CategoryNode, error) {
	const q = `
		SELECT c.id, c.parent_id, c.name, c.slug, coalesce(c.icon, ''),
		       c.display_order, c.post_count, c.is_active
		FROM categories c
		WHERE c.is_active
		ORDER BY c.display_order, c.name`

	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		r.logger.Error("category tree load failed", "error", err)
		return nil, fmt.Errorf("load category tree: %w: %w", repository.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var roots []model.CategoryNode
	children := make(map[int64][]model.Category)
	rootIndex := make(map[int64]int)

	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.ParentID, &c.Name, &c.Slug, &c.Icon,
			&c.Order, &c.PostCount, &c.IsActive); err != nil {
			return nil, fmt.Errorf("scan category: %w: %w", repository.ErrStoreUnavailable, err)
		}
		if c.ParentID == nil {
			rootIndex[c.ID] = len(roots)
			roots = append(roots, model.CategoryNode{Category: c})
		} else {
			children[*c.ParentID] = append(children[*c.ParentID], c)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w: %w", repository.ErrStoreUnavailable, err)
	}

	for parentID, subs := range children {
		if idx, ok := rootIndex[parentID]; ok {
			roots[idx].Subcategories = subs
		}
	}

	return roots, nil
}
