package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/pressline/pressline/internal/platform/database"
	"github.com/pressline/pressline/internal/platform/logger"
	"github.com/pressline/pressline/internal/search/domain/model"
	"github.com/pressline/pressline/internal/search/domain/repository"
)

// ContentReader hydrates searchable documents and serves title lookups
// for suggestions and autocomplete.
type ContentReader struct {
	db     *database.DB
	logger logger.Logger
}

func NewContentReader(db *database.DB, log logger.Logger) *ContentReader {
	return &ContentReader{db: db, logger: log}
}

// FetchDocuments loads the documents for the given post IDs along with
// their category and hashtag associations. Missing IDs are skipped
// silently; callers pass IDs obtained from a match pass moments
// earlier and a post deleted in between is simply absent.
func (r *ContentReader) FetchDocuments(ctx context.Context, ids []int64) ([]*model.SearchableDocument, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	const docQuery = `
		SELECT p.id, p.slug, p.title, coalesce(p.summary, ''), coalesce(p.body, ''),
		       coalesce(p.keywords, ''), p.status, p.language, p.featured,
		       p.published_at, p.view_count,
		       pt.id, pt.name, o.id, o.name
		FROM posts p
		JOIN post_types pt ON pt.id = p.post_type_id
		JOIN organizations o ON o.id = p.organization_id
		WHERE p.id = ANY($1)`

	rows, err := r.db.QueryContext(ctx, docQuery, pq.Array(ids))
	if err != nil {
		r.logger.Error("fetch documents failed", "error", err)
		return nil, fmt.Errorf("fetch documents: %w: %w", repository.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	byID := make(map[int64]*model.SearchableDocument, len(ids))
	var docs []*model.SearchableDocument
	for rows.Next() {
		doc := &model.SearchableDocument{}
		if err := rows.Scan(
			&doc.ID, &doc.Slug, &doc.Title, &doc.Summary, &doc.Body,
			&doc.Keywords, &doc.Status, &doc.Language, &doc.Featured,
			&doc.PublishedAt, &doc.ViewCount,
			&doc.Type.ID, &doc.Type.Name, &doc.Organization.ID, &doc.Organization.Name,
		); err != nil {
			return nil, fmt.Errorf("scan document: %w: %w", repository.ErrStoreUnavailable, err)
		}
		byID[doc.ID] = doc
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w: %w", repository.ErrStoreUnavailable, err)
	}
	if len(docs) == 0 {
		return nil, nil
	}

	if err := r.attachCategories(ctx, byID); err != nil {
		return nil, err
	}
	if err := r.attachHashtags(ctx, byID); err != nil {
		return nil, err
	}

	return docs, nil
}

func (r *ContentReader) attachCategories(ctx context.Context, byID map[int64]*model.SearchableDocument) error {
	const q = `
		SELECT pc.post_id, c.id, c.name
		FROM post_categories pc
		JOIN categories c ON c.id = pc.category_id
		WHERE pc.post_id = ANY($1)
		ORDER BY pc.post_id, c.id`

	rows, err := r.db.QueryContext(ctx, q, pq.Array(docIDs(byID)))
	if err != nil {
		return fmt.Errorf("fetch categories: %w: %w", repository.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	for rows.Next() {
		var postID int64
		var ref model.Ref
		if err := rows.Scan(&postID, &ref.ID, &ref.Name); err != nil {
			return fmt.Errorf("scan category: %w: %w", repository.ErrStoreUnavailable, err)
		}
		if doc, ok := byID[postID]; ok {
			doc.Categories = append(doc.Categories, ref)
		}
	}
	return rows.Err()
}

func (r *ContentReader) attachHashtags(ctx context.Context, byID map[int64]*model.SearchableDocument) error {
	const q = `
		SELECT ph.post_id, ph.hashtag_id
		FROM post_hashtags ph
		WHERE ph.post_id = ANY($1)
		ORDER BY ph.post_id, ph.hashtag_id`

	rows, err := r.db.QueryContext(ctx, q, pq.Array(docIDs(byID)))
	if err != nil {
		return fmt.Errorf("fetch hashtags: %w: %w", repository.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	for rows.Next() {
		var postID, tagID int64
		if err := rows.Scan(&postID, &tagID); err != nil {
			return fmt.Errorf("scan hashtag: %w: %w", repository.ErrStoreUnavailable, err)
		}
		if doc, ok := byID[postID]; ok {
			doc.HashtagIDs = append(doc.HashtagIDs, tagID)
		}
	}
	return rows.Err()
}

// TitlesBySimilarity returns published post titles ordered by trigram
// similarity to the query, best match first. Duplicate titles collapse
// to one entry.
func (r *ContentReader) TitlesBySimilarity(ctx context.Context, query string, threshold float64, limit int) ([]string, error) {
	const q = `
		SELECT p.title
		FROM posts p
		WHERE p.status = 'published'
		  AND similarity(p.title, $1) >= $2
		ORDER BY similarity(p.title, $1) DESC, p.title
		LIMIT $3`

	return r.queryTitles(ctx, "titles_by_similarity", q, query, threshold, limit*2)
}

// TitlesContaining returns published post titles containing the query
// as a case-insensitive substring, most viewed first. The query is
// matched literally, not as a LIKE pattern.
func (r *ContentReader) TitlesContaining(ctx context.Context, query string, limit int) ([]string, error) {
	const q = `
		SELECT p.title
		FROM posts p
		WHERE p.status = 'published'
		  AND p.title ILIKE '%' || $1 || '%'
		ORDER BY p.view_count DESC, p.title
		LIMIT $2`

	return r.queryTitles(ctx, "titles_containing", q, escapeLike(query), limit*2)
}

func (r *ContentReader) queryTitles(ctx context.Context, operation, query string, args ...interface{}) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("title lookup failed", "operation", operation, "error", err)
		return nil, fmt.Errorf("%s: %w: %w", operation, repository.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	seen := make(map[string]struct{})
	var titles []string
	for rows.Next() {
		var title string
		if err := rows.Scan(&title); err != nil {
			return nil, fmt.Errorf("scan title: %w: %w", repository.ErrStoreUnavailable, err)
		}
		key := strings.ToLower(title)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		titles = append(titles, title)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate titles: %w: %w", repository.ErrStoreUnavailable, err)
	}

	return titles, nil
}

func docIDs(byID map[int64]*model.SearchableDocument) []int64 {
	ids := make([]int64, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	return ids
}
