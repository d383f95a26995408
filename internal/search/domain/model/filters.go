package model

import "time"

// SearchFilters narrows the matched set. Every field is optional; only
// present filters are applied, each as a hard AND.
type SearchFilters struct {
	CategoryID     *int64     `json:"category_id,omitempty"`
	TypeID         *int64     `json:"type_id,omitempty"`
	OrganizationID *int64     `json:"organization_id,omitempty"`
	DateFrom       *time.Time `json:"date_from,omitempty"`
	DateTo         *time.Time `json:"date_to,omitempty"`
	Language       *string    `json:"language,omitempty"`
	Featured       *bool      `json:"featured,omitempty"`
}

// Empty reports whether no filter is set.
func (f SearchFilters) Empty() bool {
	return f.CategoryID == nil && f.TypeID == nil && f.OrganizationID == nil &&
		f.DateFrom == nil && f.DateTo == nil && f.Language == nil && f.Featured == nil
}

// Matches reports whether the document passes every present filter.
func (f SearchFilters) Matches(doc *SearchableDocument) bool {
	if f.CategoryID != nil {
		found := false
		for _, c := range doc.Categories {
			if c.ID == *f.CategoryID {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.TypeID != nil && doc.Type.ID != *f.TypeID {
		return false
	}
	if f.OrganizationID != nil && doc.Organization.ID != *f.OrganizationID {
		return false
	}
	if f.DateFrom != nil && doc.PublishedAt.Before(*f.DateFrom) {
		return false
	}
	if f.DateTo != nil && doc.PublishedAt.After(*f.DateTo) {
		return false
	}
	if f.Language != nil && doc.Language != *f.Language {
		return false
	}
	if f.Featured != nil && doc.Featured != *f.Featured {
		return false
	}
	return true
}

// CacheArgs renders the present filters as keyword arguments for cache
// key derivation. Absent filters contribute nothing, so a filterless
// call and an explicit nil filter produce the same key.
func (f SearchFilters) CacheArgs() map[string]interface{} {
	args := make(map[string]interface{})
	if f.CategoryID != nil {
		args["category"] = *f.CategoryID
	}
	if f.TypeID != nil {
		args["type"] = *f.TypeID
	}
	if f.OrganizationID != nil {
		args["organization"] = *f.OrganizationID
	}
	if f.DateFrom != nil {
		args["date_from"] = f.DateFrom.UTC().Format("2006-01-02")
	}
	if f.DateTo != nil {
		args["date_to"] = f.DateTo.UTC().Format("2006-01-02")
	}
	if f.Language != nil {
		args["language"] = *f.Language
	}
	if f.Featured != nil {
		args["featured"] = *f.Featured
	}
	return args
}
