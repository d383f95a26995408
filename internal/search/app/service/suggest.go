package service

import "strings"

const suggestionLimit = 5

// filterSuggestions drops titles equal to the query itself, compared
// case-insensitively, and caps the list. Suggesting what the user
// already typed helps nobody.
func filterSuggestions(titles []string, query string, limit int) []string {
	lowered := strings.ToLower(query)
	out := make([]string, 0, limit)
	for _, title := range titles {
		if strings.ToLower(title) == lowered {
			continue
		}
		out = append(out, title)
		if len(out) == limit {
			break
		}
	}
	return out
}

// dedupeTitles collapses case-insensitive duplicate titles, keeping
// the first occurrence of each. Order is preserved and the result is
// never nil.
func dedupeTitles(titles []string) []string {
	seen := make(map[string]struct{}, len(titles))
	out := make([]string, 0, len(titles))
	for _, title := range titles {
		key := strings.ToLower(title)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, title)
	}
	return out
}
