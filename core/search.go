package core

import "strings"

// Search predicates for the list endpoints. Matching is case-insensitive
// substring, same as the dashboard's search boxes.

// MatchStore matches on store name or company name. An empty query matches
// everything.
func MatchStore(query string) func(Store) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}
	return func(s Store) bool {
		return strings.Contains(strings.ToLower(s.StoreName), q) ||
			strings.Contains(strings.ToLower(s.CompanyName), q)
	}
}

// MatchSupplier matches on owner, business name, or type.
func MatchSupplier(query string) func(Supplier) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}
	return func(s Supplier) bool {
		return strings.Contains(strings.ToLower(s.Owner), q) ||
			strings.Contains(strings.ToLower(s.Name), q) ||
			strings.Contains(strings.ToLower(string(s.Type)), q)
	}
}
