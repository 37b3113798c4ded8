// internal/catalog/domain.go
package catalog

// MinYear is the earliest accepted publication year.
const MinYear = 1900

// Book represents a catalogued book and its lending availability.
type Book struct {
	Key       string `json:"key"`
	Title     string `json:"title"`
	Author    string `json:"author"`
	Year      int    `json:"year"`
	Available bool   `json:"available"`
}

// CategoryEntry is one category label with the keys of the books filed under it.
type CategoryEntry struct {
	Label string   `json:"label"`
	Keys  []string `json:"keys"`
}
