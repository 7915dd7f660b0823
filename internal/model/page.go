package model

import "fmt"

// Page is one fetched search-result page, keyed by its 1-based index.
type Page struct {
	Index   int    `json:"index"`
	URL     string `json:"url,omitempty"`
	Content string `json:"-"`
}

// PageFileName returns the stored file name for a page index.
func PageFileName(index int) string {
	return fmt.Sprintf("page_%d.html", index)
}

// ResultFileName returns the extraction result file name for a page index.
func ResultFileName(index int) string {
	return fmt.Sprintf("page_%d.json", index)
}

// ExtractionResult holds the records recovered from the page with the same index.
type ExtractionResult struct {
	Index   int          `json:"index"`
	Records []Researcher `json:"records"`
}
