package catalog

import (
	"github.com/odyssey-erp/odyssey-pos/internal/shared"
)

// Outcome is the result of resolving a query against candidates.
type Outcome string

const (
	OutcomeSelected Outcome = "selected"
	OutcomeChoose   Outcome = "choose"
	OutcomeNotFound Outcome = "not_found"
)

// Selection holds the candidates matched by a raw query and the product
// resolved from them. It belongs to exactly one workspace.
type Selection struct {
	Query      string    `json:"query"`
	Candidates []Product `json:"candidates"`
	Selected   *Product  `json:"selected,omitempty"`
}

// Resolve applies the scan rules to results for raw: an exact barcode match
// wins, then a single result, then not found, then manual choice.
func (s *Selection) Resolve(raw string, results []Product) (Outcome, error) {
	s.Query = raw
	for i := range results {
		if results[i].Barcode != "" && results[i].Barcode == raw {
			s.selectProduct(results[i])
			return OutcomeSelected, nil
		}
	}
	switch len(results) {
	case 0:
		s.Candidates = nil
		return OutcomeNotFound, shared.NotFound("product not found in the catalog")
	case 1:
		s.selectProduct(results[0])
		return OutcomeSelected, nil
	default:
		s.Candidates = append([]Product(nil), results...)
		return OutcomeChoose, nil
	}
}

// Show lists results for free text without auto-selecting.
func (s *Selection) Show(raw string, results []Product) {
	s.Query = raw
	s.Candidates = append([]Product(nil), results...)
}

// Choose selects a surfaced candidate by id.
func (s *Selection) Choose(id int64) (Product, error) {
	for _, p := range s.Candidates {
		if p.ID == id {
			s.selectProduct(p)
			return p, nil
		}
	}
	return Product{}, shared.NotFound("product is not among the candidates")
}

// Take returns the selected product and forgets it.
func (s *Selection) Take() (Product, bool) {
	if s.Selected == nil {
		return Product{}, false
	}
	p := *s.Selected
	s.Selected = nil
	return p, true
}

// Clear forgets the query, candidates and selection.
func (s *Selection) Clear() {
	s.Query = ""
	s.Candidates = nil
	s.Selected = nil
}

func (s *Selection) selectProduct(p Product) {
	s.Selected = &p
	s.Candidates = nil
	s.Query = ""
}
