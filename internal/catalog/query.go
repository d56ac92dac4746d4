package catalog

import "strings"

// Direction is a sort direction.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Sort is the single active sort key of a listing.
type Sort struct {
	Key       string    `json:"key"`
	Direction Direction `json:"direction"`
}

// DefaultSort lists the newest products first.
var DefaultSort = Sort{Key: "id", Direction: Desc}

// Param encodes the sort as the backend's composite "key,direction" parameter.
func (s Sort) Param() string {
	return s.Key + "," + string(s.Direction)
}

// Click returns the sort after the operator clicks the column key.
func (s Sort) Click(key string) Sort {
	if key == s.Key {
		if s.Direction == Asc {
			return Sort{Key: key, Direction: Desc}
		}
		return Sort{Key: key, Direction: Asc}
	}
	return Sort{Key: key, Direction: Asc}
}

// ParseSort decodes a "key,direction" parameter, falling back to DefaultSort.
func ParseSort(raw string) Sort {
	key, dir, _ := strings.Cut(strings.TrimSpace(raw), ",")
	if key == "" {
		return DefaultSort
	}
	switch Direction(strings.ToLower(dir)) {
	case Asc:
		return Sort{Key: key, Direction: Asc}
	case Desc:
		return Sort{Key: key, Direction: Desc}
	default:
		return Sort{Key: key, Direction: Asc}
	}
}

// DefaultPageSize is used when a query carries no size.
const DefaultPageSize = 10

// Query is the filter, sort and cursor state of a product listing.
type Query struct {
	Search   string `json:"search"`
	Archived bool   `json:"archived"`
	Sort     Sort   `json:"sort"`
	Page     int    `json:"page"`
	Size     int    `json:"size"`
}

// NewQuery returns the initial listing state.
func NewQuery(size int) Query {
	if size <= 0 {
		size = DefaultPageSize
	}
	return Query{Sort: DefaultSort, Size: size}
}

// Active is the backend's active filter. Archived and active views are exclusive.
func (q Query) Active() bool {
	return !q.Archived
}

// Effect tells the controller what a reduced event requires.
type Effect int

const (
	// EffectNone means nothing changed.
	EffectNone Effect = iota
	// EffectDebounce resets to the first page once the quiescence window elapses.
	EffectDebounce
	// EffectReload resets to the first page immediately.
	EffectReload
	// EffectFetch navigates to Query.Page immediately.
	EffectFetch
)

// Event is an operator input on the listing.
type Event interface {
	event()
}

// SearchChanged carries the current text of the search field.
type SearchChanged struct{ Text string }

// ArchivedChanged switches between the active and archived views.
type ArchivedChanged struct{ Archived bool }

// SortClicked is a click on a sortable column.
type SortClicked struct{ Key string }

// PageSizeChanged selects a new page size.
type PageSizeChanged struct{ Size int }

// PageRequested navigates to a zero-based page.
type PageRequested struct{ Page int }

func (SearchChanged) event()   {}
func (ArchivedChanged) event() {}
func (SortClicked) event()     {}
func (PageSizeChanged) event() {}
func (PageRequested) event()   {}

// Reduce computes the next query for ev. It has no side effects.
func Reduce(q Query, ev Event) (Query, Effect) {
	switch e := ev.(type) {
	case SearchChanged:
		if e.Text == q.Search {
			return q, EffectNone
		}
		q.Search = e.Text
		q.Page = 0
		return q, EffectDebounce
	case ArchivedChanged:
		if e.Archived == q.Archived {
			return q, EffectNone
		}
		q.Archived = e.Archived
		q.Page = 0
		return q, EffectDebounce
	case SortClicked:
		if strings.TrimSpace(e.Key) == "" {
			return q, EffectNone
		}
		q.Sort = q.Sort.Click(e.Key)
		q.Page = 0
		return q, EffectDebounce
	case PageSizeChanged:
		if e.Size <= 0 || e.Size == q.Size {
			return q, EffectNone
		}
		q.Size = e.Size
		q.Page = 0
		return q, EffectReload
	case PageRequested:
		if e.Page < 0 || e.Page == q.Page {
			return q, EffectNone
		}
		q.Page = e.Page
		return q, EffectFetch
	default:
		return q, EffectNone
	}
}
