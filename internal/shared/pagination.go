package shared

import "math"

// Pagination contains metadata for paginated listings. Pages are zero based,
// matching the backend.
type Pagination struct {
	Page          int   `json:"page"`
	Size          int   `json:"size"`
	TotalElements int64 `json:"total_elements"`
	TotalPages    int   `json:"total_pages"`
	Last          bool  `json:"last"`
}

// NewPagination computes pagination metadata from a total element count.
func NewPagination(page, size int, total int64) Pagination {
	if size <= 0 {
		size = 10
	}
	if page < 0 {
		page = 0
	}
	totalPages := int(math.Ceil(float64(total) / float64(size)))
	return Pagination{
		Page:          page,
		Size:          size,
		TotalElements: total,
		TotalPages:    totalPages,
		Last:          page+1 >= totalPages,
	}
}
