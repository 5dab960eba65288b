// Package dto provides Data Transfer Objects for API requests/responses.
package dto

// IDResponse is returned for created resources.
type IDResponse struct {
	ID string `json:"id"`
}

// ListResponse wraps list results.
type ListResponse struct {
	Items any `json:"items"`
	Total int `json:"total"`
}

// NewListResponse wraps items with their count.
func NewListResponse[T any](items []T) ListResponse {
	if items == nil {
		items = []T{}
	}
	return ListResponse{Items: items, Total: len(items)}
}
