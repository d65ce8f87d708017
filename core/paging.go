package core

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// PageRequest is a 0-based page request.
type PageRequest struct {
	Page int `query:"page"`
	Size int `query:"size"`
}

// Clean bounds the request: negative pages become 0, sizes fall back to def and are capped at max.
func (pr PageRequest) Clean(def, max int) PageRequest {
	if pr.Page < 0 {
		pr.Page = 0
	}
	if pr.Size <= 0 {
		pr.Size = def
	}
	if pr.Size > max {
		pr.Size = max
	}
	return pr
}

func (pr PageRequest) Offset() uint64 {
	return uint64(pr.Page) * uint64(pr.Size)
}

func (pr PageRequest) Limit() uint64 {
	return uint64(pr.Size)
}

type Page[T any] struct {
	Data          []T   `json:"data"`
	Page          int   `json:"page"`
	Size          int   `json:"size"`
	TotalElements int64 `json:"totalElements"`
	TotalPages    int   `json:"totalPages"`
	First         bool  `json:"first"`
	Last          bool  `json:"last"`
}

func NewPage[T any](data []T, pr PageRequest, total int64) Page[T] {
	if data == nil {
		data = []T{}
	}
	var totalPages int
	if pr.Size > 0 {
		totalPages = int((total + int64(pr.Size) - 1) / int64(pr.Size))
	}
	return Page[T]{
		Data:          data,
		Page:          pr.Page,
		Size:          pr.Size,
		TotalElements: total,
		TotalPages:    totalPages,
		First:         pr.Page == 0,
		Last:          pr.Page >= totalPages-1,
	}
}

// MapPage converts the items of p with fn.
func MapPage[T, U any](p Page[T], fn func(T) U) Page[U] {
	data := make([]U, 0, len(p.Data))
	for _, item := range p.Data {
		data = append(data, fn(item))
	}
	return Page[U]{
		Data:          data,
		Page:          p.Page,
		Size:          p.Size,
		TotalElements: p.TotalElements,
		TotalPages:    p.TotalPages,
		First:         p.First,
		Last:          p.Last,
	}
}
