package models

// Page is one page of a Canvas list endpoint. Canvas returns bare JSON arrays
// and advertises the next page in the Link header.
type Page[T any] struct {
	Items   []T
	NextURL string
}

// HasNext reports whether another page follows.
func (p Page[T]) HasNext() bool {
	return p.NextURL != ""
}
