package utils

import (
	"strconv"
	"strings"
)

// DefaultPageSize is the number of items on a full page.
const DefaultPageSize = 10

// Page is one slice of an ordered result set.
type Page[T any] struct {
	Items    []T
	Number   int
	PerPage  int
	NumPages int
	Total    int64
}

// ResolvePage clamps a raw page parameter against the result size.
// Missing or non-numeric values and values below 1 give page 1; values past the end give the last page.
// An empty result still has one (empty) page.
func ResolvePage(total int64, perPage int, raw string) (number, numPages int) {
	if perPage <= 0 {
		perPage = DefaultPageSize
	}
	numPages = int((total + int64(perPage) - 1) / int64(perPage))
	if numPages < 1 {
		numPages = 1
	}
	number, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || number < 1 {
		number = 1
	}
	if number > numPages {
		number = numPages
	}
	return number, numPages
}

// Offset is the index of the first item of page number.
func Offset(number, perPage int) int {
	return (number - 1) * perPage
}

// Paginate slices items into the requested page. items is never modified.
func Paginate[T any](items []T, perPage int, raw string) Page[T] {
	if perPage <= 0 {
		perPage = DefaultPageSize
	}
	total := int64(len(items))
	number, numPages := ResolvePage(total, perPage, raw)
	start := Offset(number, perPage)
	end := start + perPage
	if end > len(items) {
		end = len(items)
	}
	page := make([]T, 0, end-start)
	page = append(page, items[start:end]...)
	return Page[T]{Items: page, Number: number, PerPage: perPage, NumPages: numPages, Total: total}
}

func (p Page[T]) HasNext() bool {
	return p.Number < p.NumPages
}

func (p Page[T]) HasPrevious() bool {
	return p.Number > 1
}

func (p Page[T]) HasOtherPages() bool {
	return p.HasNext() || p.HasPrevious()
}

func (p Page[T]) NextPageNumber() int {
	return p.Number + 1
}

func (p Page[T]) PreviousPageNumber() int {
	return p.Number - 1
}

// PageRange lists every page number, for rendering the page links.
func (p Page[T]) PageRange() []int {
	r := make([]int, p.NumPages)
	for i := range r {
		r[i] = i + 1
	}
	return r
}

// Len is the number of items on this page.
func (p Page[T]) Len() int {
	return len(p.Items)
}
