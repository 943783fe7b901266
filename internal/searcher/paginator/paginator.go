// Package paginator splits result lists into fixed-size pages.
package paginator

// Paginate splits items into consecutive pages of at most size elements.
// The last page may be shorter. Pages share the backing array of items.
// A non-positive size yields a single page holding everything.
func Paginate[T any](items []T, size int) [][]T {
	if len(items) == 0 {
		return [][]T{}
	}
	if size <= 0 || size >= len(items) {
		return [][]T{items[:len(items):len(items)]}
	}
	pages := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		pages = append(pages, items[start:end:end])
	}
	return pages
}

// Page returns the n-th page (zero-based) and the total number of pages.
// An out-of-range n yields an empty page.
func Page[T any](items []T, size, n int) (page []T, total int) {
	pages := Paginate(items, size)
	if n < 0 || n >= len(pages) {
		return []T{}, len(pages)
	}
	return pages[n], len(pages)
}
