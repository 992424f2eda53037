package repository

import (
	"net/url"
	"strconv"
)

// pageURL builds the listing or search URL for one page. Search text goes through
// url.Values so it is always query-escaped.
func pageURL(base *url.URL, page, pageSize int, search string) string {
	u := *base
	q := url.Values{}
	if search != "" {
		u.Path = joinPath(u.Path, "products/search")
		q.Set("q", search)
	} else {
		u.Path = joinPath(u.Path, "products")
	}
	q.Set("limit", strconv.Itoa(pageSize))
	q.Set("skip", strconv.Itoa(offset(page, pageSize)))
	u.RawQuery = q.Encode()
	return u.String()
}

func offset(page, pageSize int) int {
	return (page - 1) * pageSize
}

// totalPages is ceil(total/pageSize) in integer arithmetic.
func totalPages(total, pageSize int) int {
	if total <= 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}

func joinPath(base, elem string) string {
	if base == "" || base[len(base)-1] != '/' {
		base += "/"
	}
	return base + elem
}
