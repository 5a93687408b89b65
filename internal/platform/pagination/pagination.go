// Package pagination computes page windows for admin listings.
package pagination

import (
	"net/url"
	"strconv"
	"strings"
)

// PageParam is the query parameter carrying the 1-based page number.
const PageParam = "p"

// PageSizeConfig configures page size normalization.
type PageSizeConfig struct {
	Default int
	Max     int
}

// ClampPageSize applies defaults and limits for page sizes.
func ClampPageSize(value int, cfg PageSizeConfig) int {
	pageSize := value
	if pageSize <= 0 {
		pageSize = cfg.Default
	}
	if cfg.Max > 0 && pageSize > cfg.Max {
		pageSize = cfg.Max
	}
	if pageSize <= 0 {
		pageSize = 1
	}
	return pageSize
}

// Page is one window over a counted result set.
type Page struct {
	Number   int
	NumPages int
	PerPage  int
	Total    int
}

// Paginate resolves the requested page against total items.
//
// Missing or non-integer requests resolve to the first page and requests past
// the end clamp to the last page. An empty result still has one page.
func Paginate(total, perPage int, requested string) Page {
	if perPage <= 0 {
		perPage = 1
	}
	if total < 0 {
		total = 0
	}
	numPages := (total + perPage - 1) / perPage
	if numPages < 1 {
		numPages = 1
	}

	number, err := strconv.Atoi(strings.TrimSpace(requested))
	if err != nil || number < 1 {
		number = 1
	}
	if number > numPages {
		number = numPages
	}
	return Page{Number: number, NumPages: numPages, PerPage: perPage, Total: total}
}

// Offset is the index of the first item on the page.
func (p Page) Offset() int {
	return (p.Number - 1) * p.PerPage
}

// Limit is the maximum number of items on the page.
func (p Page) Limit() int {
	return p.PerPage
}

// HasNext reports whether a later page exists.
func (p Page) HasNext() bool {
	return p.Number < p.NumPages
}

// HasPrevious reports whether an earlier page exists.
func (p Page) HasPrevious() bool {
	return p.Number > 1
}

// NextNumber is the following page number, or the current one on the last page.
func (p Page) NextNumber() int {
	if p.HasNext() {
		return p.Number + 1
	}
	return p.Number
}

// PreviousNumber is the preceding page number, or 1.
func (p Page) PreviousNumber() int {
	if p.HasPrevious() {
		return p.Number - 1
	}
	return 1
}

// StartIndex is the 1-based index of the first item, 0 when empty.
func (p Page) StartIndex() int {
	if p.Total == 0 {
		return 0
	}
	return p.Offset() + 1
}

// EndIndex is the 1-based index of the last item on the page.
func (p Page) EndIndex() int {
	end := p.Offset() + p.PerPage
	if end > p.Total {
		end = p.Total
	}
	return end
}

// URL returns base with query carrying page number, keeping other params.
// The first page drops the page param.
func URL(base string, query url.Values, number int) string {
	values := url.Values{}
	for key, vals := range query {
		if key == PageParam {
			continue
		}
		values[key] = append([]string(nil), vals...)
	}
	if number > 1 {
		values.Set(PageParam, strconv.Itoa(number))
	}
	encoded := values.Encode()
	if encoded == "" {
		return base
	}
	return base + "?" + encoded
}
