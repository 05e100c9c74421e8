package gudgeontop

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

const (
	SortAscending  = "asc"
	SortDescending = "desc"

	DefaultSortField = "created"
	DefaultPageSize  = 10
	emptyResponse    = "( EMPTY )"
)

// PageSizes are the selectable query log page sizes
var PageSizes = []int{5, 10, 20, 50, 100}

// SearchFields are the backend fields the free text search is applied to
var SearchFields = []string{"responseText", "clientName", "rdomain", "address"}

// PageRequest describes one query log page
type PageRequest struct {
	Page          int
	PageSize      int
	SortField     string
	SortDirection string
	SearchText    string
	Since         time.Time

	// set by drill-down from outside the table; replaces the search and the time bound
	ExternalField string
	ExternalValue string
}

// NewPageRequest returns the first page with default size and sort
func NewPageRequest() PageRequest {
	return PageRequest{PageSize: DefaultPageSize}
}

// WithExternalSearch returns a copy that filters on a single field with no time bound
func (r PageRequest) WithExternalSearch(field, value string) (PageRequest, error) {
	if !isSearchField(field) {
		return r, fmt.Errorf("unknown search field %q", field)
	}
	r.ExternalField = field
	r.ExternalValue = value
	r.Page = 0
	return r, nil
}

// External reports whether the request is a drill-down search
func (r PageRequest) External() bool {
	return r.ExternalField != ""
}

func isSearchField(field string) bool {
	for _, f := range SearchFields {
		if f == field {
			return true
		}
	}
	return false
}

// Params builds the /api/query/list parameters
func (r PageRequest) Params(now time.Time) url.Values {
	pageSize := r.PageSize
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	page := max(r.Page, 0)

	params := url.Values{}
	params.Set("limit", strconv.Itoa(pageSize))
	params.Set("skip", strconv.Itoa(page*pageSize))

	if r.External() {
		params.Set(r.ExternalField, r.ExternalValue)
	} else {
		since := r.Since
		if since.IsZero() {
			since = now.Add(-QUERY_LOG_LOOKBACK * time.Second)
		}
		params.Set("after", strconv.FormatInt(since.Unix(), 10))

		if r.SearchText != "" {
			for _, field := range SearchFields {
				params.Set(field, r.SearchText)
			}
		}
	}

	sortField := r.SortField
	direction := r.SortDirection
	if sortField == "" {
		sortField = DefaultSortField
		if direction == "" {
			direction = SortDescending
		}
	}
	params.Set("sort", sortField)
	if direction == "" {
		direction = SortAscending
	}
	params.Set("direction", direction)
	return params
}

// TotalPages returns the page count for total rows, at least one
func TotalPages(total, pageSize int) int {
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if total <= 0 {
		return 1
	}
	return (total + pageSize - 1) / pageSize
}

// QueryLogSource serves query log pages
type QueryLogSource interface {
	QueryList(ctx context.Context, params url.Values) (QueryLogPage, error)
}

// QueryPage asks src for the page described by req
func QueryPage(ctx context.Context, src QueryLogSource, req PageRequest, now time.Time) (QueryLogPage, error) {
	return src.QueryList(ctx, req.Params(now))
}

// RowStatus is the derived display state of a query log row
type RowStatus int

const (
	RowNormal RowStatus = iota
	RowBlocked
	RowCached
)

func (s RowStatus) String() string {
	switch s {
	case RowBlocked:
		return "blocked"
	case RowCached:
		return "cached"
	default:
		return "normal"
	}
}

// blockMatch is the match type the backend reports for a block list hit
const blockMatch = 1

// RowDisplay is the rendered form of a query log row
type RowDisplay struct {
	Client   string
	Request  string
	Response string
	Created  string
	Status   RowStatus
}

// DisplayRow derives the display strings and status of a row
func DisplayRow(row QueryLogRow) RowDisplay {
	display := RowDisplay{
		Client:  row.Address,
		Request: fmt.Sprintf("%s (%s)", row.RequestDomain, row.RequestType),
		Created: PrettyDate(row.Created),
	}
	if row.ClientName != "" {
		display.Client = row.ClientName + " | " + row.Address
	}

	response := row.ResponseText
	if response == "" {
		response = row.Rcode
	}
	if response == "" {
		response = emptyResponse
	}

	switch {
	case row.Blocked:
		display.Status = RowBlocked
		display.Response = listAndRule(row.BlockedList, row.BlockedRule, response)
	case row.Match == blockMatch:
		display.Status = RowBlocked
		display.Response = listAndRule(row.MatchList, row.MatchRule, response)
	case row.Cached:
		display.Status = RowCached
		display.Response = response
	default:
		display.Response = response
	}
	return display
}

func listAndRule(list, rule, fallback string) string {
	if list == "" {
		return fallback
	}
	if rule == "" {
		return list
	}
	return list + " (" + rule + ")"
}
