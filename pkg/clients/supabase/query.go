package supabase

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-resty/resty/v2"
)

// Query is a small PostgREST request builder modelled on supabase-js:
// filters, ordering and ranges accumulate until an execute method runs.
type Query struct {
	client *Client
	table  string
	params url.Values
	order  []string
	count  bool
}

// From starts a query against table.
func (c *Client) From(table string) *Query {
	return &Query{client: c, table: table, params: url.Values{}}
}

// Select sets the column list, including embedded resources.
func (q *Query) Select(columns string) *Query {
	q.params.Set("select", compactSelect(columns))
	return q
}

// Eq adds an equality filter.
func (q *Query) Eq(column, value string) *Query {
	q.params.Add(column, "eq."+value)
	return q
}

// ILike adds a case-insensitive pattern filter. pattern uses SQL wildcards.
func (q *Query) ILike(column, pattern string) *Query {
	q.params.Add(column, "ilike."+pattern)
	return q
}

// Order appends an ordering term; earlier terms take precedence.
func (q *Query) Order(column string, ascending bool) *Query {
	direction := "asc"
	if !ascending {
		direction = "desc"
	}
	q.order = append(q.order, column+"."+direction)
	return q
}

// Range bounds the result to the inclusive row interval [from, to].
func (q *Query) Range(from, to int) *Query {
	q.params.Set("offset", strconv.Itoa(from))
	q.params.Set("limit", strconv.Itoa(to-from+1))
	return q
}

// CountExact asks PostgREST for the total number of matching rows.
func (q *Query) CountExact() *Query {
	q.count = true
	return q
}

// Values returns the encoded query parameters. It is exposed for tests and
// request logging.
func (q *Query) Values() url.Values {
	values := url.Values{}
	for key, vals := range q.params {
		values[key] = append([]string(nil), vals...)
	}
	if len(q.order) > 0 {
		values.Set("order", strings.Join(q.order, ","))
	}
	return values
}

// Execute runs a GET and decodes the rows into dest. The returned total is
// -1 unless CountExact was requested. A range past the last row yields an
// empty result and the accurate total rather than an error.
func (q *Query) Execute(ctx context.Context, dest any) (int64, error) {
	apiErr := new(APIError)
	req := q.client.request(ctx).
		SetQueryParamsFromValues(q.Values()).
		SetResult(dest).
		SetError(apiErr)
	if q.count {
		req.SetHeader("Prefer", "count=exact")
	}

	resp, err := req.Get("/rest/v1/" + q.table)
	if err != nil {
		return 0, fmt.Errorf("select %s: %w", q.table, err)
	}

	total := int64(-1)
	if q.count {
		if parsed, ok := parseContentRange(resp.Header().Get("Content-Range")); ok {
			total = parsed
		}
	}

	if resp.StatusCode() == http.StatusRequestedRangeNotSatisfiable && total >= 0 {
		return total, nil
	}
	if err := checkResponse(resp, apiErr); err != nil {
		return 0, err
	}
	return total, nil
}

// Insert posts body as a new row. When dest is non-nil the stored
// representation is decoded into it.
func (q *Query) Insert(ctx context.Context, body any, dest any) error {
	apiErr := new(APIError)
	req := q.client.request(ctx).
		SetQueryParamsFromValues(q.Values()).
		SetBody(body).
		SetError(apiErr)
	req = withRepresentation(req, dest)

	resp, err := req.Post("/rest/v1/" + q.table)
	if err != nil {
		return fmt.Errorf("insert %s: %w", q.table, err)
	}
	return checkResponse(resp, apiErr)
}

// Update patches every row matching the accumulated filters.
func (q *Query) Update(ctx context.Context, body any, dest any) error {
	apiErr := new(APIError)
	req := q.client.request(ctx).
		SetQueryParamsFromValues(q.Values()).
		SetBody(body).
		SetError(apiErr)
	req = withRepresentation(req, dest)

	resp, err := req.Patch("/rest/v1/" + q.table)
	if err != nil {
		return fmt.Errorf("update %s: %w", q.table, err)
	}
	return checkResponse(resp, apiErr)
}

func withRepresentation(req *resty.Request, dest any) *resty.Request {
	if dest == nil {
		return req.SetHeader("Prefer", "return=minimal")
	}
	return req.SetHeader("Prefer", "return=representation").SetResult(dest)
}

// parseContentRange extracts the total from "0-9/42" or "*/42".
func parseContentRange(header string) (int64, bool) {
	idx := strings.LastIndex(header, "/")
	if idx < 0 || idx == len(header)-1 {
		return 0, false
	}
	total, err := strconv.ParseInt(header[idx+1:], 10, 64)
	if err != nil {
		return 0, false
	}
	return total, true
}

func compactSelect(columns string) string {
	return strings.Join(strings.Fields(columns), "")
}
