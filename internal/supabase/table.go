package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Zachkp/portfolio/internal/remote"
)

// Table implements remote.Table on PostgREST.
type Table struct {
	c *Client
}

func (c *Client) Table() *Table { return &Table{c: c} }

func (t *Table) endpoint(table string, params url.Values) string {
	u := t.c.baseURL + "/rest/v1/" + table
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	return u
}

func filterParams(params url.Values, filters []remote.Filter) {
	for _, f := range filters {
		params.Add(f.Column, string(f.Op)+"."+formatValue(f.Value))
	}
}

func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		return x.UTC().Format(time.RFC3339Nano)
	case json.Number:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

func (t *Table) Select(ctx context.Context, table string, q remote.Query) ([]remote.Row, error) {
	if err := remote.CheckIdents(table); err != nil {
		return nil, err
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}

	params := url.Values{}
	sel := "*"
	if len(q.Columns) > 0 {
		sel = strings.Join(q.Columns, ",")
	}
	params.Set("select", sel)
	filterParams(params, q.Filters)
	if len(q.Order) > 0 {
		parts := make([]string, len(q.Order))
		for i, o := range q.Order {
			dir := "desc"
			if o.Ascending {
				dir = "asc"
			}
			parts[i] = o.Column + "." + dir
		}
		params.Set("order", strings.Join(parts, ","))
	}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}

	req, err := t.c.newRequest(ctx, http.MethodGet, t.endpoint(table, params), nil)
	if err != nil {
		return nil, err
	}
	return t.rows("select", table, req)
}

func (t *Table) Count(ctx context.Context, table string, filters ...remote.Filter) (int64, error) {
	if err := remote.CheckIdents(table); err != nil {
		return 0, err
	}
	if err := remote.ValidateFilters(filters); err != nil {
		return 0, err
	}

	params := url.Values{}
	params.Set("select", "*")
	filterParams(params, filters)

	req, err := t.c.newRequest(ctx, http.MethodHead, t.endpoint(table, params), nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Prefer", "count=exact")

	resp, err := t.c.do(req)
	if err != nil {
		return 0, &remote.Error{Op: "count", Table: table, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return 0, t.statusError("count", table, resp)
	}
	return parseContentRange(resp.Header.Get("Content-Range"))
}

func (t *Table) Insert(ctx context.Context, table string, row remote.Row) (remote.Row, error) {
	if err := remote.CheckIdents(table); err != nil {
		return nil, err
	}

	req, err := t.jsonRequest(ctx, http.MethodPost, t.endpoint(table, nil), row)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Prefer", "return=representation")
	return t.one("insert", table, req)
}

func (t *Table) Update(ctx context.Context, table string, id int64, patch remote.Row) (remote.Row, error) {
	if err := remote.CheckIdents(table); err != nil {
		return nil, err
	}
	patch = patch.Without("id")
	if len(patch) == 0 {
		return nil, fmt.Errorf("%w: empty update", remote.ErrValidation)
	}

	params := url.Values{}
	params.Set("id", "eq."+strconv.FormatInt(id, 10))
	req, err := t.jsonRequest(ctx, http.MethodPatch, t.endpoint(table, params), patch)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Prefer", "return=representation")
	return t.one("update", table, req)
}

func (t *Table) Delete(ctx context.Context, table string, id int64) error {
	n, err := t.DeleteWhere(ctx, table, remote.Where("id", remote.Eq, id))
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("delete %s %d: %w", table, id, remote.ErrNotFound)
	}
	return nil
}

func (t *Table) DeleteWhere(ctx context.Context, table string, filters ...remote.Filter) (int64, error) {
	if err := remote.CheckIdents(table); err != nil {
		return 0, err
	}
	if len(filters) == 0 {
		return 0, fmt.Errorf("%w: refusing to delete without filters", remote.ErrValidation)
	}
	if err := remote.ValidateFilters(filters); err != nil {
		return 0, err
	}

	params := url.Values{}
	filterParams(params, filters)
	req, err := t.c.newRequest(ctx, http.MethodDelete, t.endpoint(table, params), nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Prefer", "return=minimal,count=exact")

	resp, err := t.c.do(req)
	if err != nil {
		return 0, &remote.Error{Op: "delete", Table: table, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return 0, t.statusError("delete", table, resp)
	}
	return parseContentRange(resp.Header.Get("Content-Range"))
}

func (t *Table) jsonRequest(ctx context.Context, method, u string, body any) (*http.Request, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", remote.ErrValidation, err)
	}
	req, err := t.c.newRequest(ctx, method, u, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func (t *Table) rows(op, table string, req *http.Request) ([]remote.Row, error) {
	resp, err := t.c.do(req)
	if err != nil {
		return nil, &remote.Error{Op: op, Table: table, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, t.statusError(op, table, resp)
	}

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	out := []remote.Row{}
	if err := dec.Decode(&out); err != nil && err != io.EOF {
		return nil, &remote.Error{Op: op, Table: table, Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return out, nil
}

func (t *Table) one(op, table string, req *http.Request) (remote.Row, error) {
	rows, err := t.rows(op, table, req)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s %s: %w", op, table, remote.ErrNotFound)
	}
	return rows[0], nil
}

func (t *Table) statusError(op, table string, resp *http.Response) error {
	ae := readAPIError(resp)
	e := &remote.Error{Op: op, Table: table, Status: resp.StatusCode, Code: ae.Code, Message: ae.Message}
	switch {
	case strings.HasPrefix(ae.Code, "22"), strings.HasPrefix(ae.Code, "23"):
		e.Err = remote.ErrValidation
	case ae.Code == "PGRST116":
		e.Err = remote.ErrNotFound
	}
	return e
}

// parseContentRange reads the total from "0-9/42" or "*/42".
func parseContentRange(h string) (int64, error) {
	i := strings.LastIndexByte(h, '/')
	if i < 0 || i == len(h)-1 || h[i+1:] == "*" {
		return 0, fmt.Errorf("missing count in Content-Range %q", h)
	}
	n, err := strconv.ParseInt(h[i+1:], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("bad Content-Range %q: %w", h, err)
	}
	return n, nil
}
