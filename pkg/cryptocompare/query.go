package cryptocompare

import (
	"net/url"
	"strconv"
	"strings"
	"time"
)

// query builds a query string in insertion order so identical calls always
// produce identical URLs, and therefore identical cache keys.
type query struct {
	parts []string
}

func newQuery() *query { return &query{} }

func (q *query) set(key, value string) *query {
	q.parts = append(q.parts, key+"="+url.QueryEscape(value))
	return q
}

// list joins symbols with literal commas, escaping each symbol.
func (q *query) list(key string, values []string) *query {
	escaped := make([]string, len(values))
	for i, v := range values {
		escaped[i] = url.QueryEscape(v)
	}
	q.parts = append(q.parts, key+"="+strings.Join(escaped, ","))
	return q
}

func (q *query) optList(key string, values []string) *query {
	if len(values) == 0 {
		return q
	}
	return q.list(key, values)
}

func (q *query) optString(key, value string) *query {
	if value == "" {
		return q
	}
	return q.set(key, value)
}

func (q *query) optInt(key string, value int) *query {
	if value == 0 {
		return q
	}
	return q.set(key, strconv.Itoa(value))
}

func (q *query) optTime(key string, t time.Time) *query {
	if t.IsZero() {
		return q
	}
	return q.set(key, strconv.FormatInt(t.Unix(), 10))
}

func (q *query) flag(key string, on bool, value string) *query {
	if !on {
		return q
	}
	return q.set(key, value)
}

func (q *query) String() string {
	if len(q.parts) == 0 {
		return ""
	}
	return "?" + strings.Join(q.parts, "&")
}
