// Copyright (c) HashiCorp, Inc.

package query

import "strings"

// RequestValues is the narrow boundary this package reads form/query input
// through; it never imports net/http itself so it stays usable from a CLI,
// a test, or any web framework's own request type. httpquery.Values
// implements it over *http.Request.
type RequestValues interface {
	// Method returns the request's HTTP method, upper-cased (e.g. "GET").
	Method() string
	// Query returns every value submitted for key in the URL query string.
	Query(key string) []string
	// Body returns every value submitted for key in the request body
	// (form-encoded or multipart), empty for methods with no body.
	Body(key string) []string
}

// values returns the method-appropriate parameter map to read from: GET and
// HEAD read the query string, everything else reads the body, per §6.
func values(r RequestValues, key string) []string {
	switch strings.ToUpper(r.Method()) {
	case "GET", "HEAD", "":
		return r.Query(key)
	default:
		return r.Body(key)
	}
}

// firstValue returns the first submitted value for key, and whether any
// non-empty value was present at all.
func firstValue(r RequestValues, key string) (string, bool) {
	vs := values(r, key)
	for _, v := range vs {
		if v != "" {
			return v, true
		}
	}
	return "", false
}

// allValues returns every non-empty submitted value for key, in submission
// order, used for multi-valued choice-set form fields.
func allValues(r RequestValues, key string) []string {
	vs := values(r, key)
	out := make([]string, 0, len(vs))
	for _, v := range vs {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
