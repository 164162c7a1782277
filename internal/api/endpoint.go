package api

import (
	"net/url"
	"strings"
)

// tenderIDToken is the placeholder accepted in endpoint templates.
const tenderIDToken = "{tenderId}"

type endpointKind int

const (
	endpointTemplated endpointKind = iota
	endpointQueryParam
)

// Endpoint resolves a tender identifier into a request path. The variant
// (templated path vs. bare path with a query parameter) is decided once at
// construction, not re-inspected per call.
type Endpoint struct {
	kind  endpointKind
	path  string
	param string
}

// ParseEndpoint classifies raw as templated when it carries the {tenderId}
// placeholder, and as query-parameter form otherwise. param names the query
// parameter for the latter; empty defaults to "tenderId".
func ParseEndpoint(raw, param string) Endpoint {
	if strings.Contains(raw, tenderIDToken) {
		return Endpoint{kind: endpointTemplated, path: raw}
	}
	if param == "" {
		param = "tenderId"
	}
	return Endpoint{kind: endpointQueryParam, path: raw, param: param}
}

// Resolve returns the request path and query parameters for one identifier.
func (e Endpoint) Resolve(id string) (string, url.Values) {
	if e.kind == endpointTemplated {
		return strings.ReplaceAll(e.path, tenderIDToken, url.PathEscape(id)), nil
	}
	return e.path, url.Values{e.param: []string{id}}
}
