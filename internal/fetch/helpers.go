package fetch

import (
	"net/http"
	"sort"
	"strings"
)

// simpleMethods is the §4.7 simple-method set: requests using one of these
// never require a CORS preflight on method grounds alone.
var simpleMethods = map[string]struct{}{
	http.MethodGet:  {},
	http.MethodHead: {},
	http.MethodPost: {},
}

// isSimpleMethod reports whether method is one of GET, HEAD, POST (§4.7).
func isSimpleMethod(method string) bool {
	_, ok := simpleMethods[strings.ToUpper(method)]
	return ok
}

// simpleHeaders is the §4.7 simple-header set, excluding Content-Type
// which has an extra MIME-type condition handled by isSimpleHeader.
var simpleHeaders = map[string]struct{}{
	"Accept":          {},
	"Accept-Language": {},
	"Content-Language": {},
}

// simpleContentTypeValues lists the MIME essences that keep a
// Content-Type header "simple" (§4.7).
var simpleContentTypeValues = map[string]struct{}{
	"text/plain":                        {},
	"application/x-www-form-urlencoded": {},
	"multipart/form-data":               {},
}

// isSimpleHeader reports whether the header named name with value value is
// a "simple" header per §4.7: Accept, Accept-Language, Content-Language
// unconditionally; Content-Type only when its MIME essence (ignoring
// parameters such as charset or boundary) is one of the three listed
// values.
func isSimpleHeader(name, value string) bool {
	canonical := http.CanonicalHeaderKey(name)
	if _, ok := simpleHeaders[canonical]; ok {
		return true
	}
	if canonical != "Content-Type" {
		return false
	}
	essence := value
	if idx := strings.IndexByte(essence, ';'); idx >= 0 {
		essence = essence[:idx]
	}
	essence = strings.ToLower(strings.TrimSpace(essence))
	_, ok := simpleContentTypeValues[essence]
	return ok
}

// nullBodyStatuses is the §4.7 set of statuses that must never carry a
// body regardless of what the wire actually sent.
var nullBodyStatuses = map[int]struct{}{
	101: {},
	204: {},
	205: {},
	304: {},
}

// isNullBodyStatus reports whether status is one of 101, 204, 205, 304.
func isNullBodyStatus(status int) bool {
	_, ok := nullBodyStatuses[status]
	return ok
}

// nonSimpleHeaderNames returns the case-insensitive-sorted list of request
// header names that are not "simple", as required when synthesizing
// Access-Control-Request-Headers (§4.4).
func nonSimpleHeaderNames(h http.Header) []string {
	var names []string
	for name, values := range h {
		simple := true
		for _, v := range values {
			if !isSimpleHeader(name, v) {
				simple = false
				break
			}
		}
		if !simple {
			names = append(names, strings.ToLower(name))
		}
	}
	sort.Strings(names)
	return names
}

// splitCommaList splits a comma-separated header value into trimmed,
// non-empty fields. An empty or absent header yields a nil slice.
func splitCommaList(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// isConditionalHeaderName reports whether name is one of the conditional
// request headers that force a cache-mode upgrade from Default to NoStore
// (§4.3).
func isConditionalHeaderName(name string) bool {
	switch http.CanonicalHeaderKey(name) {
	case "If-Modified-Since", "If-None-Match", "If-Unmodified-Since", "If-Match", "If-Range":
		return true
	default:
		return false
	}
}

// hasAnyConditionalHeader reports whether h carries any conditional
// request header (§4.3 cache-mode normalization).
func hasAnyConditionalHeader(h http.Header) bool {
	for name := range h {
		if isConditionalHeaderName(name) {
			return true
		}
	}
	return false
}

// defaultAcceptHeader returns the default Accept header value for the
// given request type, per §4.1's entry-point step.
func defaultAcceptHeader(t RequestType) string {
	switch t {
	case TypeImage:
		return "image/png, image/svg+xml, image/*;q=0.8, */*;q=0.5"
	case TypeStyle:
		return "text/css, */*;q=0.1"
	default:
		return "*/*"
	}
}

// navigationAcceptHeader is the Accept header synthesized for navigation
// requests (§4.1), which takes priority over the type-based default.
const navigationAcceptHeader = "text/html, application/xhtml+xml, application/xml;q=0.9, */*;q=0.8"

// parseMaxAge extracts the max-age directive (in seconds) from a
// Cache-Control header value, returning 0 if absent or malformed.
func parseMaxAge(cacheControl string) int {
	for _, directive := range strings.Split(cacheControl, ",") {
		directive = strings.TrimSpace(directive)
		const prefix = "max-age="
		if !strings.HasPrefix(strings.ToLower(directive), prefix) {
			continue
		}
		value := directive[len(prefix):]
		n := 0
		for _, r := range value {
			if r < '0' || r > '9' {
				return 0
			}
			n = n*10 + int(r-'0')
		}
		return n
	}
	return 0
}
