package fetch

import (
	"encoding/base64"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// aboutBlankResponse implements the about: scheme branch of basic_fetch:
// about:blank (and only about:blank) synthesizes a 200 response with an
// empty body and a text/html Content-Type; any other about: URL is a
// network error.
func aboutBlankResponse(u *url.URL) *Response {
	if u.Opaque != "blank" && u.Path != "blank" {
		return NetworkError()
	}

	body := NewBody()
	body.StartReceiving()
	body.Finish(nil)

	headers := make(http.Header)
	headers.Set("Content-Type", "text/html; charset=utf-8")

	return &Response{
		URL:          u,
		Status:       200,
		Headers:      headers,
		URLList:      []*url.URL{u},
		ResponseType: ResponseTypeBasic,
		Body:         body,
	}
}

// dataURLResponse implements the data: scheme branch of basic_fetch: parse
// the URL per RFC 2397 and synthesize a 200 response carrying the decoded
// body and the declared (or defaulted) MIME type. A malformed data: URL is
// a network error.
func dataURLResponse(u *url.URL) *Response {
	raw := u.Opaque
	if raw == "" {
		raw = strings.TrimPrefix(u.String(), "data:")
	}
	// Opaque already strips any "data:" prefix but may still carry a
	// leading "//" if the URL was parsed as hierarchical; normalize.
	raw = strings.TrimPrefix(raw, "//")

	comma := strings.IndexByte(raw, ',')
	if comma < 0 {
		return NetworkError()
	}

	meta := raw[:comma]
	encoded := raw[comma+1:]

	isBase64 := false
	if strings.HasSuffix(meta, ";base64") {
		isBase64 = true
		meta = strings.TrimSuffix(meta, ";base64")
	}

	mimeType := meta
	if mimeType == "" {
		mimeType = "text/plain;charset=US-ASCII"
	}

	var body []byte
	var err error
	if isBase64 {
		body, err = base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			// Data URLs are lenient about padding in the wild.
			body, err = base64.RawStdEncoding.DecodeString(encoded)
		}
		if err != nil {
			return NetworkError()
		}
	} else {
		decoded, unescapeErr := url.PathUnescape(encoded)
		if unescapeErr != nil {
			return NetworkError()
		}
		body = []byte(decoded)
	}

	b := NewBody()
	b.StartReceiving()
	b.Finish(body)

	headers := make(http.Header)
	headers.Set("Content-Type", mimeType)

	return &Response{
		URL:          u,
		Status:       200,
		Headers:      headers,
		URLList:      []*url.URL{u},
		ResponseType: ResponseTypeBasic,
		Body:         b,
	}
}

// fileURLResponse implements the file: scheme branch of basic_fetch: read
// the local file named by u.Path and synthesize a 200 response, guessing
// Content-Type from the file extension. Any I/O failure is a network
// error; this loader never consults LocalURLsOnly (the caller is
// responsible for gating file: access before reaching here).
func fileURLResponse(u *url.URL) *Response {
	path := u.Path
	if path == "" {
		path = u.Opaque
	}

	data, err := os.ReadFile(filepath.FromSlash(path))
	if err != nil {
		return NetworkError()
	}

	contentType := mime.TypeByExtension(filepath.Ext(path))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	headers := make(http.Header)
	headers.Set("Content-Type", contentType)

	b := NewBody()
	b.StartReceiving()
	b.Finish(data)

	return &Response{
		URL:          u,
		Status:       200,
		Headers:      headers,
		URLList:      []*url.URL{u},
		ResponseType: ResponseTypeBasic,
		Body:         b,
	}
}
