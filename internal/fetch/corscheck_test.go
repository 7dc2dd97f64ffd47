package fetch

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCorsCheck(t *testing.T) {
	t.Parallel()

	origin := Origin{Kind: OriginTuple, Scheme: "https", Host: "app.example.com"}

	tests := []struct {
		name    string
		req     *Request
		headers http.Header
		want    bool
	}{
		{
			name: "missing allow-origin fails",
			req:  &Request{Origin: origin, CredentialsMode: CredentialsOmit},
			headers: http.Header{},
			want:    false,
		},
		{
			name: "wildcard passes without credentials",
			req:  &Request{Origin: origin, CredentialsMode: CredentialsOmit},
			headers: http.Header{"Access-Control-Allow-Origin": {"*"}},
			want:    true,
		},
		{
			name: "wildcard fails with credentials",
			req:  &Request{Origin: origin, CredentialsMode: CredentialsInclude},
			headers: http.Header{"Access-Control-Allow-Origin": {"*"}},
			want:    false,
		},
		{
			name: "exact origin match without credentials passes",
			req:  &Request{Origin: origin, CredentialsMode: CredentialsOmit},
			headers: http.Header{"Access-Control-Allow-Origin": {"https://app.example.com"}},
			want:    true,
		},
		{
			name: "mismatched origin fails",
			req:  &Request{Origin: origin, CredentialsMode: CredentialsOmit},
			headers: http.Header{"Access-Control-Allow-Origin": {"https://other.example.com"}},
			want:    false,
		},
		{
			name: "credentials require explicit allow-credentials true",
			req:  &Request{Origin: origin, CredentialsMode: CredentialsInclude},
			headers: http.Header{
				"Access-Control-Allow-Origin":      {"https://app.example.com"},
				"Access-Control-Allow-Credentials": {"true"},
			},
			want: true,
		},
		{
			name: "credentials without allow-credentials fails",
			req:  &Request{Origin: origin, CredentialsMode: CredentialsInclude},
			headers: http.Header{
				"Access-Control-Allow-Origin": {"https://app.example.com"},
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			resp := &Response{Headers: tt.headers}
			got := corsCheck(tt.req, resp)
			assert.Equal(t, tt.want, got)
		})
	}
}
