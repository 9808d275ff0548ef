package metadata

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vinculacion/pkg/requestcontext"
)

func TestResolverClientIP(t *testing.T) {
	res, err := NewResolver([]string{"10.0.0.0/8", "192.168.1.1"})
	require.NoError(t, err)

	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{name: "forwarded from trusted proxy", headers: map[string]string{"X-Forwarded-For": "200.1.1.1"}, remote: "10.0.0.2:4000", want: "200.1.1.1"},
		{name: "trusted hops are skipped", headers: map[string]string{"X-Forwarded-For": "200.1.1.1, 10.0.0.1"}, remote: "10.0.0.2:4000", want: "200.1.1.1"},
		{name: "spoofed leftmost entry ignored", headers: map[string]string{"X-Forwarded-For": "1.2.3.4, 200.1.1.9"}, remote: "10.0.0.2:4000", want: "200.1.1.9"},
		{name: "bare address trusted", headers: map[string]string{"X-Forwarded-For": " 200.1.1.2 "}, remote: "192.168.1.1:4000", want: "200.1.1.2"},
		{name: "real ip header from trusted proxy", headers: map[string]string{"X-Real-IP": "200.1.1.3"}, remote: "10.0.0.2:4000", want: "200.1.1.3"},
		{name: "malformed forwarded entry falls back to peer", headers: map[string]string{"X-Forwarded-For": "not-an-ip"}, remote: "10.0.0.2:4000", want: "10.0.0.2"},
		{name: "untrusted peer headers ignored", headers: map[string]string{"X-Forwarded-For": "200.1.1.1", "X-Real-IP": "200.1.1.3"}, remote: "192.168.1.5:51000", want: "192.168.1.5"},
		{name: "remote addr ipv6", remote: "[::1]:51000", want: "::1"},
		{name: "empty remote addr", remote: "", want: "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, res.ClientIP(r))
		})
	}
}

func TestNewResolverRejectsMalformedEntries(t *testing.T) {
	_, err := NewResolver([]string{"10.0.0.0/33"})
	assert.Error(t, err)

	_, err = NewResolver([]string{"proxy.internal"})
	assert.Error(t, err)

	res, err := NewResolver([]string{"", " "})
	require.NoError(t, err)
	assert.Empty(t, res.trusted)
}

func TestClientMetadataIgnoresForwardedHeaders(t *testing.T) {
	var gotIP, gotUA string
	h := ClientMetadata(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotIP = requestcontext.ClientIP(r.Context())
		gotUA = requestcontext.UserAgent(r.Context())
	}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "172.16.0.9:1234"
	r.Header.Set("X-Forwarded-For", strings.Repeat("9.9.9.9, ", 50))
	r.Header.Set("User-Agent", "Mozilla/5.0")
	h.ServeHTTP(httptest.NewRecorder(), r)

	assert.Equal(t, "172.16.0.9", gotIP)
	assert.Equal(t, "Mozilla/5.0", gotUA)
}
