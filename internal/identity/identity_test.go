package identity

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeSessionID(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"":                       DefaultSessionIDValue,
		"   ":                    DefaultSessionIDValue,
		"tab-42":                 "tab-42",
		" abc.def:1 ":            "abc.def:1",
		"has space":              DefaultSessionIDValue,
		"semi;colon":             DefaultSessionIDValue,
		strings.Repeat("a", 129): DefaultSessionIDValue,
	}
	for in, want := range tests {
		assert.Equal(t, want, SanitizeSessionID(in), "input %q", in)
	}
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	var got string
	h := Middleware(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		got = SessionIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/?session_id=from-query", nil)
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "from-query", got)

	req = httptest.NewRequest(http.MethodGet, "/?session_id=from-query", nil)
	req.Header.Set(SessionHeaderName, "from-header")
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "from-header", got)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, DefaultSessionIDValue, got)
}

func TestSessionIDFromBareContext(t *testing.T) {
	t.Parallel()

	assert.Equal(t, DefaultSessionIDValue, SessionIDFromContext(context.Background()))
	assert.Equal(t, "x1", SessionIDFromContext(WithSessionID(context.Background(), "x1")))
}

func TestIPFromRequest(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.7:5555"
	assert.Equal(t, "10.0.0.7", IPFromRequest(req))
	req.RemoteAddr = "pipe"
	assert.Equal(t, "pipe", IPFromRequest(req))
}
