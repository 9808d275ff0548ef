package main

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vinculacion/internal/callbackauth"
	"vinculacion/internal/enrollment/handler"
	"vinculacion/internal/platform/config"
	"vinculacion/pkg/platform/middleware/metadata"
	"vinculacion/pkg/testutil"
)

func TestRouterScaffold(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	testutil.Given(t, "the HTTP router", func(t *testing.T) {
		h := handler.New(nil, callbackauth.New(config.CallbackConfig{}), logger)
		clientIP, err := metadata.NewResolver([]string{"10.0.0.0/8"})
		require.NoError(t, err)
		router := newRouter(logger, h, clientIP, nil, nil)

		testutil.When(t, "calling GET /health", func(t *testing.T) {
			rec := testutil.DoRequest(router, httptest.NewRequest(http.MethodGet, "/health", nil))

			testutil.Then(t, "it reports ok with a request id", func(t *testing.T) {
				testutil.AssertStatus(t, rec, http.StatusOK)
				assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
			})
		})

		testutil.When(t, "calling GET /metrics", func(t *testing.T) {
			rec := testutil.DoRequest(router, httptest.NewRequest(http.MethodGet, "/metrics", nil))

			testutil.Then(t, "it serves the prometheus exposition", func(t *testing.T) {
				testutil.AssertStatus(t, rec, http.StatusOK)
				assert.Contains(t, rec.Body.String(), "go_goroutines")
			})
		})

		testutil.When(t, "calling a pre-registration with a malformed id", func(t *testing.T) {
			rec := testutil.DoRequest(router, httptest.NewRequest(http.MethodGet, "/api/vinculacion/preregistro/abc", nil))

			testutil.Then(t, "it responds not found", func(t *testing.T) {
				testutil.AssertStatusAndError(t, rec, http.StatusNotFound, "not_found")
			})
		})

		testutil.When(t, "calling the webhook without a token", func(t *testing.T) {
			rec := testutil.DoRequest(router, httptest.NewRequest(http.MethodPost, "/api/vinculacion/decrim/webhook", nil))

			testutil.Then(t, "it refuses because no secret is configured", func(t *testing.T) {
				testutil.AssertStatus(t, rec, http.StatusInternalServerError)
			})
		})

		testutil.When(t, "calling the debug Oracle route outside debug mode", func(t *testing.T) {
			rec := testutil.DoRequest(router, httptest.NewRequest(http.MethodGet, "/api/vinculacion/test/oracle", nil))

			testutil.Then(t, "it is not mounted", func(t *testing.T) {
				testutil.AssertStatus(t, rec, http.StatusNotFound)
			})
		})
	})
}
