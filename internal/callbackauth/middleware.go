package callbackauth

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"vinculacion/pkg/platform/httputil"
	"vinculacion/pkg/requestcontext"
)

type contextKeySubject struct{}

// Subject returns the vendor account of an authenticated callback, or "".
func Subject(ctx context.Context) string {
	sub, _ := ctx.Value(contextKeySubject{}).(string)
	return sub
}

// RequireCallbackAuth guards the vendor webhook. Failures use the vendor's
// {status, message} body shape. Client metadata middleware must run first.
func RequireCallbackAuth(auth *Service, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := requestcontext.RequestID(ctx)

			if !auth.CanVerify() {
				logger.ErrorContext(ctx, "callback rejected: webhook secret not configured", "request_id", requestID)
				writeVendorStatus(w, http.StatusInternalServerError, "Webhook secret not configured")
				return
			}

			clientIP := requestcontext.ClientIP(ctx)
			if !auth.AllowIP(clientIP) {
				logger.WarnContext(ctx, "callback rejected: source address not allowed",
					"client_ip", clientIP,
					"request_id", requestID,
				)
				writeVendorStatus(w, http.StatusForbidden, "Forbidden")
				return
			}

			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || strings.TrimSpace(token) == "" {
				logger.WarnContext(ctx, "callback rejected: missing token", "request_id", requestID)
				writeVendorStatus(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			claims, err := auth.Validate(strings.TrimSpace(token))
			if err != nil {
				logger.WarnContext(ctx, "callback rejected: invalid token",
					"error", err,
					"request_id", requestID,
				)
				writeVendorStatus(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			ctx = context.WithValue(ctx, contextKeySubject{}, claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeVendorStatus(w http.ResponseWriter, status int, message string) {
	httputil.WriteJSON(w, status, map[string]string{
		"status":  strconv.Itoa(status),
		"message": message,
	})
}
