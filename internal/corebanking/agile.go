package corebanking

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"vinculacion/internal/platform/config"
	"vinculacion/internal/providers"
	"vinculacion/pkg/platform/sentinel"
)

// TokenCache stores the LINIX access token between requests.
type TokenCache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// SubmitResult is the LINIX answer to an enrollment frame.
type SubmitResult struct {
	StatusCode int
	Response   json.RawMessage
	DryRun     bool
}

// AgileClient talks to the LINIX agile enrollment REST API.
type AgileClient struct {
	tokenURL      string
	enrollmentURL string
	clientID      string
	clientSecret  string
	cacheKey      string
	safetyMargin  time.Duration
	dryRun        bool
	cache         TokenCache
	http          *http.Client
	group         singleflight.Group
	logger        *slog.Logger
	tracer        trace.Tracer
}

type AgileOption func(*AgileClient)

func WithAgileHTTPClient(c *http.Client) AgileOption {
	return func(a *AgileClient) {
		if c != nil {
			a.http = c
		}
	}
}

func WithAgileLogger(logger *slog.Logger) AgileOption {
	return func(a *AgileClient) {
		a.logger = logger
	}
}

// WithAgileDryRun simulates submissions locally.
func WithAgileDryRun(enabled bool) AgileOption {
	return func(a *AgileClient) {
		a.dryRun = enabled
	}
}

func NewAgileClient(cfg config.AgileConfig, cache TokenCache, opts ...AgileOption) *AgileClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	a := &AgileClient{
		tokenURL:      orDefault(cfg.TokenURL, joinURL(cfg.BaseURL, cfg.TokenPath)),
		enrollmentURL: orDefault(cfg.VinculacionURL, joinURL(cfg.BaseURL, cfg.VinculacionPath)),
		clientID:      strings.TrimSpace(cfg.ClientID),
		clientSecret:  strings.TrimSpace(cfg.ClientSecret),
		cacheKey:      orDefault(cfg.TokenCacheKey, "linix_access_token"),
		safetyMargin:  cfg.TokenSafetyMargin,
		cache:         cache,
		http:          &http.Client{Timeout: timeout},
		logger:        slog.Default(),
		tracer:        otel.Tracer("vinculacion/corebanking"),
	}
	if a.safetyMargin <= 0 {
		a.safetyMargin = 60 * time.Second
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func joinURL(base, path string) string {
	if base == "" {
		return path
	}
	u, err := url.JoinPath(strings.TrimRight(base, "/")+"/", strings.TrimLeft(path, "/"))
	if err != nil {
		return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
	}
	return u
}

type tokenResponse struct {
	AccessToken string          `json:"access_token"`
	ExpiresIn   json.Number     `json:"expires_in"`
	Result      json.RawMessage `json:"result"`
	Message     string          `json:"message"`
}

// AccessToken returns the cached token, fetching a new one on a miss or when
// forceRefresh is set. Concurrent misses share one network call.
func (a *AgileClient) AccessToken(ctx context.Context, forceRefresh bool) (string, error) {
	if !forceRefresh {
		token, ok, err := a.cache.Get(ctx, a.cacheKey)
		if err != nil {
			a.logger.WarnContext(ctx, "token cache read failed, fetching a fresh token",
				"error", err,
				"unavailable", errors.Is(err, sentinel.ErrUnavailable),
			)
		}
		if ok && token != "" {
			return token, nil
		}
	}

	v, err, _ := a.group.Do(a.cacheKey, func() (any, error) {
		return a.fetchToken(ctx)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (a *AgileClient) fetchToken(ctx context.Context) (string, error) {
	ctx, span := a.tracer.Start(ctx, "corebanking.FetchToken")
	defer span.End()

	if a.clientID == "" || a.clientSecret == "" {
		return "", providers.NewError(providers.ErrorConfiguration, providers.AgileLinix,
			"Credenciales LINIX incompletas en configuracion.", nil)
	}

	body, _ := json.Marshal(map[string]string{"client_id": a.clientID, "client_secret": a.clientSecret})
	a.logger.InfoContext(ctx, "requesting LINIX token", "url", a.tokenURL)
	status, raw, err := a.post(ctx, a.tokenURL, body, "")
	if err != nil {
		return "", err
	}
	if status != http.StatusOK {
		pe := providers.NewError(providers.ErrorAuthentication, providers.AgileLinix,
			fmt.Sprintf("No se pudo obtener token LINIX. HTTP %d", status), nil)
		pe.StatusCode = status
		return "", pe
	}

	var tr tokenResponse
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &tr)
	}
	if tr.AccessToken == "" {
		return "", providers.NewError(providers.ErrorBadData, providers.AgileLinix,
			orDefault(tr.Message, "Respuesta invalida al solicitar token LINIX."), nil)
	}
	if result := resultCode(tr.Result); result != "" && result != "0" {
		return "", providers.NewError(providers.ErrorRejected, providers.AgileLinix,
			orDefault(tr.Message, fmt.Sprintf("Error LINIX token result=%s.", result)), nil)
	}

	expiresIn := int64(3600)
	if n, err := tr.ExpiresIn.Int64(); err == nil && tr.ExpiresIn != "" {
		expiresIn = n
	}
	ttl := max(time.Duration(expiresIn)*time.Second-a.safetyMargin, 60*time.Second)
	if err := a.cache.Set(ctx, a.cacheKey, tr.AccessToken, ttl); err != nil {
		a.logger.WarnContext(ctx, "token cache write failed", "error", err)
	}
	span.SetAttributes(attribute.Int64("corebanking.token_ttl_seconds", int64(ttl.Seconds())))
	return tr.AccessToken, nil
}

// resultCode renders the token "result" field whether LINIX sent it as a
// string or a number.
func resultCode(raw json.RawMessage) string {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return ""
	}
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		return str
	}
	return s
}

// SubmitEnrollment sends the frame with a bearer token, refreshing the token
// and retrying exactly once when LINIX answers 401 or 403.
func (a *AgileClient) SubmitEnrollment(ctx context.Context, payload Payload) (*SubmitResult, error) {
	ctx, span := a.tracer.Start(ctx, "corebanking.SubmitEnrollment")
	defer span.End()

	if a.dryRun {
		a.logger.WarnContext(ctx, "agile enrollment simulated")
		code := orDefault(payload.CodigoCliente, "N/A")
		resp, _ := json.Marshal(map[string]any{
			"result":   0,
			"message":  "Vinculacion simulada en modo local (LINIX_DRY_RUN).",
			"radicado": "DRY-" + code,
		})
		return &SubmitResult{StatusCode: http.StatusOK, Response: resp, DryRun: true}, nil
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, providers.NewError(providers.ErrorInternal, providers.AgileLinix, "Error inesperado: "+err.Error(), err)
	}

	token, err := a.AccessToken(ctx, false)
	if err != nil {
		return nil, err
	}
	status, raw, err := a.post(ctx, a.enrollmentURL, body, token)
	if err != nil {
		return nil, err
	}
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		a.logger.InfoContext(ctx, "LINIX rejected token, refreshing", "status", status)
		// A failed refresh must not leave the rejected token cached.
		if err := a.cache.Delete(ctx, a.cacheKey); err != nil {
			a.logger.WarnContext(ctx, "token cache evict failed", "error", err)
		}
		token, err = a.AccessToken(ctx, true)
		if err != nil {
			return nil, err
		}
		status, raw, err = a.post(ctx, a.enrollmentURL, body, token)
		if err != nil {
			return nil, err
		}
	}
	span.SetAttributes(attribute.Int("http.status_code", status))

	response := raw
	if len(bytes.TrimSpace(raw)) == 0 {
		response = json.RawMessage(`{}`)
	} else if !json.Valid(raw) {
		response, _ = json.Marshal(map[string]string{"raw": truncate(string(raw), 5000)})
	}

	if status < 200 || status >= 300 {
		var errBody struct {
			Message string `json:"message"`
		}
		_ = json.Unmarshal(response, &errBody)
		pe := providers.NewError(providers.ErrorRejected, providers.AgileLinix,
			orDefault(errBody.Message, fmt.Sprintf("Error LINIX HTTP %d", status)), nil)
		pe.StatusCode = status
		return nil, pe
	}
	return &SubmitResult{StatusCode: status, Response: response}, nil
}

func (a *AgileClient) post(ctx context.Context, target string, body []byte, bearer string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return 0, nil, providers.NewError(providers.ErrorInternal, providers.AgileLinix, "Error inesperado: "+err.Error(), err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := a.http.Do(req)
	if err != nil {
		category := providers.ClassifyTransport(err)
		msg := "Error inesperado: " + err.Error()
		switch category {
		case providers.ErrorTimeout:
			msg = "Timeout consultando LINIX"
		case providers.ErrorConnection:
			msg = "No se pudo conectar con LINIX"
		}
		return 0, nil, providers.NewError(category, providers.AgileLinix, msg, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return 0, nil, providers.NewError(providers.ClassifyTransport(err), providers.AgileLinix, "Error leyendo respuesta LINIX", err)
	}
	return resp.StatusCode, raw, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
