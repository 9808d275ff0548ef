// Package handler exposes the enrollment workflow over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/mssola/useragent"

	"vinculacion/internal/callbackauth"
	"vinculacion/internal/corebanking"
	"vinculacion/internal/enrollment/models"
	"vinculacion/internal/enrollment/service"
	dErrors "vinculacion/pkg/domain-errors"
	"vinculacion/pkg/platform/httputil"
	"vinculacion/pkg/requestcontext"
)

// Service defines the enrollment operations the handler drives.
type Service interface {
	Submit(ctx context.Context, cmd service.SubmitCommand) (*service.SubmitResult, error)
	PollBiometric(ctx context.Context, id int64) (*service.BiometricStatusResult, error)
	HandleCallback(ctx context.Context, cmd service.CallbackCommand) (*service.CallbackResult, error)
	RequestCoreBankingLink(ctx context.Context, id int64) (*service.LinkResult, error)
	SubmitAgileEnrollment(ctx context.Context, cmd service.AgileCommand) (*service.AgileResult, error)
	VerifyCompletion(ctx context.Context, id int64) (*service.VerificationResult, error)
	BatchVerify(ctx context.Context, cmd service.BatchCommand) (*service.BatchResult, error)
	Detail(ctx context.Context, id int64) (*service.DetailResult, error)
	CheckCoreBanking(ctx context.Context) (*service.ConnectivityResult, error)
}

// Handler wires enrollment endpoints to the enrollment service.
type Handler struct {
	service Service
	auth    *callbackauth.Service
	logger  *slog.Logger
	public  []func(http.Handler) http.Handler
	debug   bool
}

type Option func(*Handler)

// WithPublicMiddleware guards the citizen-facing routes that start work,
// typically with a per-IP rate limit.
func WithPublicMiddleware(mw ...func(http.Handler) http.Handler) Option {
	return func(h *Handler) {
		h.public = append(h.public, mw...)
	}
}

// WithDebugRoutes mounts the Oracle connectivity test route.
func WithDebugRoutes(enabled bool) Option {
	return func(h *Handler) {
		h.debug = enabled
	}
}

func New(svc Service, auth *callbackauth.Service, logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{
		service: svc,
		auth:    auth,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register mounts enrollment endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.public...)
		r.Post("/preregistro/iniciar", h.HandleSubmit)
		r.Post("/vinculacion-agil", h.HandleAgileEnrollment)
		r.Post("/decrim/token", h.HandleCallbackToken)
	})
	r.Get("/preregistro/{id}", h.HandleDetail)
	r.Get("/preregistro/{id}/estado-biometria", h.HandlePollBiometric)
	r.Get("/preregistro/{id}/link-linix", h.HandleCoreBankingLink)
	r.Post("/preregistro/{id}/verificar-linix", h.HandleVerifyCompletion)
	r.Post("/linix/verificar-pendientes", h.HandleBatchVerify)
	r.With(callbackauth.RequireCallbackAuth(h.auth, h.logger)).
		Post("/decrim/webhook", h.HandleCallback)
	if h.debug {
		r.Get("/test/oracle", h.HandleOracleTest)
	}
}

// HandleSubmit handles POST /preregistro/iniciar.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, ok := httputil.DecodeAndPrepare[SubmitRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	userAgent := requestcontext.UserAgent(ctx)
	if userAgent == "" {
		userAgent = r.UserAgent()
	}
	ua := useragent.New(userAgent)
	browser, browserVersion := ua.Browser()

	result, err := h.service.Submit(ctx, service.SubmitCommand{
		DocumentNumber: req.DocumentNumber,
		FullName:       req.FullName,
		DocumentType:   models.DocumentType(*req.DocumentType),
		IssueDate:      req.ParsedIssueDate(),
		Branch:         req.Branch,
		ClientIP:       requestcontext.ClientIP(ctx),
		UserAgent:      userAgent,
	})
	if err != nil {
		msg := "enrollment submission rejected"
		if dErrors.HasCode(err, dErrors.CodeBlocked) {
			msg = "blocked citizen attempted enrollment"
		}
		h.logger.WarnContext(ctx, msg,
			"request_id", requestID,
			"document_number", req.DocumentNumber,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "enrollment submitted",
		"request_id", requestID,
		"record_id", result.Record.ID,
		"created", result.Created,
		"browser", browser,
		"browser_version", browserVersion,
		"os", ua.OS(),
		"mobile", ua.Mobile(),
		"bot", ua.Bot(),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	httputil.WriteJSON(w, status, FromRecord(result.Record, result.CoreBankingLink, nil))
}

// HandlePollBiometric handles GET /preregistro/{id}/estado-biometria.
func (h *Handler) HandlePollBiometric(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.recordID(w, r)
	if !ok {
		return
	}
	result, err := h.service.PollBiometric(ctx, id)
	if err != nil {
		h.logger.ErrorContext(ctx, "biometric poll failed",
			"request_id", requestcontext.RequestID(ctx),
			"record_id", id,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromBiometricStatus(result))
}

// HandleCallbackToken handles POST /decrim/token.
func (h *Handler) HandleCallbackToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[TokenRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	token, err := h.auth.Issue(req.User, req.Password)
	if err != nil {
		h.logger.WarnContext(ctx, "callback token refused",
			"request_id", requestID,
			"client_ip", requestcontext.ClientIP(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, TokenResponse{
		AccessToken: token.AccessToken,
		Token:       token.AccessToken,
		TokenType:   token.TokenType,
		ExpiresIn:   int64(token.ExpiresIn.Seconds()),
	})
}

// HandleCallback handles POST /decrim/webhook. Every answer uses the vendor's
// {status, message} shape.
func (h *Handler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[CallbackRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	result, err := h.service.HandleCallback(ctx, service.CallbackCommand{
		CaseID:         req.CaseID.String(),
		DocumentNumber: req.DocumentNumber.String(),
		Status:         req.Status.String(),
		Justification:  req.Justification.String(),
	})
	if err != nil {
		h.logger.WarnContext(ctx, "biometric callback rejected",
			"request_id", requestID,
			"case_id", req.CaseID.String(),
			"subject", callbackauth.Subject(ctx),
			"error", err,
		)
		writeVendorError(w, err)
		return
	}
	h.logger.InfoContext(ctx, "biometric callback stored",
		"request_id", requestID,
		"record_id", result.RecordID,
		"status", result.Status,
	)
	httputil.WriteJSON(w, http.StatusOK, VendorStatus{Status: "200", Message: result.Message})
}

// HandleCoreBankingLink handles GET /preregistro/{id}/link-linix.
func (h *Handler) HandleCoreBankingLink(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.recordID(w, r)
	if !ok {
		return
	}
	result, err := h.service.RequestCoreBankingLink(ctx, id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, LinkResponse{Link: result.Link, Message: result.Message})
}

// HandleAgileEnrollment handles POST /vinculacion-agil. Failures keep the
// {ok:false, error} shape the enrollment form reads.
func (h *Handler) HandleAgileEnrollment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	applicant, ok := httputil.DecodeAndPrepare[corebanking.Applicant](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	result, err := h.service.SubmitAgileEnrollment(ctx, service.AgileCommand{Applicant: *applicant})
	if err != nil {
		h.logger.WarnContext(ctx, "agile enrollment failed",
			"request_id", requestID,
			"record_id", applicant.PreRegistrationID,
			"error", err,
		)
		writeAgileError(w, err)
		return
	}

	status := http.StatusOK
	if result.StatusCode == http.StatusCreated {
		status = http.StatusCreated
	}
	httputil.WriteJSON(w, status, AgileResponse{
		OK:       true,
		Response: result.Response,
		Message:  result.Message,
		DryRun:   result.DryRun,
	})
}

// HandleVerifyCompletion handles POST /preregistro/{id}/verificar-linix.
// A flow not yet visible in Oracle answers 404 so the page can offer a retry.
func (h *Handler) HandleVerifyCompletion(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.recordID(w, r)
	if !ok {
		return
	}
	result, err := h.service.VerifyCompletion(ctx, id)
	if err != nil {
		h.logger.ErrorContext(ctx, "completion verification failed",
			"request_id", requestcontext.RequestID(ctx),
			"record_id", id,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	status := http.StatusOK
	if !result.Completed {
		status = http.StatusNotFound
	}
	httputil.WriteJSON(w, status, FromVerification(result))
}

// HandleBatchVerify handles POST /linix/verificar-pendientes.
func (h *Handler) HandleBatchVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[BatchRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	result, err := h.service.BatchVerify(ctx, service.BatchCommand{Limit: req.Limit, IDs: req.IDs})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, BatchResponse{
		Processed: result.Processed,
		Completed: result.Completed,
		Errors:    result.Errors,
	})
}

// HandleDetail handles GET /preregistro/{id}.
func (h *Handler) HandleDetail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.recordID(w, r)
	if !ok {
		return
	}
	result, err := h.service.Detail(ctx, id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromRecord(result.Record, result.CoreBankingLink, result.Logs))
}

// HandleOracleTest handles GET /test/oracle. Mounted only in debug mode.
func (h *Handler) HandleOracleTest(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.CheckCoreBanking(r.Context())
	if err != nil {
		message := "No se pudo conectar con Oracle"
		if de, ok := dErrors.As(err); ok {
			message = de.Message
		}
		h.logger.ErrorContext(r.Context(), "oracle connectivity test failed", "error", err)
		httputil.WriteJSON(w, http.StatusInternalServerError, map[string]string{
			"status":  "error",
			"mensaje": message,
		})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"mensaje": result.Message,
	})
}

func (h *Handler) recordID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "Pre-registro no encontrado"))
		return 0, false
	}
	return id, true
}

func writeVendorError(w http.ResponseWriter, err error) {
	status := httputil.StatusFor(dErrors.CodeOf(err))
	message := http.StatusText(status)
	if de, ok := dErrors.As(err); ok && de.Code != dErrors.CodeInternal {
		message = de.Message
	}
	httputil.WriteJSON(w, status, VendorStatus{Status: strconv.Itoa(status), Message: message})
}

func writeAgileError(w http.ResponseWriter, err error) {
	status := httputil.StatusFor(dErrors.CodeOf(err))
	body := map[string]any{"ok": false, "error": "Error inesperado al enviar la vinculación"}
	if de, ok := dErrors.As(err); ok {
		if de.Code != dErrors.CodeInternal {
			body["error"] = de.Message
		}
		for k, v := range de.Details {
			body[k] = v
		}
	}
	httputil.WriteJSON(w, status, body)
}
