package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"vinculacion/internal/biometrics"
	"vinculacion/internal/callbackauth"
	"vinculacion/internal/corebanking"
	"vinculacion/internal/enrollment/models"
	"vinculacion/internal/enrollment/service"
	"vinculacion/internal/enrollment/store"
	"vinculacion/internal/platform/config"
	"vinculacion/internal/providers"
	"vinculacion/pkg/platform/middleware/metadata"
)

type fakeBiometrics struct {
	register biometrics.RegisterResult
	query    biometrics.QueryResult
}

func (f *fakeBiometrics) RegisterCase(context.Context, biometrics.RegisterRequest) biometrics.RegisterResult {
	return f.register
}

func (f *fakeBiometrics) QueryCase(context.Context, biometrics.QueryRequest) biometrics.QueryResult {
	return f.query
}

type fakeCoreBanking struct {
	customer corebanking.CustomerCheck
	flow     corebanking.FlowCheck
	pingErr  error
}

func (f *fakeCoreBanking) CheckExistingCustomer(context.Context, string, time.Time) corebanking.CustomerCheck {
	return f.customer
}

func (f *fakeCoreBanking) VerifyFlowCompleted(context.Context, string) corebanking.FlowCheck {
	return f.flow
}

func (f *fakeCoreBanking) Ping(context.Context) error { return f.pingErr }

type fakeAgile struct {
	result *corebanking.SubmitResult
	err    error
}

func (f *fakeAgile) SubmitEnrollment(context.Context, corebanking.Payload) (*corebanking.SubmitResult, error) {
	return f.result, f.err
}

// HandlerSuite drives the routes through a real service backed by the memory
// store. Only the external systems are faked.
type HandlerSuite struct {
	suite.Suite
	store  *store.Memory
	bio    *fakeBiometrics
	core   *fakeCoreBanking
	agile  *fakeAgile
	auth   *callbackauth.Service
	logs   *bytes.Buffer
	router http.Handler
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.store = store.NewMemory()
	s.bio = &fakeBiometrics{
		register: biometrics.RegisterResult{Success: &biometrics.RegisterSuccess{CaseID: "777", ValidationURL: "https://decrim/validar/777"}},
	}
	s.core = &fakeCoreBanking{}
	s.agile = &fakeAgile{result: &corebanking.SubmitResult{StatusCode: http.StatusCreated, Response: json.RawMessage(`{"result":0}`)}}
	s.logs = &bytes.Buffer{}
	logger := slog.New(slog.NewTextHandler(s.logs, nil))

	builder := corebanking.NewPayloadBuilder(config.AgileConfig{DefaultBranchCode: "102"},
		corebanking.NewBranchCatalog(map[string]string{"PRINCIPAL": "102"}, "102"))
	svc, err := service.New(s.store, s.store, s.bio, s.core,
		service.WithLogger(logger),
		service.WithAgile(s.agile, builder),
		service.WithCoreBankingLink("https://consulta.congente.coop/lnxPublico.php?nit=CONGENTE"),
	)
	s.Require().NoError(err)

	s.auth = callbackauth.New(config.CallbackConfig{
		Username:   "decrim",
		Password:   "s3cret",
		SigningKey: "signing-key",
		Issuer:     "vinculacion",
		TokenTTL:   5 * time.Minute,
	})
	h := New(svc, s.auth, logger, WithDebugRoutes(true))

	r := chi.NewRouter()
	r.Use(metadata.ClientMetadata)
	r.Route("/api/vinculacion", h.Register)
	s.router = r
}

func (s *HandlerSuite) do(method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *HandlerSuite) decode(rec *httptest.ResponseRecorder) map[string]any {
	var body map[string]any
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func (s *HandlerSuite) seed(doc string, mutate func(r *models.Record)) *models.Record {
	r, err := models.NewRecord(doc, "Ana Ruiz", models.DocumentCC, time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC), "PRINCIPAL", time.Now())
	s.Require().NoError(err)
	if mutate != nil {
		mutate(r)
	}
	s.Require().NoError(s.store.Create(context.Background(), r))
	return r
}

func approved(r *models.Record) {
	r.ProviderCaseID = "777"
	r.ValidationURL = "https://decrim/validar/777"
	r.BiometricStatus = models.BiometricApproved
	r.WorkflowStatus = models.WorkflowBiometryOK
}

func submitBody(doc string) map[string]any {
	return map[string]any{
		"numero_cedula":     doc,
		"nombres_completos": "Ana Ruiz",
		"fecha_expedicion":  "2015-01-01",
		"tipo_documento":    1,
		"agencia":           "PRINCIPAL",
	}
}

func recordPath(id int64, suffix string) string {
	return "/api/vinculacion/preregistro/" + strconv.FormatInt(id, 10) + suffix
}

// =============================================================================
// POST /preregistro/iniciar
// =============================================================================

func (s *HandlerSuite) TestSubmit() {
	s.Run("new enrollment answers 201 with the validation link", func() {
		rec := s.do(http.MethodPost, "/api/vinculacion/preregistro/iniciar", submitBody("123456789"))
		s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())

		body := s.decode(rec)
		s.Equal("123456789", body["numero_cedula"])
		s.Equal("EN_PROCESO", body["estado_biometria"])
		s.Equal("INICIADO", body["estado_vinculacion"])
		s.Equal("https://decrim/validar/777", body["link_biometria"])
		s.Equal("2015-01-01", body["fecha_expedicion"])
		s.Equal(false, body["puede_continuar_a_linix"])

		record, err := s.store.FindByDocumentNumber(context.Background(), "123456789")
		s.Require().NoError(err)
		s.Equal("192.0.2.1", record.ClientIP)
		s.Contains(record.UserAgent, "Chrome")
	})

	s.Run("resubmission answers 200", func() {
		rec := s.do(http.MethodPost, "/api/vinculacion/preregistro/iniciar", submitBody("123456789"))
		s.Equal(http.StatusOK, rec.Code)
	})

	s.Run("invalid body names every field", func() {
		rec := s.do(http.MethodPost, "/api/vinculacion/preregistro/iniciar", map[string]any{
			"numero_cedula":    "12a",
			"fecha_expedicion": "2999-01-01",
			"tipo_documento":   42,
		})
		s.Require().Equal(http.StatusBadRequest, rec.Code)
		body := s.decode(rec)
		s.Equal("Datos inválidos", body["error_description"])
		details, ok := body["detalles"].(map[string]any)
		s.Require().True(ok)
		for _, field := range []string{"numero_cedula", "nombres_completos", "fecha_expedicion", "tipo_documento"} {
			s.Contains(details, field)
		}
	})

	s.Run("malformed JSON", func() {
		rec := s.do(http.MethodPost, "/api/vinculacion/preregistro/iniciar", "{not json")
		s.Equal(http.StatusBadRequest, rec.Code)
	})
}

func (s *HandlerSuite) TestSubmitBlocked() {
	s.seed("555555", func(r *models.Record) {
		r.Blocked = true
		r.FailedAttempts = 2
		r.WorkflowStatus = models.WorkflowError
	})

	rec := s.do(http.MethodPost, "/api/vinculacion/preregistro/iniciar", submitBody("555555"))
	s.Require().Equal(http.StatusForbidden, rec.Code)
	body := s.decode(rec)
	s.Equal("VETADO", body["codigo"])
	s.Equal(float64(2), body["intentos"])
	s.Equal(float64(2), body["max_intentos"])
	s.NotEmpty(body["detalle"])
	s.Contains(s.logs.String(), "blocked citizen attempted enrollment")
}

func (s *HandlerSuite) TestSubmitUpstreamFailure() {
	s.bio.register = biometrics.RegisterResult{Failure: &biometrics.Failure{Message: "Timeout: El proveedor no respondio a tiempo"}}

	rec := s.do(http.MethodPost, "/api/vinculacion/preregistro/iniciar", submitBody("123456789"))
	s.Require().Equal(http.StatusBadGateway, rec.Code)
	s.Contains(s.decode(rec)["detalle"], "Timeout")
}

func (s *HandlerSuite) TestSubmitVendorTimeout() {
	s.bio.register = biometrics.RegisterResult{Failure: &biometrics.Failure{Kind: providers.ErrorTimeout, Message: "Timeout: El proveedor no respondio a tiempo"}}

	rec := s.do(http.MethodPost, "/api/vinculacion/preregistro/iniciar", submitBody("123456789"))
	s.Require().Equal(http.StatusGatewayTimeout, rec.Code)
	s.Equal("timeout", s.decode(rec)["error"])
}

// =============================================================================
// Biometric status, link and verification
// =============================================================================

func (s *HandlerSuite) TestPollBiometric() {
	r := s.seed("123456789", func(r *models.Record) {
		r.ProviderCaseID = "777"
		r.BiometricStatus = models.BiometricInProgress
	})
	s.bio.query = biometrics.QueryResult{Success: &biometrics.QuerySuccess{StatusCode: "5", CaseID: "777", Justification: "E01"}}

	rec := s.do(http.MethodGet, recordPath(r.ID, "/estado-biometria"), nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	body := s.decode(rec)
	s.Equal("APROBADO", body["estado_biometria"])
	s.Equal(true, body["puede_continuar"])
	s.Equal("E01", body["justificacion"])

	s.Equal(http.StatusNotFound, s.do(http.MethodGet, "/api/vinculacion/preregistro/999/estado-biometria", nil).Code)
	s.Equal(http.StatusNotFound, s.do(http.MethodGet, "/api/vinculacion/preregistro/abc/estado-biometria", nil).Code)
}

func (s *HandlerSuite) TestCoreBankingLink() {
	pending := s.seed("111111", nil)
	rec := s.do(http.MethodGet, recordPath(pending.ID, "/link-linix"), nil)
	s.Require().Equal(http.StatusBadRequest, rec.Code)
	s.Equal("PENDIENTE", s.decode(rec)["estado_biometria"])

	ok := s.seed("222222", approved)
	rec = s.do(http.MethodGet, recordPath(ok.ID, "/link-linix"), nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	body := s.decode(rec)
	s.Contains(body["link_linix"], "N_IDENTIFICACION=222222")
	s.NotEmpty(body["mensaje"])
}

func (s *HandlerSuite) TestVerifyCompletion() {
	r := s.seed("123456789", approved)

	s.core.flow = corebanking.FlowCheck{Status: corebanking.FlowPending}
	rec := s.do(http.MethodPost, recordPath(r.ID, "/verificar-linix"), nil)
	s.Require().Equal(http.StatusNotFound, rec.Code)
	body := s.decode(rec)
	s.Equal(false, body["completado"])
	s.NotEmpty(body["sugerencia"])

	s.core.flow = corebanking.FlowCheck{Found: true, ExternalCustomerID: "884120", Raw: json.RawMessage(`{"estado":"OK"}`)}
	rec = s.do(http.MethodPost, recordPath(r.ID, "/verificar-linix"), nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	body = s.decode(rec)
	s.Equal(true, body["completado"])
	s.Equal("884120", body["id_tercero"])
	s.Equal(map[string]any{"estado": "OK"}, body["datos_oracle"])

	rec = s.do(http.MethodPost, recordPath(r.ID, "/verificar-linix"), nil)
	s.Equal(http.StatusBadRequest, rec.Code, "completed records cannot be verified again")
}

func (s *HandlerSuite) TestBatchVerify() {
	rec := s.do(http.MethodPost, "/api/vinculacion/linix/verificar-pendientes", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	body := s.decode(rec)
	s.Equal(float64(0), body["processed"])
	s.Equal([]any{}, body["completed"])
	s.Equal([]any{}, body["errors"])

	r := s.seed("123456789", approved)
	s.core.flow = corebanking.FlowCheck{Found: true, ExternalCustomerID: "1"}
	rec = s.do(http.MethodPost, "/api/vinculacion/linix/verificar-pendientes", map[string]any{"ids": []int64{r.ID}, "limit": 5})
	s.Require().Equal(http.StatusOK, rec.Code)
	body = s.decode(rec)
	s.Equal(float64(1), body["processed"])
	s.Len(body["completed"], 1)
}

func (s *HandlerSuite) TestDetail() {
	r := s.seed("123456789", approved)
	s.core.flow = corebanking.FlowCheck{Status: corebanking.FlowPending}
	s.do(http.MethodPost, recordPath(r.ID, "/verificar-linix"), nil)

	rec := s.do(http.MethodGet, recordPath(r.ID, ""), nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	body := s.decode(rec)
	s.Equal(true, body["puede_continuar_a_linix"])
	s.Contains(body["link_linix"], "N_IDENTIFICACION=123456789")
	logs, ok := body["logs"].([]any)
	s.Require().True(ok)
	s.Require().Len(logs, 1)
	s.Equal("VERIFICACION_ORACLE", logs[0].(map[string]any)["accion"])

	s.Equal(http.StatusNotFound, s.do(http.MethodGet, "/api/vinculacion/preregistro/404", nil).Code)
}

// =============================================================================
// Vendor token and webhook
// =============================================================================

func (s *HandlerSuite) token() string {
	rec := s.do(http.MethodPost, "/api/vinculacion/decrim/token", map[string]string{"user": "decrim", "password": "s3cret"})
	s.Require().Equal(http.StatusOK, rec.Code)
	body := s.decode(rec)
	s.Equal("Bearer", body["token_type"])
	s.Equal(float64(300), body["expires_in"])
	s.Equal(body["access_token"], body["token"])
	return body["access_token"].(string)
}

func (s *HandlerSuite) TestCallbackToken() {
	s.token()

	rec := s.do(http.MethodPost, "/api/vinculacion/decrim/token", map[string]string{"user": "decrim"})
	s.Equal(http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, "/api/vinculacion/decrim/token", map[string]string{"user": "decrim", "password": "nope"})
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *HandlerSuite) TestCallback() {
	r := s.seed("123456789", func(r *models.Record) {
		r.ProviderCaseID = "777"
		r.BiometricStatus = models.BiometricInProgress
	})
	bearer := "Bearer " + s.token()

	s.Run("approved verdict is stored", func() {
		rec := s.do(http.MethodPost, "/api/vinculacion/decrim/webhook",
			`{"Idcaso": 777, "Estado": "5", "Justificacion": "E01"}`, "Authorization", bearer)
		s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
		body := s.decode(rec)
		s.Equal("200", body["status"])
		s.Equal("Caso ID 777 recibido y almacenado con exito.", body["message"])

		stored, err := s.store.FindByID(context.Background(), r.ID)
		s.Require().NoError(err)
		s.Equal(models.BiometricApproved, stored.BiometricStatus)
		s.Equal(models.WorkflowBiometryOK, stored.WorkflowStatus)
	})

	s.Run("missing ids", func() {
		rec := s.do(http.MethodPost, "/api/vinculacion/decrim/webhook", `{"Estado": "5"}`, "Authorization", bearer)
		s.Require().Equal(http.StatusBadRequest, rec.Code)
		s.Equal(map[string]any{"status": "400", "message": "Idcaso o Dni requerido"}, s.decode(rec))
	})

	s.Run("unknown case", func() {
		rec := s.do(http.MethodPost, "/api/vinculacion/decrim/webhook", `{"Idcaso": "404"}`, "Authorization", bearer)
		s.Require().Equal(http.StatusNotFound, rec.Code)
		s.Equal("404", s.decode(rec)["status"])
	})

	s.Run("missing token", func() {
		rec := s.do(http.MethodPost, "/api/vinculacion/decrim/webhook", `{"Idcaso": "777"}`)
		s.Require().Equal(http.StatusUnauthorized, rec.Code)
		s.Equal("401", s.decode(rec)["status"])
	})
}

// =============================================================================
// Agile enrollment and diagnostics
// =============================================================================

func (s *HandlerSuite) TestAgileEnrollment() {
	s.Run("missing fields are named", func() {
		rec := s.do(http.MethodPost, "/api/vinculacion/vinculacion-agil", `{"primerNombre": "Ana"}`)
		s.Require().Equal(http.StatusBadRequest, rec.Code)
		body := s.decode(rec)
		s.Equal(false, body["ok"])
		s.Contains(body["error"], "Campos obligatorios faltantes")
		s.NotEmpty(body["campos_faltantes"])
	})

	s.Run("unknown pre-registration", func() {
		rec := s.do(http.MethodPost, "/api/vinculacion/vinculacion-agil", `{"preregistroId": 999}`)
		s.Require().Equal(http.StatusNotFound, rec.Code)
		s.Equal(false, s.decode(rec)["ok"])
	})
}

func (s *HandlerSuite) TestOracleTest() {
	rec := s.do(http.MethodGet, "/api/vinculacion/test/oracle", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Equal("success", s.decode(rec)["status"])

	s.core.pingErr = errors.New("ORA-12514")
	rec = s.do(http.MethodGet, "/api/vinculacion/test/oracle", nil)
	s.Require().Equal(http.StatusInternalServerError, rec.Code)
	s.Equal("No se pudo conectar con Oracle", s.decode(rec)["mensaje"])
}

func TestOracleTestRouteRequiresDebug(t *testing.T) {
	h := New(nil, callbackauth.New(config.CallbackConfig{}), slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
	r := chi.NewRouter()
	h.Register(r)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/test/oracle", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 without debug routes, got %d", rec.Code)
	}
}
