package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"vinculacion/internal/enrollment/models"
	"vinculacion/internal/providers"
	dErrors "vinculacion/pkg/domain-errors"
	"vinculacion/pkg/platform/sentinel"
)

// SubmitAgileEnrollment builds the LINIX enrollment frame from the applicant
// profile and submits it. When the applicant references a pre-registration,
// the call is logged against that record and the LINIX answer is kept on it.
func (s *Service) SubmitAgileEnrollment(ctx context.Context, cmd AgileCommand) (*AgileResult, error) {
	if s.agile == nil || s.builder == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "agile enrollment is not configured")
	}

	var record *models.Record
	if id := cmd.Applicant.PreRegistrationID; id > 0 {
		r, err := s.records.FindByID(ctx, id)
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			return nil, dErrors.New(dErrors.CodeNotFound, "Pre-registro no encontrado")
		case err != nil:
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load record")
		}
		if !r.CanContinue() {
			return nil, dErrors.WithDetails(dErrors.CodeInvalidState,
				"Debes completar la validación biométrica exitosamente antes de continuar",
				map[string]any{"estado_biometria": r.BiometricStatus})
		}
		record = r
	}

	payload, err := s.builder.Build(cmd.Applicant, record)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	res, err := s.agile.SubmitEnrollment(ctx, payload)
	elapsed := time.Since(start)
	recordID := int64(0)
	if record != nil {
		recordID = record.ID
	}
	if err != nil {
		msg := providers.MessageOf(err)
		s.recordCall(ctx, recordID, models.ActionAgileEnrollment, false, mustJSON(payload), nil, msg, elapsed)
		s.logger.ErrorContext(ctx, "agile enrollment failed",
			"record_id", recordID,
			"error", err,
		)
		if providers.GetCategory(err) == providers.ErrorConfiguration {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "LINIX no configurado")
		}
		return nil, dErrors.WithDetails(gatewayCode(providers.GetCategory(err)), msg, map[string]any{"detalle": msg})
	}
	s.recordCall(ctx, recordID, models.ActionAgileEnrollment, true, mustJSON(payload), res.Response, "", elapsed)

	if record != nil {
		record.CoreBankingPayload = json.RawMessage(res.Response)
		if record.WorkflowStatus.CanTransitionTo(models.WorkflowInCoreBanking) {
			record.WorkflowStatus = models.WorkflowInCoreBanking
		}
		if err := s.save(ctx, record); err != nil {
			return nil, err
		}
	}

	message := "Vinculación enviada a LINIX."
	if res.DryRun {
		message = "Vinculación simulada en modo local."
	}
	return &AgileResult{
		StatusCode: res.StatusCode,
		Response:   res.Response,
		DryRun:     res.DryRun,
		Message:    message,
	}, nil
}

// CheckCoreBanking pings Oracle.
func (s *Service) CheckCoreBanking(ctx context.Context) (*ConnectivityResult, error) {
	if err := s.coreBanking.Ping(ctx); err != nil {
		s.logger.ErrorContext(ctx, "oracle connectivity test failed", "error", err)
		return nil, dErrors.Wrap(err, dErrors.CodeUpstream, "No se pudo conectar con Oracle")
	}
	return &ConnectivityResult{Message: "Conexión con Oracle exitosa"}, nil
}
