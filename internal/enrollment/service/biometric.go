package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"vinculacion/internal/biometrics"
	"vinculacion/internal/enrollment/models"
	dErrors "vinculacion/pkg/domain-errors"
	"vinculacion/pkg/platform/sentinel"
)

const (
	rejectedMessage = "Validacion de identidad rechazada."
	blockedSuffix   = " Debe comunicarse con Congente para habilitar un nuevo intento."
	waitingMessage  = "Esperando validación biométrica. Por favor completa el proceso en la ventana del proveedor."
	linkMessage     = "Por favor completa el formulario de vinculación en LINIX. Una vez termines, regresa a esta página."
)

// PollBiometric refreshes the biometric verdict from the vendor. Records with a
// final verdict are answered from storage.
func (s *Service) PollBiometric(ctx context.Context, id int64) (*BiometricStatusResult, error) {
	record, err := s.findRecord(ctx, id)
	if err != nil {
		return nil, err
	}

	if record.BiometricStatus.IsTerminal() {
		return &BiometricStatusResult{
			Status:        record.BiometricStatus,
			CanContinue:   record.CanContinue(),
			Blocked:       record.Blocked,
			Justification: record.Justification,
			Message:       "Estado ya determinado previamente",
		}, nil
	}

	res := s.biometrics.QueryCase(ctx, biometrics.QueryRequest{
		DocumentNumber: record.DocumentNumber,
		CaseID:         record.ProviderCaseID,
	})
	s.recordCall(ctx, record.ID, models.ActionBiometricQuery, res.OK(),
		mustJSON(map[string]string{"numero_cedula": record.DocumentNumber}), res.Response, res.ErrorMessage(), res.Elapsed)

	if !res.OK() {
		return s.pollFailure(ctx, record, res.Failure)
	}

	verdict, description := biometrics.NormalizeStatus(ctx, s.logger, res.Success.StatusCode)
	if models.BiometricStatus(verdict) != record.BiometricStatus {
		s.logger.InfoContext(ctx, "biometric status changed",
			"record_id", record.ID,
			"from", record.BiometricStatus,
			"to", verdict,
		)
		s.applyVerdict(ctx, record, verdict, res.Success.CaseID, res.Success.Justification, "poll")
		if err := s.save(ctx, record); err != nil {
			return nil, err
		}
	}

	out := &BiometricStatusResult{
		Status:        models.BiometricStatus(verdict),
		CanContinue:   record.CanContinue(),
		Blocked:       record.Blocked,
		Justification: res.Success.Justification,
		Message:       description,
	}
	if record.Blocked {
		out.Message = record.LastError
	}
	return out, nil
}

func (s *Service) pollFailure(ctx context.Context, record *models.Record, f *biometrics.Failure) (*BiometricStatusResult, error) {
	switch f.Hint {
	case biometrics.HintNotFound, biometrics.HintInProgress:
		s.logger.InfoContext(ctx, "biometric query without final verdict",
			"record_id", record.ID,
			"hint", f.Hint,
		)
		if record.BiometricStatus == models.BiometricPending {
			record.BiometricStatus = models.BiometricInProgress
			if err := s.save(ctx, record); err != nil {
				return nil, err
			}
		}
		return &BiometricStatusResult{
			Status:  models.BiometricInProgress,
			Message: waitingMessage,
		}, nil
	case biometrics.HintNotAuthorized:
		s.logger.WarnContext(ctx, "biometric query not authorized", "record_id", record.ID)
		return nil, dErrors.New(dErrors.CodeBadGateway, f.Message)
	default:
		s.logger.ErrorContext(ctx, "biometric query failed",
			"record_id", record.ID,
			"error", f.Message,
		)
		return nil, dErrors.WithDetails(dErrors.CodeUpstream, f.Message, map[string]any{
			"estado_biometria": record.BiometricStatus,
		})
	}
}

// applyVerdict moves the biometric sub-state. A final verdict is sticky: once
// APPROVED or REJECTED, later verdicts leave the record unchanged.
func (s *Service) applyVerdict(ctx context.Context, r *models.Record, verdict biometrics.Verdict, caseID, justification, source string) bool {
	if r.BiometricStatus.IsTerminal() {
		return false
	}
	now := s.now()
	r.BiometricStatus = models.BiometricStatus(verdict)
	if caseID != "" {
		r.ProviderCaseID = caseID
	}
	if justification != "" {
		r.Justification = justification
	}

	switch verdict {
	case biometrics.VerdictApproved:
		r.BiometricDecidedAt = &now
		if err := r.TransitionTo(models.WorkflowBiometryOK); err != nil {
			s.logger.WarnContext(ctx, "approved record keeps its workflow state",
				"record_id", r.ID,
				"workflow", r.WorkflowStatus,
			)
		}
	case biometrics.VerdictRejected:
		r.BiometricDecidedAt = &now
		r.FailedAttempts++
		r.LastError = rejectedMessage
		if r.FailedAttempts >= s.maxAttempts {
			r.Blocked = true
			r.LastError = rejectedMessage + blockedSuffix
		}
		_ = r.TransitionTo(models.WorkflowError)
	}
	s.metrics.IncrementVerdict(string(verdict), source)
	return true
}

// HandleCallback applies a verdict pushed by the vendor. The record is found by
// case id, falling back to the document number.
func (s *Service) HandleCallback(ctx context.Context, cmd CallbackCommand) (*CallbackResult, error) {
	if cmd.CaseID == "" && cmd.DocumentNumber == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "Idcaso o Dni requerido")
	}

	var out *CallbackResult
	err := s.records.RunInTx(ctx, func(ctx context.Context) error {
		record, err := s.findForCallback(ctx, cmd)
		if err != nil {
			return err
		}

		verdict, _ := biometrics.NormalizeStatus(ctx, s.logger, cmd.Status)
		if !s.applyVerdict(ctx, record, verdict, cmd.CaseID, cmd.Justification, "callback") {
			s.logger.InfoContext(ctx, "callback for record with final verdict ignored",
				"record_id", record.ID,
				"status", record.BiometricStatus,
				"incoming", verdict,
			)
		} else if err := s.save(ctx, record); err != nil {
			return err
		}

		caseID := record.ProviderCaseID
		if caseID == "" {
			caseID = record.DocumentNumber
		}
		out = &CallbackResult{
			RecordID: record.ID,
			Status:   record.BiometricStatus,
			Message:  fmt.Sprintf("Caso ID %s recibido y almacenado con exito.", caseID),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) findForCallback(ctx context.Context, cmd CallbackCommand) (*models.Record, error) {
	var (
		record *models.Record
		err    error
	)
	if cmd.CaseID != "" {
		record, err = s.records.FindByProviderCaseID(ctx, cmd.CaseID)
	}
	if record == nil && cmd.DocumentNumber != "" && (err == nil || errors.Is(err, sentinel.ErrNotFound)) {
		record, err = s.records.FindByDocumentNumber(ctx, cmd.DocumentNumber)
	}
	if record != nil {
		return record, nil
	}
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load record")
	}
	key := cmd.CaseID
	if key == "" {
		key = cmd.DocumentNumber
	}
	return nil, dErrors.New(dErrors.CodeNotFound, fmt.Sprintf("Caso ID %s no encontrado.", key))
}

// RequestCoreBankingLink hands an approved citizen over to the LINIX form.
func (s *Service) RequestCoreBankingLink(ctx context.Context, id int64) (*LinkResult, error) {
	record, err := s.findRecord(ctx, id)
	if err != nil {
		return nil, err
	}
	if !record.CanContinue() {
		s.logger.WarnContext(ctx, "core banking link requested without approved biometrics", "record_id", record.ID)
		return nil, dErrors.WithDetails(dErrors.CodeInvalidState,
			"Debes completar la validación biométrica exitosamente antes de continuar",
			map[string]any{"estado_biometria": record.BiometricStatus})
	}

	if record.WorkflowStatus.CanTransitionTo(models.WorkflowInCoreBanking) {
		now := s.now()
		record.WorkflowStatus = models.WorkflowInCoreBanking
		record.RedirectedAt = &now
		if err := s.save(ctx, record); err != nil {
			return nil, err
		}
	}
	return &LinkResult{Link: s.coreBankingLink(record), Message: linkMessage}, nil
}

func (s *Service) coreBankingLink(r *models.Record) string {
	u, err := url.Parse(s.linkBase)
	if err != nil || s.linkBase == "" {
		return s.linkBase
	}
	q := u.Query()
	q.Set("N_IDENTIFICACION", r.DocumentNumber)
	u.RawQuery = q.Encode()
	return u.String()
}
