package service

import (
	"context"
	"encoding/json"
	"errors"

	"vinculacion/internal/biometrics"
	"vinculacion/internal/corebanking"
	"vinculacion/internal/enrollment/models"
	dErrors "vinculacion/pkg/domain-errors"
	"vinculacion/pkg/platform/sentinel"
)

const blockedDetail = "El ciudadano se encuentra vetado. Debe comunicarse con Congente para habilitar un nuevo intento."

// Submit starts or resumes an enrollment. An in-flight validation for the same
// document is returned as is; a finished or blocked one is rejected.
func (s *Service) Submit(ctx context.Context, cmd SubmitCommand) (*SubmitResult, error) {
	existing, err := s.records.FindByDocumentNumber(ctx, cmd.DocumentNumber)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load record")
	}

	if existing != nil {
		if existing.Blocked {
			s.metrics.IncrementSubmission("blocked")
			return nil, dErrors.WithDetails(dErrors.CodeBlocked, "Intentos de validacion agotados", map[string]any{
				"detalle":      blockedDetail,
				"codigo":       "VETADO",
				"intentos":     existing.FailedAttempts,
				"max_intentos": s.maxAttempts,
			})
		}
		if existing.WorkflowStatus == models.WorkflowCompleted {
			s.metrics.IncrementSubmission("rejected")
			return nil, dErrors.New(dErrors.CodeBadRequest, "El ciudadano ya completo la vinculacion digital")
		}
		if existing.HasActiveValidation() {
			applyAudit(existing, cmd)
			existing.FullName = cmd.FullName
			existing.DocumentType = cmd.DocumentType
			existing.IssueDate = cmd.IssueDate
			existing.Branch = cmd.Branch
			if err := s.save(ctx, existing); err != nil {
				return nil, err
			}
			s.metrics.IncrementSubmission("reused")
			return &SubmitResult{Record: existing, CoreBankingLink: s.coreBankingLink(existing)}, nil
		}
	}

	check := s.coreBanking.CheckExistingCustomer(ctx, cmd.DocumentNumber, cmd.IssueDate)
	s.metrics.ObserveExternalCall("SP_CONSULTACTU", check.OK(), check.Elapsed)
	if existing != nil {
		s.logCustomerCheck(ctx, existing.ID, cmd, check)
	}
	if !check.OK() {
		s.logger.WarnContext(ctx, "existing customer check failed",
			"document_number", cmd.DocumentNumber,
			"error", check.Failure.Message,
		)
		return nil, dErrors.WithDetails(gatewayCode(check.Failure.Category), "No se pudo validar el estado del asociado", map[string]any{
			"detalle": check.Failure.Message,
		})
	}
	if check.AlreadyCustomer {
		s.metrics.IncrementSubmission("rejected")
		return nil, dErrors.New(dErrors.CodeBadRequest, "El ciudadano ya es asociado y no requiere vinculación digital")
	}

	record, err := s.persistStarted(ctx, existing, cmd)
	if err != nil {
		return nil, err
	}

	reg := s.biometrics.RegisterCase(ctx, biometrics.RegisterRequest{
		DocumentNumber: record.DocumentNumber,
		DocumentType:   int(record.DocumentType),
		FullName:       record.FullName,
	})
	ok := reg.OK() && reg.Success.ValidationURL != ""
	errMsg := reg.ErrorMessage()
	if reg.OK() && !ok {
		errMsg = "Error creando registro en DECRIM"
	}
	s.recordCall(ctx, record.ID, models.ActionBiometricRegistration, ok, reg.Request, reg.Response, errMsg, reg.Elapsed)

	if !ok {
		code := dErrors.CodeBadGateway
		if reg.Failure != nil {
			code = gatewayCode(reg.Failure.Kind)
		}
		record.LastError = errMsg
		if err := record.TransitionTo(models.WorkflowError); err != nil {
			return nil, err
		}
		if err := s.save(ctx, record); err != nil {
			return nil, err
		}
		s.metrics.IncrementSubmission("error")
		s.logger.ErrorContext(ctx, "biometric registration failed",
			"record_id", record.ID,
			"error", errMsg,
		)
		return nil, dErrors.WithDetails(code, "No se pudo generar el link de validación", map[string]any{
			"detalle": errMsg,
		})
	}

	record.ProviderCaseID = reg.Success.CaseID
	record.ValidationURL = reg.Success.ValidationURL
	record.BiometricStatus = models.BiometricInProgress
	if err := s.save(ctx, record); err != nil {
		return nil, err
	}
	s.metrics.IncrementSubmission("created")
	s.logger.InfoContext(ctx, "enrollment started",
		"record_id", record.ID,
		"case_id", record.ProviderCaseID,
	)
	return &SubmitResult{Record: record, Created: true, CoreBankingLink: s.coreBankingLink(record)}, nil
}

// persistStarted creates the record, or resets an existing one for a fresh
// attempt. A concurrent create for the same document loses on the unique index.
func (s *Service) persistStarted(ctx context.Context, existing *models.Record, cmd SubmitCommand) (*models.Record, error) {
	if existing != nil {
		existing.ResetForRetry(cmd.FullName, cmd.DocumentType, cmd.IssueDate, cmd.Branch)
		applyAudit(existing, cmd)
		if err := s.save(ctx, existing); err != nil {
			return nil, err
		}
		return existing, nil
	}

	now := s.now()
	record, err := models.NewRecord(cmd.DocumentNumber, cmd.FullName, cmd.DocumentType, cmd.IssueDate, cmd.Branch, now)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeValidation, "Datos inválidos")
	}
	applyAudit(record, cmd)
	if err := s.records.Create(ctx, record); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			s.metrics.IncrementSubmission("rejected")
			return nil, dErrors.New(dErrors.CodeBadRequest,
				"Ya existe un registro con esta cédula. Si deseas continuar un proceso anterior, contacta soporte.")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create record")
	}
	return record, nil
}

// logCustomerCheck records SP_CONSULTACTU against a resubmitted record. A first
// submission has no record yet, so its check only reaches the metrics.
func (s *Service) logCustomerCheck(ctx context.Context, recordID int64, cmd SubmitCommand, check corebanking.CustomerCheck) {
	req := mustJSON(map[string]string{
		"procedimiento":    "SP_CONSULTACTU",
		"numero_cedula":    cmd.DocumentNumber,
		"fecha_expedicion": cmd.IssueDate.Format("02/01/2006"),
	})
	var resp json.RawMessage
	errMsg := ""
	if check.OK() {
		resp = mustJSON(map[string]bool{"asociado_existente": check.AlreadyCustomer})
	} else {
		errMsg = check.Failure.Message
	}
	s.appendLog(ctx, recordID, models.ActionCoreBankingVerification, check.OK(), req, resp, errMsg, check.Elapsed)
}

func applyAudit(r *models.Record, cmd SubmitCommand) {
	r.ClientIP = cmd.ClientIP
	r.UserAgent = cmd.UserAgent
}
