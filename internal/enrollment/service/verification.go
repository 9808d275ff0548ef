package service

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"vinculacion/internal/corebanking"
	"vinculacion/internal/enrollment/models"
	"vinculacion/internal/notify"
	dErrors "vinculacion/pkg/domain-errors"
)

const (
	completedMessage = "¡Vinculación completada exitosamente! Un asesor se contactará contigo pronto."
	notFoundMessage  = "No se encontró tu registro en LINIX. Por favor verifica que hayas completado el formulario correctamente."
	retrySuggestion  = "Si completaste el formulario hace menos de 5 minutos, espera un momento e intenta nuevamente."
)

// VerifyCompletion asks Oracle whether the citizen finished the LINIX form and,
// if so, completes the record and notifies downstream systems. A pending flow
// leaves the record untouched so the citizen can retry.
func (s *Service) VerifyCompletion(ctx context.Context, id int64) (*VerificationResult, error) {
	record, err := s.findRecord(ctx, id)
	if err != nil {
		return nil, err
	}
	if !awaitingVerification(record.WorkflowStatus) {
		return nil, dErrors.WithDetails(dErrors.CodeInvalidState, "El estado actual no permite verificación",
			map[string]any{"estado_actual": record.WorkflowStatus})
	}

	check := s.checkFlow(ctx, record, map[string]string{"numero_cedula": record.DocumentNumber})
	if !check.OK() {
		s.logger.ErrorContext(ctx, "core banking verification failed",
			"record_id", record.ID,
			"error", check.Failure.Message,
		)
		return nil, dErrors.WithDetails(dErrors.CodeUpstream, "Error al verificar el registro",
			map[string]any{"detalle": check.Failure.Message})
	}
	if !check.Found {
		return &VerificationResult{Message: notFoundMessage, Suggestion: retrySuggestion}, nil
	}

	if err := s.complete(ctx, record, check); err != nil {
		return nil, err
	}
	return &VerificationResult{
		Completed:          true,
		ExternalCustomerID: record.ExternalCustomerID,
		Message:            completedMessage,
		CoreBankingData:    check.Raw,
	}, nil
}

// BatchVerify runs the completion check over approved records still waiting on
// LINIX. Records are checked independently; one failure never stops the rest.
func (s *Service) BatchVerify(ctx context.Context, cmd BatchCommand) (*BatchResult, error) {
	limit := cmd.Limit
	if limit <= 0 {
		limit = s.batchLimit
	}
	pending, err := s.records.List(ctx, models.PendingVerification(cmd.IDs, limit))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list pending records")
	}

	var (
		mu  sync.Mutex
		out = &BatchResult{Processed: len(pending), Completed: []BatchCompletion{}, Errors: []BatchFailure{}}
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.batchWorkers)
	for _, record := range pending {
		g.Go(func() error {
			completion, failure := s.verifyOne(gctx, record)
			mu.Lock()
			defer mu.Unlock()
			if failure != nil {
				out.Errors = append(out.Errors, *failure)
			} else if completion != nil {
				out.Completed = append(out.Completed, *completion)
			}
			return nil
		})
	}
	_ = g.Wait()

	s.logger.InfoContext(ctx, "batch verification finished",
		"processed", out.Processed,
		"completed", len(out.Completed),
		"errors", len(out.Errors),
	)
	return out, nil
}

func (s *Service) verifyOne(ctx context.Context, record *models.Record) (*BatchCompletion, *BatchFailure) {
	check := s.checkFlow(ctx, record, map[string]string{"numero_cedula": record.DocumentNumber, "origen": "n8n"})
	if !check.OK() {
		return nil, &BatchFailure{ID: record.ID, DocumentNumber: record.DocumentNumber, Error: check.Failure.Message}
	}
	if !check.Found {
		return nil, nil
	}
	if err := s.complete(ctx, record, check); err != nil {
		return nil, &BatchFailure{ID: record.ID, DocumentNumber: record.DocumentNumber, Error: err.Error()}
	}
	return &BatchCompletion{
		ID:                 record.ID,
		DocumentNumber:     record.DocumentNumber,
		FullName:           record.FullName,
		Branch:             record.Branch,
		ExternalCustomerID: record.ExternalCustomerID,
		CompletedAt:        record.CompletedAt,
	}, nil
}

func (s *Service) checkFlow(ctx context.Context, record *models.Record, request map[string]string) corebanking.FlowCheck {
	check := s.coreBanking.VerifyFlowCompleted(ctx, record.DocumentNumber)
	errMsg := ""
	if check.Failure != nil {
		errMsg = check.Failure.Message
	}
	s.recordCall(ctx, record.ID, models.ActionCoreBankingVerification, check.OK(), mustJSON(request), check.Raw, errMsg, check.Elapsed)
	return check
}

// complete marks the record COMPLETED with the Oracle answer, then notifies.
// Notification outcomes are logged and never fail the completion.
func (s *Service) complete(ctx context.Context, record *models.Record, check corebanking.FlowCheck) error {
	now := s.now()
	if err := record.TransitionTo(models.WorkflowCompleted); err != nil {
		return err
	}
	record.ExternalCustomerID = check.ExternalCustomerID
	record.FlowCreated = true
	record.CompletedAt = &now
	record.CoreBankingPayload = check.Raw
	record.LastError = ""
	if err := s.save(ctx, record); err != nil {
		return err
	}
	s.metrics.IncrementCompletion()
	s.logger.InfoContext(ctx, "enrollment completed",
		"record_id", record.ID,
		"external_customer_id", record.ExternalCustomerID,
		"dry_run", check.DryRun,
	)

	var externalID *string
	if record.ExternalCustomerID != "" {
		id := record.ExternalCustomerID
		externalID = &id
	}
	deliveries := s.notifier.Notify(ctx, notify.Completion{
		RecordID:           record.ID,
		DocumentNumber:     record.DocumentNumber,
		FullName:           record.FullName,
		Branch:             record.Branch,
		ExternalCustomerID: externalID,
		CompletedAt:        record.CompletedAt,
	})
	for _, d := range deliveries {
		if d.Skipped {
			continue
		}
		s.metrics.IncrementNotification(d.Channel, d.Success)
		s.recordCall(ctx, record.ID, models.ActionNotificationWebhook, d.Success, d.Request, d.Response, d.Error, d.Elapsed)
		if !d.Success {
			s.logger.WarnContext(ctx, "completion notification failed",
				"record_id", record.ID,
				"channel", d.Channel,
				"error", d.Error,
			)
		}
	}
	return nil
}

func awaitingVerification(status models.WorkflowStatus) bool {
	return status == models.WorkflowInCoreBanking || status == models.WorkflowBiometryOK
}
