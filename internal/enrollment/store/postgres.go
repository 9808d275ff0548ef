// Package store persists enrollment records and their integration logs.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"vinculacion/internal/enrollment/models"
	"vinculacion/internal/platform/postgres"
	"vinculacion/pkg/platform/sentinel"
	"vinculacion/pkg/platform/tx"
)

// PostgresStore persists records and logs in PostgreSQL. It is pure I/O; state
// transitions are decided by the service.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const recordColumns = `id, document_number, full_name, document_type, issue_date, branch,
	provider_case_id, validation_url, biometric_status, justification, biometric_decided_at,
	failed_attempts, blocked, redirected_at, external_customer_id, flow_created,
	core_banking_payload, workflow_status, completed_at, last_error, client_ip, user_agent,
	created_at, updated_at`

// Create inserts r and sets its id. A taken document number yields sentinel.ErrAlreadyUsed.
func (s *PostgresStore) Create(ctx context.Context, r *models.Record) error {
	query := `
		INSERT INTO enrollment_records (
			document_number, full_name, document_type, issue_date, branch,
			provider_case_id, validation_url, biometric_status, justification, biometric_decided_at,
			failed_attempts, blocked, redirected_at, external_customer_id, flow_created,
			core_banking_payload, workflow_status, completed_at, last_error, client_ip, user_agent,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23)
		RETURNING id
	`
	err := tx.Exec(ctx, s.db).QueryRowContext(ctx, query,
		r.DocumentNumber,
		r.FullName,
		int(r.DocumentType),
		r.IssueDate,
		r.Branch,
		r.ProviderCaseID,
		r.ValidationURL,
		string(r.BiometricStatus),
		r.Justification,
		r.BiometricDecidedAt,
		r.FailedAttempts,
		r.Blocked,
		r.RedirectedAt,
		r.ExternalCustomerID,
		r.FlowCreated,
		jsonParam(r.CoreBankingPayload),
		string(r.WorkflowStatus),
		r.CompletedAt,
		r.LastError,
		r.ClientIP,
		r.UserAgent,
		r.CreatedAt,
		r.UpdatedAt,
	).Scan(&r.ID)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("create enrollment record: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id int64) (*models.Record, error) {
	query := `SELECT ` + recordColumns + ` FROM enrollment_records WHERE id = $1`
	return s.findOne(ctx, "find record by id", query, id)
}

func (s *PostgresStore) FindByDocumentNumber(ctx context.Context, doc string) (*models.Record, error) {
	query := `SELECT ` + recordColumns + ` FROM enrollment_records WHERE document_number = $1`
	return s.findOne(ctx, "find record by document", query, doc)
}

// FindByProviderCaseID returns the most recently created record for the case.
func (s *PostgresStore) FindByProviderCaseID(ctx context.Context, caseID string) (*models.Record, error) {
	if caseID == "" {
		return nil, sentinel.ErrNotFound
	}
	query := `SELECT ` + recordColumns + ` FROM enrollment_records
		WHERE provider_case_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT 1`
	return s.findOne(ctx, "find record by case", query, caseID)
}

func (s *PostgresStore) findOne(ctx context.Context, op, query string, arg any) (*models.Record, error) {
	r, err := scanRecord(tx.Exec(ctx, s.db).QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return r, nil
}

// Update writes every mutable column and stamps updated_at from r.
func (s *PostgresStore) Update(ctx context.Context, r *models.Record) error {
	query := `
		UPDATE enrollment_records SET
			document_number = $2,
			full_name = $3,
			document_type = $4,
			issue_date = $5,
			branch = $6,
			provider_case_id = $7,
			validation_url = $8,
			biometric_status = $9,
			justification = $10,
			biometric_decided_at = $11,
			failed_attempts = $12,
			blocked = $13,
			redirected_at = $14,
			external_customer_id = $15,
			flow_created = $16,
			core_banking_payload = $17,
			workflow_status = $18,
			completed_at = $19,
			last_error = $20,
			client_ip = $21,
			user_agent = $22,
			updated_at = $23
		WHERE id = $1
	`
	result, err := tx.Exec(ctx, s.db).ExecContext(ctx, query,
		r.ID,
		r.DocumentNumber,
		r.FullName,
		int(r.DocumentType),
		r.IssueDate,
		r.Branch,
		r.ProviderCaseID,
		r.ValidationURL,
		string(r.BiometricStatus),
		r.Justification,
		r.BiometricDecidedAt,
		r.FailedAttempts,
		r.Blocked,
		r.RedirectedAt,
		r.ExternalCustomerID,
		r.FlowCreated,
		jsonParam(r.CoreBankingPayload),
		string(r.WorkflowStatus),
		r.CompletedAt,
		r.LastError,
		r.ClientIP,
		r.UserAgent,
		r.UpdatedAt,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("update enrollment record: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update enrollment record rows affected: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// List returns records matching f, oldest first.
func (s *PostgresStore) List(ctx context.Context, f models.RecordFilter) ([]*models.Record, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if len(f.WorkflowStatuses) > 0 {
		statuses := make([]string, len(f.WorkflowStatuses))
		for i, st := range f.WorkflowStatuses {
			statuses[i] = string(st)
		}
		where = append(where, "workflow_status = ANY("+arg(pq.Array(statuses))+")")
	}
	if f.BiometricStatus != "" {
		where = append(where, "biometric_status = "+arg(string(f.BiometricStatus)))
	}
	if f.FlowCreated != nil {
		where = append(where, "flow_created = "+arg(*f.FlowCreated))
	}
	if f.Blocked != nil {
		where = append(where, "blocked = "+arg(*f.Blocked))
	}
	if len(f.IDs) > 0 {
		where = append(where, "id = ANY("+arg(pq.Array(f.IDs))+")")
	}

	query := `SELECT ` + recordColumns + ` FROM enrollment_records`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at ASC, id ASC"
	if f.Limit > 0 {
		query += " LIMIT " + arg(f.Limit)
	}

	rows, err := tx.Exec(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list enrollment records: %w", err)
	}
	defer rows.Close()

	var out []*models.Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan enrollment record: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate enrollment records: %w", err)
	}
	return out, nil
}

// RunInTx runs fn in a transaction; store calls made with the passed context join it.
func (s *PostgresStore) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return tx.Run(ctx, s.db, fn)
}

func (s *PostgresStore) Append(ctx context.Context, e *models.LogEntry) error {
	query := `
		INSERT INTO integration_logs (id, record_id, action, success, request_payload, response_payload, error_message, latency_ms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := tx.Exec(ctx, s.db).ExecContext(ctx, query,
		e.ID,
		e.RecordID,
		string(e.Action),
		e.Success,
		jsonParam(e.RequestPayload),
		jsonParam(e.ResponsePayload),
		e.ErrorMessage,
		e.LatencyMS,
		e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("append integration log: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByRecord(ctx context.Context, recordID int64) ([]*models.LogEntry, error) {
	query := `
		SELECT id, record_id, action, success, request_payload, response_payload, error_message, latency_ms, created_at
		FROM integration_logs
		WHERE record_id = $1
		ORDER BY created_at ASC
	`
	rows, err := tx.Exec(ctx, s.db).QueryContext(ctx, query, recordID)
	if err != nil {
		return nil, fmt.Errorf("list integration logs: %w", err)
	}
	defer rows.Close()

	out := []*models.LogEntry{}
	for rows.Next() {
		var (
			e      models.LogEntry
			action string
			req    []byte
			resp   []byte
		)
		if err := rows.Scan(&e.ID, &e.RecordID, &action, &e.Success, &req, &resp, &e.ErrorMessage, &e.LatencyMS, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan integration log: %w", err)
		}
		e.Action = models.Action(action)
		e.RequestPayload = rawJSON(req)
		e.ResponsePayload = rawJSON(resp)
		out = append(out, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate integration logs: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*models.Record, error) {
	var (
		r            models.Record
		docType      int
		biometric    string
		workflow     string
		decidedAt    sql.NullTime
		redirectedAt sql.NullTime
		completedAt  sql.NullTime
		payload      []byte
	)
	err := row.Scan(
		&r.ID,
		&r.DocumentNumber,
		&r.FullName,
		&docType,
		&r.IssueDate,
		&r.Branch,
		&r.ProviderCaseID,
		&r.ValidationURL,
		&biometric,
		&r.Justification,
		&decidedAt,
		&r.FailedAttempts,
		&r.Blocked,
		&redirectedAt,
		&r.ExternalCustomerID,
		&r.FlowCreated,
		&payload,
		&workflow,
		&completedAt,
		&r.LastError,
		&r.ClientIP,
		&r.UserAgent,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	r.DocumentType = models.DocumentType(docType)
	r.BiometricStatus = models.BiometricStatus(biometric)
	r.WorkflowStatus = models.WorkflowStatus(workflow)
	r.BiometricDecidedAt = nullTime(decidedAt)
	r.RedirectedAt = nullTime(redirectedAt)
	r.CompletedAt = nullTime(completedAt)
	r.CoreBankingPayload = rawJSON(payload)
	return &r, nil
}

// jsonParam passes JSON as text so both drivers accept it for a JSONB column.
func jsonParam(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}

func rawJSON(b []byte) json.RawMessage {
	if len(b) == 0 {
		return nil
	}
	return json.RawMessage(b)
}

func nullTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
