package store

import (
	"context"
	"database/sql/driver"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vinculacion/internal/enrollment/models"
	"vinculacion/pkg/platform/sentinel"
)

var recordColumnNames = []string{
	"id", "document_number", "full_name", "document_type", "issue_date", "branch",
	"provider_case_id", "validation_url", "biometric_status", "justification", "biometric_decided_at",
	"failed_attempts", "blocked", "redirected_at", "external_customer_id", "flow_created",
	"core_banking_payload", "workflow_status", "completed_at", "last_error", "client_ip", "user_agent",
	"created_at", "updated_at",
}

func recordRow(id int64, doc string, payload []byte, completed any) []driver.Value {
	now := time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)
	return []driver.Value{
		id, doc, "Maria Nunez", int64(1), time.Date(2015, 3, 9, 0, 0, 0, 0, time.UTC), "PRINCIPAL",
		"777", "https://decrim/validar", "APROBADO", "", now,
		int64(0), false, nil, "884120", true,
		payload, "COMPLETADO", completed, "", "10.0.0.1", "Mozilla/5.0",
		now, now,
	}
}

func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgres(db), mock
}

func TestPostgresCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the generated id", func(t *testing.T) {
		s, mock := newMockStore(t)
		mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO enrollment_records")).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(41)))

		r := newRecord(t, "1032456", time.Now())
		require.NoError(t, s.Create(ctx, r))
		assert.Equal(t, int64(41), r.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unique violation maps to already used", func(t *testing.T) {
		s, mock := newMockStore(t)
		mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO enrollment_records")).
			WillReturnError(&pgconn.PgError{Code: "23505"})

		err := s.Create(ctx, newRecord(t, "1032456", time.Now()))
		assert.ErrorIs(t, err, sentinel.ErrAlreadyUsed)
	})
}

func TestPostgresFindByDocumentNumber(t *testing.T) {
	ctx := context.Background()

	t.Run("scans nullable columns", func(t *testing.T) {
		s, mock := newMockStore(t)
		completed := time.Date(2026, 10, 17, 10, 0, 0, 0, time.UTC)
		mock.ExpectQuery(regexp.QuoteMeta("FROM enrollment_records WHERE document_number = $1")).
			WithArgs("1032456").
			WillReturnRows(sqlmock.NewRows(recordColumnNames).AddRow(recordRow(7, "1032456", []byte(`{"ok":true}`), completed)...))

		r, err := s.FindByDocumentNumber(ctx, "1032456")
		require.NoError(t, err)
		assert.Equal(t, int64(7), r.ID)
		assert.Equal(t, models.DocumentCC, r.DocumentType)
		assert.Equal(t, models.WorkflowCompleted, r.WorkflowStatus)
		assert.Nil(t, r.RedirectedAt)
		require.NotNil(t, r.CompletedAt)
		assert.True(t, completed.Equal(*r.CompletedAt))
		assert.JSONEq(t, `{"ok":true}`, string(r.CoreBankingPayload))
	})

	t.Run("no rows is not found", func(t *testing.T) {
		s, mock := newMockStore(t)
		mock.ExpectQuery("FROM enrollment_records").WillReturnRows(sqlmock.NewRows(recordColumnNames))

		_, err := s.FindByDocumentNumber(ctx, "1")
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})
}

func TestPostgresUpdateMissingRow(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE enrollment_records SET")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.Update(context.Background(), &models.Record{ID: 99})
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestPostgresListBuildsFilter(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta(
		"WHERE workflow_status = ANY($1) AND biometric_status = $2 AND flow_created = $3 AND id = ANY($4) ORDER BY created_at ASC, id ASC LIMIT $5")).
		WithArgs(sqlmock.AnyArg(), "APROBADO", false, sqlmock.AnyArg(), 10).
		WillReturnRows(sqlmock.NewRows(recordColumnNames).
			AddRow(recordRow(1, "1", nil, nil)...).
			AddRow(recordRow(2, "2", nil, nil)...))

	out, err := s.List(context.Background(), models.PendingVerification([]int64{1, 2}, 10))
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Nil(t, out[0].CoreBankingPayload)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRunInTxCommitsAndRollsBack(t *testing.T) {
	ctx := context.Background()

	t.Run("commit", func(t *testing.T) {
		s, mock := newMockStore(t)
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO integration_logs")).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := s.RunInTx(ctx, func(ctx context.Context) error {
			return s.Append(ctx, models.NewLogEntry(1, models.ActionNotificationWebhook, true, nil, nil, "", 0, time.Now()))
		})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rollback", func(t *testing.T) {
		s, mock := newMockStore(t)
		mock.ExpectBegin()
		mock.ExpectRollback()

		err := s.RunInTx(ctx, func(context.Context) error { return sentinel.ErrInvalidState })
		assert.ErrorIs(t, err, sentinel.ErrInvalidState)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
