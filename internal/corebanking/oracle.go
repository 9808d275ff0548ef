package corebanking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	go_ora "github.com/sijms/go-ora/v2"

	"vinculacion/internal/platform/config"
)

// Procedures is the port onto the core-banking stored procedures.
type Procedures interface {
	// ConsultCustomer runs SP_CONSULTACTU and returns the first column of the
	// first cursor row. found is false when the cursor is empty.
	ConsultCustomer(ctx context.Context, documentNumber, issueDate string) (first string, found bool, err error)
	// FlowStatus runs SP_FLUJOEXITOSO and returns the raw OUT status.
	FlowStatus(ctx context.Context, documentNumber string) (string, error)
	// ThirdPartyID looks up the customer id registered for a document. "" when none.
	ThirdPartyID(ctx context.Context, documentNumber string) (string, error)
	Ping(ctx context.Context) error
}

// OpenOracle opens the go-ora pool. It returns nil when no host is configured.
func OpenOracle(cfg config.OracleConfig) (*sql.DB, error) {
	if strings.TrimSpace(cfg.Host) == "" {
		return nil, nil
	}
	dsn := go_ora.BuildUrl(cfg.Host, cfg.Port, cfg.Service, cfg.User, cfg.Password, nil)
	db, err := sql.Open("oracle", dsn)
	if err != nil {
		return nil, fmt.Errorf("open oracle: %w", err)
	}
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	return db, nil
}

// OracleProcedures implements Procedures over a go-ora connection pool.
type OracleProcedures struct {
	db *sql.DB
}

func NewOracleProcedures(db *sql.DB) *OracleProcedures {
	return &OracleProcedures{db: db}
}

var errNoConnection = errors.New("oracle connection not configured")

func (p *OracleProcedures) ConsultCustomer(ctx context.Context, documentNumber, issueDate string) (string, bool, error) {
	if p.db == nil {
		return "", false, errNoConnection
	}
	var cursor go_ora.RefCursor
	if _, err := p.db.ExecContext(ctx, `BEGIN SP_CONSULTACTU(:1, :2, :3); END;`,
		documentNumber, issueDate, sql.Out{Dest: &cursor}); err != nil {
		return "", false, err
	}
	rows, err := go_ora.WrapRefCursor(ctx, p.db, &cursor)
	if err != nil {
		return "", false, err
	}
	defer rows.Close()

	if !rows.Next() {
		return "", false, rows.Err()
	}
	cols, err := rows.Columns()
	if err != nil {
		return "", false, err
	}
	values := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return "", false, err
	}
	if len(values) == 0 || values[0] == nil {
		return "", true, nil
	}
	return strings.TrimSpace(fmt.Sprint(values[0])), true, nil
}

func (p *OracleProcedures) FlowStatus(ctx context.Context, documentNumber string) (string, error) {
	if p.db == nil {
		return "", errNoConnection
	}
	var estado string
	_, err := p.db.ExecContext(ctx, `BEGIN SP_FLUJOEXITOSO(:1, :2); END;`,
		documentNumber, go_ora.Out{Dest: &estado, Size: 200})
	if err != nil {
		return "", err
	}
	return estado, nil
}

func (p *OracleProcedures) ThirdPartyID(ctx context.Context, documentNumber string) (string, error) {
	if p.db == nil {
		return "", errNoConnection
	}
	var id sql.NullString
	err := p.db.QueryRowContext(ctx,
		`SELECT TO_CHAR(ID_TERCERO) FROM GR_TERCERO WHERE N_IDENTIFICACION = :1 AND ROWNUM = 1`,
		documentNumber).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(id.String), nil
}

func (p *OracleProcedures) Ping(ctx context.Context) error {
	if p.db == nil {
		return errNoConnection
	}
	var one int
	return p.db.QueryRowContext(ctx, `SELECT 1 FROM DUAL`).Scan(&one)
}
