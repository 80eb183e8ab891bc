package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/makkenzo/sorvide-admin/internal/domain/audit"
	"github.com/makkenzo/sorvide-admin/internal/ierr"
	"go.uber.org/zap"
)

const auditSchema = `
CREATE TABLE IF NOT EXISTS audit_log (
    id          UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    session_id  TEXT NOT NULL DEFAULT '',
    action      TEXT NOT NULL,
    license_key TEXT,
    outcome     TEXT NOT NULL,
    detail      TEXT,
    remote_addr TEXT,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS audit_log_created_at_idx ON audit_log (created_at DESC);
`

type AuditRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewAuditRepository(db *pgxpool.Pool, logger *zap.Logger) *AuditRepository {
	return &AuditRepository{
		db:     db,
		logger: logger.Named("AuditRepository"),
	}
}

var _ audit.Repository = (*AuditRepository)(nil)

// EnsureSchema creates the audit table when it does not exist yet.
func (r *AuditRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, auditSchema); err != nil {
		r.logger.Error("Failed to ensure audit schema", zap.Error(err))
		return fmt.Errorf("database error creating audit schema: %w", err)
	}
	return nil
}

func (r *AuditRepository) Record(ctx context.Context, e *audit.Entry) error {
	query := `
		INSERT INTO audit_log (session_id, action, license_key, outcome, detail, remote_addr)
		VALUES ($1, $2, NULLIF($3, ''), $4, NULLIF($5, ''), NULLIF($6, ''))
		RETURNING id, created_at
	`
	err := r.db.QueryRow(ctx, query,
		e.SessionID,
		e.Action,
		e.LicenseKey,
		e.Outcome,
		e.Detail,
		e.RemoteAddr,
	).Scan(&e.ID, &e.CreatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			r.logger.Warn("Duplicate audit entry id", zap.String("action", string(e.Action)))
			return fmt.Errorf("%w: audit entry already recorded", ierr.ErrConflict)
		}
		r.logger.Error("Failed to insert audit entry", zap.String("action", string(e.Action)), zap.Error(err))
		return fmt.Errorf("database error on record audit entry: %w", err)
	}
	return nil
}

func (r *AuditRepository) ListRecent(ctx context.Context, limit int) ([]*audit.Entry, error) {
	query := `
		SELECT id, session_id, action, license_key, outcome, detail, remote_addr, created_at
		FROM audit_log
		ORDER BY created_at DESC
		LIMIT $1
	`
	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		r.logger.Error("Failed to query audit entries", zap.Error(err))
		return nil, fmt.Errorf("database error on list audit entries: %w", err)
	}
	defer rows.Close()

	entries := make([]*audit.Entry, 0, limit)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			r.logger.Error("Failed to scan audit row", zap.Error(err))
			return nil, fmt.Errorf("database scan error on list audit entries: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating audit rows", zap.Error(err))
		return nil, fmt.Errorf("database iteration error on list audit entries: %w", err)
	}
	return entries, nil
}

func (r *AuditRepository) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM audit_log WHERE created_at < $1`, cutoff)
	if err != nil {
		r.logger.Error("Failed to prune audit entries", zap.Time("cutoff", cutoff), zap.Error(err))
		return 0, fmt.Errorf("database error on prune audit entries: %w", err)
	}
	return cmdTag.RowsAffected(), nil
}

func scanEntry(row pgx.Row) (*audit.Entry, error) {
	var e audit.Entry
	var licenseKey, detail, remoteAddr sql.NullString
	err := row.Scan(
		&e.ID,
		&e.SessionID,
		&e.Action,
		&licenseKey,
		&e.Outcome,
		&detail,
		&remoteAddr,
		&e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	e.LicenseKey = licenseKey.String
	e.Detail = detail.String
	e.RemoteAddr = remoteAddr.String
	return &e, nil
}
