package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/exeat-ng/exeat_backend/internal/apperrors"
	"github.com/exeat-ng/exeat_backend/internal/core/domain"
	portsrepo "github.com/exeat-ng/exeat_backend/internal/core/ports/repositories"
	"github.com/exeat-ng/exeat_backend/internal/models"
	"github.com/exeat-ng/exeat_backend/internal/utils/mapping"
	"github.com/exeat-ng/exeat_backend/internal/utils/pagination"
)

const pgUniqueViolation = "23505"

type PgxExeatRepository struct {
	BaseRepository
}

// NewPgxExeatRepository creates a new repository for exeat request data.
func NewPgxExeatRepository(pool *pgxpool.Pool) portsrepo.ExeatRepositoryFacade {
	return &PgxExeatRepository{BaseRepository: BaseRepository{Pool: pool}}
}

// Ensure PgxExeatRepository implements portsrepo.ExeatRepositoryFacade
var _ portsrepo.ExeatRepositoryFacade = (*PgxExeatRepository)(nil)

func (r *PgxExeatRepository) SaveExeat(ctx context.Context, exeat domain.ExeatRequest) error {
	m := mapping.ToModelExeat(exeat)
	query := `
		INSERT INTO exeats (
			exeat_id, student_id, category, reason, location,
			departure_date, return_date, status, qr_code, submitted_at, approved_at,
			created_at, created_by, last_updated_at, last_updated_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15);
	`
	_, err := r.Pool.Exec(ctx, query,
		m.ExeatID,
		m.StudentID,
		m.Category,
		m.Reason,
		m.Location,
		m.DepartureDate,
		m.ReturnDate,
		m.Status,
		m.QRCode,
		m.SubmittedAt,
		m.ApprovedAt,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return fmt.Errorf("%w: exeat %s", apperrors.ErrDuplicate, m.ExeatID)
		}
		return fmt.Errorf("failed to save exeat %s: %w", m.ExeatID, err)
	}
	return nil
}

func (r *PgxExeatRepository) FindExeatByID(ctx context.Context, exeatID string) (*domain.ExeatRequest, error) {
	query := `
		SELECT exeat_id, student_id, category, reason, location,
		       departure_date, return_date, status, qr_code, submitted_at, approved_at,
		       created_at, created_by, last_updated_at, last_updated_by
		FROM exeats
		WHERE exeat_id = $1;
	`
	var m models.Exeat
	err := r.Pool.QueryRow(ctx, query, exeatID).Scan(
		&m.ExeatID,
		&m.StudentID,
		&m.Category,
		&m.Reason,
		&m.Location,
		&m.DepartureDate,
		&m.ReturnDate,
		&m.Status,
		&m.QRCode,
		&m.SubmittedAt,
		&m.ApprovedAt,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find exeat by ID %s: %w", exeatID, err)
	}

	approvals, err := r.findApprovals(ctx, exeatID)
	if err != nil {
		return nil, err
	}

	exeat := mapping.ToDomainExeat(m, approvals)
	return &exeat, nil
}

func (r *PgxExeatRepository) findApprovals(ctx context.Context, exeatID string) ([]models.ExeatApproval, error) {
	query := `
		SELECT exeat_id, stage, approved, decided_by, decided_at, method, comment
		FROM exeat_approvals
		WHERE exeat_id = $1
		ORDER BY decided_at ASC;
	`
	rows, err := r.Pool.Query(ctx, query, exeatID)
	if err != nil {
		return nil, fmt.Errorf("failed to query approvals for exeat %s: %w", exeatID, err)
	}
	defer rows.Close()

	var approvals []models.ExeatApproval
	for rows.Next() {
		var a models.ExeatApproval
		if err := rows.Scan(&a.ExeatID, &a.Stage, &a.Approved, &a.DecidedBy, &a.DecidedAt, &a.Method, &a.Comment); err != nil {
			return nil, fmt.Errorf("failed to scan approval row: %w", err)
		}
		approvals = append(approvals, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read approval rows: %w", err)
	}
	return approvals, nil
}

func (r *PgxExeatRepository) ListExeatsByStudent(ctx context.Context, studentID string, limit int, nextToken *string) ([]domain.ExeatRequest, *string, error) {
	if limit <= 0 {
		limit = 20
	}

	args := []interface{}{studentID}
	query := `
		SELECT exeat_id, student_id, category, reason, location,
		       departure_date, return_date, status, qr_code, submitted_at, approved_at,
		       created_at, created_by, last_updated_at, last_updated_by
		FROM exeats
		WHERE student_id = $1
	`
	if nextToken != nil {
		submittedAt, exeatID, err := pagination.DecodeToken(*nextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
		}
		query += ` AND (submitted_at, exeat_id) < ($2, $3)`
		args = append(args, submittedAt, exeatID)
	}
	query += fmt.Sprintf(` ORDER BY submitted_at DESC, exeat_id DESC LIMIT %d;`, limit+1)

	return r.queryExeatPage(ctx, query, args, limit)
}

func (r *PgxExeatRepository) ListExeatsByStatus(ctx context.Context, status domain.ExeatStatus, limit int, nextToken *string) ([]domain.ExeatRequest, *string, error) {
	if limit <= 0 {
		limit = 20
	}

	args := []interface{}{string(status)}
	query := `
		SELECT exeat_id, student_id, category, reason, location,
		       departure_date, return_date, status, qr_code, submitted_at, approved_at,
		       created_at, created_by, last_updated_at, last_updated_by
		FROM exeats
		WHERE status = $1
	`
	if nextToken != nil {
		submittedAt, exeatID, err := pagination.DecodeToken(*nextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
		}
		query += ` AND (submitted_at, exeat_id) > ($2, $3)`
		args = append(args, submittedAt, exeatID)
	}
	// Worklists serve approvers oldest-first.
	query += fmt.Sprintf(` ORDER BY submitted_at ASC, exeat_id ASC LIMIT %d;`, limit+1)

	return r.queryExeatPage(ctx, query, args, limit)
}

func (r *PgxExeatRepository) queryExeatPage(ctx context.Context, query string, args []interface{}, limit int) ([]domain.ExeatRequest, *string, error) {
	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list exeats: %w", err)
	}
	defer rows.Close()

	var rowModels []models.Exeat
	for rows.Next() {
		var m models.Exeat
		if err := rows.Scan(
			&m.ExeatID, &m.StudentID, &m.Category, &m.Reason, &m.Location,
			&m.DepartureDate, &m.ReturnDate, &m.Status, &m.QRCode, &m.SubmittedAt, &m.ApprovedAt,
			&m.CreatedAt, &m.CreatedBy, &m.LastUpdatedAt, &m.LastUpdatedBy,
		); err != nil {
			return nil, nil, fmt.Errorf("failed to scan exeat row: %w", err)
		}
		rowModels = append(rowModels, m)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to read exeat rows: %w", err)
	}

	var next *string
	if len(rowModels) > limit {
		rowModels = rowModels[:limit]
		last := rowModels[len(rowModels)-1]
		token := pagination.EncodeToken(last.SubmittedAt, last.ExeatID)
		next = &token
	}

	exeats := make([]domain.ExeatRequest, len(rowModels))
	for i, m := range rowModels {
		// List views are summaries; the ledger is loaded with FindExeatByID.
		exeats[i] = mapping.ToDomainExeat(m, nil)
	}
	return exeats, next, nil
}

func (r *PgxExeatRepository) UpdateStatus(ctx context.Context, exeatID string, expected, next domain.ExeatStatus, updatedBy string, updatedAt time.Time) error {
	query := `
		UPDATE exeats
		SET status = $1, last_updated_at = $2, last_updated_by = $3
		WHERE exeat_id = $4 AND status = $5;
	`
	tag, err := r.Pool.Exec(ctx, query, string(next), updatedAt, updatedBy, exeatID, string(expected))
	if err != nil {
		return fmt.Errorf("failed to update status of exeat %s: %w", exeatID, err)
	}
	if tag.RowsAffected() == 0 {
		return r.classifyMissedUpdate(ctx, exeatID)
	}
	return nil
}

// ApplyDecision performs the atomic decision-check-apply sequence: advance the
// request status conditional on the expected status still holding, then append
// the ledger row. Both happen in one transaction so a racing decision on the
// same request either loses the status compare (ErrConflict) or trips the
// per-stage unique constraint (ErrDuplicateDecision).
func (r *PgxExeatRepository) ApplyDecision(ctx context.Context, exeatID string, expected, next domain.ExeatStatus, stage domain.Stage, record domain.ApprovalRecord, qrCode *string, approvedAt *time.Time) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	updateQuery := `
		UPDATE exeats
		SET status = $1,
		    qr_code = COALESCE($2, qr_code),
		    approved_at = COALESCE($3, approved_at),
		    last_updated_at = $4,
		    last_updated_by = $5
		WHERE exeat_id = $6 AND status = $7;
	`
	tag, err := tx.Exec(ctx, updateQuery,
		string(next), qrCode, approvedAt, record.DecidedAt, record.DecidedBy, exeatID, string(expected))
	if err != nil {
		return fmt.Errorf("failed to advance status of exeat %s: %w", exeatID, err)
	}
	if tag.RowsAffected() == 0 {
		return r.classifyMissedUpdate(ctx, exeatID)
	}

	row := mapping.ToModelApproval(exeatID, stage, record)
	insertQuery := `
		INSERT INTO exeat_approvals (exeat_id, stage, approved, decided_by, decided_at, method, comment)
		VALUES ($1, $2, $3, $4, $5, $6, $7);
	`
	_, err = tx.Exec(ctx, insertQuery,
		row.ExeatID, row.Stage, row.Approved, row.DecidedBy, row.DecidedAt, row.Method, row.Comment)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return fmt.Errorf("%w: exeat %s stage %s", apperrors.ErrDuplicateDecision, exeatID, stage)
		}
		return fmt.Errorf("failed to append approval for exeat %s: %w", exeatID, err)
	}

	return r.Commit(ctx, tx)
}

// classifyMissedUpdate distinguishes a stale status compare from a missing
// row after a conditional update touched nothing.
func (r *PgxExeatRepository) classifyMissedUpdate(ctx context.Context, exeatID string) error {
	var exists bool
	if err := r.Pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM exeats WHERE exeat_id = $1);`, exeatID).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check existence of exeat %s: %w", exeatID, err)
	}
	if !exists {
		return apperrors.ErrNotFound
	}
	return fmt.Errorf("%w: exeat %s changed since it was read", apperrors.ErrConflict, exeatID)
}
