package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/mothership-gmbh/sw6-simple-api-sub000/internal/domain"
	apperrors "github.com/mothership-gmbh/sw6-simple-api-sub000/pkg/errors"
)

type payloadRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPayloadRepository creates a new payload repository
func NewPayloadRepository(db *sql.DB, logger *zap.Logger) *payloadRepository {
	return &payloadRepository{
		db:     db,
		logger: logger,
	}
}

func (r *payloadRepository) Create(ctx context.Context, body json.RawMessage) (*domain.Payload, error) {
	query := `
		INSERT INTO payloads (id, payload, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	now := time.Now()
	p := &domain.Payload{
		ID:        uuid.New(),
		Payload:   body,
		Status:    domain.PayloadStatusNew,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := r.db.ExecContext(ctx, query,
		p.ID,
		[]byte(p.Payload),
		p.Status,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create payload", zap.Error(err))
		return nil, err
	}

	return p, nil
}

func (r *payloadRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Payload, error) {
	query := `
		SELECT id, payload, status, error, created_at, updated_at
		FROM payloads
		WHERE id = $1
	`

	var p domain.Payload
	var body []byte
	var errMsg sql.NullString

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID,
		&body,
		&p.Status,
		&errMsg,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, &apperrors.ErrNotFound{Resource: "payload", ID: id.String()}
	}
	if err != nil {
		r.logger.Error("Failed to get payload by ID", zap.Error(err))
		return nil, err
	}

	p.Payload = body
	if errMsg.Valid {
		p.Error = &errMsg.String
	}
	return &p, nil
}

func (r *payloadRepository) Claim(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `
		UPDATE payloads
		SET status = $2, error = NULL, updated_at = $3
		WHERE id = $1 AND status = ANY($4)
	`

	claimable := domain.Claimable()
	from := make([]string, len(claimable))
	for i, s := range claimable {
		from[i] = string(s)
	}

	result, err := r.db.ExecContext(ctx, query, id, domain.PayloadStatusProcessing, time.Now(), pq.Array(from))
	if err != nil {
		r.logger.Error("Failed to claim payload", zap.Error(err))
		return false, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows == 1, nil
}

func (r *payloadRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.PayloadStatus, errMsg *string) error {
	query := `
		UPDATE payloads
		SET status = $2, error = $3, updated_at = $4
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, id, status, errMsg, time.Now())
	if err != nil {
		r.logger.Error("Failed to update payload status", zap.Error(err))
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return &apperrors.ErrNotFound{Resource: "payload", ID: id.String()}
	}
	return nil
}

func (r *payloadRepository) ListIDsByStatus(ctx context.Context, status domain.PayloadStatus, limit int) ([]uuid.UUID, error) {
	query := `
		SELECT id
		FROM payloads
		WHERE status = $1
		ORDER BY created_at ASC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, status, limit)
	if err != nil {
		r.logger.Error("Failed to list payloads by status", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

func (r *payloadRepository) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	query := `DELETE FROM payloads WHERE created_at < $1`

	result, err := r.db.ExecContext(ctx, query, before)
	if err != nil {
		r.logger.Error("Failed to delete old payloads", zap.Error(err))
		return 0, err
	}
	return result.RowsAffected()
}
