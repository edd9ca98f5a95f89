package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/mothership-gmbh/sw6-simple-api-sub000/internal/domain"
)

// PayloadRepository defines payload queue data access methods
type PayloadRepository interface {
	Create(ctx context.Context, body json.RawMessage) (*domain.Payload, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Payload, error)
	// Claim moves a new or failed payload to processing. It reports false when
	// another worker got there first or the payload is already completed.
	Claim(ctx context.Context, id uuid.UUID) (bool, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.PayloadStatus, errMsg *string) error
	ListIDsByStatus(ctx context.Context, status domain.PayloadStatus, limit int) ([]uuid.UUID, error)
	DeleteOlderThan(ctx context.Context, before time.Time) (int64, error)
}

// Repositories aggregates all repositories
type Repositories struct {
	Payload PayloadRepository
}
