package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mothership-gmbh/sw6-simple-api-sub000/internal/domain"
	"github.com/mothership-gmbh/sw6-simple-api-sub000/internal/product"
	"github.com/mothership-gmbh/sw6-simple-api-sub000/internal/repository"
	apperrors "github.com/mothership-gmbh/sw6-simple-api-sub000/pkg/errors"
)

const batchSize = 100

// ProductCreator writes one product request to the platform.
type ProductCreator interface {
	Create(ctx context.Context, raw map[string]interface{}) (*product.Result, error)
}

// Handler stores product payloads and processes them later.
type Handler struct {
	repo       repository.PayloadRepository
	products   ProductCreator
	dispatcher Dispatcher
	subject    string
	logger     *zap.Logger
}

func NewHandler(repo repository.PayloadRepository, products ProductCreator, dispatcher Dispatcher, subject string, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if dispatcher == nil {
		dispatcher = NoopDispatcher{}
	}
	return &Handler{
		repo:       repo,
		products:   products,
		dispatcher: dispatcher,
		subject:    subject,
		logger:     logger,
	}
}

// Enqueue stores body as a new payload and announces it. A failed announcement
// is only logged since the drain loop picks the row up anyway.
func (h *Handler) Enqueue(ctx context.Context, body json.RawMessage) (*domain.Payload, error) {
	var probe map[string]interface{}
	if err := json.Unmarshal(body, &probe); err != nil {
		return nil, apperrors.NewValidation(apperrors.CodeInvalidPayload, "", "payload must be a JSON object")
	}

	p, err := h.repo.Create(ctx, body)
	if err != nil {
		return nil, fmt.Errorf("failed to store payload: %w", err)
	}

	if err := h.dispatcher.Dispatch(ctx, h.subject, domain.PayloadMessage{PayloadID: p.ID.String()}); err != nil {
		h.logger.Warn("Failed to dispatch payload", zap.String("payload_id", p.ID.String()), zap.Error(err))
	}

	h.logger.Info("Payload stored", zap.String("payload_id", p.ID.String()))
	return p, nil
}

// Handle processes one stored payload. Payloads already taken by another worker
// are skipped. Failures are recorded on the row and returned as *errors.ErrProcessing.
func (h *Handler) Handle(ctx context.Context, id uuid.UUID) error {
	p, err := h.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	claimed, err := h.repo.Claim(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to claim payload: %w", err)
	}
	if !claimed {
		h.logger.Debug("Payload already handled", zap.String("payload_id", id.String()), zap.String("status", string(p.Status)))
		return nil
	}

	result, err := h.process(ctx, p)
	if err != nil {
		msg := err.Error()
		if updateErr := h.repo.UpdateStatus(ctx, id, domain.PayloadStatusError, &msg); updateErr != nil {
			h.logger.Error("Failed to record payload error", zap.String("payload_id", id.String()), zap.Error(updateErr))
		}
		h.logger.Warn("Payload failed", zap.String("payload_id", id.String()), zap.Error(err))
		return &apperrors.ErrProcessing{PayloadID: id.String(), Err: err}
	}

	if err := h.repo.UpdateStatus(ctx, id, domain.PayloadStatusCompleted, nil); err != nil {
		return fmt.Errorf("failed to complete payload: %w", err)
	}

	h.logger.Info("Payload processed",
		zap.String("payload_id", id.String()),
		zap.String("product_id", result.ID),
		zap.String("sku", result.SKU),
	)
	return nil
}

func (h *Handler) process(ctx context.Context, p *domain.Payload) (*product.Result, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal(p.Payload, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode payload: %w", err)
	}
	return h.products.Create(ctx, raw)
}

// HandleMessage processes the payload named by a broker message.
func (h *Handler) HandleMessage(ctx context.Context, msg domain.PayloadMessage) error {
	id, err := uuid.Parse(msg.PayloadID)
	if err != nil {
		return fmt.Errorf("invalid payload id %q: %w", msg.PayloadID, err)
	}
	return h.Handle(ctx, id)
}

// Stats summarises a ProcessNew run.
type Stats struct {
	Processed int
	Failed    int
}

// ProcessNew handles every payload in status new. Failing payloads do not stop the run.
func (h *Handler) ProcessNew(ctx context.Context) (Stats, error) {
	var stats Stats
	seen := map[uuid.UUID]bool{}

	for {
		ids, err := h.repo.ListIDsByStatus(ctx, domain.PayloadStatusNew, batchSize)
		if err != nil {
			return stats, fmt.Errorf("failed to list new payloads: %w", err)
		}

		progressed := false
		for _, id := range ids {
			if seen[id] {
				continue
			}
			seen[id] = true
			progressed = true

			if err := ctx.Err(); err != nil {
				return stats, err
			}
			if err := h.Handle(ctx, id); err != nil {
				stats.Failed++
				continue
			}
			stats.Processed++
		}

		if !progressed || len(ids) < batchSize {
			return stats, nil
		}
	}
}

// Cleanup deletes payloads created more than days ago.
func (h *Handler) Cleanup(ctx context.Context, days int) (int64, error) {
	if days < 0 {
		return 0, apperrors.NewValidation(apperrors.CodeInvalidPayload, "days", "days must not be negative, got %d", days)
	}

	before := time.Now().AddDate(0, 0, -days)
	deleted, err := h.repo.DeleteOlderThan(ctx, before)
	if err != nil {
		return 0, fmt.Errorf("failed to delete payloads: %w", err)
	}

	h.logger.Info("Payloads cleaned up", zap.Int("days", days), zap.Int64("deleted", deleted))
	return deleted, nil
}
