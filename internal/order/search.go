package order

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/mothership-gmbh/sw6-simple-api-sub000/internal/platform"
	apperrors "github.com/mothership-gmbh/sw6-simple-api-sub000/pkg/errors"
)

const (
	defaultLimit = 25
	maxLimit     = 100
)

// documentAssociations are loaded so the transformer finds every record it reads.
var documentAssociations = []string{
	"lineItems",
	"addresses.country",
	"addresses.salutation",
	"orderCustomer",
	"currency",
	"stateMachineState",
	"transactions.paymentMethod",
	"deliveries.shippingMethod",
	"documents",
}

// Repository is what the order search needs from the platform.
type Repository interface {
	platform.DocumentSearcher
	Search(ctx context.Context, entity string, criteria *platform.Criteria) (*platform.SearchResult, error)
}

// ListRequest filters the simplified order listing.
type ListRequest struct {
	Limit         int    `json:"limit"`
	Page          int    `json:"page"`
	Status        string `json:"status"`
	CustomerEmail string `json:"customer_email"`
	CreatedFrom   string `json:"created_from"`
	CreatedTo     string `json:"created_to"`
}

// Summary is one row of the order listing.
type Summary struct {
	ID            string  `json:"id"`
	OrderNumber   string  `json:"order_number"`
	OrderDate     string  `json:"order_date"`
	AmountTotal   float64 `json:"amount_total"`
	Currency      string  `json:"currency"`
	Status        string  `json:"status"`
	CustomerEmail string  `json:"customer_email"`
}

type ListResult struct {
	Total int       `json:"total"`
	Data  []Summary `json:"data"`
}

type Service struct {
	repo   Repository
	logger *zap.Logger
}

func NewService(repo Repository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, logger: logger}
}

// Document returns the JSON:API document of one order.
func (s *Service) Document(ctx context.Context, orderID string) ([]byte, error) {
	criteria := platform.NewCriteria().WithIDs(orderID)
	for _, a := range documentAssociations {
		criteria.WithAssociation(a)
	}

	doc, err := s.repo.SearchDocument(ctx, "order", criteria)
	if err != nil {
		return nil, fmt.Errorf("failed to search order: %w", err)
	}

	var probe struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(doc, &probe); err != nil {
		return nil, fmt.Errorf("failed to decode order document: %w", err)
	}
	if _, err := firstRecord(probe.Data); err != nil {
		return nil, &apperrors.ErrNotFound{Resource: "order", ID: orderID}
	}
	return doc, nil
}

// Get returns the flattened order.
func (s *Service) Get(ctx context.Context, orderID string) (*Order, error) {
	doc, err := s.Document(ctx, orderID)
	if err != nil {
		return nil, err
	}
	o, err := Transform(doc)
	if err != nil {
		s.logger.Error("Failed to transform order", zap.String("order_id", orderID), zap.Error(err))
		return nil, err
	}
	return o, nil
}

// List returns a filtered page of order summaries, newest first.
func (s *Service) List(ctx context.Context, req ListRequest) (*ListResult, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	page := req.Page
	if page <= 0 {
		page = 1
	}

	criteria := platform.NewCriteria().
		WithLimit(limit, page).
		WithSort("orderDateTime", "DESC").
		WithAssociation("currency").
		WithAssociation("stateMachineState").
		WithAssociation("orderCustomer")
	criteria.TotalCountMode = 1

	if req.Status != "" {
		criteria.WithFilter(platform.Equals("stateMachineState.technicalName", req.Status))
	}
	if req.CustomerEmail != "" {
		criteria.WithFilter(platform.Equals("orderCustomer.email", req.CustomerEmail))
	}
	if req.CreatedFrom != "" || req.CreatedTo != "" {
		criteria.WithFilter(platform.Range("orderDateTime", req.CreatedFrom, req.CreatedTo))
	}

	res, err := s.repo.Search(ctx, "order", criteria)
	if err != nil {
		return nil, fmt.Errorf("failed to search orders: %w", err)
	}

	out := &ListResult{Total: res.Total, Data: make([]Summary, 0, len(res.Data))}
	for _, o := range res.Data {
		amount, _ := platform.AsFloat(o["amountTotal"])
		currency, _ := platform.Path(o, "currency.isoCode")
		status, _ := platform.Path(o, "stateMachineState.technicalName")
		email, _ := platform.Path(o, "orderCustomer.email")
		out.Data = append(out.Data, Summary{
			ID:            o.ID(),
			OrderNumber:   o.String("orderNumber"),
			OrderDate:     o.String("orderDateTime"),
			AmountTotal:   amount,
			Currency:      platform.AsString(currency),
			Status:        platform.AsString(status),
			CustomerEmail: platform.AsString(email),
		})
	}
	return out, nil
}
