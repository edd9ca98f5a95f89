// Package product turns simplified product requests into platform writes.
package product

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mothership-gmbh/sw6-simple-api-sub000/internal/platform"
)

// Options configures entities created on the fly.
type Options struct {
	DefaultLocale  string
	CategoryRootID string
}

// Result identifies the written product.
type Result struct {
	ID         string   `json:"id"`
	SKU        string   `json:"sku"`
	VariantIDs []string `json:"variant_ids,omitempty"`
}

type Service struct {
	repo       platform.Repository
	validators []Validator
	processors []Processor
	associator *associator
	properties propertyProcessor
	logger     *zap.Logger
}

// NewService builds the validator and processor pipelines in their fixed order.
func NewService(repo platform.Repository, resolver Resolver, media MediaImporter, opts Options, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.DefaultLocale == "" {
		opts.DefaultLocale = "en-GB"
	}

	assoc := &associator{repo: repo}
	cat := &catalog{repo: repo, locale: opts.DefaultLocale, logger: logger}
	properties := propertyProcessor{catalog: cat, associator: assoc}

	return &Service{
		repo:       repo,
		validators: DefaultValidators(),
		processors: []Processor{
			activeProcessor{},
			translationProcessor{},
			releaseDateProcessor{},
			eanProcessor(),
			manufacturerNumberProcessor(),
			layoutProcessor(),
			stockProcessor{},
			taxProcessor{resolver: resolver},
			priceProcessor{resolver: resolver},
			manufacturerProcessor{catalog: cat},
			categoryProcessor{catalog: cat, associator: assoc, rootID: opts.CategoryRootID},
			properties,
			customFieldProcessor{catalog: cat},
			imageProcessor{media: media, associator: assoc},
			salesChannelProcessor{resolver: resolver, associator: assoc},
		},
		associator: assoc,
		properties: properties,
		logger:     logger,
	}
}

// Validate checks raw and its variants without writing anything.
func (s *Service) Validate(raw map[string]interface{}) error {
	return validateAll(s.validators, raw)
}

// Create validates raw, then writes the product and its variants.
func (s *Service) Create(ctx context.Context, raw map[string]interface{}) (*Result, error) {
	if err := s.Validate(raw); err != nil {
		return nil, err
	}

	req, err := Parse(raw)
	if err != nil {
		return nil, err
	}

	parent := newWrite(req, "", newSession())
	if err := s.write(ctx, parent); err != nil {
		return nil, err
	}

	result := &Result{ID: parent.ProductID, SKU: req.SKU}
	if req.Variants != nil {
		ids, err := s.syncVariants(ctx, parent, req.Variants)
		if err != nil {
			return nil, err
		}
		result.VariantIDs = ids
	}

	s.logger.Info("Product written",
		zap.String("sku", req.SKU),
		zap.String("product_id", parent.ProductID),
		zap.Int("variants", len(result.VariantIDs)),
	)
	return result, nil
}

func (s *Service) write(ctx context.Context, w *Write) error {
	for _, p := range s.processors {
		if err := p.Process(ctx, w); err != nil {
			return err
		}
	}
	if err := s.repo.Upsert(ctx, "product", []platform.Entity{w.Payload}); err != nil {
		return fmt.Errorf("failed to write product %s: %w", w.Request.SKU, err)
	}
	return nil
}
