// Package coupon maps simplified coupon requests onto promotions with one
// individual code.
package coupon

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/mothership-gmbh/sw6-simple-api-sub000/internal/identity"
	"github.com/mothership-gmbh/sw6-simple-api-sub000/internal/platform"
	apperrors "github.com/mothership-gmbh/sw6-simple-api-sub000/pkg/errors"
)

const (
	DiscountPercentage = "percentage"
	DiscountAbsolute   = "absolute"

	defaultPrefix = "MS"
)

// promotionFields maps request keys onto promotion fields.
var promotionFields = map[string]string{
	"name":                  "name",
	"active":                "active",
	"valid_from":            "validFrom",
	"valid_until":           "validUntil",
	"max_uses":              "maxRedemptionsGlobal",
	"max_uses_per_customer": "maxRedemptionsPerCustomer",
	"exclusive":             "exclusive",
	"priority":              "priority",
	"prevent_combination":   "preventCombination",
	"customer_restriction":  "customerRestriction",
}

// discountFields maps request keys onto promotion discount fields.
var discountFields = map[string]string{
	"discount_type":           "type",
	"discount_value":          "value",
	"scope":                   "scope",
	"max_value":               "maxValue",
	"consider_advanced_rules": "considerAdvancedRules",
}

// SalesChannelResolver resolves sales channel names.
type SalesChannelResolver interface {
	SalesChannelID(ctx context.Context, name string) (string, error)
}

// Result identifies the written promotion.
type Result struct {
	ID   string `json:"id"`
	Code string `json:"code"`
}

type Service struct {
	repo     platform.Repository
	resolver SalesChannelResolver
	locale   string
	logger   *zap.Logger
}

func NewService(repo platform.Repository, resolver SalesChannelResolver, locale string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, resolver: resolver, locale: locale, logger: logger}
}

// Create writes the promotion, its discount and its redemption code.
func (s *Service) Create(ctx context.Context, raw map[string]interface{}) (*Result, error) {
	if err := validate(raw); err != nil {
		return nil, err
	}

	code := strings.TrimSpace(platform.AsString(raw["code"]))
	if code == "" {
		code = GenerateCode(platform.AsString(raw["code_prefix"]))
	}

	promotionID := identity.FromKey("promotion:" + code)
	promotion := platform.Entity{
		"id":                 promotionID,
		"active":             true,
		"useCodes":           true,
		"useIndividualCodes": true,
		"useSetGroups":       false,
	}
	for key, field := range promotionFields {
		if v, ok := raw[key]; ok {
			promotion[field] = v
		}
	}
	promotion["translations"] = map[string]interface{}{
		s.locale: map[string]interface{}{"name": promotion["name"]},
	}

	discount := map[string]interface{}{
		"id":                    identity.FromKey("promotion-discount:" + code),
		"scope":                 "cart",
		"considerAdvancedRules": false,
	}
	for key, field := range discountFields {
		if v, ok := raw[key]; ok {
			discount[field] = v
		}
	}
	promotion["discounts"] = []map[string]interface{}{discount}
	promotion["individualCodes"] = []map[string]interface{}{
		{"id": identity.FromKey("promotion-code:" + code), "code": code},
	}

	if names, ok := platform.AsSlice(raw["sales_channels"]); ok {
		channels := make([]map[string]interface{}, 0, len(names))
		for i, name := range names {
			salesChannelID, err := s.resolver.SalesChannelID(ctx, platform.AsString(name))
			if err != nil {
				return nil, err
			}
			id, err := identity.Combine(promotionID, salesChannelID)
			if err != nil {
				return nil, err
			}
			channels = append(channels, map[string]interface{}{
				"id":             id,
				"salesChannelId": salesChannelID,
				"priority":       i + 1,
			})
		}
		promotion["salesChannels"] = channels
	}

	if err := s.repo.Upsert(ctx, "promotion", []platform.Entity{promotion}); err != nil {
		return nil, fmt.Errorf("failed to write promotion: %w", err)
	}

	s.logger.Info("Promotion written", zap.String("promotion_id", promotionID), zap.String("code", code))
	return &Result{ID: promotionID, Code: code}, nil
}

// GenerateCode returns PREFIX-XXXXXXXX with a random upper case suffix.
func GenerateCode(prefix string) string {
	prefix = strings.ToUpper(strings.TrimSpace(prefix))
	if prefix == "" {
		prefix = defaultPrefix
	}
	return prefix + "-" + strings.ToUpper(identity.Random()[:8])
}

func validate(raw map[string]interface{}) error {
	if s, _ := raw["name"].(string); s == "" {
		return apperrors.NewValidation(apperrors.CodeMissingField, "name", "name is required")
	}

	switch raw["discount_type"] {
	case DiscountPercentage, DiscountAbsolute:
	case nil:
		return apperrors.NewValidation(apperrors.CodeMissingField, "discount_type", "discount_type is required")
	default:
		return apperrors.NewValidation(apperrors.CodeInvalidDiscountType, "discount_type",
			"discount_type must be %s or %s", DiscountPercentage, DiscountAbsolute)
	}

	v, present := raw["discount_value"]
	if !present || v == nil {
		return apperrors.NewValidation(apperrors.CodeMissingField, "discount_value", "discount_value is required")
	}
	value, ok := platform.AsFloat(v)
	if !ok || value <= 0 {
		return apperrors.NewValidation(apperrors.CodeInvalidPayload, "discount_value", "discount_value must be a positive number")
	}
	if raw["discount_type"] == DiscountPercentage && value > 100 {
		return apperrors.NewValidation(apperrors.CodeInvalidPayload, "discount_value", "percentage discount cannot exceed 100")
	}

	if v, present := raw["sales_channels"]; present && v != nil {
		if _, ok := platform.AsSlice(v); !ok {
			return apperrors.NewValidation(apperrors.CodeInvalidPayload, "sales_channels", "sales_channels must be a list of names")
		}
	}
	return nil
}
