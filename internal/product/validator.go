package product

import (
	"math"
	"regexp"

	"github.com/mothership-gmbh/sw6-simple-api-sub000/internal/identity"
	"github.com/mothership-gmbh/sw6-simple-api-sub000/internal/platform"
	apperrors "github.com/mothership-gmbh/sw6-simple-api-sub000/pkg/errors"
)

var (
	keyPattern    = regexp.MustCompile(`^(?:[a-z][a-zA-Z0-9]*|[a-z0-9]+(?:_[a-z0-9]+)*)$`)
	localePattern = regexp.MustCompile(`^[a-z]{2}-[A-Z]{2}$`)
)

// Validator checks one attribute of a raw product request.
type Validator interface {
	Validate(raw map[string]interface{}) error
}

// ValidatorFunc adapts a function to Validator.
type ValidatorFunc func(raw map[string]interface{}) error

func (f ValidatorFunc) Validate(raw map[string]interface{}) error {
	return f(raw)
}

// DefaultValidators returns the validators in registration order.
func DefaultValidators() []Validator {
	return []Validator{
		requiredValidator{key: "price", err: apperrors.ErrMissingPrice},
		requiredValidator{key: "sku", err: apperrors.ErrMissingSku},
		requiredValidator{key: "tax", err: apperrors.ErrMissingTax},
		requiredValidator{key: "stock", err: apperrors.ErrMissingStock},
		ValidatorFunc(validateSku),
		ValidatorFunc(validatePrice),
		ValidatorFunc(validateTax),
		ValidatorFunc(validateStock),
		imageValidator{},
		customFieldValidator{},
		ValidatorFunc(validateProperties),
		translationValidator{},
		ValidatorFunc(validateActive),
		ValidatorFunc(validateCmsPageID),
		ValidatorFunc(validateCategories),
		ValidatorFunc(validateSalesChannel),
		ValidatorFunc(validateReleaseDate),
		variantValidator{},
	}
}

// validateAll runs validators against the parent and every variant. Variants
// are checked after inheriting parent fields.
func validateAll(validators []Validator, raw map[string]interface{}) error {
	if err := runValidators(validators, raw); err != nil {
		return err
	}
	items, _ := platform.AsSlice(raw["variants"])
	for _, item := range items {
		variant, _ := platform.AsMap(item)
		if err := runValidators(validators, inherit(raw, variant)); err != nil {
			return err
		}
	}
	return nil
}

func runValidators(validators []Validator, raw map[string]interface{}) error {
	for _, v := range validators {
		if err := v.Validate(raw); err != nil {
			return err
		}
	}
	return nil
}

type requiredValidator struct {
	key string
	err *apperrors.ErrValidation
}

func (v requiredValidator) Validate(raw map[string]interface{}) error {
	if raw[v.key] == nil {
		return apperrors.NewValidation(v.err.Code, v.key, "%s is required", v.key)
	}
	return nil
}

func validateSku(raw map[string]interface{}) error {
	if s, ok := raw["sku"].(string); !ok || s == "" {
		return apperrors.NewValidation(apperrors.CodeMissingSku, "sku", "sku must be a non-empty string")
	}
	return nil
}

func validatePrice(raw map[string]interface{}) error {
	prices, ok := platform.AsMap(raw["price"])
	if !ok || len(prices) == 0 {
		return apperrors.NewValidation(apperrors.CodeInvalidPrice, "price", "price must map currency codes to numbers")
	}
	for iso, v := range prices {
		f, ok := platform.AsFloat(v)
		if !ok || f < 0 {
			return apperrors.NewValidation(apperrors.CodeInvalidPrice, "price", "price for %s must be a non-negative number", iso)
		}
	}
	return nil
}

func validateTax(raw map[string]interface{}) error {
	f, ok := platform.AsFloat(raw["tax"])
	if !ok || f < 0 {
		return apperrors.NewValidation(apperrors.CodeInvalidTax, "tax", "tax must be a non-negative number")
	}
	return nil
}

func validateStock(raw map[string]interface{}) error {
	f, ok := platform.AsFloat(raw["stock"])
	if !ok || f != math.Trunc(f) {
		return apperrors.NewValidation(apperrors.CodeInvalidStock, "stock", "stock must be an integer")
	}
	return nil
}

type imageValidator struct{}

func (imageValidator) Validate(raw map[string]interface{}) error {
	v, present := raw["images"]
	if !present || v == nil {
		return nil
	}
	items, ok := platform.AsSlice(v)
	if !ok {
		return apperrors.NewValidation(apperrors.CodeInvalidImage, "images", "images must be a list")
	}

	seen := map[string]bool{}
	covers := 0
	for i, item := range items {
		img, ok := platform.AsMap(item)
		if !ok {
			return apperrors.NewValidation(apperrors.CodeInvalidImage, "images", "image %d must be an object", i)
		}
		url, ok := img["url"].(string)
		if !ok || url == "" {
			return apperrors.NewValidation(apperrors.CodeInvalidImage, "images", "image %d must have a url", i)
		}
		if seen[url] {
			return apperrors.NewValidation(apperrors.CodeDuplicateImageURL, "images", "duplicate image url %s", url)
		}
		seen[url] = true

		if c, present := img["isCover"]; present {
			cover, ok := c.(bool)
			if !ok {
				return apperrors.NewValidation(apperrors.CodeInvalidImage, "images", "isCover of image %d must be a boolean", i)
			}
			if cover {
				covers++
			}
		}
	}
	if covers > 1 {
		return apperrors.NewValidation(apperrors.CodeMultipleCoverImages, "images", "only one image can be the cover")
	}
	return nil
}

type customFieldValidator struct{}

func (customFieldValidator) Validate(raw map[string]interface{}) error {
	v, present := raw["custom_fields"]
	if !present || v == nil {
		return nil
	}
	fields, ok := platform.AsMap(v)
	if !ok {
		return apperrors.NewValidation(apperrors.CodeInvalidCustomField, "custom_fields", "custom_fields must be an object")
	}
	for code, def := range fields {
		if !keyPattern.MatchString(code) {
			return apperrors.NewValidation(apperrors.CodeInvalidKey, "custom_fields", "invalid custom field key %s", code)
		}
		m, ok := platform.AsMap(def)
		if !ok {
			return apperrors.NewValidation(apperrors.CodeInvalidCustomField, "custom_fields", "custom field %s must be an object", code)
		}
		if platform.AsString(m["type"]) == "" {
			return apperrors.NewValidation(apperrors.CodeInvalidCustomField, "custom_fields", "custom field %s has no type", code)
		}
		values, ok := platform.AsMap(m["values"])
		if !ok {
			return apperrors.NewValidation(apperrors.CodeInvalidCustomField, "custom_fields", "custom field %s has no values", code)
		}
		for locale := range values {
			if !localePattern.MatchString(locale) {
				return apperrors.NewValidation(apperrors.CodeInvalidLocale, "custom_fields", "invalid locale %s", locale)
			}
		}
	}
	return nil
}

func validateProperties(raw map[string]interface{}) error {
	return validateOptionGroups(raw, "properties", apperrors.CodeInvalidProperties)
}

func validateOptionGroups(raw map[string]interface{}, key, code string) error {
	v, present := raw[key]
	if !present || v == nil {
		return nil
	}
	groups, ok := platform.AsMap(v)
	if !ok {
		return apperrors.NewValidation(code, key, "%s must map groups to option lists", key)
	}
	for group, options := range groups {
		if !keyPattern.MatchString(group) {
			return apperrors.NewValidation(apperrors.CodeInvalidKey, key, "invalid %s key %s", key, group)
		}
		items, ok := platform.AsSlice(options)
		if !ok || len(items) == 0 {
			return apperrors.NewValidation(code, key, "%s group %s must list options", key, group)
		}
		for _, item := range items {
			if s, ok := item.(string); !ok || s == "" {
				return apperrors.NewValidation(code, key, "%s group %s must list option names", key, group)
			}
		}
	}
	return nil
}

type translationValidator struct{}

func (translationValidator) Validate(raw map[string]interface{}) error {
	for _, key := range sortedKeys(translatedFields) {
		v, present := raw[key]
		if !present || v == nil {
			continue
		}
		values, ok := platform.AsMap(v)
		if !ok {
			return apperrors.NewValidation(apperrors.CodeInvalidLocale, key, "%s must map locales to text", key)
		}
		for locale, text := range values {
			if !localePattern.MatchString(locale) {
				return apperrors.NewValidation(apperrors.CodeInvalidLocale, key, "invalid locale %s", locale)
			}
			if _, ok := text.(string); !ok {
				return apperrors.NewValidation(apperrors.CodeInvalidLocale, key, "%s for %s must be text", key, locale)
			}
		}
	}
	return nil
}

func validateActive(raw map[string]interface{}) error {
	v, present := raw["active"]
	if !present {
		return nil
	}
	if _, ok := v.(bool); !ok {
		return apperrors.NewValidation(apperrors.CodeInvalidActive, "active", "active must be a boolean")
	}
	return nil
}

func validateCmsPageID(raw map[string]interface{}) error {
	v, present := raw["cms_page_id"]
	if !present || v == nil {
		return nil
	}
	if s, ok := v.(string); !ok || !identity.IsValid(s) {
		return apperrors.NewValidation(apperrors.CodeInvalidCmsPageID, "cms_page_id", "cms_page_id must be a valid id")
	}
	return nil
}

func validateCategories(raw map[string]interface{}) error {
	v, present := raw["categories"]
	if !present || v == nil {
		return nil
	}
	items, ok := platform.AsSlice(v)
	if !ok {
		return apperrors.NewValidation(apperrors.CodeInvalidCategories, "categories", "categories must be a list")
	}
	for _, item := range items {
		if s, ok := item.(string); !ok || s == "" {
			return apperrors.NewValidation(apperrors.CodeInvalidCategories, "categories", "categories must list category codes")
		}
	}
	return nil
}

func validateSalesChannel(raw map[string]interface{}) error {
	v, present := raw["sales_channel"]
	if !present || v == nil {
		return nil
	}
	channels, ok := platform.AsMap(v)
	if !ok {
		return apperrors.NewValidation(apperrors.CodeInvalidVisibility, "sales_channel", "sales_channel must map names to visibilities")
	}
	for name, vis := range channels {
		s, _ := vis.(string)
		if _, ok := visibilityLevels[s]; !ok {
			return apperrors.NewValidation(apperrors.CodeInvalidVisibility, "sales_channel", "invalid visibility for %s, expected all, search or link", name)
		}
	}
	return nil
}

func validateReleaseDate(raw map[string]interface{}) error {
	v, present := raw["release_date"]
	if !present || v == nil {
		return nil
	}
	s, ok := v.(string)
	if !ok {
		return apperrors.NewValidation(apperrors.CodeInvalidReleaseDate, "release_date", "release_date must be a date string")
	}
	if _, err := parseReleaseDate(s); err != nil {
		return apperrors.NewValidation(apperrors.CodeInvalidReleaseDate, "release_date", "%s", err.Error())
	}
	return nil
}

type variantValidator struct{}

func (variantValidator) Validate(raw map[string]interface{}) error {
	v, present := raw["variants"]
	if !present || v == nil {
		return nil
	}
	items, ok := platform.AsSlice(v)
	if !ok {
		return apperrors.NewValidation(apperrors.CodeInvalidVariant, "variants", "variants must be a list")
	}

	skus := map[string]bool{platform.AsString(raw["sku"]): true}
	for i, item := range items {
		variant, ok := platform.AsMap(item)
		if !ok {
			return apperrors.NewValidation(apperrors.CodeInvalidVariant, "variants", "variant %d must be an object", i)
		}
		if _, nested := variant["variants"]; nested {
			return apperrors.NewValidation(apperrors.CodeInvalidVariant, "variants", "variant %d must not contain variants", i)
		}
		sku, _ := variant["sku"].(string)
		if sku == "" {
			return apperrors.NewValidation(apperrors.CodeMissingSku, "variants", "variant %d has no sku", i)
		}
		if skus[sku] {
			return apperrors.NewValidation(apperrors.CodeInvalidVariant, "variants", "duplicate variant sku %s", sku)
		}
		skus[sku] = true

		if variant["axis"] == nil {
			return apperrors.NewValidation(apperrors.CodeMissingAxis, "variants", "variant %s has no axis", sku)
		}
		if err := validateOptionGroups(variant, "axis", apperrors.CodeInvalidVariant); err != nil {
			return err
		}
	}
	return nil
}
