package product

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Resolver maps request values onto platform ids.
type Resolver interface {
	TaxID(ctx context.Context, rate float64) (string, error)
	CurrencyID(ctx context.Context, iso string) (string, error)
	SalesChannelID(ctx context.Context, name string) (string, error)
}

type activeProcessor struct{}

func (activeProcessor) Process(ctx context.Context, w *Write) error {
	if w.Request.Active != nil {
		w.Payload["active"] = *w.Request.Active
	}
	return nil
}

type translationProcessor struct{}

func (translationProcessor) Process(ctx context.Context, w *Write) error {
	for _, locale := range sortedKeys(w.Request.Translations) {
		t := w.Translation(locale)
		for key, value := range w.Request.Translations[locale] {
			t[key] = value
		}
	}
	return nil
}

type releaseDateProcessor struct{}

func (releaseDateProcessor) Process(ctx context.Context, w *Write) error {
	if w.Request.ReleaseDate != nil {
		w.Payload["releaseDate"] = w.Request.ReleaseDate.Format(time.RFC3339)
	}
	return nil
}

// stringField copies an optional string onto a payload key.
type stringField struct {
	key string
	get func(r *Request) *string
}

func (p stringField) Process(ctx context.Context, w *Write) error {
	if v := p.get(w.Request); v != nil {
		if *v == "" {
			w.Payload[p.key] = nil
		} else {
			w.Payload[p.key] = *v
		}
	}
	return nil
}

func eanProcessor() Processor {
	return stringField{key: "ean", get: func(r *Request) *string { return r.EAN }}
}

func manufacturerNumberProcessor() Processor {
	return stringField{key: "manufacturerNumber", get: func(r *Request) *string { return r.ManufacturerNumber }}
}

func layoutProcessor() Processor {
	return stringField{key: "cmsPageId", get: func(r *Request) *string { return r.CmsPageID }}
}

type stockProcessor struct{}

func (stockProcessor) Process(ctx context.Context, w *Write) error {
	w.Payload["stock"] = w.Request.Stock
	return nil
}

type taxProcessor struct {
	resolver Resolver
}

func (p taxProcessor) Process(ctx context.Context, w *Write) error {
	id, err := p.resolver.TaxID(ctx, w.Request.Tax)
	if err != nil {
		return err
	}
	w.Payload["taxId"] = id
	w.TaxRate = w.Request.Tax
	return nil
}

// priceProcessor writes one linked gross/net price per currency.
type priceProcessor struct {
	resolver Resolver
}

func (p priceProcessor) Process(ctx context.Context, w *Write) error {
	prices := make([]map[string]interface{}, 0, len(w.Request.Price))
	for _, iso := range sortedKeys(w.Request.Price) {
		currencyID, err := p.resolver.CurrencyID(ctx, iso)
		if err != nil {
			return err
		}
		gross := w.Request.Price[iso]
		prices = append(prices, map[string]interface{}{
			"currencyId": currencyID,
			"gross":      gross,
			"net":        NetPrice(gross, w.TaxRate),
			"linked":     true,
		})
	}
	w.Payload["price"] = prices
	return nil
}

// NetPrice removes taxRate percent from gross, rounded to cents.
func NetPrice(gross, taxRate float64) float64 {
	divisor := decimal.NewFromInt(1).Add(decimal.NewFromFloat(taxRate).Div(decimal.NewFromInt(100)))
	net, _ := decimal.NewFromFloat(gross).Div(divisor).Round(2).Float64()
	return net
}

type salesChannelProcessor struct {
	resolver   Resolver
	associator *associator
}

func (p salesChannelProcessor) Process(ctx context.Context, w *Write) error {
	channels := w.Request.SalesChannels
	if channels == nil {
		return nil
	}

	visibilities := make([]map[string]interface{}, 0, len(channels))
	expected := make([]string, 0, len(channels))
	for _, name := range sortedKeys(channels) {
		salesChannelID, err := p.resolver.SalesChannelID(ctx, name)
		if err != nil {
			return err
		}
		id, err := combine(w.ProductID, salesChannelID)
		if err != nil {
			return err
		}
		expected = append(expected, id)
		visibilities = append(visibilities, map[string]interface{}{
			"id":             id,
			"salesChannelId": salesChannelID,
			"visibility":     visibilityLevels[channels[name]],
		})
	}

	if err := p.associator.replaceOwned(ctx, "product_visibility", w.ProductID, expected); err != nil {
		return fmt.Errorf("failed to reconcile visibilities: %w", err)
	}
	w.Payload["visibilities"] = visibilities
	return nil
}
