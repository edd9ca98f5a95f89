package lookup

import (
	"context"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mothership-gmbh/sw6-simple-api-sub000/internal/platform"
	apperrors "github.com/mothership-gmbh/sw6-simple-api-sub000/pkg/errors"
)

// Resolver maps human readable values (tax rate, ISO code, sales channel name)
// onto platform ids. Only hits are cached.
type Resolver struct {
	repo   platform.Repository
	cache  Cache
	ttl    time.Duration
	logger *zap.Logger
}

// NewResolver creates a resolver. A nil cache disables caching.
func NewResolver(repo platform.Repository, cache Cache, ttl time.Duration, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{repo: repo, cache: cache, ttl: ttl, logger: logger}
}

// TaxID returns the id of the tax with the given rate.
func (r *Resolver) TaxID(ctx context.Context, rate float64) (string, error) {
	value := strconv.FormatFloat(rate, 'f', -1, 64)
	return r.resolve(ctx, "tax:"+value, "tax", platform.Equals("taxRate", rate), &apperrors.ErrLookup{
		Code:  apperrors.CodeInvalidTaxValue,
		Value: value,
	})
}

// CurrencyID returns the id of the currency with the given ISO code.
func (r *Resolver) CurrencyID(ctx context.Context, iso string) (string, error) {
	iso = strings.ToUpper(strings.TrimSpace(iso))
	return r.resolve(ctx, "currency:"+iso, "currency", platform.Equals("isoCode", iso), &apperrors.ErrLookup{
		Code:  apperrors.CodeInvalidCurrency,
		Value: iso,
	})
}

// SalesChannelID returns the id of the sales channel with the given name.
func (r *Resolver) SalesChannelID(ctx context.Context, name string) (string, error) {
	return r.resolve(ctx, "sales_channel:"+name, "sales_channel", platform.Equals("name", name), &apperrors.ErrLookup{
		Code:  apperrors.CodeInvalidSalesChannel,
		Value: name,
	})
}

func (r *Resolver) resolve(ctx context.Context, key, entity string, filter platform.Filter, notFound error) (string, error) {
	if r.cache != nil {
		id, ok, err := r.cache.Get(ctx, key)
		if err != nil {
			r.logger.Warn("Lookup cache read failed", zap.String("key", key), zap.Error(err))
		} else if ok {
			return id, nil
		}
	}

	ids, err := r.repo.SearchIDs(ctx, entity, platform.NewCriteria().WithFilter(filter).WithLimit(1, 1))
	if err != nil {
		return "", err
	}
	if len(ids) == 0 {
		return "", notFound
	}

	if r.cache != nil {
		if err := r.cache.Set(ctx, key, ids[0], r.ttl); err != nil {
			r.logger.Warn("Lookup cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return ids[0], nil
}
