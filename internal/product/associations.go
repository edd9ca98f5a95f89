package product

import (
	"context"
	"fmt"

	"github.com/mothership-gmbh/sw6-simple-api-sub000/internal/identity"
	"github.com/mothership-gmbh/sw6-simple-api-sub000/internal/platform"
	"github.com/mothership-gmbh/sw6-simple-api-sub000/internal/reconcile"
	apperrors "github.com/mothership-gmbh/sw6-simple-api-sub000/pkg/errors"
)

// associator wires the reconciler to the platform for product associations.
type associator struct {
	repo platform.Repository
}

// replaceOwned removes every row of entity owned by productID unless the owned
// ids already equal expected.
func (a *associator) replaceOwned(ctx context.Context, entity, productID string, expected []string) error {
	lookup := func(ctx context.Context) ([]string, error) {
		criteria := platform.NewCriteria().WithFilter(platform.Equals("productId", productID))
		return a.repo.SearchIDs(ctx, entity, criteria)
	}
	remover := reconcile.RemoverFunc(func(ctx context.Context, ids []string) error {
		keys := make([]platform.Entity, 0, len(ids))
		for _, id := range ids {
			keys = append(keys, platform.Entity{"id": id})
		}
		return a.repo.Delete(ctx, entity, keys)
	})

	_, err := reconcile.Reconcile(ctx, expected, lookup, remover)
	return err
}

// replaceMapping does the same for a many-to-many association, deleting the
// mapping rows by both foreign keys.
func (a *associator) replaceMapping(ctx context.Context, association, mappingEntity, field, productID string, expected []string) error {
	lookup := func(ctx context.Context) ([]string, error) {
		criteria := platform.NewCriteria().WithIDs(productID).WithAssociation(association)
		res, err := a.repo.Search(ctx, "product", criteria)
		if err != nil {
			return nil, err
		}
		product := res.First()
		if product == nil {
			return nil, nil
		}
		raw, ok := product[association]
		if !ok {
			return nil, &apperrors.ErrLookup{Code: apperrors.CodeMissingReverseAssociation, Value: "product." + association}
		}
		items, _ := platform.AsSlice(raw)
		ids := make([]string, 0, len(items))
		for _, item := range items {
			m, _ := platform.AsMap(item)
			ids = append(ids, platform.AsString(m["id"]))
		}
		return ids, nil
	}
	remover := reconcile.RemoverFunc(func(ctx context.Context, ids []string) error {
		keys := make([]platform.Entity, 0, len(ids))
		for _, id := range ids {
			keys = append(keys, platform.Entity{"productId": productID, field: id})
		}
		return a.repo.Delete(ctx, mappingEntity, keys)
	})

	_, err := reconcile.Reconcile(ctx, expected, lookup, remover)
	return err
}

func combine(a, b string) (string, error) {
	id, err := identity.Combine(a, b)
	if err != nil {
		return "", fmt.Errorf("failed to combine ids: %w", err)
	}
	return id, nil
}
