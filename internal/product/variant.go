package product

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mothership-gmbh/sw6-simple-api-sub000/internal/platform"
)

// syncVariants makes the children of parent match variants: dropped SKUs are
// deleted, the rest are written with their axis options, and the parent's
// configurator settings are replaced by the options still in use.
func (s *Service) syncVariants(ctx context.Context, parent *Write, variants []*Request) ([]string, error) {
	keep := make(map[string]bool, len(variants))
	for _, v := range variants {
		keep[v.SKU] = true
	}

	res, err := s.repo.Search(ctx, "product", platform.NewCriteria().WithFilter(platform.Equals("parentId", parent.ProductID)))
	if err != nil {
		return nil, fmt.Errorf("failed to search variants: %w", err)
	}
	var stale []platform.Entity
	for _, child := range res.Data {
		if !keep[child.String("productNumber")] {
			stale = append(stale, platform.Entity{"id": child.ID()})
			s.logger.Info("Deleting dropped variant",
				zap.String("parent_id", parent.ProductID),
				zap.String("sku", child.String("productNumber")),
			)
		}
	}
	if err := s.repo.Delete(ctx, "product", stale); err != nil {
		return nil, fmt.Errorf("failed to delete dropped variants: %w", err)
	}

	ids := make([]string, 0, len(variants))
	settings := map[string]string{} // configurator setting id -> option id
	var order []string
	for _, v := range variants {
		w := newWrite(v, parent.ProductID, parent.session)

		optionIDs, err := s.properties.optionIDs(ctx, w, v.Axis)
		if err != nil {
			return nil, err
		}
		if err := s.associator.replaceMapping(ctx, "options", "product_option", "optionId", w.ProductID, optionIDs); err != nil {
			return nil, fmt.Errorf("failed to reconcile options of %s: %w", v.SKU, err)
		}
		w.Payload["options"] = refs(optionIDs)

		if err := s.write(ctx, w); err != nil {
			return nil, err
		}
		ids = append(ids, w.ProductID)

		for _, optionID := range optionIDs {
			settingID, err := combine(parent.ProductID, optionID)
			if err != nil {
				return nil, err
			}
			if _, ok := settings[settingID]; !ok {
				order = append(order, settingID)
			}
			settings[settingID] = optionID
		}
	}

	if err := s.associator.replaceOwned(ctx, "product_configurator_setting", parent.ProductID, order); err != nil {
		return nil, fmt.Errorf("failed to reconcile configurator settings: %w", err)
	}
	if len(order) > 0 {
		configurator := make([]map[string]interface{}, 0, len(order))
		for _, id := range order {
			configurator = append(configurator, map[string]interface{}{"id": id, "optionId": settings[id]})
		}
		err := s.repo.Upsert(ctx, "product", []platform.Entity{{
			"id":                   parent.ProductID,
			"configuratorSettings": configurator,
		}})
		if err != nil {
			return nil, fmt.Errorf("failed to write configurator settings: %w", err)
		}
	}

	return ids, nil
}
