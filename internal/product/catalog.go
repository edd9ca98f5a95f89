package product

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mothership-gmbh/sw6-simple-api-sub000/internal/identity"
	"github.com/mothership-gmbh/sw6-simple-api-sub000/internal/platform"
)

// CodeField is the custom field holding the business code of entities created here.
const CodeField = "simple_api_code"

// customFieldSet groups the custom fields created for products.
const customFieldSet = "simple_api"

// catalog looks entities up by code and creates the missing ones.
type catalog struct {
	repo   platform.Repository
	locale string
	logger *zap.Logger
}

// ensure returns the id of the entity with code. The derived id is tried
// first, then entities created elsewhere carrying the code, and finally the
// entity is created from create(id).
func (c *catalog) ensure(ctx context.Context, w *Write, entity, code, codeField string, create func(id string) platform.Entity) (string, error) {
	key := entity + ":" + code
	if id, ok := w.session.known[key]; ok {
		return id, nil
	}

	id := identity.FromCode(code)
	ids, err := c.repo.SearchIDs(ctx, entity, platform.NewCriteria().WithIDs(id))
	if err != nil {
		return "", fmt.Errorf("failed to search %s: %w", entity, err)
	}

	if len(ids) == 0 {
		criteria := platform.NewCriteria().WithFilter(platform.Equals(codeField, code)).WithLimit(1, 1)
		existing, err := c.repo.SearchIDs(ctx, entity, criteria)
		if err != nil {
			return "", fmt.Errorf("failed to search %s by code: %w", entity, err)
		}
		if len(existing) > 0 {
			id = existing[0]
		} else {
			if err := c.repo.Upsert(ctx, entity, []platform.Entity{create(id)}); err != nil {
				return "", fmt.Errorf("failed to create %s %q: %w", entity, code, err)
			}
			c.logger.Info("Created missing entity",
				zap.String("entity", entity),
				zap.String("code", code),
				zap.String("id", id),
			)
		}
	}

	w.session.known[key] = id
	return id, nil
}

// named builds the minimal payload of a translated entity created by code.
func (c *catalog) named(id, name, code string) platform.Entity {
	return platform.Entity{
		"id":           id,
		"name":         name,
		"translations": map[string]interface{}{c.locale: map[string]interface{}{"name": name}},
		"customFields": map[string]interface{}{CodeField: code},
	}
}

type manufacturerProcessor struct {
	catalog *catalog
}

func (p manufacturerProcessor) Process(ctx context.Context, w *Write) error {
	name := w.Request.Manufacturer
	if name == nil {
		return nil
	}
	if *name == "" {
		w.Payload["manufacturerId"] = nil
		return nil
	}

	id, err := p.catalog.ensure(ctx, w, "product_manufacturer", *name, "customFields."+CodeField, func(id string) platform.Entity {
		return p.catalog.named(id, *name, *name)
	})
	if err != nil {
		return err
	}
	w.Payload["manufacturerId"] = id
	return nil
}

type categoryProcessor struct {
	catalog    *catalog
	associator *associator
	rootID     string
}

func (p categoryProcessor) Process(ctx context.Context, w *Write) error {
	codes := w.Request.Categories
	if codes == nil {
		return nil
	}

	ids := make([]string, 0, len(codes))
	for _, code := range codes {
		id, err := p.catalog.ensure(ctx, w, "category", code, "customFields."+CodeField, func(id string) platform.Entity {
			category := p.catalog.named(id, code, code)
			category["active"] = true
			if p.rootID != "" {
				category["parentId"] = p.rootID
			}
			return category
		})
		if err != nil {
			return err
		}
		ids = append(ids, id)
	}

	if err := p.associator.replaceMapping(ctx, "categories", "product_category", "categoryId", w.ProductID, ids); err != nil {
		return fmt.Errorf("failed to reconcile categories: %w", err)
	}
	w.Payload["categories"] = refs(ids)
	return nil
}

type propertyProcessor struct {
	catalog    *catalog
	associator *associator
}

func (p propertyProcessor) Process(ctx context.Context, w *Write) error {
	if w.Request.Properties == nil {
		return nil
	}

	ids, err := p.optionIDs(ctx, w, w.Request.Properties)
	if err != nil {
		return err
	}
	if err := p.associator.replaceMapping(ctx, "properties", "product_property", "optionId", w.ProductID, ids); err != nil {
		return fmt.Errorf("failed to reconcile properties: %w", err)
	}
	w.Payload["properties"] = refs(ids)
	return nil
}

// optionIDs returns the ids of all group options, creating groups and options on demand.
func (p propertyProcessor) optionIDs(ctx context.Context, w *Write, groups map[string][]string) ([]string, error) {
	var ids []string
	for _, group := range sortedKeys(groups) {
		groupID, err := p.catalog.ensure(ctx, w, "property_group", group, "customFields."+CodeField, func(id string) platform.Entity {
			g := p.catalog.named(id, group, group)
			g["displayType"] = "text"
			g["sortingType"] = "alphanumeric"
			return g
		})
		if err != nil {
			return nil, err
		}

		for _, option := range groups[group] {
			code := group + "-" + option
			optionID, err := p.catalog.ensure(ctx, w, "property_group_option", code, "customFields."+CodeField, func(id string) platform.Entity {
				o := p.catalog.named(id, option, code)
				o["groupId"] = groupID
				return o
			})
			if err != nil {
				return nil, err
			}
			ids = append(ids, optionID)
		}
	}
	return ids, nil
}

type customFieldProcessor struct {
	catalog *catalog
}

func (p customFieldProcessor) Process(ctx context.Context, w *Write) error {
	fields := w.Request.CustomFields
	if fields == nil {
		return nil
	}

	setID, err := p.catalog.ensure(ctx, w, "custom_field_set", customFieldSet, "name", func(id string) platform.Entity {
		return platform.Entity{
			"id":     id,
			"name":   customFieldSet,
			"config": map[string]interface{}{"label": map[string]interface{}{p.catalog.locale: "Simple API"}},
			"relations": []map[string]interface{}{
				{"id": identity.FromKey(customFieldSet + ":product"), "entityName": "product"},
			},
		}
	})
	if err != nil {
		return err
	}

	for _, code := range sortedKeys(fields) {
		field := fields[code]
		_, err := p.catalog.ensure(ctx, w, "custom_field", code, "name", func(id string) platform.Entity {
			return platform.Entity{
				"id":               id,
				"name":             code,
				"type":             field.Type,
				"customFieldSetId": setID,
				"config":           map[string]interface{}{"label": map[string]interface{}{p.catalog.locale: code}},
			}
		})
		if err != nil {
			return err
		}

		for locale, value := range field.Values {
			t := w.Translation(locale)
			custom, ok := t["customFields"].(map[string]interface{})
			if !ok {
				custom = map[string]interface{}{}
				t["customFields"] = custom
			}
			custom[code] = value
		}
	}
	return nil
}
