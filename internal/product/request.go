package product

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/mothership-gmbh/sw6-simple-api-sub000/internal/platform"
)

// Visibility values accepted in "sales_channel".
const (
	VisibilityAll    = "all"
	VisibilitySearch = "search"
	VisibilityLink   = "link"
)

var visibilityLevels = map[string]int{
	VisibilityAll:    30,
	VisibilitySearch: 20,
	VisibilityLink:   10,
}

// translatedFields maps request keys onto platform translation keys.
var translatedFields = map[string]string{
	"name":             "name",
	"description":      "description",
	"keywords":         "keywords",
	"meta_title":       "metaTitle",
	"meta_description": "metaDescription",
}

// inheritedFields are copied from the parent into variants that omit them.
var inheritedFields = []string{"tax", "price", "stock"}

// Image is one entry of "images".
type Image struct {
	URL      string
	FileName string
	IsCover  bool
}

// CustomField is one entry of "custom_fields".
type CustomField struct {
	Type   string
	Values map[string]interface{}
}

// Request is a validated product request. Nil slices and maps mean the key was
// absent and the matching association is left alone; empty ones clear it.
type Request struct {
	SKU                string
	Translations       map[string]map[string]string // locale -> platform key -> value
	Price              map[string]float64
	Tax                float64
	Stock              int
	Active             *bool
	EAN                *string
	ManufacturerNumber *string
	Manufacturer       *string
	CmsPageID          *string
	ReleaseDate        *time.Time
	Categories         []string
	Properties         map[string][]string
	Images             []Image
	SalesChannels      map[string]string
	CustomFields       map[string]CustomField
	Axis               map[string][]string
	Variants           []*Request
}

// Parse converts a validated raw request. Variants receive inherited fields first.
func Parse(raw map[string]interface{}) (*Request, error) {
	req, err := parseOne(raw)
	if err != nil {
		return nil, err
	}

	if items, ok := platform.AsSlice(raw["variants"]); ok {
		req.Variants = make([]*Request, 0, len(items))
		for i, item := range items {
			m, ok := platform.AsMap(item)
			if !ok {
				return nil, fmt.Errorf("variant %d is not an object", i)
			}
			variant, err := parseOne(inherit(raw, m))
			if err != nil {
				return nil, fmt.Errorf("variant %d: %w", i, err)
			}
			req.Variants = append(req.Variants, variant)
		}
	}
	return req, nil
}

// inherit returns a copy of variant with missing inherited fields taken from parent.
func inherit(parent, variant map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(variant)+len(inheritedFields))
	for k, v := range variant {
		out[k] = v
	}
	for _, key := range inheritedFields {
		if _, ok := out[key]; !ok {
			if v, ok := parent[key]; ok {
				out[key] = v
			}
		}
	}
	return out
}

func parseOne(raw map[string]interface{}) (*Request, error) {
	req := &Request{
		SKU:          platform.AsString(raw["sku"]),
		Translations: map[string]map[string]string{},
	}

	tax, ok := platform.AsFloat(raw["tax"])
	if !ok {
		return nil, fmt.Errorf("tax is not a number")
	}
	req.Tax = tax

	stock, ok := platform.AsFloat(raw["stock"])
	if !ok {
		return nil, fmt.Errorf("stock is not a number")
	}
	req.Stock = int(math.Round(stock))

	prices, _ := platform.AsMap(raw["price"])
	req.Price = make(map[string]float64, len(prices))
	for iso, v := range prices {
		f, _ := platform.AsFloat(v)
		req.Price[iso] = f
	}

	for key, target := range translatedFields {
		values, ok := platform.AsMap(raw[key])
		if !ok {
			continue
		}
		for locale, v := range values {
			if req.Translations[locale] == nil {
				req.Translations[locale] = map[string]string{}
			}
			req.Translations[locale][target] = platform.AsString(v)
		}
	}

	if v, ok := raw["active"].(bool); ok {
		req.Active = &v
	}
	req.EAN = optionalString(raw, "ean")
	req.ManufacturerNumber = optionalString(raw, "manufacturer_number")
	req.Manufacturer = optionalString(raw, "manufacturer")
	req.CmsPageID = optionalString(raw, "cms_page_id")

	if s := platform.AsString(raw["release_date"]); s != "" {
		t, err := parseReleaseDate(s)
		if err != nil {
			return nil, err
		}
		req.ReleaseDate = &t
	}

	if items, ok := platform.AsSlice(raw["categories"]); ok {
		req.Categories = make([]string, 0, len(items))
		for _, item := range items {
			req.Categories = append(req.Categories, platform.AsString(item))
		}
	}

	req.Properties = optionGroups(raw["properties"])
	req.Axis = optionGroups(raw["axis"])

	if items, ok := platform.AsSlice(raw["images"]); ok {
		req.Images = make([]Image, 0, len(items))
		for _, item := range items {
			m, _ := platform.AsMap(item)
			cover, _ := m["isCover"].(bool)
			req.Images = append(req.Images, Image{
				URL:      platform.AsString(m["url"]),
				FileName: platform.AsString(m["file_name"]),
				IsCover:  cover,
			})
		}
	}

	if channels, ok := platform.AsMap(raw["sales_channel"]); ok {
		req.SalesChannels = make(map[string]string, len(channels))
		for name, v := range channels {
			req.SalesChannels[name] = platform.AsString(v)
		}
	}

	if fields, ok := platform.AsMap(raw["custom_fields"]); ok {
		req.CustomFields = make(map[string]CustomField, len(fields))
		for code, v := range fields {
			m, _ := platform.AsMap(v)
			values, _ := platform.AsMap(m["values"])
			req.CustomFields[code] = CustomField{Type: platform.AsString(m["type"]), Values: values}
		}
	}

	return req, nil
}

func optionalString(raw map[string]interface{}, key string) *string {
	v, ok := raw[key]
	if !ok || v == nil {
		return nil
	}
	s := platform.AsString(v)
	return &s
}

func optionGroups(v interface{}) map[string][]string {
	groups, ok := platform.AsMap(v)
	if !ok {
		return nil
	}
	out := make(map[string][]string, len(groups))
	for group, options := range groups {
		items, _ := platform.AsSlice(options)
		names := make([]string, 0, len(items))
		for _, item := range items {
			names = append(names, platform.AsString(item))
		}
		out[group] = names
	}
	return out
}

func parseReleaseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid release date %q", s)
	}
	return t, nil
}

// sortedKeys returns map keys in a stable order so writes are deterministic.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
