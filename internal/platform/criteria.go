package platform

// Criteria is the search criteria understood by the Admin API search endpoints.
type Criteria struct {
	IDs            []string             `json:"ids,omitempty"`
	Filter         []Filter             `json:"filter,omitempty"`
	Sort           []Sorting            `json:"sort,omitempty"`
	Limit          int                  `json:"limit,omitempty"`
	Page           int                  `json:"page,omitempty"`
	Associations   map[string]*Criteria `json:"associations,omitempty"`
	TotalCountMode int                  `json:"total-count-mode,omitempty"`
}

// Filter is a single criteria filter. Only equals, equalsAny, range and multi are used.
type Filter struct {
	Type       string                 `json:"type"`
	Field      string                 `json:"field,omitempty"`
	Value      interface{}            `json:"value,omitempty"`
	Operator   string                 `json:"operator,omitempty"`
	Queries    []Filter               `json:"queries,omitempty"`
	Parameters map[string]interface{} `json:"parameters,omitempty"`
}

// Sorting orders search results.
type Sorting struct {
	Field string `json:"field"`
	Order string `json:"order"`
}

// NewCriteria returns empty criteria.
func NewCriteria() *Criteria {
	return &Criteria{}
}

// WithIDs restricts the search to ids.
func (c *Criteria) WithIDs(ids ...string) *Criteria {
	c.IDs = append(c.IDs, ids...)
	return c
}

// WithFilter adds filters.
func (c *Criteria) WithFilter(filters ...Filter) *Criteria {
	c.Filter = append(c.Filter, filters...)
	return c
}

// WithAssociation loads an association. Nested associations use dots, e.g. "addresses.country".
func (c *Criteria) WithAssociation(path string) *Criteria {
	cur := c
	for _, part := range splitPath(path) {
		if cur.Associations == nil {
			cur.Associations = map[string]*Criteria{}
		}
		next, ok := cur.Associations[part]
		if !ok {
			next = &Criteria{}
			cur.Associations[part] = next
		}
		cur = next
	}
	return c
}

// WithLimit sets limit and page.
func (c *Criteria) WithLimit(limit, page int) *Criteria {
	c.Limit = limit
	c.Page = page
	return c
}

// WithSort appends a sorting.
func (c *Criteria) WithSort(field, order string) *Criteria {
	c.Sort = append(c.Sort, Sorting{Field: field, Order: order})
	return c
}

// Equals matches field == value.
func Equals(field string, value interface{}) Filter {
	return Filter{Type: "equals", Field: field, Value: value}
}

// EqualsAny matches field in values.
func EqualsAny(field string, values []string) Filter {
	return Filter{Type: "equalsAny", Field: field, Value: values}
}

// Range matches gte/lte bounds on field.
func Range(field string, gte, lte string) Filter {
	params := map[string]interface{}{}
	if gte != "" {
		params["gte"] = gte
	}
	if lte != "" {
		params["lte"] = lte
	}
	return Filter{Type: "range", Field: field, Parameters: params}
}
