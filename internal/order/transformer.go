// Package order flattens JSON:API order documents and searches orders.
package order

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mothership-gmbh/sw6-simple-api-sub000/internal/platform"
)

const (
	TaxStatusFree = "tax-free"

	lineItemProduct   = "product"
	lineItemPromotion = "promotion"
)

var (
	whitespace       = regexp.MustCompile(`\s+`)
	vatCountryPrefix = regexp.MustCompile(`^[A-Za-z]{2}`)
)

// germanSalutations re-maps English display names for DE and AT addresses.
var germanSalutations = map[string]string{
	"Mr.":      "Herr",
	"Mrs.":     "Frau",
	"Ms.":      "Frau",
	"Dr. Mr.":  "Herr Dr.",
	"Mr. Dr.":  "Herr Dr.",
	"Dr. Mrs.": "Frau Dr.",
	"Mrs. Dr.": "Frau Dr.",
}

var germanCountries = map[string]bool{"DE": true, "AT": true}

type record struct {
	ID         string                 `json:"id"`
	Type       string                 `json:"type"`
	Attributes map[string]interface{} `json:"attributes"`
}

func (r record) str(path string) string {
	v, _ := platform.Path(r.Attributes, path)
	return platform.AsString(v)
}

// num reads a number. Line item payloads carry some numbers as strings.
func (r record) num(path string) float64 {
	v, _ := platform.Path(r.Attributes, path)
	if s, ok := v.(string); ok {
		f, _ := strconv.ParseFloat(s, 64)
		return f
	}
	f, _ := platform.AsFloat(v)
	return f
}

type document struct {
	Data     json.RawMessage `json:"data"`
	Included []record        `json:"included"`
}

// promotion is a promotion line with the lines it discounted.
type promotion struct {
	discountType string
	typeAmount   float64
	code         string
	composition  map[string]float64 // line identifier -> discount
}

// Transform flattens a JSON:API order document. It does no I/O and fails with
// a plain error when the document has no order.
func Transform(doc []byte) (*Order, error) {
	var d document
	if err := json.Unmarshal(doc, &d); err != nil {
		return nil, fmt.Errorf("failed to decode order document: %w", err)
	}
	root, err := firstRecord(d.Data)
	if err != nil {
		return nil, err
	}

	t := &transformer{root: root, included: d.Included, byID: map[string]record{}}
	for _, r := range d.Included {
		t.byID[r.Type+":"+r.ID] = r
	}

	out := &Order{TrackingCodes: []string{}}
	t.scalars(out)
	if err := t.amounts(out); err != nil {
		return nil, err
	}
	t.addresses(out)
	t.lineItems(out)
	return out, nil
}

func firstRecord(data json.RawMessage) (record, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return record{}, errors.New("order document has no data")
	}

	if data[0] == '[' {
		var list []record
		if err := json.Unmarshal(data, &list); err != nil {
			return record{}, fmt.Errorf("failed to decode order data: %w", err)
		}
		if len(list) == 0 {
			return record{}, errors.New("order document has no data")
		}
		return list[0], nil
	}

	var single record
	if err := json.Unmarshal(data, &single); err != nil {
		return record{}, fmt.Errorf("failed to decode order data: %w", err)
	}
	return single, nil
}

type transformer struct {
	root     record
	included []record
	byID     map[string]record
}

func (t *transformer) lookup(typ, id string) (record, bool) {
	r, ok := t.byID[typ+":"+id]
	return r, ok
}

func (t *transformer) scalars(out *Order) {
	o := t.root
	out.OrderID = o.ID
	out.OrderNumber = o.str("orderNumber")
	out.OrderDate = o.str("orderDateTime")
	out.CurrencyFactor = o.num("currencyFactor")
	out.CustomerComment = o.str("customerComment")
	out.TaxStatus = o.str("taxStatus")
	if out.TaxStatus == "" {
		out.TaxStatus = o.str("price.taxStatus")
	}

	var invoiceAt time.Time
	var paymentMethodID, shippingMethodID string
	for _, r := range t.included {
		switch r.Type {
		case "order_customer":
			out.CustomerNumber = r.str("customerNumber")
			out.CustomerEmail = r.str("email")
			out.CustomerFirstName = r.str("firstName")
			out.CustomerLastName = r.str("lastName")
		case "currency":
			if r.ID == o.str("currencyId") || out.Currency == "" {
				out.Currency = r.str("isoCode")
			}
		case "state_machine_state":
			if r.ID == o.str("stateId") {
				out.Status = r.str("technicalName")
			}
		case "order_transaction":
			paymentMethodID = r.str("paymentMethodId")
		case "order_delivery":
			shippingMethodID = r.str("shippingMethodId")
			if codes, ok := platform.AsSlice(r.Attributes["trackingCodes"]); ok {
				for _, c := range codes {
					out.TrackingCodes = append(out.TrackingCodes, platform.AsString(c))
				}
			}
		case "payment_method":
			if out.PaymentMethod == "" {
				out.PaymentMethod = displayName(r)
			}
		case "shipping_method":
			if out.ShippingMethod == "" {
				out.ShippingMethod = displayName(r)
			}
		case "document":
			number := r.str("config.custom.invoiceNumber")
			if number == "" || r.str("fileType") != "pdf" {
				continue
			}
			created, err := time.Parse(time.RFC3339Nano, r.str("createdAt"))
			if err != nil {
				continue
			}
			if out.InvoiceNumber == "" || !created.Before(invoiceAt) {
				out.InvoiceNumber = number
				invoiceAt = created
			}
		}
	}

	// the method actually used wins over the first one listed
	if m, ok := t.lookup("payment_method", paymentMethodID); ok {
		out.PaymentMethod = displayName(m)
	}
	if m, ok := t.lookup("shipping_method", shippingMethodID); ok {
		out.ShippingMethod = displayName(m)
	}
}

func displayName(r record) string {
	if name := r.str("translated.name"); name != "" {
		return name
	}
	return r.str("name")
}

func (t *transformer) amounts(out *Order) error {
	o := t.root
	if o.Attributes == nil {
		return errors.New("order has no attributes")
	}

	grand := decimal.NewFromFloat(o.num("amountTotal"))
	shippingTotal := decimal.NewFromFloat(o.num("shippingTotal"))
	out.GrandTotal = round2(grand)
	out.ShippingTotal = round2(shippingTotal)

	if out.TaxStatus == TaxStatusFree {
		out.TaxAmount = 0
		out.ShippingTaxRate = 0
		out.ShippingTaxAmount = 0
		out.ShippingAmount = out.ShippingTotal
		out.SubTotal = round2(grand.Sub(shippingTotal))
		return nil
	}

	tax := firstTax(o.Attributes, "price.calculatedTaxes")
	shippingTax := firstTax(o.Attributes, "shippingCosts.calculatedTaxes")

	shippingAmount := shippingTotal.Sub(shippingTax.tax)
	out.TaxAmount = round2(tax.tax)
	out.ShippingTaxAmount = round2(shippingTax.tax)
	out.ShippingTaxRate = round2(shippingTax.rate)
	out.ShippingAmount = round2(shippingAmount)
	out.SubTotal = round2(grand.Sub(tax.tax).Sub(shippingAmount))
	return nil
}

type calculatedTax struct {
	tax  decimal.Decimal
	rate decimal.Decimal
}

func firstTax(attrs map[string]interface{}, path string) calculatedTax {
	v, _ := platform.Path(attrs, path)
	taxes, _ := platform.AsSlice(v)
	if len(taxes) == 0 {
		return calculatedTax{tax: decimal.Zero, rate: decimal.Zero}
	}
	first, _ := platform.AsMap(taxes[0])
	tax, _ := platform.AsFloat(first["tax"])
	rate, _ := platform.AsFloat(first["taxRate"])
	return calculatedTax{tax: decimal.NewFromFloat(tax), rate: decimal.NewFromFloat(rate)}
}

func round2(d decimal.Decimal) float64 {
	f, _ := d.Round(2).Float64()
	return f
}

// addresses splits order addresses into billing and shipping. Any address that
// is not the billing address is shipping; with several, the last one wins.
func (t *transformer) addresses(out *Order) {
	billingID := t.root.str("billingAddressId")
	for _, r := range t.included {
		if r.Type != "order_address" {
			continue
		}
		addr := t.address(r)
		if r.ID == billingID {
			out.BillingAddress = addr
		} else {
			out.ShippingAddress = addr
		}
	}
	if out.ShippingAddress == nil && out.BillingAddress != nil {
		shipping := *out.BillingAddress
		out.ShippingAddress = &shipping
	}
}

func (t *transformer) address(r record) *Address {
	addr := &Address{
		ID:                     r.ID,
		Title:                  r.str("title"),
		FirstName:              r.str("firstName"),
		LastName:               r.str("lastName"),
		Company:                r.str("company"),
		Department:             r.str("department"),
		Street:                 r.str("street"),
		AdditionalAddressLine1: r.str("additionalAddressLine1"),
		AdditionalAddressLine2: r.str("additionalAddressLine2"),
		Zipcode:                r.str("zipcode"),
		City:                   r.str("city"),
		PhoneNumber:            r.str("phoneNumber"),
		VatID:                  NormalizeVatID(r.str("vatId")),
	}

	countryID := r.str("countryId")
	for _, c := range t.included {
		if c.Type == "country" && c.ID == countryID {
			addr.Country = displayName(c)
			addr.CountryISO = c.str("iso")
			break
		}
	}

	addr.Salutation = t.salutation(r.str("salutationId"), addr.CountryISO)
	return addr
}

// salutation resolves a salutation id to its display name. German speaking
// countries get the German title.
func (t *transformer) salutation(id, countryISO string) string {
	s, ok := t.lookup("salutation", id)
	if !ok {
		return ""
	}
	name := s.str("translated.displayName")
	if name == "" {
		name = s.str("displayName")
	}
	if name == "Not specified" || s.str("salutationKey") == "not_specified" {
		return ""
	}
	if germanCountries[strings.ToUpper(countryISO)] {
		if german, ok := germanSalutations[name]; ok {
			return german
		}
	}
	return name
}

// NormalizeVatID strips whitespace and a leading two letter country prefix.
func NormalizeVatID(vatID string) string {
	return vatCountryPrefix.ReplaceAllString(whitespace.ReplaceAllString(vatID, ""), "")
}

// lineItems rebuilds the line item tree and computes cart shares.
func (t *transformer) lineItems(out *Order) {
	var lines []record
	var promotions []promotion
	for _, r := range t.included {
		if r.Type != "order_line_item" {
			continue
		}
		lines = append(lines, r)
		if r.str("type") == lineItemPromotion {
			promotions = append(promotions, newPromotion(r))
		}
	}

	discounts := map[string]Discount{}
	for _, p := range promotions {
		for identifier, value := range p.composition {
			if _, seen := discounts[identifier]; seen {
				continue
			}
			discounts[identifier] = Discount{Type: p.discountType, TypeAmount: p.typeAmount, Code: p.code, Value: value}
		}
	}

	cartValue := decimal.Zero
	discountable := decimal.Zero
	for _, r := range lines {
		total := decimal.NewFromFloat(r.num("totalPrice"))
		if r.str("type") == lineItemProduct {
			cartValue = cartValue.Add(total)
		}
		if _, ok := discounts[lineKey(r, discounts)]; ok {
			discountable = discountable.Add(total)
		}
	}
	out.TotalCartValue = round2(cartValue)
	out.TotalDiscountableCart = round2(discountable)

	nodes := make([]*LineItem, len(lines))
	raws := make([]map[string]interface{}, len(lines))
	index := make(map[string]int, len(lines))
	for i, r := range lines {
		index[r.ID] = i
		nodes[i] = t.node(r, cartValue, discountable, discounts)
		raw := map[string]interface{}{"id": r.ID, "type": r.Type}
		for k, v := range r.Attributes {
			raw[k] = v
		}
		raw["children"] = []map[string]interface{}{}
		raws[i] = raw
	}

	out.LineItems = []*LineItem{}
	out.LineItemsRaw = []map[string]interface{}{}
	for i, r := range lines {
		parent, ok := index[r.str("parentId")]
		if !ok || parent == i {
			out.LineItems = append(out.LineItems, nodes[i])
			out.LineItemsRaw = append(out.LineItemsRaw, raws[i])
			continue
		}
		nodes[parent].Children = append(nodes[parent].Children, nodes[i])
		raws[parent]["children"] = append(raws[parent]["children"].([]map[string]interface{}), raws[i])
	}
}

func (t *transformer) node(r record, cartValue, discountable decimal.Decimal, discounts map[string]Discount) *LineItem {
	payload, _ := platform.AsMap(r.Attributes["payload"])
	if payload == nil {
		payload = map[string]interface{}{}
	}
	tax := firstTax(r.Attributes, "price.calculatedTaxes")
	total := r.num("totalPrice")

	n := &LineItem{
		ID:            r.ID,
		ProductNumber: platform.AsString(payload["productNumber"]),
		ReferenceID:   r.str("referencedId"),
		Type:          r.str("type"),
		Label:         r.str("label"),
		Payload:       payload,
		Children:      []*LineItem{},
		Price: Price{
			Quantity:   int(r.num("quantity")),
			UnitPrice:  r.num("unitPrice"),
			TotalPrice: total,
			Tax:        round2(tax.tax),
			TaxRate:    round2(tax.rate),
		},
	}

	if n.Type == lineItemProduct && cartValue.IsPositive() {
		n.Price.PercentOfCart = total / cartValue.InexactFloat64() * 100
	}
	if d, ok := discounts[lineKey(r, discounts)]; ok {
		discount := d
		n.Discount = &discount
		if discountable.IsPositive() {
			n.Price.PercentOfDiscountableCart = total / discountable.InexactFloat64() * 100
			if n.Price.PercentOfDiscountableCart > 100 {
				n.Price.PercentOfDiscountableCart = 100
			}
		}
	}
	return n
}

// lineKey returns the key a promotion composition uses for r: its cart
// identifier, or the record id when the identifier is not referenced.
func lineKey(r record, discounts map[string]Discount) string {
	if identifier := r.str("identifier"); identifier != "" {
		if _, ok := discounts[identifier]; ok {
			return identifier
		}
	}
	return r.ID
}

func newPromotion(r record) promotion {
	p := promotion{
		discountType: r.str("payload.discountType"),
		typeAmount:   r.num("payload.value"),
		code:         r.str("payload.code"),
		composition:  map[string]float64{},
	}
	if p.code == "" {
		p.code = r.str("referencedId")
	}
	v, _ := platform.Path(r.Attributes, "payload.composition")
	items, _ := platform.AsSlice(v)
	for _, item := range items {
		m, _ := platform.AsMap(item)
		id := platform.AsString(m["id"])
		if id == "" {
			continue
		}
		discount, _ := platform.AsFloat(m["discount"])
		if _, seen := p.composition[id]; !seen {
			p.composition[id] = discount
		}
	}
	return p
}
