package order

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return data
}

func transformFixture(t *testing.T, name string) *Order {
	t.Helper()
	o, err := Transform(fixture(t, name))
	require.NoError(t, err)
	return o
}

func TestTransformScalars(t *testing.T) {
	o := transformFixture(t, "order_taxed.json")

	assert.Equal(t, "0190a1b2c3d4e5f60718293a4b5c6d7e", o.OrderID)
	assert.Equal(t, "10042", o.OrderNumber)
	assert.Equal(t, "2024-05-01T10:15:00.000+00:00", o.OrderDate)
	assert.Equal(t, "open", o.Status)
	assert.Equal(t, "EUR", o.Currency)
	assert.Equal(t, 1.0, o.CurrencyFactor)
	assert.Equal(t, "C-7", o.CustomerNumber)
	assert.Equal(t, "jane@example.com", o.CustomerEmail)
	assert.Equal(t, "Jane", o.CustomerFirstName)
	assert.Equal(t, "Doe", o.CustomerLastName)
	assert.Equal(t, "Please ring twice", o.CustomerComment)
	assert.Equal(t, "PayPal", o.PaymentMethod)
	assert.Equal(t, "Standard", o.ShippingMethod)
	assert.Equal(t, []string{"TRACK1", "TRACK2"}, o.TrackingCodes)
	assert.Equal(t, "gross", o.TaxStatus)
}

func TestTransformPicksLatestPdfInvoice(t *testing.T) {
	o := transformFixture(t, "order_taxed.json")
	assert.Equal(t, "1002", o.InvoiceNumber)
}

func TestTransformTaxedAmounts(t *testing.T) {
	o := transformFixture(t, "order_taxed.json")

	assert.Equal(t, 97.95, o.GrandTotal)
	assert.Equal(t, 5.95, o.ShippingTotal)
	assert.Equal(t, 15.64, o.TaxAmount)
	assert.Equal(t, 0.95, o.ShippingTaxAmount)
	assert.Equal(t, 19.0, o.ShippingTaxRate)
	assert.Equal(t, 5.0, o.ShippingAmount)
	assert.Equal(t, 77.31, o.SubTotal)

	sum := math.Round((o.TaxAmount+o.SubTotal+o.ShippingAmount)*100) / 100
	assert.InDelta(t, o.GrandTotal, sum, 0.001)
}

func TestTransformTaxFreeAmounts(t *testing.T) {
	o := transformFixture(t, "order_tax_free.json")

	assert.Equal(t, TaxStatusFree, o.TaxStatus)
	assert.Zero(t, o.ShippingTaxRate)
	assert.Zero(t, o.TaxAmount)
	assert.Equal(t, 10.0, o.ShippingAmount)
	assert.Equal(t, 50.0, o.SubTotal)
	assert.Equal(t, 60.0, o.GrandTotal)
	assert.Equal(t, "completed", o.Status)
	assert.Equal(t, "USD", o.Currency)
	assert.Equal(t, 1.08, o.CurrencyFactor)
	assert.Empty(t, o.InvoiceNumber)
	assert.Equal(t, []string{}, o.TrackingCodes)
}

func TestTransformAddresses(t *testing.T) {
	o := transformFixture(t, "order_taxed.json")

	require.NotNil(t, o.BillingAddress)
	assert.Equal(t, "addr-billing", o.BillingAddress.ID)
	assert.Equal(t, "Herr", o.BillingAddress.Salutation)
	assert.Equal(t, "Germany", o.BillingAddress.Country)
	assert.Equal(t, "DE", o.BillingAddress.CountryISO)
	assert.Equal(t, "123456789", o.BillingAddress.VatID)
	assert.Equal(t, "Doe GmbH", o.BillingAddress.Company)

	require.NotNil(t, o.ShippingAddress)
	assert.Equal(t, "addr-shipping", o.ShippingAddress.ID)
	assert.Equal(t, "Frau", o.ShippingAddress.Salutation)
	assert.Equal(t, "AT", o.ShippingAddress.CountryISO)
	assert.Equal(t, "Wien", o.ShippingAddress.City)
}

func TestTransformCopiesBillingWhenNoShipping(t *testing.T) {
	o := transformFixture(t, "order_tax_free.json")

	require.NotNil(t, o.BillingAddress)
	require.NotNil(t, o.ShippingAddress)
	assert.Equal(t, *o.BillingAddress, *o.ShippingAddress)
	assert.Equal(t, "", o.BillingAddress.Salutation, "Not specified maps to empty")
	assert.Equal(t, "USA", o.ShippingAddress.Country)
}

func TestTransformLastShippingAddressWins(t *testing.T) {
	doc := `{
		"data": [{"id": "o1", "type": "order", "attributes": {"billingAddressId": "b", "amountTotal": 0, "shippingTotal": 0}}],
		"included": [
			{"id": "s1", "type": "order_address", "attributes": {"city": "Hamburg"}},
			{"id": "b", "type": "order_address", "attributes": {"city": "Berlin"}},
			{"id": "s2", "type": "order_address", "attributes": {"city": "Munich"}}
		]
	}`
	o, err := Transform([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, "Berlin", o.BillingAddress.City)
	assert.Equal(t, "Munich", o.ShippingAddress.City)
}

func TestTransformLineItemTree(t *testing.T) {
	o := transformFixture(t, "order_taxed.json")

	assert.Equal(t, 100.0, o.TotalCartValue)
	assert.Equal(t, 80.0, o.TotalDiscountableCart)

	require.Len(t, o.LineItems, 4)
	ids := make([]string, 0, len(o.LineItems))
	for _, n := range o.LineItems {
		ids = append(ids, n.ID)
	}
	assert.Equal(t, []string{"li-shirt", "li-cap", "li-bundle", "li-promo"}, ids)

	bundle := o.LineItems[2]
	require.Len(t, bundle.Children, 1)
	assert.Equal(t, "li-socks", bundle.Children[0].ID)
	assert.Equal(t, "SW-SOCKS", bundle.Children[0].ProductNumber)

	require.Len(t, o.LineItemsRaw, 4)
	rawChildren := o.LineItemsRaw[2]["children"].([]map[string]interface{})
	require.Len(t, rawChildren, 1)
	assert.Equal(t, "li-socks", rawChildren[0]["id"])
	assert.Equal(t, "li-bundle", rawChildren[0]["parentId"])
}

func TestTransformEveryChildAppearsOnce(t *testing.T) {
	o := transformFixture(t, "order_taxed.json")

	seen := map[string]int{}
	var walk func(nodes []*LineItem)
	walk = func(nodes []*LineItem) {
		for _, n := range nodes {
			seen[n.ID]++
			walk(n.Children)
		}
	}
	walk(o.LineItems)

	assert.Len(t, seen, 5)
	for id, count := range seen {
		assert.Equal(t, 1, count, id)
	}
}

func TestTransformCartShares(t *testing.T) {
	o := transformFixture(t, "order_taxed.json")

	shirt, hat, promo := o.LineItems[0], o.LineItems[1], o.LineItems[3]
	socks := o.LineItems[2].Children[0]

	assert.InDelta(t, 50.0, shirt.Price.PercentOfCart, 1e-9)
	assert.InDelta(t, 30.0, hat.Price.PercentOfCart, 1e-9)
	assert.InDelta(t, 20.0, socks.Price.PercentOfCart, 1e-9)
	assert.Zero(t, promo.Price.PercentOfCart)
	assert.Zero(t, o.LineItems[2].Price.PercentOfCart, "containers are not products")

	assert.InDelta(t, 62.5, shirt.Price.PercentOfDiscountableCart, 1e-9)
	assert.InDelta(t, 37.5, hat.Price.PercentOfDiscountableCart, 1e-9)
	assert.Zero(t, socks.Price.PercentOfDiscountableCart)

	assert.Equal(t, 2, shirt.Price.Quantity)
	assert.Equal(t, 25.0, shirt.Price.UnitPrice)
	assert.Equal(t, 7.98, shirt.Price.Tax)
	assert.Equal(t, 19.0, shirt.Price.TaxRate)
}

func TestTransformDiscounts(t *testing.T) {
	o := transformFixture(t, "order_taxed.json")

	shirt := o.LineItems[0]
	require.NotNil(t, shirt.Discount)
	assert.Equal(t, Discount{Type: "percentage", TypeAmount: 10, Code: "SUMMER10", Value: 5}, *shirt.Discount)

	require.NotNil(t, o.LineItems[1].Discount)
	assert.Equal(t, 3.0, o.LineItems[1].Discount.Value)
	assert.Nil(t, o.LineItems[2].Children[0].Discount)
}

func TestTransformDiscountableCartCapped(t *testing.T) {
	doc := `{
		"data": [{"id": "o1", "type": "order", "attributes": {"amountTotal": 10, "shippingTotal": 0, "taxStatus": "tax-free"}}],
		"included": [
			{"id": "a", "type": "order_line_item", "attributes": {"identifier": "a", "type": "product", "totalPrice": 20}},
			{"id": "b", "type": "order_line_item", "attributes": {"identifier": "b", "type": "product", "totalPrice": -5}},
			{"id": "p", "type": "order_line_item", "attributes": {"identifier": "p", "type": "promotion", "totalPrice": -5,
				"payload": {"code": "X", "discountType": "absolute", "value": 5, "composition": [{"id": "a", "discount": 5}, {"id": "b", "discount": 0}]}}}
		]
	}`
	o, err := Transform([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, 15.0, o.TotalDiscountableCart)
	assert.Equal(t, 100.0, o.LineItems[0].Price.PercentOfDiscountableCart)
}

func TestTransformOutputShape(t *testing.T) {
	o := transformFixture(t, "order_taxed.json")

	raw, err := json.Marshal(o)
	require.NoError(t, err)
	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &m))

	for _, key := range []string{"order_id", "grand_total", "sub_total", "tax_amount", "shipping_amount",
		"shipping_tax_rate", "billing_address", "shipping_address", "line_items", "line_items_raw", "invoice_number"} {
		assert.Contains(t, m, key)
	}
	assert.Len(t, m, 29)
}

func TestTransformMalformedInput(t *testing.T) {
	_, err := Transform([]byte(`{"data": []}`))
	assert.Error(t, err)

	_, err = Transform([]byte(`{"included": []}`))
	assert.Error(t, err)

	_, err = Transform([]byte(`not json`))
	assert.Error(t, err)

	_, err = Transform([]byte(`{"data": [{"id": "o1", "type": "order"}]}`))
	assert.Error(t, err)
}

func TestNormalizeVatID(t *testing.T) {
	assert.Equal(t, "123456789", NormalizeVatID("DE 123 456 789"))
	assert.Equal(t, "U12345678", NormalizeVatID("ATU12345678"))
	assert.Equal(t, "123", NormalizeVatID("123"))
	assert.Equal(t, "", NormalizeVatID(""))
}
