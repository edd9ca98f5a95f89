package order

// Order is the flattened order returned to downstream systems.
type Order struct {
	OrderID               string                   `json:"order_id"`
	OrderNumber           string                   `json:"order_number"`
	OrderDate             string                   `json:"order_date"`
	Status                string                   `json:"status"`
	Currency              string                   `json:"currency"`
	CurrencyFactor        float64                  `json:"currency_factor"`
	CustomerNumber        string                   `json:"customer_number"`
	CustomerEmail         string                   `json:"customer_email"`
	CustomerFirstName     string                   `json:"customer_first_name"`
	CustomerLastName      string                   `json:"customer_last_name"`
	CustomerComment       string                   `json:"customer_comment"`
	PaymentMethod         string                   `json:"payment_method"`
	ShippingMethod        string                   `json:"shipping_method"`
	TrackingCodes         []string                 `json:"tracking_codes"`
	InvoiceNumber         string                   `json:"invoice_number"`
	TaxStatus             string                   `json:"tax_status"`
	GrandTotal            float64                  `json:"grand_total"`
	SubTotal              float64                  `json:"sub_total"`
	TaxAmount             float64                  `json:"tax_amount"`
	ShippingTotal         float64                  `json:"shipping_total"`
	ShippingAmount        float64                  `json:"shipping_amount"`
	ShippingTaxRate       float64                  `json:"shipping_tax_rate"`
	ShippingTaxAmount     float64                  `json:"shipping_tax_amount"`
	TotalCartValue        float64                  `json:"total_cart_value"`
	TotalDiscountableCart float64                  `json:"total_discountable_cart"`
	BillingAddress        *Address                 `json:"billing_address"`
	ShippingAddress       *Address                 `json:"shipping_address"`
	LineItems             []*LineItem              `json:"line_items"`
	LineItemsRaw          []map[string]interface{} `json:"line_items_raw"`
}

type Address struct {
	ID                     string `json:"id"`
	Salutation             string `json:"salutation"`
	Title                  string `json:"title"`
	FirstName              string `json:"first_name"`
	LastName               string `json:"last_name"`
	Company                string `json:"company"`
	Department             string `json:"department"`
	Street                 string `json:"street"`
	AdditionalAddressLine1 string `json:"additional_address_line1"`
	AdditionalAddressLine2 string `json:"additional_address_line2"`
	Zipcode                string `json:"zipcode"`
	City                   string `json:"city"`
	Country                string `json:"country"`
	CountryISO             string `json:"country_iso"`
	PhoneNumber            string `json:"phone_number"`
	VatID                  string `json:"vat_id"`
}

// LineItem is a normalised order line with its children.
type LineItem struct {
	ID            string                 `json:"id"`
	ProductNumber string                 `json:"productNumber"`
	ReferenceID   string                 `json:"referenceId"`
	Type          string                 `json:"type"`
	Label         string                 `json:"label"`
	Price         Price                  `json:"price"`
	Payload       map[string]interface{} `json:"payload"`
	Discount      *Discount              `json:"discount,omitempty"`
	Children      []*LineItem            `json:"children"`
}

type Price struct {
	Quantity                  int     `json:"quantity"`
	UnitPrice                 float64 `json:"unitPrice"`
	TotalPrice                float64 `json:"totalPrice"`
	Tax                       float64 `json:"tax"`
	TaxRate                   float64 `json:"taxRate"`
	PercentOfCart             float64 `json:"percentOfCart"`
	PercentOfDiscountableCart float64 `json:"percentOfDiscountableCart"`
}

// Discount is the share of a promotion applied to one line.
type Discount struct {
	Type       string  `json:"type"`
	TypeAmount float64 `json:"type_amount"`
	Code       string  `json:"code"`
	Value      float64 `json:"value"`
}
