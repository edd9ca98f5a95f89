package coupon

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mothership-gmbh/sw6-simple-api-sub000/internal/identity"
	"github.com/mothership-gmbh/sw6-simple-api-sub000/internal/lookup"
	"github.com/mothership-gmbh/sw6-simple-api-sub000/internal/platform"
	"github.com/mothership-gmbh/sw6-simple-api-sub000/internal/platform/platformtest"
	apperrors "github.com/mothership-gmbh/sw6-simple-api-sub000/pkg/errors"
)

func decode(t *testing.T, body string) map[string]interface{} {
	t.Helper()
	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(body), &raw))
	return raw
}

func newTestService() (*Service, *platformtest.Store) {
	store := platformtest.NewStore()
	store.Seed("sales_channel", platform.Entity{"id": identity.FromKey("storefront"), "name": "Storefront"})
	resolver := lookup.NewResolver(store, nil, 0, nil)
	return NewService(store, resolver, "en-GB", nil), store
}

func TestCreateWithCode(t *testing.T) {
	svc, store := newTestService()

	res, err := svc.Create(context.Background(), decode(t, `{
		"name": "Summer sale",
		"code": "SUMMER24",
		"discount_type": "percentage",
		"discount_value": 10,
		"valid_until": "2024-09-01T00:00:00Z",
		"max_uses": 100,
		"sales_channels": ["Storefront"]
	}`))
	require.NoError(t, err)
	assert.Equal(t, "SUMMER24", res.Code)
	assert.Equal(t, identity.FromKey("promotion:SUMMER24"), res.ID)

	p := store.Get("promotion", res.ID)
	require.NotNil(t, p)
	assert.Equal(t, "Summer sale", p.String("name"))
	assert.Equal(t, true, p["useIndividualCodes"])
	assert.Equal(t, float64(100), p["maxRedemptionsGlobal"])
	assert.Equal(t, "2024-09-01T00:00:00Z", p.String("validUntil"))

	discounts := store.Rows("promotion_discount")
	require.Len(t, discounts, 1)
	assert.Equal(t, identity.FromKey("promotion-discount:SUMMER24"), discounts[0].ID())
	assert.Equal(t, "percentage", discounts[0].String("type"))
	assert.Equal(t, float64(10), discounts[0]["value"])
	assert.Equal(t, "cart", discounts[0].String("scope"))

	codes := store.Rows("promotion_individual_code")
	require.Len(t, codes, 1)
	assert.Equal(t, "SUMMER24", codes[0].String("code"))
	assert.Equal(t, res.ID, codes[0].String("promotionId"))

	channels := store.Rows("promotion_sales_channel")
	require.Len(t, channels, 1)
	assert.Equal(t, identity.FromKey("storefront"), channels[0].String("salesChannelId"))
}

func TestCreateIsIdempotentForGivenCode(t *testing.T) {
	svc, store := newTestService()
	body := `{"name":"A","code":"X1","discount_type":"absolute","discount_value":5}`

	_, err := svc.Create(context.Background(), decode(t, body))
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), decode(t, body))
	require.NoError(t, err)

	assert.Equal(t, 1, store.Count("promotion"))
	assert.Equal(t, 1, store.Count("promotion_discount"))
	assert.Equal(t, 1, store.Count("promotion_individual_code"))
}

func TestCreateGeneratesCode(t *testing.T) {
	svc, _ := newTestService()

	res, err := svc.Create(context.Background(), decode(t,
		`{"name":"A","discount_type":"absolute","discount_value":5,"code_prefix":"welcome"}`))
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^WELCOME-[0-9A-F]{8}$`), res.Code)
}

func TestGenerateCodeDefaultPrefix(t *testing.T) {
	assert.Regexp(t, `^MS-[0-9A-F]{8}$`, GenerateCode(""))
	assert.NotEqual(t, GenerateCode(""), GenerateCode(""))
}

func TestCreateValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
		code string
	}{
		{"missing name", `{"discount_type":"absolute","discount_value":5}`, apperrors.CodeMissingField},
		{"missing type", `{"name":"A","discount_value":5}`, apperrors.CodeMissingField},
		{"bad type", `{"name":"A","discount_type":"free","discount_value":5}`, apperrors.CodeInvalidDiscountType},
		{"missing value", `{"name":"A","discount_type":"absolute"}`, apperrors.CodeMissingField},
		{"negative value", `{"name":"A","discount_type":"absolute","discount_value":-1}`, apperrors.CodeInvalidPayload},
		{"percentage over 100", `{"name":"A","discount_type":"percentage","discount_value":120}`, apperrors.CodeInvalidPayload},
		{"sales channels not a list", `{"name":"A","discount_type":"absolute","discount_value":5,"sales_channels":"Storefront"}`, apperrors.CodeInvalidPayload},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store := newTestService()
			_, err := svc.Create(context.Background(), decode(t, tt.body))
			require.Error(t, err)
			assert.Equal(t, tt.code, apperrors.Code(err))
			assert.Zero(t, store.Count("promotion"))
		})
	}
}

func TestCreateUnknownSalesChannel(t *testing.T) {
	svc, store := newTestService()

	_, err := svc.Create(context.Background(), decode(t,
		`{"name":"A","discount_type":"absolute","discount_value":5,"sales_channels":["Outlet"]}`))
	assert.True(t, errors.Is(err, apperrors.ErrInvalidSalesChannel))
	assert.Zero(t, store.Count("promotion"))
}
