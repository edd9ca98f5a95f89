package order

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mothership-gmbh/sw6-simple-api-sub000/internal/platform"
	"github.com/mothership-gmbh/sw6-simple-api-sub000/internal/platform/platformtest"
	apperrors "github.com/mothership-gmbh/sw6-simple-api-sub000/pkg/errors"
)

func seedOrders(store *platformtest.Store) {
	orders := []platform.Entity{
		{"id": "o1", "orderNumber": "10001", "orderDateTime": "2024-05-01T10:00:00.000+00:00", "amountTotal": 20.5,
			"currency": map[string]interface{}{"isoCode": "EUR"}, "stateMachineState": map[string]interface{}{"technicalName": "open"},
			"orderCustomer": map[string]interface{}{"email": "a@example.com"}},
		{"id": "o2", "orderNumber": "10002", "orderDateTime": "2024-05-03T10:00:00.000+00:00", "amountTotal": 99,
			"currency": map[string]interface{}{"isoCode": "EUR"}, "stateMachineState": map[string]interface{}{"technicalName": "completed"},
			"orderCustomer": map[string]interface{}{"email": "b@example.com"}},
		{"id": "o3", "orderNumber": "10003", "orderDateTime": "2024-05-05T10:00:00.000+00:00", "amountTotal": 5,
			"currency": map[string]interface{}{"isoCode": "CHF"}, "stateMachineState": map[string]interface{}{"technicalName": "open"},
			"orderCustomer": map[string]interface{}{"email": "a@example.com"}},
	}
	store.Seed("order", orders...)
}

func TestGetTransformsDocument(t *testing.T) {
	store := platformtest.NewStore()
	store.SetDocument("order", "0190a1b2c3d4e5f60718293a4b5c6d7e", fixture(t, "order_taxed.json"))
	svc := NewService(store, nil)

	o, err := svc.Get(context.Background(), "0190a1b2c3d4e5f60718293a4b5c6d7e")
	require.NoError(t, err)
	assert.Equal(t, "10042", o.OrderNumber)

	doc, err := svc.Document(context.Background(), "0190a1b2c3d4e5f60718293a4b5c6d7e")
	require.NoError(t, err)
	assert.JSONEq(t, string(fixture(t, "order_taxed.json")), string(doc))
}

func TestGetUnknownOrder(t *testing.T) {
	svc := NewService(platformtest.NewStore(), nil)

	_, err := svc.Get(context.Background(), "missing")
	var notFound *apperrors.ErrNotFound
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "order", notFound.Resource)
}

func TestListNewestFirst(t *testing.T) {
	store := platformtest.NewStore()
	seedOrders(store)
	svc := NewService(store, nil)

	res, err := svc.List(context.Background(), ListRequest{})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Total)
	require.Len(t, res.Data, 3)
	assert.Equal(t, "o3", res.Data[0].ID)
	assert.Equal(t, Summary{
		ID: "o2", OrderNumber: "10002", OrderDate: "2024-05-03T10:00:00.000+00:00",
		AmountTotal: 99, Currency: "EUR", Status: "completed", CustomerEmail: "b@example.com",
	}, res.Data[1])
}

func TestListFilters(t *testing.T) {
	store := platformtest.NewStore()
	seedOrders(store)
	svc := NewService(store, nil)
	ctx := context.Background()

	res, err := svc.List(ctx, ListRequest{Status: "open", CustomerEmail: "a@example.com"})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Total)

	res, err = svc.List(ctx, ListRequest{CreatedFrom: "2024-05-02", CreatedTo: "2024-05-04"})
	require.NoError(t, err)
	require.Len(t, res.Data, 1)
	assert.Equal(t, "o2", res.Data[0].ID)
}

func TestListPaging(t *testing.T) {
	store := platformtest.NewStore()
	seedOrders(store)
	svc := NewService(store, nil)

	res, err := svc.List(context.Background(), ListRequest{Limit: 2, Page: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Total)
	require.Len(t, res.Data, 1)
	assert.Equal(t, "o1", res.Data[0].ID)
}
