package handlers

import (
	"context"
	"encoding/json"

	"github.com/mothership-gmbh/sw6-simple-api-sub000/internal/coupon"
	"github.com/mothership-gmbh/sw6-simple-api-sub000/internal/domain"
	"github.com/mothership-gmbh/sw6-simple-api-sub000/internal/media"
	"github.com/mothership-gmbh/sw6-simple-api-sub000/internal/order"
	"github.com/mothership-gmbh/sw6-simple-api-sub000/internal/product"
)

type ProductService interface {
	Create(ctx context.Context, raw map[string]interface{}) (*product.Result, error)
}

type PayloadQueue interface {
	Enqueue(ctx context.Context, body json.RawMessage) (*domain.Payload, error)
}

type CouponService interface {
	Create(ctx context.Context, raw map[string]interface{}) (*coupon.Result, error)
}

type MediaService interface {
	Create(ctx context.Context, req media.Request, sync bool) (string, error)
}

type OrderService interface {
	Document(ctx context.Context, orderID string) ([]byte, error)
	Get(ctx context.Context, orderID string) (*order.Order, error)
	List(ctx context.Context, req order.ListRequest) (*order.ListResult, error)
}

// Services bundles what the handlers delegate to.
type Services struct {
	Products ProductService
	Payloads PayloadQueue
	Coupons  CouponService
	Media    MediaService
	Orders   OrderService
}
