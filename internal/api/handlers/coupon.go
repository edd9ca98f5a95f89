package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// HandleCreateCoupon handles POST /api/mothership/coupon
func HandleCreateCoupon(coupons CouponService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bindObject(c)
		if !ok {
			return
		}

		result, err := coupons.Create(c.Request.Context(), raw)
		if err != nil {
			respondError(c, logger, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"data": result})
	}
}
