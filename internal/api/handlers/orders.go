package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mothership-gmbh/sw6-simple-api-sub000/internal/order"
	apperrors "github.com/mothership-gmbh/sw6-simple-api-sub000/pkg/errors"
)

// TransformHeader switches the order response to the flattened container.
const TransformHeader = "mothership-transform"

// HandleGetOrder handles GET /api/mothership/search/order/:orderId
func HandleGetOrder(orders OrderService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID := c.Param("orderId")

		if strings.EqualFold(c.GetHeader(TransformHeader), "true") {
			o, err := orders.Get(c.Request.Context(), orderID)
			if err != nil {
				respondError(c, logger, err)
				return
			}
			c.JSON(http.StatusOK, o)
			return
		}

		doc, err := orders.Document(c.Request.Context(), orderID)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.Data(http.StatusOK, "application/vnd.api+json", doc)
	}
}

// HandleListOrders handles POST /api/mothership/search/order
func HandleListOrders(orders OrderService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req order.ListRequest
		if c.Request.ContentLength != 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				AbortWithError(c, http.StatusBadRequest, apperrors.CodeInvalidPayload, "invalid search body")
				return
			}
		}

		result, err := orders.List(c.Request.Context(), req)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}
