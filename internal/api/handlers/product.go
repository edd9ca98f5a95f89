package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apperrors "github.com/mothership-gmbh/sw6-simple-api-sub000/pkg/errors"
)

// HandleCreateProduct handles POST /api/mothership/product
func HandleCreateProduct(products ProductService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bindObject(c)
		if !ok {
			return
		}

		result, err := products.Create(c.Request.Context(), raw)
		if err != nil {
			respondError(c, logger, err)
			return
		}

		logger.Info("Product written", zap.String("product_id", result.ID), zap.String("sku", result.SKU))
		c.JSON(http.StatusOK, gin.H{"data": result})
	}
}

// HandleEnqueueProduct handles POST /api/mothership/product/async
func HandleEnqueueProduct(payloads PayloadQueue, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := c.GetRawData()
		if err != nil || !json.Valid(body) {
			AbortWithError(c, http.StatusBadRequest, apperrors.CodeInvalidPayload, "request body must be a JSON object")
			return
		}

		p, err := payloads.Enqueue(c.Request.Context(), body)
		if err != nil {
			respondError(c, logger, err)
			return
		}

		c.JSON(http.StatusAccepted, gin.H{"data": gin.H{
			"payload_id": p.ID.String(),
			"status":     p.Status,
		}})
	}
}
