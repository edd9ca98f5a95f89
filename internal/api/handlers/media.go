package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mothership-gmbh/sw6-simple-api-sub000/internal/media"
	apperrors "github.com/mothership-gmbh/sw6-simple-api-sub000/pkg/errors"
)

// HandleCreateMedia handles POST /api/_action/mothership/media and its _sync variant.
// With sync unset the file upload is handed to the broker.
func HandleCreateMedia(svc MediaService, sync bool, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req media.Request
		if err := c.ShouldBindJSON(&req); err != nil {
			AbortWithError(c, http.StatusBadRequest, apperrors.CodeInvalidPayload, "request body must be a JSON object")
			return
		}

		id, err := svc.Create(c.Request.Context(), req, sync)
		if err != nil {
			respondError(c, logger, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"data": gin.H{"id": id}})
	}
}
