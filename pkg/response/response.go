package response

import (
	"log"
	"net/http"

	"clubdev.app/gamify/pkg/apperror"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ParamUUID parses a UUID path parameter
func ParamUUID(c *gin.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, apperror.ErrInvalidInput
	}
	return id, nil
}

// ResponseError standardized error response
func ResponseError(c *gin.Context, err error) {
	code := apperror.MapErrorToStatus(err)

	// Log internal errors
	if code == http.StatusInternalServerError {
		log.Printf("[Internal Error]: %v", err)
	}

	c.JSON(code, gin.H{"error": err.Error()})
}
