package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	catalogdomain "github.com/ramirezvene/token-desconto/internal/catalog/domain"
	margindomain "github.com/ramirezvene/token-desconto/internal/margin/domain"
	"github.com/ramirezvene/token-desconto/internal/pricing"
	quotadomain "github.com/ramirezvene/token-desconto/internal/quota/domain"
	tokendomain "github.com/ramirezvene/token-desconto/internal/token/domain"
	"gorm.io/gorm"
)

type errorPayload struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var ErrInvalidRequest = errors.New("invalid_request")

// ErrorHandlingMiddleware turns the last gin error into a JSON payload
// when no handler has written a response.
func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

// mapError keeps the three failure taxonomies apart on the wire:
// validation problems are 400, calculator domain errors are 422, quota
// exhaustion and illegal transitions are 409. Policy rejections never
// reach here; they ride inside a 200 verdict.
func mapError(err error) (int, errorPayload) {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, catalogdomain.ErrInvalidProduct),
		errors.Is(err, catalogdomain.ErrInvalidStore),
		errors.Is(err, catalogdomain.ErrInvalidUF),
		errors.Is(err, margindomain.ErrInvalidSubgroup),
		errors.Is(err, tokendomain.ErrInvalidToken),
		errors.Is(err, tokendomain.ErrInvalidQuantity),
		errors.Is(err, tokendomain.ErrInvalidStatus):
		return http.StatusBadRequest, errorPayload{
			Type:    "invalid_request",
			Message: err.Error(),
		}
	case errors.Is(err, catalogdomain.ErrProductNotFound),
		errors.Is(err, catalogdomain.ErrStoreNotFound),
		errors.Is(err, catalogdomain.ErrStateNotFound),
		errors.Is(err, tokendomain.ErrTokenNotFound),
		errors.Is(err, quotadomain.ErrStoreNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: err.Error(),
		}
	case errors.Is(err, quotadomain.ErrExhausted):
		return http.StatusConflict, errorPayload{
			Type:    "quota_exhausted",
			Message: "store token quota exhausted",
		}
	case errors.Is(err, tokendomain.ErrInvalidTransition):
		return http.StatusConflict, errorPayload{
			Type:    "invalid_transition",
			Message: "token already finalized",
		}
	case errors.Is(err, catalogdomain.ErrRateNotFound),
		pricing.IsDomainErr(err):
		return http.StatusUnprocessableEntity, errorPayload{
			Type:    "unprocessable",
			Message: err.Error(),
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}
