package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	contractdomain "github.com/leaseway/leaseway/internal/contract/domain"
	depositdomain "github.com/leaseway/leaseway/internal/deposit/domain"
	directorydomain "github.com/leaseway/leaseway/internal/directory/domain"
	rentdomain "github.com/leaseway/leaseway/internal/rent/domain"
	signaturedomain "github.com/leaseway/leaseway/internal/signature/domain"
	"gorm.io/gorm"
)

type errorPayload struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	From    string `json:"from,omitempty"`
	To      string `json:"to,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrInvalidRequest = errors.New("invalid_request")
)

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

func mapError(err error) (int, errorPayload) {
	var transitionErr *contractdomain.InvalidTransitionError
	if errors.As(err, &transitionErr) {
		return http.StatusConflict, errorPayload{
			Type:    "invalid_transition",
			Message: transitionErr.Error(),
			From:    string(transitionErr.From),
			To:      string(transitionErr.To),
		}
	}

	switch {
	case errors.Is(err, contractdomain.ErrContractNotFound),
		errors.Is(err, directorydomain.ErrPartyNotFound),
		errors.Is(err, directorydomain.ErrPropertyNotFound),
		errors.Is(err, rentdomain.ErrReceiptNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, contractdomain.ErrInvalidTransition),
		errors.Is(err, contractdomain.ErrMustBeSigned),
		errors.Is(err, contractdomain.ErrStartDateNotReached),
		errors.Is(err, contractdomain.ErrDepositUnpaid),
		errors.Is(err, depositdomain.ErrAlreadyPaid),
		errors.Is(err, signaturedomain.ErrEnvelopeMismatch):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: err.Error(),
		}
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, signaturedomain.ErrInvalidSignature):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case errors.Is(err, depositdomain.ErrNotTenant):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: err.Error(),
		}
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, contractdomain.ErrInvalidRequest),
		errors.Is(err, depositdomain.ErrUnknownDestination),
		errors.Is(err, signaturedomain.ErrInvalidPayload),
		errors.Is(err, signaturedomain.ErrMissingEventID):
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: err.Error(),
		}
	case errors.Is(err, signaturedomain.ErrProviderUnreachable),
		errors.Is(err, depositdomain.ErrGatewayUnavailable):
		return http.StatusBadGateway, errorPayload{
			Type:    "upstream_unavailable",
			Message: err.Error(),
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}
