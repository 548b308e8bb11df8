package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Fosho-App/fosho-v1/internal/domain"
	"github.com/Fosho-App/fosho-v1/internal/service"
	"github.com/Fosho-App/fosho-v1/pkg/logger"
	"github.com/Fosho-App/fosho-v1/pkg/middleware"
	"github.com/Fosho-App/fosho-v1/pkg/response"
)

// writeError maps service errors onto HTTP responses. Domain errors
// carry a kind that decides the status and a stable code that clients
// can branch on; anything else is a 500.
func writeError(c *gin.Context, log *logger.Logger, err error) {
	var ve *service.ValidationError
	if errors.As(err, &ve) {
		c.JSON(http.StatusBadRequest, response.ValidationFailed(ve.Message))
		return
	}

	if de, ok := domain.AsDomain(err); ok {
		c.JSON(statusForKind(de), response.ErrorWithKind(de.Code, string(de.Kind), de.Message))
		return
	}

	if log != nil {
		log.ErrorContext(c.Request.Context(), "unhandled service error", zap.Error(err))
	}
	c.JSON(http.StatusInternalServerError, response.InternalError("internal server error"))
}

func statusForKind(de *domain.Error) int {
	switch de.Kind {
	case domain.KindAuthorization, domain.KindEligibility:
		return http.StatusForbidden
	case domain.KindState, domain.KindCapacity:
		return http.StatusConflict
	case domain.KindTiming:
		return http.StatusUnprocessableEntity
	case domain.KindResource:
		if errors.Is(de, domain.ErrInsufficientFunds) {
			return http.StatusPaymentRequired
		}
		return http.StatusBadRequest
	case domain.KindArithmetic:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// requireIdentity fetches the authenticated identity or writes a 401.
func requireIdentity(c *gin.Context) (string, bool) {
	identity, ok := middleware.GetIdentity(c)
	if !ok || identity == "" {
		c.JSON(http.StatusUnauthorized, response.Unauthorized("identity not found in token"))
		return "", false
	}
	return identity, true
}
