package v1

import (
	"errors"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/roundmeet/roundmeet-api/internal/api/handler/v1/response"
	"github.com/roundmeet/roundmeet-api/internal/api/middleware"
	"github.com/roundmeet/roundmeet-api/internal/domain"
	"github.com/roundmeet/roundmeet-api/internal/service"
)

func getUserFromContext(ctx *gin.Context, svc UserService) (domain.User, *response.Err) {
	value, exists := ctx.Get(middleware.ContextKeyUserID)
	if !exists {
		return domain.User{}, response.ErrUnauthorized("user ID is missing from the context")
	}

	userID, ok := value.(uint)
	if !ok {
		return domain.User{}, response.ErrUnauthorized("user ID in the context is malformed")
	}

	user, err := svc.GetUser(ctx.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			return domain.User{}, response.ErrNotFound("user", "ID", userID)
		}

		err = fmt.Errorf("v1.getUserFromContext -> svc.GetUser -> %w", err)

		return domain.User{}, response.ErrInternalServerError(err)
	}

	return user, nil
}

// resolveNow picks the reference time for status evaluation. Outside
// production a "now" query parameter in RFC 3339 overrides the wall
// clock so lifecycle flows can be exercised without waiting.
func resolveNow(ctx *gin.Context, environment string) (time.Time, *response.Err) {
	if environment == "production" {
		return time.Now(), nil
	}

	raw := ctx.Query("now")
	if raw == "" {
		return time.Now(), nil
	}

	now, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, response.ErrBadRequest(fmt.Errorf("invalid now parameter: %w", err))
	}

	return now, nil
}
