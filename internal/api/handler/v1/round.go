package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/roundmeet/roundmeet-api/internal/api/handler/v1/request"
	"github.com/roundmeet/roundmeet-api/internal/api/handler/v1/response"
	"github.com/roundmeet/roundmeet-api/internal/config"
	"github.com/roundmeet/roundmeet-api/internal/domain"
	"github.com/roundmeet/roundmeet-api/internal/service"
)

type RoundService interface {
	CreateRound(ctx context.Context, round domain.Round, organizerID uint) (domain.Round, error)
	GetRound(ctx context.Context, id uint) (domain.Round, error)
	GetRoundsBySession(ctx context.Context, sessionID uint) ([]domain.Round, error)
	CancelRound(ctx context.Context, roundID, organizerID uint, now time.Time) error
	SweepStatuses(ctx context.Context, roundID uint, now time.Time) (int, error)
}

type RoundHandler struct {
	conf *config.APIConfig
	svc  RoundService
	uSvc UserService
}

func NewRoundHandler(conf *config.APIConfig, svc RoundService, uSvc UserService) *RoundHandler {
	return &RoundHandler{
		conf: conf,
		svc:  svc,
		uSvc: uSvc,
	}
}

// HandleCreateRound godoc
// @Summary      Create a round in a session
// @Description  Schedules a matching round. Only the session organizer can create rounds.
// @Tags         rounds
// @Accept       json
// @Produce      json
// @Param        request  body       request.CreateRoundRequest true "request body"
// @Success      201      {object}   domain.Round
// @Failure      400      {object}   response.Err
// @Failure      403      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /rounds [post]
// @Security     BearerAuth
func (h *RoundHandler) HandleCreateRound(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)

		return
	}

	var req request.CreateRoundRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))

		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))

		return
	}

	round, err := h.svc.CreateRound(ctx.Request.Context(), domain.Round{
		SessionID:                req.SessionID,
		Title:                    req.Title,
		StartsAt:                 req.StartsAt,
		DurationMinutes:          req.DurationMinutes,
		ConfirmOpenOffsetMinutes: req.ConfirmOpenOffsetMinutes,
		TargetGroupSize:          req.TargetGroupSize,
		MaxGroupSize:             req.MaxGroupSize,
		AllowOverflowMatching:    req.AllowOverflowMatching,
	}, user.ID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSessionNotFound):
			response.RenderErr(ctx, response.ErrNotFound("session", "ID", req.SessionID))
		case errors.Is(err, service.ErrNotSessionOrganizer):
			response.RenderErr(ctx, response.ErrPermissionDenied(service.ErrNotSessionOrganizer))
		case errors.Is(err, service.ErrInvalidGroupSize):
			response.RenderErr(ctx, response.ErrBadRequest(service.ErrInvalidGroupSize))
		default:
			err = fmt.Errorf("v1.HandleCreateRound -> h.svc.CreateRound -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}

		return
	}

	ctx.JSON(http.StatusCreated, round)
}

// HandleGetRound godoc
// @Summary      Get a round by ID
// @Tags         rounds
// @Produce      json
// @Param        roundID  path     int  true "round ID"
// @Success      200      {object}   domain.Round
// @Failure      400      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /rounds/{roundID} [get]
// @Security     BearerAuth
func (h *RoundHandler) HandleGetRound(ctx *gin.Context) {
	roundID, err := strconv.ParseUint(ctx.Param("roundID"), 10, 32)
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("invalid round ID: %w", err)))

		return
	}

	round, err := h.svc.GetRound(ctx.Request.Context(), uint(roundID))
	if err != nil {
		if errors.Is(err, service.ErrRoundNotFound) {
			response.RenderErr(ctx, response.ErrNotFound("round", "ID", roundID))

			return
		}

		err = fmt.Errorf("v1.HandleGetRound -> h.svc.GetRound -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))

		return
	}

	ctx.JSON(http.StatusOK, round)
}

// HandleGetSessionRounds godoc
// @Summary      List rounds of a session
// @Tags         rounds
// @Produce      json
// @Param        sessionID  path     int  true "session ID"
// @Success      200      {array}    domain.Round
// @Failure      400      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /sessions/{sessionID}/rounds [get]
// @Security     BearerAuth
func (h *RoundHandler) HandleGetSessionRounds(ctx *gin.Context) {
	sessionID, err := strconv.ParseUint(ctx.Param("sessionID"), 10, 32)
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("invalid session ID: %w", err)))

		return
	}

	rounds, err := h.svc.GetRoundsBySession(ctx.Request.Context(), uint(sessionID))
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			response.RenderErr(ctx, response.ErrNotFound("session", "ID", sessionID))

			return
		}

		err = fmt.Errorf("v1.HandleGetSessionRounds -> h.svc.GetRoundsBySession -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))

		return
	}

	ctx.JSON(http.StatusOK, rounds)
}

// HandleCancelRound godoc
// @Summary      Cancel a round
// @Description  Cancels a round and every non-terminal registration in it. Only the session organizer can cancel.
// @Tags         rounds
// @Produce      json
// @Param        roundID  path     int  true "round ID"
// @Success      204      "No Content"
// @Failure      400      {object}   response.Err
// @Failure      403      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /rounds/{roundID} [delete]
// @Security     BearerAuth
func (h *RoundHandler) HandleCancelRound(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)

		return
	}

	roundID, err := strconv.ParseUint(ctx.Param("roundID"), 10, 32)
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("invalid round ID: %w", err)))

		return
	}

	now, respErr := resolveNow(ctx, h.conf.Environment)
	if respErr != nil {
		response.RenderErr(ctx, respErr)

		return
	}

	err = h.svc.CancelRound(ctx.Request.Context(), uint(roundID), user.ID, now)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRoundNotFound):
			response.RenderErr(ctx, response.ErrNotFound("round", "ID", roundID))
		case errors.Is(err, service.ErrNotSessionOrganizer):
			response.RenderErr(ctx, response.ErrPermissionDenied(service.ErrNotSessionOrganizer))
		default:
			err = fmt.Errorf("v1.HandleCancelRound -> h.svc.CancelRound -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}

		return
	}

	ctx.Status(http.StatusNoContent)
}

// HandleSweepStatuses godoc
// @Summary      Sweep time-derived statuses of a round
// @Description  Persists every status transition that is due by now, such as registered to unconfirmed after start.
// @Tags         rounds
// @Produce      json
// @Param        roundID  path     int  true "round ID"
// @Success      200      {object}   response.SweepResponse
// @Failure      400      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /rounds/{roundID}/sweep [post]
// @Security     BearerAuth
func (h *RoundHandler) HandleSweepStatuses(ctx *gin.Context) {
	roundID, err := strconv.ParseUint(ctx.Param("roundID"), 10, 32)
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("invalid round ID: %w", err)))

		return
	}

	now, respErr := resolveNow(ctx, h.conf.Environment)
	if respErr != nil {
		response.RenderErr(ctx, respErr)

		return
	}

	updated, err := h.svc.SweepStatuses(ctx.Request.Context(), uint(roundID), now)
	if err != nil {
		if errors.Is(err, service.ErrRoundNotFound) {
			response.RenderErr(ctx, response.ErrNotFound("round", "ID", roundID))

			return
		}

		err = fmt.Errorf("v1.HandleSweepStatuses -> h.svc.SweepStatuses -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))

		return
	}

	ctx.JSON(http.StatusOK, response.SweepResponse{
		RoundID: uint(roundID),
		Updated: updated,
	})
}
