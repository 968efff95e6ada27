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

type MatchingService interface {
	ListEligible(ctx context.Context, roundID uint, now time.Time) ([]domain.Registration, error)
	RunMatching(ctx context.Context, roundID uint, now time.Time) (service.MatchingResult, error)
}

type RendezvousService interface {
	AcknowledgeMeetingPoint(ctx context.Context, participantID uint, matchID string) error
	ConfirmArrival(ctx context.Context, participantID uint, matchID string) error
	PartnerNumberOptions(ctx context.Context, participantID uint, matchID string) ([]int, error)
	SelectPartnerNumber(ctx context.Context, participantID uint, matchID string, selected int) (service.SelectionOutcome, error)
}

type MatchHandler struct {
	conf *config.APIConfig
	svc  MatchingService
	rSvc RendezvousService
	uSvc UserService
}

func NewMatchHandler(conf *config.APIConfig, svc MatchingService, rSvc RendezvousService, uSvc UserService) *MatchHandler {
	return &MatchHandler{
		conf: conf,
		svc:  svc,
		rSvc: rSvc,
		uSvc: uSvc,
	}
}

// HandleRunMatching godoc
// @Summary      Run matching for a round
// @Description  Forms groups from confirmed registrations and assigns meeting points. Running twice is a no-op that returns the existing matches.
// @Tags         matches
// @Produce      json
// @Param        roundID  path     int  true "round ID"
// @Success      200      {object}   service.MatchingResult
// @Failure      400      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /rounds/{roundID}/match [post]
// @Security     BearerAuth
func (h *MatchHandler) HandleRunMatching(ctx *gin.Context) {
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

	result, err := h.svc.RunMatching(ctx.Request.Context(), uint(roundID), now)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRoundNotFound):
			response.RenderErr(ctx, response.ErrNotFound("round", "ID", roundID))
		case errors.Is(err, service.ErrRoundCancelled):
			response.RenderErr(ctx, response.ErrBadRequest(service.ErrRoundCancelled))
		case errors.Is(err, service.ErrNoMeetingPoints):
			response.RenderErr(ctx, response.ErrBadRequest(service.ErrNoMeetingPoints))
		default:
			err = fmt.Errorf("v1.HandleRunMatching -> h.svc.RunMatching -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}

		return
	}

	ctx.JSON(http.StatusOK, result)
}

// HandleListEligible godoc
// @Summary      List registrations eligible for matching
// @Tags         matches
// @Produce      json
// @Param        roundID  path     int  true "round ID"
// @Success      200      {array}    domain.Registration
// @Failure      400      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /rounds/{roundID}/eligible [get]
// @Security     BearerAuth
func (h *MatchHandler) HandleListEligible(ctx *gin.Context) {
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

	eligible, err := h.svc.ListEligible(ctx.Request.Context(), uint(roundID), now)
	if err != nil {
		if errors.Is(err, service.ErrRoundNotFound) {
			response.RenderErr(ctx, response.ErrNotFound("round", "ID", roundID))

			return
		}

		err = fmt.Errorf("v1.HandleListEligible -> h.svc.ListEligible -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))

		return
	}

	ctx.JSON(http.StatusOK, eligible)
}

// HandleAcknowledge godoc
// @Summary      Acknowledge the assigned meeting point
// @Description  Records that the participant started walking to the meeting point.
// @Tags         matches
// @Produce      json
// @Param        matchID  path     string  true "match ID"
// @Success      204      "No Content"
// @Failure      400      {object}   response.Err
// @Failure      403      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Failure      409      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /matches/{matchID}/acknowledge [post]
// @Security     BearerAuth
func (h *MatchHandler) HandleAcknowledge(ctx *gin.Context) {
	h.advance(ctx, "v1.HandleAcknowledge", h.rSvc.AcknowledgeMeetingPoint)
}

// HandleConfirmArrival godoc
// @Summary      Confirm arrival at the meeting point
// @Tags         matches
// @Produce      json
// @Param        matchID  path     string  true "match ID"
// @Success      204      "No Content"
// @Failure      400      {object}   response.Err
// @Failure      403      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Failure      409      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /matches/{matchID}/arrive [post]
// @Security     BearerAuth
func (h *MatchHandler) HandleConfirmArrival(ctx *gin.Context) {
	h.advance(ctx, "v1.HandleConfirmArrival", h.rSvc.ConfirmArrival)
}

func (h *MatchHandler) advance(ctx *gin.Context, op string, fn func(ctx context.Context, participantID uint, matchID string) error) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)

		return
	}

	matchID := ctx.Param("matchID")

	err := fn(ctx.Request.Context(), user.ID, matchID)
	if err != nil {
		h.renderRendezvousErr(ctx, op, matchID, err)

		return
	}

	ctx.Status(http.StatusNoContent)
}

// HandleNumberOptions godoc
// @Summary      Get partner number options
// @Description  Returns the genuine partner meet numbers mixed with decoys, shuffled.
// @Tags         matches
// @Produce      json
// @Param        matchID  path     string  true "match ID"
// @Success      200      {object}   response.NumberOptionsResponse
// @Failure      403      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /matches/{matchID}/number-options [get]
// @Security     BearerAuth
func (h *MatchHandler) HandleNumberOptions(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)

		return
	}

	matchID := ctx.Param("matchID")

	options, err := h.rSvc.PartnerNumberOptions(ctx.Request.Context(), user.ID, matchID)
	if err != nil {
		h.renderRendezvousErr(ctx, "v1.HandleNumberOptions", matchID, err)

		return
	}

	ctx.JSON(http.StatusOK, response.NumberOptionsResponse{
		MatchID: matchID,
		Options: options,
	})
}

// HandleSelectNumber godoc
// @Summary      Select a partner number to check in
// @Description  A correct pick checks the participant in. A wrong pick changes nothing and can be retried.
// @Tags         matches
// @Accept       json
// @Produce      json
// @Param        matchID  path     string  true "match ID"
// @Param        request  body     request.SelectNumberRequest true "request body"
// @Success      200      {object}   response.SelectNumberResponse
// @Failure      400      {object}   response.Err
// @Failure      403      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Failure      409      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /matches/{matchID}/select-number [post]
// @Security     BearerAuth
func (h *MatchHandler) HandleSelectNumber(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)

		return
	}

	matchID := ctx.Param("matchID")

	var req request.SelectNumberRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))

		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))

		return
	}

	outcome, err := h.rSvc.SelectPartnerNumber(ctx.Request.Context(), user.ID, matchID, req.Number)
	if err != nil {
		h.renderRendezvousErr(ctx, "v1.HandleSelectNumber", matchID, err)

		return
	}

	result := "retry"
	if outcome.Correct {
		result = "checked_in"
	}

	ctx.JSON(http.StatusOK, response.SelectNumberResponse{
		Result:   result,
		MatchMet: outcome.MatchMet,
	})
}

func (h *MatchHandler) renderRendezvousErr(ctx *gin.Context, op, matchID string, err error) {
	switch {
	case errors.Is(err, service.ErrMatchNotFound):
		response.RenderErr(ctx, response.ErrNotFound("match", "ID", matchID))
	case errors.Is(err, service.ErrNotMatchMember):
		response.RenderErr(ctx, response.ErrPermissionDenied(service.ErrNotMatchMember))
	case errors.Is(err, service.ErrRegistrationNotFound):
		response.RenderErr(ctx, response.ErrNotFound("registration", "matchID", matchID))
	case errors.Is(err, service.ErrInvalidTransition):
		response.RenderErr(ctx, response.ErrConflict(service.ErrInvalidTransition))
	default:
		err = fmt.Errorf("%v -> %w", op, err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
	}
}
