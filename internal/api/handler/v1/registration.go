package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/roundmeet/roundmeet-api/internal/api/handler/v1/response"
	"github.com/roundmeet/roundmeet-api/internal/config"
	"github.com/roundmeet/roundmeet-api/internal/domain"
	"github.com/roundmeet/roundmeet-api/internal/service"
)

type RegistrationService interface {
	Register(ctx context.Context, roundID, participantID uint, now time.Time) (domain.Registration, error)
	Confirm(ctx context.Context, roundID, participantID uint, now time.Time) (domain.Registration, error)
	GetEffectiveStatus(ctx context.Context, roundID, participantID uint, now time.Time) (domain.Registration, error)
	ListForParticipant(ctx context.Context, participantID uint, now time.Time) ([]domain.Registration, error)
}

type RegistrationRoundService interface {
	GetRound(ctx context.Context, id uint) (domain.Round, error)
}

type RegistrationHandler struct {
	conf   *config.APIConfig
	svc    RegistrationService
	rounds RegistrationRoundService
	uSvc   UserService
}

func NewRegistrationHandler(conf *config.APIConfig, svc RegistrationService, rounds RegistrationRoundService, uSvc UserService) *RegistrationHandler {
	return &RegistrationHandler{
		conf:   conf,
		svc:    svc,
		rounds: rounds,
		uSvc:   uSvc,
	}
}

// HandleRegister godoc
// @Summary      Register for a round
// @Tags         registrations
// @Produce      json
// @Param        roundID  path     int  true "round ID"
// @Success      201      {object}   domain.Registration
// @Failure      400      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Failure      409      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /rounds/{roundID}/registrations [post]
// @Security     BearerAuth
func (h *RegistrationHandler) HandleRegister(ctx *gin.Context) {
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

	registration, err := h.svc.Register(ctx.Request.Context(), uint(roundID), user.ID, now)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRoundNotFound):
			response.RenderErr(ctx, response.ErrNotFound("round", "ID", roundID))
		case errors.Is(err, service.ErrRegistrationExists):
			response.RenderErr(ctx, response.ErrConflict(service.ErrRegistrationExists))
		case errors.Is(err, service.ErrRoundCancelled):
			response.RenderErr(ctx, response.ErrBadRequest(service.ErrRoundCancelled))
		case errors.Is(err, service.ErrRegistrationClosed):
			response.RenderErr(ctx, response.ErrBadRequest(service.ErrRegistrationClosed))
		default:
			err = fmt.Errorf("v1.HandleRegister -> h.svc.Register -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}

		return
	}

	ctx.JSON(http.StatusCreated, registration)
}

// HandleConfirm godoc
// @Summary      Confirm attendance for a round
// @Description  Confirms a registration inside the confirmation window, which opens shortly before the round starts.
// @Tags         registrations
// @Produce      json
// @Param        roundID  path     int  true "round ID"
// @Success      200      {object}   domain.Registration
// @Failure      400      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /rounds/{roundID}/registrations/confirm [post]
// @Security     BearerAuth
func (h *RegistrationHandler) HandleConfirm(ctx *gin.Context) {
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

	registration, err := h.svc.Confirm(ctx.Request.Context(), uint(roundID), user.ID, now)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRoundNotFound):
			response.RenderErr(ctx, response.ErrNotFound("round", "ID", roundID))
		case errors.Is(err, service.ErrRegistrationNotFound):
			response.RenderErr(ctx, response.ErrNotFound("registration", "roundID", roundID))
		case errors.Is(err, service.ErrRoundCancelled):
			response.RenderErr(ctx, response.ErrBadRequest(service.ErrRoundCancelled))
		case errors.Is(err, service.ErrConfirmationClosed):
			response.RenderErr(ctx, response.ErrBadRequest(service.ErrConfirmationClosed))
		default:
			err = fmt.Errorf("v1.HandleConfirm -> h.svc.Confirm -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}

		return
	}

	ctx.JSON(http.StatusOK, registration)
}

// HandleGetStatus godoc
// @Summary      Get the effective registration status for a round
// @Description  Returns the registration with its time-derived status. When the round is matched but the participant got no group, no_match_found is set.
// @Tags         registrations
// @Produce      json
// @Param        roundID  path     int  true "round ID"
// @Success      200      {object}   response.StatusResponse
// @Failure      400      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /rounds/{roundID}/registrations/me [get]
// @Security     BearerAuth
func (h *RegistrationHandler) HandleGetStatus(ctx *gin.Context) {
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

	registration, err := h.svc.GetEffectiveStatus(ctx.Request.Context(), uint(roundID), user.ID, now)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRoundNotFound):
			response.RenderErr(ctx, response.ErrNotFound("round", "ID", roundID))
		case errors.Is(err, service.ErrRegistrationNotFound):
			response.RenderErr(ctx, response.ErrNotFound("registration", "roundID", roundID))
		default:
			err = fmt.Errorf("v1.HandleGetStatus -> h.svc.GetEffectiveStatus -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}

		return
	}

	round, err := h.rounds.GetRound(ctx.Request.Context(), uint(roundID))
	if err != nil {
		err = fmt.Errorf("v1.HandleGetStatus -> h.rounds.GetRound -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))

		return
	}

	noMatch := round.IsMatched() && registration.MatchID == nil && registration.Status == domain.StatusConfirmed

	ctx.JSON(http.StatusOK, response.StatusResponse{
		Registration: registration,
		NoMatchFound: noMatch,
	})
}

// HandleGetMyRegistrations godoc
// @Summary      List registrations of the authenticated participant
// @Tags         registrations
// @Produce      json
// @Success      200      {array}    domain.Registration
// @Failure      401      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /registrations [get]
// @Security     BearerAuth
func (h *RegistrationHandler) HandleGetMyRegistrations(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)

		return
	}

	now, respErr := resolveNow(ctx, h.conf.Environment)
	if respErr != nil {
		response.RenderErr(ctx, respErr)

		return
	}

	registrations, err := h.svc.ListForParticipant(ctx.Request.Context(), user.ID, now)
	if err != nil {
		err = fmt.Errorf("v1.HandleGetMyRegistrations -> h.svc.ListForParticipant -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))

		return
	}

	ctx.JSON(http.StatusOK, registrations)
}
