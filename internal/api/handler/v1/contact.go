package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/roundmeet/roundmeet-api/internal/api/handler/v1/request"
	"github.com/roundmeet/roundmeet-api/internal/api/handler/v1/response"
	"github.com/roundmeet/roundmeet-api/internal/config"
	"github.com/roundmeet/roundmeet-api/internal/domain"
	"github.com/roundmeet/roundmeet-api/internal/service"
)

type ContactService interface {
	SubmitDecision(ctx context.Context, participantID uint, matchID string, partnerID uint, share bool, feedbackTags []string, now time.Time) (domain.ContactDecision, error)
	GetDecisions(ctx context.Context, participantID uint) ([]domain.ContactDecision, error)
	GetSharedContacts(ctx context.Context, participantID uint, now time.Time) ([]domain.SharedContact, error)
	GetFeedbackReceived(ctx context.Context, participantID uint) ([]domain.FeedbackEntry, error)
}

type ContactHandler struct {
	conf *config.APIConfig
	svc  ContactService
	uSvc UserService
}

func NewContactHandler(conf *config.APIConfig, svc ContactService, uSvc UserService) *ContactHandler {
	return &ContactHandler{
		conf: conf,
		svc:  svc,
		uSvc: uSvc,
	}
}

// HandleSubmitDecision godoc
// @Summary      Submit a contact sharing decision
// @Description  Commits a share or no-share choice for one partner of a met match. The choice cannot be changed afterwards.
// @Tags         contacts
// @Accept       json
// @Produce      json
// @Param        matchID  path     string  true "match ID"
// @Param        request  body     request.SubmitDecisionRequest true "request body"
// @Success      201      {object}   domain.ContactDecision
// @Failure      400      {object}   response.Err
// @Failure      403      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Failure      409      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /matches/{matchID}/decision [post]
// @Security     BearerAuth
func (h *ContactHandler) HandleSubmitDecision(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)

		return
	}

	matchID := ctx.Param("matchID")

	var req request.SubmitDecisionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))

		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))

		return
	}

	now, respErr := resolveNow(ctx, h.conf.Environment)
	if respErr != nil {
		response.RenderErr(ctx, respErr)

		return
	}

	decision, err := h.svc.SubmitDecision(ctx.Request.Context(), user.ID, matchID, req.PartnerID, req.Share, req.FeedbackTags, now)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMatchNotFound):
			response.RenderErr(ctx, response.ErrNotFound("match", "ID", matchID))
		case errors.Is(err, service.ErrNotMatchMember):
			response.RenderErr(ctx, response.ErrPermissionDenied(service.ErrNotMatchMember))
		case errors.Is(err, service.ErrInvalidPartner):
			response.RenderErr(ctx, response.ErrBadRequest(service.ErrInvalidPartner))
		case errors.Is(err, service.ErrMatchNotMet):
			response.RenderErr(ctx, response.ErrBadRequest(service.ErrMatchNotMet))
		case errors.Is(err, service.ErrDecisionExists):
			response.RenderErr(ctx, response.ErrConflict(service.ErrDecisionExists))
		default:
			err = fmt.Errorf("v1.HandleSubmitDecision -> h.svc.SubmitDecision -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}

		return
	}

	ctx.JSON(http.StatusCreated, decision)
}

// HandleGetMyDecisions godoc
// @Summary      List the authenticated participant's own decisions
// @Tags         contacts
// @Produce      json
// @Success      200      {array}    domain.ContactDecision
// @Failure      401      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /contacts/decisions [get]
// @Security     BearerAuth
func (h *ContactHandler) HandleGetMyDecisions(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)

		return
	}

	decisions, err := h.svc.GetDecisions(ctx.Request.Context(), user.ID)
	if err != nil {
		err = fmt.Errorf("v1.HandleGetMyDecisions -> h.svc.GetDecisions -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))

		return
	}

	ctx.JSON(http.StatusOK, decisions)
}

// HandleGetSharedContacts godoc
// @Summary      List revealed contacts
// @Description  Returns the partners who mutually agreed to share and whose reveal delay has elapsed.
// @Tags         contacts
// @Produce      json
// @Success      200      {array}    domain.SharedContact
// @Failure      401      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /contacts/shared [get]
// @Security     BearerAuth
func (h *ContactHandler) HandleGetSharedContacts(ctx *gin.Context) {
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

	contacts, err := h.svc.GetSharedContacts(ctx.Request.Context(), user.ID, now)
	if err != nil {
		err = fmt.Errorf("v1.HandleGetSharedContacts -> h.svc.GetSharedContacts -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))

		return
	}

	ctx.JSON(http.StatusOK, contacts)
}

// HandleGetFeedback godoc
// @Summary      List feedback received by the authenticated participant
// @Description  Feedback flows regardless of the sharing outcome and never identifies the author.
// @Tags         contacts
// @Produce      json
// @Success      200      {array}    domain.FeedbackEntry
// @Failure      401      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /contacts/feedback [get]
// @Security     BearerAuth
func (h *ContactHandler) HandleGetFeedback(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)

		return
	}

	feedback, err := h.svc.GetFeedbackReceived(ctx.Request.Context(), user.ID)
	if err != nil {
		err = fmt.Errorf("v1.HandleGetFeedback -> h.svc.GetFeedbackReceived -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))

		return
	}

	ctx.JSON(http.StatusOK, feedback)
}
