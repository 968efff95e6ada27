package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/roundmeet/roundmeet-api/internal/api/handler/v1/request"
	"github.com/roundmeet/roundmeet-api/internal/api/handler/v1/response"
	"github.com/roundmeet/roundmeet-api/internal/domain"
	"github.com/roundmeet/roundmeet-api/internal/service"
)

type SessionService interface {
	CreateSession(ctx context.Context, session domain.Session) (domain.Session, error)
	GetSession(ctx context.Context, id uint) (domain.Session, error)
	GetSessionsForOrganizer(ctx context.Context, organizerID uint) ([]domain.Session, error)
	AddMeetingPoint(ctx context.Context, point domain.MeetingPoint, organizerID uint) (domain.MeetingPoint, error)
	GetMeetingPoints(ctx context.Context, sessionID uint) ([]domain.MeetingPoint, error)
	RemoveMeetingPoint(ctx context.Context, sessionID, pointID, organizerID uint) error
}

type SessionHandler struct {
	svc  SessionService
	uSvc UserService
}

func NewSessionHandler(svc SessionService, uSvc UserService) *SessionHandler {
	return &SessionHandler{
		svc:  svc,
		uSvc: uSvc,
	}
}

// HandleCreateSession godoc
// @Summary      Create a new session
// @Description  Creates a networking session. Only organizers can create sessions.
// @Tags         sessions
// @Accept       json
// @Produce      json
// @Param        request  body       request.CreateSessionRequest true "request body"
// @Success      201      {object}   domain.Session
// @Failure      400      {object}   response.Err
// @Failure      403      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /sessions [post]
// @Security     BearerAuth
func (h *SessionHandler) HandleCreateSession(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)

		return
	}

	if !user.IsOrganizer() {
		response.RenderErr(ctx, response.ErrPermissionDenied(errors.New("only organizers can create sessions")))

		return
	}

	var req request.CreateSessionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))

		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))

		return
	}

	session, err := h.svc.CreateSession(ctx.Request.Context(), domain.Session{
		Name:        req.Name,
		Location:    req.Location,
		Description: req.Description,
		OrganizerID: user.ID,
	})
	if err != nil {
		err = fmt.Errorf("v1.HandleCreateSession -> h.svc.CreateSession -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))

		return
	}

	ctx.JSON(http.StatusCreated, session)
}

// HandleGetSession godoc
// @Summary      Get a session by ID
// @Tags         sessions
// @Produce      json
// @Param        sessionID  path     int  true "session ID"
// @Success      200      {object}   domain.Session
// @Failure      400      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /sessions/{sessionID} [get]
// @Security     BearerAuth
func (h *SessionHandler) HandleGetSession(ctx *gin.Context) {
	sessionID, err := strconv.ParseUint(ctx.Param("sessionID"), 10, 32)
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("invalid session ID: %w", err)))

		return
	}

	session, err := h.svc.GetSession(ctx.Request.Context(), uint(sessionID))
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			response.RenderErr(ctx, response.ErrNotFound("session", "ID", sessionID))

			return
		}

		err = fmt.Errorf("v1.HandleGetSession -> h.svc.GetSession -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))

		return
	}

	ctx.JSON(http.StatusOK, session)
}

// HandleGetMySessions godoc
// @Summary      Get sessions organized by the authenticated user
// @Tags         sessions
// @Produce      json
// @Success      200      {array}    domain.Session
// @Failure      401      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /sessions [get]
// @Security     BearerAuth
func (h *SessionHandler) HandleGetMySessions(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)

		return
	}

	sessions, err := h.svc.GetSessionsForOrganizer(ctx.Request.Context(), user.ID)
	if err != nil {
		err = fmt.Errorf("v1.HandleGetMySessions -> h.svc.GetSessionsForOrganizer -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))

		return
	}

	ctx.JSON(http.StatusOK, sessions)
}

// HandleAddMeetingPoint godoc
// @Summary      Add a meeting point to a session
// @Tags         sessions
// @Accept       json
// @Produce      json
// @Param        sessionID  path     int  true "session ID"
// @Param        request  body       request.CreateMeetingPointRequest true "request body"
// @Success      201      {object}   domain.MeetingPoint
// @Failure      400      {object}   response.Err
// @Failure      403      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /sessions/{sessionID}/meeting-points [post]
// @Security     BearerAuth
func (h *SessionHandler) HandleAddMeetingPoint(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)

		return
	}

	sessionID, err := strconv.ParseUint(ctx.Param("sessionID"), 10, 32)
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("invalid session ID: %w", err)))

		return
	}

	var req request.CreateMeetingPointRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))

		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))

		return
	}

	point, err := h.svc.AddMeetingPoint(ctx.Request.Context(), domain.MeetingPoint{
		SessionID: uint(sessionID),
		Name:      req.Name,
		ImageURL:  req.ImageURL,
	}, user.ID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSessionNotFound):
			response.RenderErr(ctx, response.ErrNotFound("session", "ID", sessionID))
		case errors.Is(err, service.ErrNotSessionOrganizer):
			response.RenderErr(ctx, response.ErrPermissionDenied(service.ErrNotSessionOrganizer))
		default:
			err = fmt.Errorf("v1.HandleAddMeetingPoint -> h.svc.AddMeetingPoint -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}

		return
	}

	ctx.JSON(http.StatusCreated, point)
}

// HandleGetMeetingPoints godoc
// @Summary      List meeting points of a session
// @Tags         sessions
// @Produce      json
// @Param        sessionID  path     int  true "session ID"
// @Success      200      {array}    domain.MeetingPoint
// @Failure      400      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /sessions/{sessionID}/meeting-points [get]
// @Security     BearerAuth
func (h *SessionHandler) HandleGetMeetingPoints(ctx *gin.Context) {
	sessionID, err := strconv.ParseUint(ctx.Param("sessionID"), 10, 32)
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("invalid session ID: %w", err)))

		return
	}

	points, err := h.svc.GetMeetingPoints(ctx.Request.Context(), uint(sessionID))
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			response.RenderErr(ctx, response.ErrNotFound("session", "ID", sessionID))

			return
		}

		err = fmt.Errorf("v1.HandleGetMeetingPoints -> h.svc.GetMeetingPoints -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))

		return
	}

	ctx.JSON(http.StatusOK, points)
}

// HandleRemoveMeetingPoint godoc
// @Summary      Remove a meeting point from a session
// @Tags         sessions
// @Produce      json
// @Param        sessionID  path     int  true "session ID"
// @Param        pointID    path     int  true "meeting point ID"
// @Success      204      "No Content"
// @Failure      400      {object}   response.Err
// @Failure      403      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /sessions/{sessionID}/meeting-points/{pointID} [delete]
// @Security     BearerAuth
func (h *SessionHandler) HandleRemoveMeetingPoint(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)

		return
	}

	sessionID, err := strconv.ParseUint(ctx.Param("sessionID"), 10, 32)
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("invalid session ID: %w", err)))

		return
	}

	pointID, err := strconv.ParseUint(ctx.Param("pointID"), 10, 32)
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("invalid meeting point ID: %w", err)))

		return
	}

	err = h.svc.RemoveMeetingPoint(ctx.Request.Context(), uint(sessionID), uint(pointID), user.ID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSessionNotFound):
			response.RenderErr(ctx, response.ErrNotFound("session", "ID", sessionID))
		case errors.Is(err, service.ErrMeetingPointNotFound):
			response.RenderErr(ctx, response.ErrNotFound("meeting point", "ID", pointID))
		case errors.Is(err, service.ErrNotSessionOrganizer):
			response.RenderErr(ctx, response.ErrPermissionDenied(service.ErrNotSessionOrganizer))
		default:
			err = fmt.Errorf("v1.HandleRemoveMeetingPoint -> h.svc.RemoveMeetingPoint -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}

		return
	}

	ctx.Status(http.StatusNoContent)
}
