package echo

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"go.pilab.hu/tubedash/domain"
	apperrors "go.pilab.hu/tubedash/errors"
	"go.pilab.hu/tubedash/middleware"
	"go.pilab.hu/tubedash/services"
	"go.pilab.hu/tubedash/youtube"
)

// DashboardAPI struct to hold dependencies.
type DashboardAPI struct {
	auth      *services.AuthService
	dashboard *services.DashboardService
}

// NewDashboardAPI initializes the dashboard HTTP API.
func NewDashboardAPI(auth *services.AuthService, dashboard *services.DashboardService) *DashboardAPI {
	return &DashboardAPI{
		auth:      auth,
		dashboard: dashboard,
	}
}

// RegisterRoutes registers all routes. Everything under /api requires a valid
// session.
func (a *DashboardAPI) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", a.HealthHandler)
	e.POST("/auth/credentials", a.IngestCredentialHandler)

	authed := e.Group("/api", middleware.SessionAuth(a.auth))
	authed.POST("/auth/logout", a.LogoutHandler)
	authed.GET("/dashboard/:videoId", a.DashboardHandler)
	authed.PATCH("/videos/:videoId", a.UpdateVideoHandler)
	authed.GET("/videos/:videoId/comments", a.ListCommentsHandler)
	authed.POST("/videos/:videoId/comments", a.PostCommentHandler)
	authed.DELETE("/comments/:commentId", a.DeleteCommentHandler)
	authed.GET("/videos/:videoId/notes", a.ListNotesHandler)
	authed.POST("/videos/:videoId/notes", a.CreateNoteHandler)
	authed.DELETE("/notes/:noteId", a.DeleteNoteHandler)
}

func (a *DashboardAPI) HealthHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}

type ingestCredentialRequest struct {
	Email             string     `json:"email"`
	Name              string     `json:"name"`
	ProviderAccountID string     `json:"provider_account_id"`
	AccessToken       string     `json:"access_token"`
	RefreshToken      string     `json:"refresh_token"`
	ExpiresAt         *time.Time `json:"expires_at"`
}

// IngestCredentialHandler accepts the identity and token grant delivered by
// the front-channel after a completed consent and opens a session.
func (a *DashboardAPI) IngestCredentialHandler(c echo.Context) error {
	var req ingestCredentialRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid_request"})
	}

	session, err := a.auth.IngestCredential(c.Request().Context(), services.IngestCredentialInput{
		Email:             req.Email,
		Name:              req.Name,
		ProviderAccountID: req.ProviderAccountID,
		AccessToken:       req.AccessToken,
		RefreshToken:      req.RefreshToken,
		ExpiresAt:         req.ExpiresAt,
	})
	if err != nil {
		log.Error().Err(err).Msg("credential ingestion failed")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid_request", "error_description": err.Error()})
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"session_token": session.Token,
		"expires_at":    session.ExpiresAt,
	})
}

func (a *DashboardAPI) LogoutHandler(c echo.Context) error {
	const prefix = "Bearer "
	authHeader := c.Request().Header.Get("Authorization")
	if len(authHeader) > len(prefix) {
		if err := a.auth.Logout(c.Request().Context(), authHeader[len(prefix):]); err != nil {
			log.Error().Err(err).Msg("logout failed")
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "server_error"})
		}
	}
	return c.NoContent(http.StatusNoContent)
}

func (a *DashboardAPI) DashboardHandler(c echo.Context) error {
	dash, err := a.dashboard.GetDashboard(c.Request().Context(), middleware.UserID(c), c.Param("videoId"))
	if err != nil {
		return a.writeError(c, err)
	}
	return c.JSON(http.StatusOK, dash)
}

type updateVideoRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	CategoryID  string `json:"category_id"`
}

func (a *DashboardAPI) UpdateVideoHandler(c echo.Context) error {
	var req updateVideoRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid_request"})
	}
	if req.Title == "" && req.Description == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid_request", "error_description": "nothing to update"})
	}

	video, err := a.dashboard.UpdateVideo(c.Request().Context(), middleware.UserID(c), c.Param("videoId"), youtube.VideoUpdate{
		Title:       req.Title,
		Description: req.Description,
		CategoryID:  req.CategoryID,
	})
	if err != nil {
		return a.writeError(c, err)
	}
	return c.JSON(http.StatusOK, video)
}

func (a *DashboardAPI) ListCommentsHandler(c echo.Context) error {
	threads, err := a.dashboard.ListComments(c.Request().Context(), middleware.UserID(c), c.Param("videoId"))
	if err != nil {
		return a.writeError(c, err)
	}
	if threads == nil {
		threads = []*youtube.CommentThread{}
	}
	return c.JSON(http.StatusOK, threads)
}

type postCommentRequest struct {
	Text string `json:"text"`
}

func (a *DashboardAPI) PostCommentHandler(c echo.Context) error {
	var req postCommentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid_request"})
	}

	thread, err := a.dashboard.PostComment(c.Request().Context(), middleware.UserID(c), c.Param("videoId"), req.Text)
	if err != nil {
		return a.writeError(c, err)
	}
	return c.JSON(http.StatusCreated, thread)
}

func (a *DashboardAPI) DeleteCommentHandler(c echo.Context) error {
	if err := a.dashboard.DeleteComment(c.Request().Context(), middleware.UserID(c), c.Param("commentId")); err != nil {
		return a.writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (a *DashboardAPI) ListNotesHandler(c echo.Context) error {
	notes, err := a.dashboard.ListNotes(c.Request().Context(), middleware.UserID(c), c.Param("videoId"))
	if err != nil {
		return a.writeError(c, err)
	}
	if notes == nil {
		notes = []*domain.Note{}
	}
	return c.JSON(http.StatusOK, notes)
}

type createNoteRequest struct {
	Content string   `json:"content"`
	Tags    []string `json:"tags"`
}

func (a *DashboardAPI) CreateNoteHandler(c echo.Context) error {
	var req createNoteRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid_request"})
	}

	note, err := a.dashboard.CreateNote(c.Request().Context(), middleware.UserID(c), c.Param("videoId"), req.Content, req.Tags)
	if err != nil {
		return a.writeError(c, err)
	}
	return c.JSON(http.StatusCreated, note)
}

func (a *DashboardAPI) DeleteNoteHandler(c echo.Context) error {
	if err := a.dashboard.DeleteNote(c.Request().Context(), middleware.UserID(c), c.Param("noteId")); err != nil {
		return a.writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// writeError translates service errors to HTTP responses. Auth failures that
// only a new consent can fix carry reauthorization_required so the frontend
// knows to send the user back through the consent flow.
func (a *DashboardAPI) writeError(c echo.Context, err error) error {
	var authErr *apperrors.AuthError
	if errors.As(err, &authErr) {
		switch authErr.Kind {
		case apperrors.KindUnauthenticated:
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not_authenticated"})
		case apperrors.KindRefreshUnavailable:
			return c.JSON(http.StatusUnauthorized, echo.Map{
				"error":             "reauthorization_required",
				"error_description": authErr.Description,
			})
		case apperrors.KindTransientProvider:
			log.Warn().Err(err).Msg("transient provider failure")
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "provider_unavailable"})
		}
	}

	var apiErr *apperrors.APIError
	if errors.As(err, &apiErr) {
		status := apiErr.StatusCode
		if status < 400 {
			status = http.StatusBadGateway
		}
		return c.JSON(status, echo.Map{
			"error":             string(apiErr.Kind),
			"error_description": apiErr.UserMessage(),
		})
	}

	if errors.Is(err, domain.ErrNoteNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not_found"})
	}

	log.Error().Err(err).Msg("request failed")
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "server_error"})
}
