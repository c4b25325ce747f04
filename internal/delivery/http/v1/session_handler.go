package v1

import (
	"net/http"

	"cirqle-backend/internal/delivery/http/middleware"
	"cirqle-backend/internal/delivery/http/response"
	"cirqle-backend/internal/domain"
	"cirqle-backend/pkg/apperror"
	"cirqle-backend/pkg/auth"
	"cirqle-backend/pkg/logger"

	"github.com/gin-gonic/gin"
)

type SessionHandler struct {
	sessionUC    domain.SessionUsecase
	issuer       *auth.TokenIssuer
	secureCookie bool
}

// StartSessionResponse carries the token the client sends on every later call.
type StartSessionResponse struct {
	Token     string              `json:"token"`
	ExpiresIn int                 `json:"expires_in"` // seconds
	Session   *domain.SessionView `json:"session"`
}

func NewSessionHandler(public, protected *gin.RouterGroup, startLimit gin.HandlerFunc, sessionUC domain.SessionUsecase, issuer *auth.TokenIssuer, secureCookie bool) {
	handler := &SessionHandler{sessionUC: sessionUC, issuer: issuer, secureCookie: secureCookie}

	public.POST("/sessions", startLimit, handler.Start)

	session := protected.Group("/session")
	{
		session.GET("", handler.Get)
		session.DELETE("", handler.End)
		session.PUT("/profile", handler.CompleteProfile)
		session.POST("/interests/toggle", handler.ToggleInterest)
		session.POST("/interests/complete", handler.CompleteInterests)
		session.POST("/votes", handler.Rate)
	}
}

// Start godoc
// @Summary      Submit credentials
// @Description  Creates a session at the profile-setup screen. Passwords are not checked. A session already bound to the caller's token is ended once the new one exists.
// @Tags         session
// @Accept       json
// @Produce      json
// @Param        request  body      domain.StartSessionRequest  true  "Credentials"
// @Success      201      {object}  response.Response{data=StartSessionResponse}
// @Failure      400      {object}  response.Response
// @Failure      429      {object}  response.Response
// @Router       /sessions [post]
func (h *SessionHandler) Start(c *gin.Context) {
	var req domain.StartSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.BadRequest("Invalid request body"))
		return
	}

	view, err := h.sessionUC.Start(c.Request.Context(), &req)
	if err != nil {
		c.Error(err)
		return
	}

	token, err := h.issuer.Issue(view.SessionID, req.Email)
	if err != nil {
		_ = h.sessionUC.End(c.Request.Context(), view.SessionID)
		c.Error(apperror.Internal(err))
		return
	}

	// Signing in again replaces the caller's previous session, but only once
	// the new one exists.
	if previous, _ := middleware.SessionToken(c); previous != "" {
		if claims, err := h.issuer.Parse(previous); err == nil {
			if err := h.sessionUC.End(c.Request.Context(), claims.Subject); err == nil {
				logger.Log.Debug("Replaced previous session", "session_id", claims.Subject)
			}
		}
	}

	maxAge := int(h.issuer.TTL().Seconds())
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookieName, token, maxAge, "/", "", h.secureCookie, true)

	response.Success(c, http.StatusCreated, "Session started", StartSessionResponse{
		Token:     token,
		ExpiresIn: maxAge,
		Session:   view,
	})
}

// Get godoc
// @Summary      Current session
// @Description  Returns the screen to render and the data it needs
// @Tags         session
// @Produce      json
// @Success      200  {object}  response.Response{data=domain.SessionView}
// @Failure      401  {object}  response.Response
// @Router       /session [get]
// @Security     BearerAuth
func (h *SessionHandler) Get(c *gin.Context) {
	view, err := h.sessionUC.Get(c.Request.Context(), middleware.SessionID(c))
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Session retrieved", view)
}

// End godoc
// @Summary      End session
// @Description  Removes the session and stops its background work
// @Tags         session
// @Produce      json
// @Success      200  {object}  response.Response
// @Failure      401  {object}  response.Response
// @Router       /session [delete]
// @Security     BearerAuth
func (h *SessionHandler) End(c *gin.Context) {
	if err := h.sessionUC.End(c.Request.Context(), middleware.SessionID(c)); err != nil {
		c.Error(err)
		return
	}
	c.SetCookie(middleware.SessionCookieName, "", -1, "/", "", h.secureCookie, true)
	response.Success(c, http.StatusOK, "Session ended", nil)
}

// CompleteProfile godoc
// @Summary      Complete profile
// @Description  Name, age, city and avatar are required. Data URL avatars are downscaled.
// @Tags         onboarding
// @Accept       json
// @Produce      json
// @Param        request  body      domain.ProfileRequest  true  "Profile"
// @Success      200      {object}  response.Response{data=domain.SessionView}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /session/profile [put]
// @Security     BearerAuth
func (h *SessionHandler) CompleteProfile(c *gin.Context) {
	var req domain.ProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.BadRequest("Invalid request body"))
		return
	}

	view, err := h.sessionUC.CompleteProfile(c.Request.Context(), middleware.SessionID(c), &req)
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Profile saved", view)
}

// ToggleInterest godoc
// @Summary      Toggle interest
// @Description  Adds or removes one interest from the draft selection. A ninth interest is ignored.
// @Tags         onboarding
// @Accept       json
// @Produce      json
// @Param        request  body      domain.ToggleInterestRequest  true  "Interest"
// @Success      200      {object}  response.Response{data=domain.SessionView}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /session/interests/toggle [post]
// @Security     BearerAuth
func (h *SessionHandler) ToggleInterest(c *gin.Context) {
	var req domain.ToggleInterestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.BadRequest("Invalid request body"))
		return
	}

	view, err := h.sessionUC.ToggleInterest(c.Request.Context(), middleware.SessionID(c), &req)
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Interests updated", view)
}

// CompleteInterests godoc
// @Summary      Find my circle
// @Description  Completes interest selection (3 to 8) and starts matching. An empty body uses the draft.
// @Tags         onboarding
// @Accept       json
// @Produce      json
// @Param        request  body      domain.CompleteInterestsRequest  false  "Interests"
// @Success      200      {object}  response.Response{data=domain.SessionView}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /session/interests/complete [post]
// @Security     BearerAuth
func (h *SessionHandler) CompleteInterests(c *gin.Context) {
	var req domain.CompleteInterestsRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.Error(apperror.BadRequest("Invalid request body"))
			return
		}
	}

	view, err := h.sessionUC.CompleteInterests(c.Request.Context(), middleware.SessionID(c), &req)
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Matching started", view)
}

// Rate godoc
// @Summary      Rate activity
// @Description  Rates the current card (1 to 4). Rating the last card finishes voting and opens the circle.
// @Tags         onboarding
// @Accept       json
// @Produce      json
// @Param        request  body      domain.RateRequest  true  "Rating"
// @Success      200      {object}  response.Response{data=domain.SessionView}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /session/votes [post]
// @Security     BearerAuth
func (h *SessionHandler) Rate(c *gin.Context) {
	var req domain.RateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.BadRequest("Invalid request body"))
		return
	}

	view, err := h.sessionUC.Rate(c.Request.Context(), middleware.SessionID(c), &req)
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Rating saved", view)
}
