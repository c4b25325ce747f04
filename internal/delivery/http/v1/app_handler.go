package v1

import (
	"net/http"

	"cirqle-backend/internal/delivery/http/middleware"
	"cirqle-backend/internal/delivery/http/response"
	"cirqle-backend/internal/domain"
	"cirqle-backend/pkg/apperror"

	"github.com/gin-gonic/gin"
)

type AppHandler struct {
	sessionUC domain.SessionUsecase
}

// IcebreakerResponse wraps the generated conversation starter.
type IcebreakerResponse struct {
	Text string `json:"text"`
}

func NewAppHandler(r *gin.RouterGroup, sessionUC domain.SessionUsecase) {
	handler := &AppHandler{sessionUC: sessionUC}

	session := r.Group("/session")
	{
		session.PUT("/tab", handler.SwitchTab)
		session.GET("/dashboard", handler.Dashboard)
		session.GET("/profile", handler.Profile)
		session.POST("/logout", handler.Logout)

		circle := session.Group("/circle")
		circle.GET("", handler.Circle)
		circle.POST("/messages", handler.SendMessage)
		circle.POST("/poll/:optionId/toggle", handler.TogglePoll)
		circle.GET("/icebreaker", handler.Icebreaker)
	}
}

// SwitchTab godoc
// @Summary      Switch tab
// @Tags         app
// @Accept       json
// @Produce      json
// @Param        request  body      domain.SwitchTabRequest  true  "Tab"
// @Success      200      {object}  response.Response{data=domain.SessionView}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /session/tab [put]
// @Security     BearerAuth
func (h *AppHandler) SwitchTab(c *gin.Context) {
	var req domain.SwitchTabRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.BadRequest("Invalid request body"))
		return
	}

	view, err := h.sessionUC.SwitchTab(c.Request.Context(), middleware.SessionID(c), &req)
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Tab switched", view)
}

// Dashboard godoc
// @Summary      Home dashboard
// @Description  Activity ideas for the user's city and interests plus an icebreaker, cached for the session
// @Tags         app
// @Produce      json
// @Success      200  {object}  response.Response{data=domain.Dashboard}
// @Failure      409  {object}  response.Response
// @Router       /session/dashboard [get]
// @Security     BearerAuth
func (h *AppHandler) Dashboard(c *gin.Context) {
	dash, err := h.sessionUC.Dashboard(c.Request.Context(), middleware.SessionID(c))
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Dashboard retrieved", dash)
}

// Circle godoc
// @Summary      Circle
// @Description  Members, messages (oldest first) and the schedule poll
// @Tags         circle
// @Produce      json
// @Success      200  {object}  response.Response{data=domain.CircleSnapshot}
// @Failure      409  {object}  response.Response
// @Router       /session/circle [get]
// @Security     BearerAuth
func (h *AppHandler) Circle(c *gin.Context) {
	circle, err := h.sessionUC.Circle(c.Request.Context(), middleware.SessionID(c))
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Circle retrieved", circle)
}

// SendMessage godoc
// @Summary      Send message
// @Description  Appends a message from the current user. Blank text is rejected and nothing is appended.
// @Tags         circle
// @Accept       json
// @Produce      json
// @Param        request  body      domain.SendMessageRequest  true  "Message"
// @Success      201      {object}  response.Response{data=domain.Message}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /session/circle/messages [post]
// @Security     BearerAuth
func (h *AppHandler) SendMessage(c *gin.Context) {
	var req domain.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.BadRequest("Invalid request body"))
		return
	}

	msg, err := h.sessionUC.SendMessage(c.Request.Context(), middleware.SessionID(c), &req)
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusCreated, "Message sent", msg)
}

// TogglePoll godoc
// @Summary      Toggle poll vote
// @Description  Adds or removes the current user's vote on one option. Options are multi-select.
// @Tags         circle
// @Produce      json
// @Param        optionId  path      string  true  "Poll option ID"
// @Success      200       {object}  response.Response{data=domain.PollOption}
// @Failure      404       {object}  response.Response
// @Failure      409       {object}  response.Response
// @Router       /session/circle/poll/{optionId}/toggle [post]
// @Security     BearerAuth
func (h *AppHandler) TogglePoll(c *gin.Context) {
	opt, err := h.sessionUC.TogglePoll(c.Request.Context(), middleware.SessionID(c), c.Param("optionId"))
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Vote toggled", opt)
}

// Icebreaker godoc
// @Summary      Icebreaker
// @Description  A short conversation starter for the circle's interests
// @Tags         circle
// @Produce      json
// @Success      200  {object}  response.Response{data=IcebreakerResponse}
// @Failure      409  {object}  response.Response
// @Router       /session/circle/icebreaker [get]
// @Security     BearerAuth
func (h *AppHandler) Icebreaker(c *gin.Context) {
	text, err := h.sessionUC.Icebreaker(c.Request.Context(), middleware.SessionID(c))
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Icebreaker generated", IcebreakerResponse{Text: text})
}

// Profile godoc
// @Summary      Profile
// @Tags         app
// @Produce      json
// @Success      200  {object}  response.Response{data=domain.ProfileView}
// @Failure      409  {object}  response.Response
// @Router       /session/profile [get]
// @Security     BearerAuth
func (h *AppHandler) Profile(c *gin.Context) {
	profile, err := h.sessionUC.Profile(c.Request.Context(), middleware.SessionID(c))
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Profile retrieved", profile)
}

// Logout godoc
// @Summary      Log out
// @Description  Returns to the auth screen and drops the user, winner and circle. The token stays valid.
// @Tags         app
// @Produce      json
// @Success      200  {object}  response.Response{data=domain.SessionView}
// @Failure      409  {object}  response.Response
// @Router       /session/logout [post]
// @Security     BearerAuth
func (h *AppHandler) Logout(c *gin.Context) {
	view, err := h.sessionUC.Logout(c.Request.Context(), middleware.SessionID(c))
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Logged out", view)
}
