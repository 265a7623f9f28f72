package handler

import (
	"net/http"
	"strings"

	"reportit/backend/internal/config"
	"reportit/backend/internal/models"
	"reportit/backend/internal/screen"

	"github.com/gin-gonic/gin"
)

const sessionKey = "session"

type signUpRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	Name     string `json:"name"`
}

type signInRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// bearerToken extracts the token from "Authorization: Bearer <token>".
func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(token)
}

// Authenticate resolves the bearer token, if any, into a session on the
// context. Requests without a valid token continue as anonymous.
func (h *Handler) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := bearerToken(c); token != "" {
			session, err := h.Sessions.CurrentSession(c.Request.Context(), token)
			if err == nil {
				c.Set(sessionKey, session)
			}
		}
		c.Next()
	}
}

// RequireSession rejects anonymous requests with 401.
func (h *Handler) RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if currentSession(c) == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, screen.Failure[any](config.MsgNotLoggedIn))
			return
		}
		c.Next()
	}
}

func currentSession(c *gin.Context) *models.AuthSession {
	v, ok := c.Get(sessionKey)
	if !ok {
		return nil
	}
	session, _ := v.(*models.AuthSession)
	return session
}

func (h *Handler) SignUp(c *gin.Context) {
	var req signUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, screen.Failure[any](config.MsgSignUpFailed))
		return
	}
	s := screen.NewAuth(c.Request.Context(), h.Sessions, h.Deps)
	defer s.Close()

	st := s.SignUp(c.Request.Context(), req.Email, req.Password, req.Name)
	if st.Kind == screen.KindSuccess {
		c.JSON(http.StatusCreated, st)
		return
	}
	c.JSON(statusFor(s.Cause()), st)
}

func (h *Handler) SignIn(c *gin.Context) {
	var req signInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, screen.Failure[any](config.MsgSignInFailed))
		return
	}
	s := screen.NewAuth(c.Request.Context(), h.Sessions, h.Deps)
	defer s.Close()

	st := s.SignIn(c.Request.Context(), req.Email, req.Password)
	c.JSON(statusFor(s.Cause()), st)
}

// SignOut revokes the caller's token. It always succeeds.
func (h *Handler) SignOut(c *gin.Context) {
	if token := bearerToken(c); token != "" {
		if err := h.Sessions.SignOut(c.Request.Context(), token); err != nil {
			c.Error(err)
		}
	}
	c.Status(http.StatusNoContent)
}

// Session reports the current session, for clients restoring state at start.
func (h *Handler) Session(c *gin.Context) {
	c.JSON(http.StatusOK, screen.Success(currentSession(c)))
}
