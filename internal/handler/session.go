package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"otc-signal/internal/domain"
)

type loginRequest struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
	Account  string `form:"account" json:"account"`
}

// Login godoc
// @Summary      Log in with broker credentials
// @Description  Verifies the credentials against the broker and opens a session
// @Tags         session
// @Accept       json,x-www-form-urlencoded
// @Produce      json
// @Param        email     formData  string  true   "Broker email"
// @Param        password  formData  string  true   "Broker password"
// @Param        account   formData  string  false  "PRACTICE or REAL"
// @Success      200  {object}  map[string]string
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /api/login [post]
func (h *Handler) Login(c *gin.Context) {
	if h.sessions == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "login unavailable"})
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.login")
	defer span.End()

	var req loginRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid login request"})
		return
	}

	creds := domain.Credentials{
		Email:    req.Email,
		Password: req.Password,
		Account:  strings.ToUpper(strings.TrimSpace(req.Account)),
	}
	if creds.Account != "" && creds.Account != domain.AccountPractice && creds.Account != domain.AccountReal {
		c.JSON(http.StatusBadRequest, gin.H{"error": "account must be PRACTICE or REAL"})
		return
	}

	token, err := h.sessions.Login(ctx, creds)
	if err != nil {
		if errors.Is(err, domain.ErrLoginFailed) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": domain.ErrLoginFailed.Error()})
			return
		}
		log.Error().Err(err).Msg("login")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not open session"})
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookie, token, 0, "/", "", h.secureCookies, true)
	c.JSON(http.StatusOK, gin.H{"token": token})
}

// Logout godoc
// @Summary      Close the current session
// @Tags         session
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /api/logout [post]
func (h *Handler) Logout(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.logout")
	defer span.End()

	if token := sessionToken(c); token != "" && h.sessions != nil {
		if err := h.sessions.Logout(ctx, token); err != nil {
			log.Warn().Err(err).Msg("logout")
		}
	}
	c.SetCookie(sessionCookie, "", -1, "/", "", h.secureCookies, true)
	c.JSON(http.StatusOK, gin.H{"status": "logged out"})
}

// sessionToken prefers the header so API clients can skip cookies.
func sessionToken(c *gin.Context) string {
	if token := strings.TrimSpace(c.GetHeader(sessionHeader)); token != "" {
		return token
	}
	token, _ := c.Cookie(sessionCookie)
	return strings.TrimSpace(token)
}
