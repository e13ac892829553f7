package handlers

import (
	"errors"
	"net/http"

	"storefront/internal/service"

	"github.com/gin-gonic/gin"
)

func (h *Handler) homePage(c *gin.Context) {
	h.render(c, http.StatusOK, "index.html", gin.H{"title": "Home"})
}

func (h *Handler) signupPage(c *gin.Context) {
	h.render(c, http.StatusOK, "signup.html", gin.H{"title": "Sign up"})
}

func (h *Handler) signupSubmit(c *gin.Context) {
	var form credentialsForm
	if err := c.ShouldBind(&form); err != nil {
		h.render(c, http.StatusBadRequest, "signup.html", gin.H{
			"title":    "Sign up",
			"username": form.Username,
			"errors":   fieldErrors(err),
		})
		return
	}

	_, err := h.services.SignUp(c.Request.Context(), form.Username, form.Password)
	h.metrics.RecordAuth("signup", err)
	switch {
	case err == nil:
		h.addFlash(c, flashSuccess, "Account created successfully. You can now log in.")
		c.Redirect(http.StatusFound, "/login")
	case errors.Is(err, service.ErrUsernameTaken):
		h.addFlash(c, flashDanger, "Username already exists. Choose a different one.")
		h.render(c, http.StatusConflict, "signup.html", gin.H{"title": "Sign up", "username": form.Username})
	case errors.Is(err, service.ErrInvalidCredentials):
		h.render(c, http.StatusBadRequest, "signup.html", gin.H{
			"title":    "Sign up",
			"username": form.Username,
			"errors":   map[string]string{"Username": "Username and password must not be blank."},
		})
	default:
		h.internalError(c, "page_sign_up_failed", err, "username", form.Username)
	}
}

func (h *Handler) loginPage(c *gin.Context) {
	h.render(c, http.StatusOK, "login.html", gin.H{"title": "Login"})
}

func (h *Handler) loginSubmit(c *gin.Context) {
	var form credentialsForm
	if err := c.ShouldBind(&form); err != nil {
		h.render(c, http.StatusBadRequest, "login.html", gin.H{
			"title":    "Login",
			"username": form.Username,
			"errors":   fieldErrors(err),
		})
		return
	}

	ctx := c.Request.Context()
	user, err := h.services.Authenticate(ctx, form.Username, form.Password)
	h.metrics.RecordAuth("login", err)
	if err != nil {
		if !errors.Is(err, service.ErrInvalidCredentials) {
			h.internalError(c, "page_login_failed", err, "username", form.Username)
			return
		}
		if h.log != nil {
			h.log.Infow("page_login_failed", "username", form.Username)
		}
		h.addFlash(c, flashDanger, "Login failed. Check your username and password.")
		h.render(c, http.StatusUnauthorized, "login.html", gin.H{"title": "Login", "username": form.Username})
		return
	}

	sess, err := h.services.Begin(ctx, user.ID)
	if err != nil {
		h.internalError(c, "session_begin_failed", err, "user_id", user.ID)
		return
	}
	h.setSessionCookie(c, sess.ID)
	h.addFlash(c, flashSuccess, "Login successful!")
	c.Redirect(http.StatusFound, "/home")
}

func (h *Handler) changePasswordPage(c *gin.Context) {
	h.render(c, http.StatusOK, "change-password.html", gin.H{"title": "Change password"})
}

func (h *Handler) changePasswordSubmit(c *gin.Context) {
	userID, _ := currentUserID(c)

	var form changePasswordForm
	if err := c.ShouldBind(&form); err != nil {
		h.render(c, http.StatusBadRequest, "change-password.html", gin.H{
			"title":  "Change password",
			"errors": fieldErrors(err),
		})
		return
	}

	err := h.services.ChangePassword(c.Request.Context(), userID, form.CurrentPassword, form.NewPassword, form.ConfirmNewPassword)
	h.metrics.RecordAuth("password_change", err)
	switch {
	case err == nil:
		h.addFlash(c, flashSuccess, "Your password has been changed successfully.")
		c.Redirect(http.StatusFound, "/home")
	case errors.Is(err, service.ErrInvalidPassword):
		h.addFlash(c, flashDanger, "Current password is incorrect.")
		h.render(c, http.StatusBadRequest, "change-password.html", gin.H{"title": "Change password"})
	case errors.Is(err, service.ErrPasswordMismatch):
		h.render(c, http.StatusBadRequest, "change-password.html", gin.H{
			"title":  "Change password",
			"errors": map[string]string{"ConfirmNewPassword": "Passwords must match."},
		})
	case errors.Is(err, service.ErrPasswordTooShort):
		h.render(c, http.StatusBadRequest, "change-password.html", gin.H{
			"title":  "Change password",
			"errors": map[string]string{"NewPassword": "Must be at least 8 characters long."},
		})
	default:
		h.internalError(c, "password_change_failed", err, "user_id", userID)
	}
}

func (h *Handler) logout(c *gin.Context) {
	sid := c.GetString(ctxSessionID)
	if err := h.services.End(c.Request.Context(), sid); err != nil {
		h.internalError(c, "session_end_failed", err)
		return
	}
	h.clearSessionCookie(c)
	h.addFlash(c, flashSuccess, "Logout successful!")
	c.Redirect(http.StatusFound, "/home")
}

// internalError logs err and answers a page request with a bare 500.
func (h *Handler) internalError(c *gin.Context, logKey string, err error, kv ...interface{}) {
	if h.log != nil {
		h.log.Errorw(logKey, append([]interface{}{"err", err}, kv...)...)
	}
	c.String(http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
}
