package api

import (
	"bytes"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/labstack/echo/v4"
	"github.com/reqstly/reqstly/domain"
	"github.com/reqstly/reqstly/metrics"
	"github.com/reqstly/reqstly/model"
)

const (
	oauthStateCookie  = "oauth_state"
	oauthNonceCookie  = "oauth_nonce"
	oauthCookieMaxAge = 600
)

func (h *Handler) HandleSignup(c echo.Context) error {
	var body struct {
		Email    string `json:"email"`
		Name     string `json:"name"`
		Password string `json:"password"`
	}
	if err := c.Bind(&body); err != nil {
		return respondError(c, http.StatusBadRequest, "invalid request body")
	}
	if body.Email == "" || body.Name == "" {
		return respondError(c, http.StatusBadRequest, "email and name are required")
	}

	user, err := h.passwords.Register(c.Request().Context(), body.Email, body.Name, body.Password)
	if err != nil {
		return fail(c, err)
	}
	metrics.Signup()

	token, _, err := h.sessions.Issue(c.Request().Context(), user.ID, model.ProviderPassword, nil)
	if err != nil {
		return fail(c, err)
	}
	h.setSessionCookie(c, token)

	return c.JSON(http.StatusCreated, user)
}

func (h *Handler) HandleLogin(c echo.Context) error {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&body); err != nil {
		return respondError(c, http.StatusBadRequest, "invalid request body")
	}

	ctx := c.Request().Context()
	userID, err := h.passwords.Authenticate(ctx, body.Email, body.Password)
	if err != nil {
		metrics.LoginFailure(model.ProviderPassword.String())
		return fail(c, err)
	}

	user, _, err := h.resolver.Resolve(ctx, domain.PasswordProof(userID))
	if err != nil {
		return fail(c, err)
	}

	token, _, err := h.sessions.Issue(ctx, user.ID, model.ProviderPassword, nil)
	if err != nil {
		return fail(c, err)
	}
	metrics.LoginSuccess(model.ProviderPassword.String())
	h.setSessionCookie(c, token)

	return c.JSON(http.StatusOK, user)
}

func (h *Handler) HandleLogout(c echo.Context) error {
	cookie, err := c.Cookie(sessionCookieName)
	if err == nil && cookie.Value != "" {
		if err := h.sessions.Revoke(c.Request().Context(), cookie.Value); err != nil {
			return fail(c, err)
		}
	}
	metrics.Logout()
	h.clearSessionCookie(c)
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) HandleMe(c echo.Context) error {
	sc := current(c)
	resp := map[string]any{
		"user":     sc.User,
		"provider": sc.Session.Provider,
	}
	if sc.Identity != nil {
		resp["external_identity"] = sc.Identity
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *Handler) HandleChangePassword(c echo.Context) error {
	var body struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := c.Bind(&body); err != nil {
		return respondError(c, http.StatusBadRequest, "invalid request body")
	}

	sc := current(c)
	if err := h.passwords.ChangePassword(c.Request().Context(), sc.User.ID, body.CurrentPassword, body.NewPassword); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ---- Azure AD ----

func (h *Handler) HandleAzureLogin(c echo.Context) error {
	state := randomToken()
	nonce := randomToken()
	h.setOAuthCookie(c, oauthStateCookie, state)
	h.setOAuthCookie(c, oauthNonceCookie, nonce)

	return c.Redirect(http.StatusFound, h.azure.AuthCodeURL(state, nonce))
}

func (h *Handler) HandleAzureCallback(c echo.Context) error {
	code := c.QueryParam("code")
	state := c.QueryParam("state")
	if code == "" || state == "" {
		return respondError(c, http.StatusBadRequest, "missing code or state")
	}

	stateCookie, err := c.Cookie(oauthStateCookie)
	if err != nil || stateCookie.Value != state {
		return respondError(c, http.StatusBadRequest, "state mismatch")
	}
	nonceCookie, err := c.Cookie(oauthNonceCookie)
	if err != nil || nonceCookie.Value == "" {
		return respondError(c, http.StatusBadRequest, "missing nonce")
	}
	h.clearOAuthCookie(c, oauthStateCookie)
	h.clearOAuthCookie(c, oauthNonceCookie)

	ctx := c.Request().Context()
	user, ident, err := h.azure.HandleCallback(ctx, code, nonceCookie.Value)
	if err != nil {
		metrics.LoginFailure(model.ProviderAzureAD.String())
		return fail(c, err)
	}

	token, _, err := h.sessions.Issue(ctx, user.ID, model.ProviderAzureAD, &ident.ID)
	if err != nil {
		return fail(c, err)
	}
	metrics.LoginSuccess(model.ProviderAzureAD.String())
	h.setSessionCookie(c, token)

	return c.JSON(http.StatusOK, user)
}

// ---- Passkeys ----

func (h *Handler) HandlePasskeyRegisterStart(c echo.Context) error {
	sc := current(c)
	options, ceremonyID, err := h.passkeys.BeginRegistration(c.Request().Context(), sc.User.ID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"ceremony_id": ceremonyID,
		"options":     options,
	})
}

func (h *Handler) HandlePasskeyRegisterFinish(c echo.Context) error {
	var body struct {
		CeremonyID string          `json:"ceremony_id"`
		Credential json.RawMessage `json:"credential"`
	}
	if err := c.Bind(&body); err != nil {
		return respondError(c, http.StatusBadRequest, "invalid request body")
	}

	parsed, err := protocol.ParseCredentialCreationResponseBody(bytes.NewReader(body.Credential))
	if err != nil {
		return respondError(c, http.StatusBadRequest, "invalid attestation response")
	}

	sc := current(c)
	cred, err := h.passkeys.FinishRegistration(c.Request().Context(), sc.User.ID, body.CeremonyID, parsed)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, cred)
}

func (h *Handler) HandlePasskeyLoginStart(c echo.Context) error {
	var body struct {
		Email string `json:"email"`
	}
	if err := c.Bind(&body); err != nil {
		return respondError(c, http.StatusBadRequest, "invalid request body")
	}

	options, ceremonyID, err := h.passkeys.BeginLogin(c.Request().Context(), body.Email)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"ceremony_id": ceremonyID,
		"options":     options,
	})
}

func (h *Handler) HandlePasskeyLoginFinish(c echo.Context) error {
	var body struct {
		CeremonyID string          `json:"ceremony_id"`
		Credential json.RawMessage `json:"credential"`
	}
	if err := c.Bind(&body); err != nil {
		return respondError(c, http.StatusBadRequest, "invalid request body")
	}

	parsed, err := protocol.ParseCredentialRequestResponseBody(bytes.NewReader(body.Credential))
	if err != nil {
		return respondError(c, http.StatusBadRequest, "invalid assertion response")
	}

	ctx := c.Request().Context()
	userID, credentialID, err := h.passkeys.FinishLogin(ctx, body.CeremonyID, parsed)
	if err != nil {
		metrics.LoginFailure(model.ProviderPasskey.String())
		return fail(c, err)
	}

	user, _, err := h.resolver.Resolve(ctx, domain.PasskeyProof(userID, credentialID))
	if err != nil {
		return fail(c, err)
	}

	token, _, err := h.sessions.Issue(ctx, user.ID, model.ProviderPasskey, nil)
	if err != nil {
		return fail(c, err)
	}
	metrics.LoginSuccess(model.ProviderPasskey.String())
	h.setSessionCookie(c, token)

	return c.JSON(http.StatusOK, user)
}

func (h *Handler) setOAuthCookie(c echo.Context, name, value string) {
	c.SetCookie(&http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   oauthCookieMaxAge,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) clearOAuthCookie(c echo.Context, name string) {
	c.SetCookie(&http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func randomToken() string {
	b := make([]byte, 32)
	rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}
