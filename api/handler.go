// Package api exposes the HTTP surface: authentication flows, session
// cookie handling, and the request/audit endpoints.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/reqstly/reqstly/auth"
	"github.com/reqstly/reqstly/metrics"
	"github.com/reqstly/reqstly/session"
	"github.com/reqstly/reqstly/ticket"
)

const sessionCookieName = "session"

// contextKey is the echo context key the auth middleware stores the
// validated session under.
const contextKey = "session_context"

// Pinger is the health-check view of the storage.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler wires the authentication strategies and the ticket service into
// echo routes.
type Handler struct {
	passwords *auth.PasswordStrategy
	passkeys  *auth.PasskeyStrategy
	azure     *auth.AzureManager // nil when Azure AD is not configured
	resolver  *auth.Resolver
	sessions  *session.Manager
	tickets   *ticket.Service
	db        Pinger

	sessionTTL   time.Duration
	cookieSecure bool
}

// Config carries the handler's dependencies.
type Config struct {
	Passwords *auth.PasswordStrategy
	Passkeys  *auth.PasskeyStrategy
	Azure     *auth.AzureManager
	Resolver  *auth.Resolver
	Sessions  *session.Manager
	Tickets   *ticket.Service
	DB        Pinger

	SessionTTL   time.Duration
	CookieSecure bool
}

func NewHandler(cfg Config) *Handler {
	return &Handler{
		passwords:    cfg.Passwords,
		passkeys:     cfg.Passkeys,
		azure:        cfg.Azure,
		resolver:     cfg.Resolver,
		sessions:     cfg.Sessions,
		tickets:      cfg.Tickets,
		db:           cfg.DB,
		sessionTTL:   cfg.SessionTTL,
		cookieSecure: cfg.CookieSecure,
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.HandleHealth)
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))

	a := e.Group("/auth")
	a.POST("/signup", h.HandleSignup)
	a.POST("/login", h.HandleLogin)
	a.POST("/passkey/login/start", h.HandlePasskeyLoginStart)
	a.POST("/passkey/login/finish", h.HandlePasskeyLoginFinish)
	if h.azure != nil {
		a.GET("/azure/login", h.HandleAzureLogin)
		a.GET("/azure/callback", h.HandleAzureCallback)
	}

	authed := a.Group("")
	authed.Use(h.AuthMiddleware)
	authed.GET("/me", h.HandleMe)
	authed.POST("/logout", h.HandleLogout)
	authed.POST("/password", h.HandleChangePassword)
	authed.POST("/passkey/register/start", h.HandlePasskeyRegisterStart)
	authed.POST("/passkey/register/finish", h.HandlePasskeyRegisterFinish)

	r := e.Group("/requests")
	r.Use(h.AuthMiddleware)
	r.POST("", h.HandleCreateRequest)
	r.GET("", h.HandleListRequests)
	r.GET("/:id", h.HandleGetRequest)
	r.PUT("/:id", h.HandleUpdateRequest)
	r.PUT("/:id/status", h.HandleTransitionStatus)
	r.DELETE("/:id", h.HandleDeleteRequest)
	r.GET("/:id/audit", h.HandleRequestAudit)

	e.GET("/audit", h.HandleActorAudit, h.AuthMiddleware)
}

// AuthMiddleware validates the session cookie and stores the session
// context for downstream handlers.
func (h *Handler) AuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		cookie, err := c.Cookie(sessionCookieName)
		if err != nil || cookie.Value == "" {
			return respondError(c, http.StatusUnauthorized, "not authenticated")
		}

		sc, err := h.sessions.Validate(c.Request().Context(), cookie.Value)
		if err != nil {
			return fail(c, err)
		}

		c.Set(contextKey, sc)
		return next(c)
	}
}

// current returns the session context stored by AuthMiddleware.
func current(c echo.Context) *session.Context {
	return c.Get(contextKey).(*session.Context)
}

func (h *Handler) HandleHealth(c echo.Context) error {
	if err := h.db.Ping(c.Request().Context()); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) setSessionCookie(c echo.Context, token string) {
	c.SetCookie(&http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.sessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) clearSessionCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
