package echoapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"

	"github.com/adminzone/backend/core"
	"github.com/adminzone/backend/core/audit"
	"github.com/adminzone/backend/core/user"
)

const (
	contextClaimsKey = "claims"
	bearerScheme     = "Bearer"
)

var (
	errMissingToken = echo.NewHTTPError(http.StatusUnauthorized, "missing or malformed jwt")
	errInvalidToken = echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired jwt")
	errUnauthorized = echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
	errForbidden    = echo.NewHTTPError(http.StatusForbidden, "Nu aveți permisiunea de a accesa această resursă")
)

// jwtMiddleware authenticates the request bearer token and records the user as the request actor.
func jwtMiddleware(conf *core.Config) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			auth := ctx.Request().Header.Get(echo.HeaderAuthorization)
			scheme, tokenStr, found := strings.Cut(auth, " ")
			if !found || !strings.EqualFold(scheme, bearerScheme) || strings.TrimSpace(tokenStr) == "" {
				return errMissingToken
			}

			claims, err := parseToken(strings.TrimSpace(tokenStr), conf)
			if err != nil {
				return errInvalidToken.WithInternal(err)
			}
			ctx.Set(contextClaimsKey, *claims)
			setActorUsername(ctx, claims.Subject)
			return next(ctx)
		}
	}
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if claims, ok := ctx.Get(contextClaimsKey).(Claims); ok {
		return claims, nil
	}
	return Claims{}, errUnauthorized
}

// actorMiddleware attaches the client IP to the request context; jwtMiddleware adds the username.
func actorMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		req := ctx.Request()
		actor := core.Actor{IP: core.ClientIP(req.Header.Get(echo.HeaderXForwardedFor), req.RemoteAddr)}
		ctx.SetRequest(req.WithContext(core.WithActor(req.Context(), actor)))
		return next(ctx)
	}
}

func setActorUsername(ctx echo.Context, username string) {
	req := ctx.Request()
	actor := core.ActorFromContext(req.Context())
	actor.Username = username
	ctx.SetRequest(req.WithContext(core.WithActor(req.Context(), actor)))
}

// accessPolicy maps HTTP methods to the roles allowed to use them. A missing method is denied.
type accessPolicy map[string][]string

var (
	// students, courses, enrollments, attendance, export
	recordsPolicy = accessPolicy{
		http.MethodGet:    user.AllRoles,
		http.MethodPost:   {user.RoleAdmin, user.RoleSecretary},
		http.MethodPut:    {user.RoleAdmin, user.RoleSecretary},
		http.MethodPatch:  {user.RoleAdmin, user.RoleSecretary},
		http.MethodDelete: {user.RoleAdmin},
	}

	// users, audit
	adminPolicy = accessPolicy{
		http.MethodGet:    {user.RoleAdmin},
		http.MethodPost:   {user.RoleAdmin},
		http.MethodPut:    {user.RoleAdmin},
		http.MethodPatch:  {user.RoleAdmin},
		http.MethodDelete: {user.RoleAdmin},
	}
)

// authorize enforces policy on authenticated requests. Denials are audited as ACCESS_DENIED.
func authorize(policy accessPolicy, auditor audit.Recorder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return err
			}
			method := ctx.Request().Method
			if method == http.MethodHead {
				method = http.MethodGet
			}
			if roles, ok := policy[method]; ok && claims.HasAnyRole(roles...) {
				return next(ctx)
			}

			reqCtx := ctx.Request().Context()
			actor := core.ActorFromContext(reqCtx)
			if err = auditor.RecordAuthEvent(reqCtx, audit.ActionAccessDenied, actor.Username, actor.IP); err != nil {
				return errors.Wrap(err, "auditing access denied")
			}
			return errForbidden
		}
	}
}

func newRequestID() string {
	return uuid.NewString()
}

// loginRateLimiter limits login attempts per client IP.
func loginRateLimiter(conf *core.Config) echo.MiddlewareFunc {
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(conf.Server.LoginRateLimit),
			Burst:     conf.Server.LoginRateBurst,
			ExpiresIn: 3 * time.Minute,
		}),
		IdentifierExtractor: func(ctx echo.Context) (string, error) {
			return core.ActorFromContext(ctx.Request().Context()).IP, nil
		},
		DenyHandler: func(ctx echo.Context, identifier string, err error) error {
			return echo.NewHTTPError(http.StatusTooManyRequests, "too many login attempts")
		},
	})
}
