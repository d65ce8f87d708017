package echoapi

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/adminzone/backend/core"
	"github.com/adminzone/backend/core/audit"
	"github.com/adminzone/backend/core/user"
)

const jwtAudience = "AdminZone"

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.RegisteredClaims
	Roles []string `json:"roles,omitempty"`
}

func (c Claims) HasAnyRole(roles ...string) bool {
	usr := user.User{Roles: c.Roles}
	return usr.HasAnyRole(roles...)
}

func GetUserClaims(usr user.User, conf *core.Config) *Claims {
	now := time.Now()
	return &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    conf.AppName,
			Subject:   usr.Username,
			Audience:  jwt.ClaimStrings{jwtAudience},
			ExpiresAt: jwt.NewNumericDate(now.Add(conf.JWTExpirationDelta)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
		Roles: usr.Roles,
	}
}

// GenerateToken generates a signed JWT token string representing the user Claims.
func GenerateToken(claims *Claims, secretKey string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	ss, err := token.SignedString([]byte(secretKey))
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

func parseToken(tokenStr string, conf *core.Config) (*Claims, error) {
	claims := new(Claims)
	_, err := jwt.ParseWithClaims(
		tokenStr,
		claims,
		func(*jwt.Token) (interface{}, error) { return []byte(conf.SecretKey), nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(conf.AppName),
		jwt.WithAudience(jwtAudience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

const loginFailedUsername = "unknown"

type (
	LoginRequest struct {
		Username string `json:"username" form:"username" validate:"required"`
		Password string `json:"password" form:"password" validate:"required"`
	}

	LoginResponse struct {
		Token    string   `json:"token,omitempty"`
		Username string   `json:"username,omitempty"`
		Roles    []string `json:"roles,omitempty"`
		Message  string   `json:"message"`
	}
)

func (lr *LoginRequest) Validate(validate *validator.Validate) error {
	lr.Username = core.CleanString(lr.Username, true /* lower */)
	return validate.Struct(lr)
}

type authApi struct {
	conf     *core.Config
	svc      *user.Service
	auditor  audit.Recorder
	validate *validator.Validate
	metrics  *metrics
}

func registerAuthAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	conf *core.Config,
	svc *user.Service,
	validate *validator.Validate,
	auditor audit.Recorder,
	metrics *metrics,
) {
	api := authApi{
		conf:     conf,
		svc:      svc,
		auditor:  auditor,
		validate: validate,
		metrics:  metrics,
	}

	ag := g.Group("/auth")
	ag.POST("/login", api.login, loginRateLimiter(conf))
	ag.POST("/logout", api.logout, jwt)
	ag.GET("/me", api.me, jwt)
}

func (api *authApi) recordAuthEvent(ctx echo.Context, action, username string) error {
	api.metrics.authEventInc(action)
	ip := core.ActorFromContext(ctx.Request().Context()).IP
	return errors.Wrap(api.auditor.RecordAuthEvent(ctx.Request().Context(), action, username, ip), "auditing "+action)
}

func (api *authApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return core.NewValidationError(errors.New("invalid login request"))
	}
	if err := data.Validate(api.validate); err != nil {
		username := data.Username
		if username == "" {
			username = loginFailedUsername
		}
		if aErr := api.recordAuthEvent(ctx, audit.ActionLoginFailed, username); aErr != nil {
			return aErr
		}
		return err
	}

	usr, err := api.svc.Authenticate(ctx.Request().Context(), data.Username, data.Password)
	if err != nil {
		cause := errors.Cause(err)
		if cause != user.ErrInvalidCredentials && cause != user.ErrAccountDisabled {
			return errors.Wrap(err, "authenticating")
		}
		if aErr := api.recordAuthEvent(ctx, audit.ActionLoginFailed, data.Username); aErr != nil {
			return aErr
		}
		return ctx.JSON(http.StatusUnauthorized, LoginResponse{Message: "Credențiale invalide"})
	}

	token, err := GenerateToken(GetUserClaims(usr, api.conf), api.conf.SecretKey)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	if err = api.recordAuthEvent(ctx, audit.ActionLoginSuccess, usr.Username); err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, LoginResponse{
		Token:    token,
		Username: usr.Username,
		Roles:    usr.Roles,
		Message:  "Autentificare reușită",
	})
}

func (api *authApi) logout(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	if err = api.recordAuthEvent(ctx, audit.ActionLogout, claims.Subject); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Username: claims.Subject, Message: "Deconectat"})
}

func (api *authApi) me(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, LoginResponse{
		Username: claims.Subject,
		Roles:    claims.Roles,
		Message:  "Autentificat",
	})
}
