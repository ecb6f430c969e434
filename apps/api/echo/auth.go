package echoapi

import (
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/idhini/core"
	"github.com/trezcool/idhini/core/actor"
)

const (
	tokenCtxKey = "actorToken"
	actorCtxKey = "actor"
)

// newJWTConfig is the default JWT auth middleware config.
func newJWTConfig(conf *core.Config) middleware.JWTConfig {
	return middleware.JWTConfig{
		SigningKey:    []byte(conf.SecretKey),
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    tokenCtxKey,
		Claims:        new(Claims),
	}
}

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	Name       string `json:"name,omitempty"`
	Email      string `json:"email,omitempty"`
	Role       string `json:"role,omitempty"`
	Department string `json:"department,omitempty"`
	IsAdmin    bool   `json:"is_admin,omitempty"` // -> ADMIN PORTAL
}

func GetActorClaims(conf *core.Config, act actor.Actor) *Claims {
	now := time.Now()
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    conf.AppName,
			Subject:   act.ID,
			Audience:  "Idhini",
			ExpiresAt: now.Add(conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  now.Unix(),
		},
		Name:       act.Name,
		Email:      act.Email,
		Role:       string(act.Role),
		Department: act.Department,
		IsAdmin:    act.IsAdmin(),
	}
}

func authenticate(ctx echo.Context, conf *core.Config, resolver *actor.Resolver, email, pwd string) (*Claims, error) {
	act, err := resolver.GetActorByEmail(ctx.Request().Context(), email)
	if err != nil {
		if errors.Cause(err) == actor.ErrNotFound {
			return nil, errAuthenticationFailed
		}
		return nil, errors.Wrap(err, "finding actor by email")
	}
	if err = act.CheckPassword(pwd); err != nil {
		return nil, errAuthenticationFailed
	}
	if !act.IsActive {
		return nil, errAccountDeactivated
	}
	return GetActorClaims(conf, act), nil
}

// GenerateToken generates a signed JWT token string representing the actor Claims.
func GenerateToken(conf *core.Config, claims *Claims) (string, error) {
	method := jwt.GetSigningMethod(middleware.AlgorithmHS256)
	token := jwt.NewWithClaims(method, claims)

	ss, err := token.SignedString([]byte(conf.SecretKey))
	if err != nil {
		return "", errors.New("signing token")
	}
	return ss, nil
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(tokenCtxKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

// getContextActor loads the authenticated actor from the repository,
// caching it on the request context.
func getContextActor(ctx echo.Context, resolver *actor.Resolver) (actor.Actor, error) {
	if act, ok := ctx.Get(actorCtxKey).(actor.Actor); ok {
		return act, nil
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return actor.Actor{}, errors.Wrap(err, "getting context claims")
	}

	act, err := resolver.GetActor(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return actor.Actor{}, errors.Wrap(err, "finding actor by ID")
	}
	if !act.IsActive {
		return actor.Actor{}, errAccountDeactivated
	}
	ctx.Set(actorCtxKey, act)
	return act, nil
}

func adminMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if claims.IsAdmin {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}
