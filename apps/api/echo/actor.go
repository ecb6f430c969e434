package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/idhini/core"
	"github.com/trezcool/idhini/core/actor"
)

type actorApi struct {
	conf     *core.Config
	resolver *actor.Resolver
	validate *validator.Validate
}

func registerActorAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	conf *core.Config,
	resolver *actor.Resolver,
	validate *validator.Validate,
) {
	api := actorApi{
		conf:     conf,
		resolver: resolver,
		validate: validate,
	}

	ag := g.Group("/actors")

	// un-authed endpoints
	// TODO: rate limit `/login`
	ag.POST("/login", api.login)

	// authed endpoints
	authed := ag.Group("", jwt)
	authed.POST("/register", api.create, adminMiddleware())
	authed.GET("", api.query, adminMiddleware())
	authed.GET("/me", api.me)

	dg := g.Group("/departments", jwt, adminMiddleware())
	dg.POST("", api.createDepartment)
	dg.GET("", api.queryDepartments)
}

// Handlers

func (api *actorApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	claims, err := authenticate(ctx, api.conf, api.resolver, data.Email, data.Password)
	if err != nil {
		return err
	}
	token, err := GenerateToken(api.conf, claims)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}

	return ctx.JSON(http.StatusOK, LoginResponse{Token: token})
}

func (api *actorApi) create(ctx echo.Context) error {
	var data actor.NewActor
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewActor")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	act, err := api.resolver.CreateActor(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating actor")
	}

	return ctx.JSON(http.StatusCreated, act)
}

func (api *actorApi) query(ctx echo.Context) error {
	var filter actor.Filter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to Filter")
	}

	acts, err := api.resolver.FilterActors(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "filtering actors")
	}

	return ctx.JSON(http.StatusOK, acts)
}

func (api *actorApi) me(ctx echo.Context) error {
	act, err := getContextActor(ctx, api.resolver)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, act)
}

func (api *actorApi) createDepartment(ctx echo.Context) error {
	var data actor.NewDepartment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewDepartment")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	dept, err := api.resolver.CreateDepartment(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating department")
	}

	return ctx.JSON(http.StatusCreated, dept)
}

func (api *actorApi) queryDepartments(ctx echo.Context) error {
	depts, err := api.resolver.QueryDepartments(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying departments")
	}
	return ctx.JSON(http.StatusOK, depts)
}
