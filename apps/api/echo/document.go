package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/idhini/core/actor"
	"github.com/trezcool/idhini/core/document"
)

type documentApi struct {
	svc      *document.Service
	resolver *actor.Resolver
	validate *validator.Validate
}

func registerDocumentAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc *document.Service,
	resolver *actor.Resolver,
	validate *validator.Validate,
) {
	api := documentApi{
		svc:      svc,
		resolver: resolver,
		validate: validate,
	}

	dg := g.Group("/documents", jwt)
	dg.POST("", api.submit)
	dg.GET("", api.query)
	dg.GET("/:id", api.retrieve)
	dg.POST("/:id/advance", api.advance)
}

// Handlers

func (api *documentApi) submit(ctx echo.Context) error {
	act, err := getContextActor(ctx, api.resolver)
	if err != nil {
		return err
	}

	var data document.NewDocument
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewDocument")
	}

	doc, err := api.svc.Submit(ctx.Request().Context(), act, data)
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusCreated, doc)
}

func (api *documentApi) advance(ctx echo.Context) error {
	act, err := getContextActor(ctx, api.resolver)
	if err != nil {
		return err
	}

	var data document.AdvanceDocument
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AdvanceDocument")
	}

	doc, err := api.svc.Advance(ctx.Request().Context(), act, ctx.Param("id"), data)
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, doc)
}

func (api *documentApi) retrieve(ctx echo.Context) error {
	if _, err := getContextActor(ctx, api.resolver); err != nil {
		return err
	}

	doc, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, doc)
}

func (api *documentApi) query(ctx echo.Context) error {
	act, err := getContextActor(ctx, api.resolver)
	if err != nil {
		return err
	}

	var filter document.Filter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to Filter")
	}
	// non-admins only see their own submissions unless they filter explicitly
	if filter.IsEmpty() && !act.IsAdmin() {
		filter.OwnerID = act.ID
	}

	docs, err := api.svc.Query(ctx.Request().Context(), filter)
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, docs)
}
