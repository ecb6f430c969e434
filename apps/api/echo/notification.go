package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/idhini/core"
	"github.com/trezcool/idhini/core/actor"
	"github.com/trezcool/idhini/core/notification"
	"github.com/trezcool/idhini/services/push"
)

const errAmbiguousTarget = "set exactly one of recipient_id, recipient_ids or role"

type notificationApi struct {
	svc        *notification.Service
	resolver   *actor.Resolver
	subscriber pushsvc.Subscriber
	validate   *validator.Validate
	logger     core.Logger
}

func registerNotificationAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc *notification.Service,
	resolver *actor.Resolver,
	subscriber pushsvc.Subscriber,
	validate *validator.Validate,
	logger core.Logger,
) {
	api := notificationApi{
		svc:        svc,
		resolver:   resolver,
		subscriber: subscriber,
		validate:   validate,
		logger:     logger,
	}

	ng := g.Group("/notifications", jwt)
	ng.GET("", api.query)
	ng.POST("", api.send)
	ng.POST("/broadcast", api.broadcast, adminMiddleware())
	ng.GET("/stream", api.stream)
	ng.GET("/:id/thread", api.thread)
	ng.POST("/:id/reply", api.reply)
	ng.POST("/:id/ack", api.acknowledge)
	ng.POST("/:id/read", api.markRead)
}

// Handlers

func (api *notificationApi) query(ctx echo.Context) error {
	act, err := getContextActor(ctx, api.resolver)
	if err != nil {
		return err
	}

	var filter notification.Filter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to Filter")
	}

	notifs, err := api.svc.Query(ctx.Request().Context(), act.ID, filter)
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, notifs)
}

func (api *notificationApi) send(ctx echo.Context) error {
	act, err := getContextActor(ctx, api.resolver)
	if err != nil {
		return err
	}

	var data SendNotificationRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SendNotificationRequest")
	}

	targets := 0
	if data.RecipientID != "" {
		targets++
	}
	if len(data.RecipientIDs) > 0 {
		targets++
	}
	if data.Role != "" {
		targets++
	}
	if targets != 1 {
		return core.NewValidationError(errors.New(errAmbiguousTarget))
	}

	rctx := ctx.Request().Context()
	asSender := notification.WithSender(act.ID)

	switch {
	case data.RecipientID != "":
		notif, err := api.svc.NotifyUser(rctx, data.RecipientID, data.NewNotification, asSender)
		if err != nil {
			return err
		}
		return ctx.JSON(http.StatusCreated, []notification.Notification{notif})
	case len(data.RecipientIDs) > 0:
		notifs, err := api.svc.NotifyBulk(rctx, data.RecipientIDs, data.NewNotification, asSender)
		if err != nil {
			return err
		}
		return ctx.JSON(http.StatusCreated, notifs)
	default:
		if !act.IsAdmin() {
			return errHttpForbidden
		}
		notifs, err := api.svc.NotifyRole(rctx, actor.Role(data.Role), data.NewNotification, asSender)
		if err != nil {
			return err
		}
		return ctx.JSON(http.StatusCreated, notifs)
	}
}

func (api *notificationApi) broadcast(ctx echo.Context) error {
	act, err := getContextActor(ctx, api.resolver)
	if err != nil {
		return err
	}

	var data notification.NewNotification
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewNotification")
	}

	notifs, err := api.svc.NotifyAll(ctx.Request().Context(), act, data, notification.WithSender(act.ID))
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusCreated, notifs)
}

func (api *notificationApi) thread(ctx echo.Context) error {
	act, err := getContextActor(ctx, api.resolver)
	if err != nil {
		return err
	}

	thread, err := api.svc.Thread(ctx.Request().Context(), act.ID, ctx.Param("id"))
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, thread)
}

func (api *notificationApi) reply(ctx echo.Context) error {
	act, err := getContextActor(ctx, api.resolver)
	if err != nil {
		return err
	}

	var data ReplyRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ReplyRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	notif, err := api.svc.Reply(ctx.Request().Context(), act.ID, ctx.Param("id"), data.Message)
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusCreated, notif)
}

func (api *notificationApi) acknowledge(ctx echo.Context) error {
	act, err := getContextActor(ctx, api.resolver)
	if err != nil {
		return err
	}

	if err := api.svc.Acknowledge(ctx.Request().Context(), act.ID, ctx.Param("id")); err != nil {
		return err
	}

	return ctx.NoContent(http.StatusNoContent)
}

func (api *notificationApi) markRead(ctx echo.Context) error {
	act, err := getContextActor(ctx, api.resolver)
	if err != nil {
		return err
	}

	notif, err := api.svc.MarkRead(ctx.Request().Context(), act.ID, ctx.Param("id"))
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, notif)
}
