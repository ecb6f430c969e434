package echoapi

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// stream pushes the actor's realtime notification events over a websocket.
// Events published while no connection is open are dropped; the durable
// records remain queryable.
func (api *notificationApi) stream(ctx echo.Context) error {
	act, err := getContextActor(ctx, api.resolver)
	if err != nil {
		return err
	}
	if api.subscriber == nil {
		return echo.NewHTTPError(http.StatusNotImplemented, "live stream disabled")
	}

	conn, err := upgrader.Upgrade(ctx.Response(), ctx.Request(), nil)
	if err != nil {
		return errors.Wrap(err, "upgrading connection")
	}
	defer conn.Close()

	rctx := ctx.Request().Context()
	sub := api.subscriber.SubscribeUser(rctx, act.ID)
	defer sub.Close()

	// drain client frames so close/ping control messages are processed
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				_ = conn.Close()
				return
			}
		}
	}()

	ch := sub.Channel()
	for {
		select {
		case <-rctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			if err = conn.WriteMessage(websocket.TextMessage, []byte(msg.Payload)); err != nil {
				api.logger.Debug("notification stream closed", "actor", act.ID, "err", err)
				return nil
			}
		}
	}
}
