package pushsvc

import (
	"context"
	"sync"

	"github.com/trezcool/idhini/core/notification"
)

// DummyBroadcaster records published events instead of delivering them.
// Used in tests and in local dev where no redis is running.
type DummyBroadcaster struct {
	mutex  sync.Mutex
	events map[string][]notification.Event // userID -> events

	// Err, when set, is returned by every publish. Lets tests exercise the
	// absorbed-failure path.
	Err error
}

var _ notification.Broadcaster = (*DummyBroadcaster)(nil)

func NewDummyBroadcaster() *DummyBroadcaster {
	return &DummyBroadcaster{events: make(map[string][]notification.Event)}
}

func (b *DummyBroadcaster) PublishToUser(ctx context.Context, userID string, event notification.Event) error {
	if b.Err != nil {
		return b.Err
	}
	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.events[userID] = append(b.events[userID], event)
	return nil
}

// Events returns the events published to a user, in publish order.
func (b *DummyBroadcaster) Events(userID string) []notification.Event {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return append([]notification.Event(nil), b.events[userID]...)
}
