package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/trezcool/idhini/core/notification"
)

type notificationRepository struct {
	db *notificationTable
}

var _ notification.Repository = (*notificationRepository)(nil) // interface compliance check

func NewNotificationRepository(db *DB) *notificationRepository {
	return &notificationRepository{db: db.notification}
}

func (repo *notificationRepository) CreateNotification(ctx context.Context, n notification.Notification) (notification.Notification, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.seq++
	repo.db.table[n.ID] = &n
	repo.db.order[n.ID] = repo.db.seq
	return n, nil
}

func (repo *notificationRepository) GetNotification(ctx context.Context, id string) (notification.Notification, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if n, ok := repo.db.table[id]; ok {
		return *n, nil
	}
	return notification.Notification{}, notification.ErrNotFound
}

func (repo *notificationRepository) QueryByRecipient(ctx context.Context, recipientID string, filter notification.Filter) ([]notification.Notification, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	notifs := make([]notification.Notification, 0)
	for _, n := range repo.db.table {
		if n.RecipientID != recipientID {
			continue
		}
		if filter.UnreadOnly && n.IsRead {
			continue
		}
		notifs = append(notifs, *n)
	}
	// newest first
	sort.Slice(notifs, func(i, j int) bool {
		return repo.db.order[notifs[i].ID] > repo.db.order[notifs[j].ID]
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(notifs) {
			return []notification.Notification{}, nil
		}
		notifs = notifs[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(notifs) {
		notifs = notifs[:filter.Limit]
	}
	return notifs, nil
}

func (repo *notificationRepository) MarkRead(ctx context.Context, id string) (notification.Notification, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	n, ok := repo.db.table[id]
	if !ok {
		return notification.Notification{}, notification.ErrNotFound
	}
	n.IsRead = true
	return *n, nil
}

func (repo *notificationRepository) AcknowledgeNotification(ctx context.Context, id string, at time.Time) (notification.Notification, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	n, ok := repo.db.table[id]
	if !ok {
		return notification.Notification{}, notification.ErrNotFound
	}
	// idempotent: the first acknowledgment wins
	if !n.IsAcknowledged {
		n.IsAcknowledged = true
		n.AcknowledgedAt = &at
	}
	return *n, nil
}

func (repo *notificationRepository) QueryReplies(ctx context.Context, parentID string) ([]notification.Notification, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	replies := make([]notification.Notification, 0)
	for _, n := range repo.db.table {
		if n.ParentID != nil && *n.ParentID == parentID {
			replies = append(replies, *n)
		}
	}
	// oldest first
	sort.Slice(replies, func(i, j int) bool {
		return repo.db.order[replies[i].ID] < repo.db.order[replies[j].ID]
	})
	return replies, nil
}
