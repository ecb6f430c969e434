package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/idhini/core/notification"
)

type notificationRepository struct {
	db *sqlx.DB
}

var _ notification.Repository = (*notificationRepository)(nil) // interface compliance check

func NewNotificationRepository(db *sqlx.DB) *notificationRepository {
	return &notificationRepository{db: db}
}

type notificationRow struct {
	ID             string         `db:"id"`
	RecipientID    string         `db:"recipient_id"`
	SenderID       sql.NullString `db:"sender_id"`
	ParentID       sql.NullString `db:"parent_id"`
	Title          string         `db:"title"`
	Message        string         `db:"message"`
	Kind           string         `db:"kind"`
	Link           string         `db:"link"`
	Attachments    pq.StringArray `db:"attachments"`
	IsRead         bool           `db:"is_read"`
	IsAcknowledged bool           `db:"is_acknowledged"`
	AcknowledgedAt sql.NullTime   `db:"acknowledged_at"`
	CreatedAt      time.Time      `db:"created_at"`
}

func (r notificationRow) unpack() notification.Notification {
	n := notification.Notification{
		ID:             r.ID,
		RecipientID:    r.RecipientID,
		Title:          r.Title,
		Message:        r.Message,
		Kind:           notification.Kind(r.Kind),
		Link:           r.Link,
		Attachments:    r.Attachments,
		IsRead:         r.IsRead,
		IsAcknowledged: r.IsAcknowledged,
		CreatedAt:      r.CreatedAt,
	}
	if r.SenderID.Valid {
		sender := r.SenderID.String
		n.SenderID = &sender
	}
	if r.ParentID.Valid {
		parent := r.ParentID.String
		n.ParentID = &parent
	}
	if r.AcknowledgedAt.Valid {
		at := r.AcknowledgedAt.Time
		n.AcknowledgedAt = &at
	}
	return n
}

func unpackNotifications(rows []notificationRow) []notification.Notification {
	notifs := make([]notification.Notification, 0, len(rows))
	for _, r := range rows {
		notifs = append(notifs, r.unpack())
	}
	return notifs
}

// trapNoNotifErr maps psql "no rows" err to notification.ErrNotFound
func trapNoNotifErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return notification.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo *notificationRepository) CreateNotification(ctx context.Context, n notification.Notification) (notification.Notification, error) {
	const query = `
		INSERT INTO notification
			(id, recipient_id, sender_id, parent_id, title, message, kind, link, attachments, is_read, is_acknowledged, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := repo.db.ExecContext(ctx, query,
		n.ID, n.RecipientID, n.SenderID, n.ParentID, n.Title, n.Message, n.Kind, n.Link,
		pq.StringArray(n.Attachments), n.IsRead, n.IsAcknowledged, n.CreatedAt.UTC(),
	)
	if err != nil {
		return notification.Notification{}, errors.Wrap(err, "inserting notification")
	}
	return n, nil
}

func (repo *notificationRepository) GetNotification(ctx context.Context, id string) (notification.Notification, error) {
	var row notificationRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM notification WHERE id = $1`, id); err != nil {
		return notification.Notification{}, trapNoNotifErr(err, "getting notification")
	}
	return row.unpack(), nil
}

func (repo *notificationRepository) QueryByRecipient(ctx context.Context, recipientID string, filter notification.Filter) ([]notification.Notification, error) {
	query := `SELECT * FROM notification WHERE recipient_id = ?`
	args := []interface{}{recipientID}
	if filter.UnreadOnly {
		query += ` AND NOT is_read`
	}
	query += ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	var rows []notificationRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "querying notifications")
	}
	return unpackNotifications(rows), nil
}

func (repo *notificationRepository) MarkRead(ctx context.Context, id string) (notification.Notification, error) {
	var row notificationRow
	err := repo.db.GetContext(ctx, &row, `UPDATE notification SET is_read = true WHERE id = $1 RETURNING *`, id)
	if err != nil {
		return notification.Notification{}, trapNoNotifErr(err, "marking notification read")
	}
	return row.unpack(), nil
}

// AcknowledgeNotification only writes when not yet acknowledged, so the
// first acknowledgment's timestamp always wins.
func (repo *notificationRepository) AcknowledgeNotification(ctx context.Context, id string, at time.Time) (notification.Notification, error) {
	const query = `
		UPDATE notification
		SET is_acknowledged = true, acknowledged_at = $1
		WHERE id = $2 AND NOT is_acknowledged`
	if _, err := repo.db.ExecContext(ctx, query, at.UTC(), id); err != nil {
		return notification.Notification{}, errors.Wrap(err, "acknowledging notification")
	}
	return repo.GetNotification(ctx, id)
}

func (repo *notificationRepository) QueryReplies(ctx context.Context, parentID string) ([]notification.Notification, error) {
	const query = `SELECT * FROM notification WHERE parent_id = $1 ORDER BY created_at ASC`
	var rows []notificationRow
	if err := repo.db.SelectContext(ctx, &rows, query, parentID); err != nil {
		return nil, errors.Wrap(err, "querying replies")
	}
	return unpackNotifications(rows), nil
}
