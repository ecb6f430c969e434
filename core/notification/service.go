package notification

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/idhini/core"
	"github.com/trezcool/idhini/core/actor"
)

var (
	NowFunc = time.Now // mockable

	// errors
	ErrNotFound    = errors.New("notification not found")
	errSelfReply   = errors.New("cannot reply to own notification")
	errNoRecipient = errors.New("recipient is required")
)

type (
	Repository interface {
		CreateNotification(ctx context.Context, n Notification) (Notification, error)
		GetNotification(ctx context.Context, id string) (Notification, error)
		// QueryByRecipient returns the recipient's notifications, newest first.
		QueryByRecipient(ctx context.Context, recipientID string, filter Filter) ([]Notification, error)
		MarkRead(ctx context.Context, id string) (Notification, error)
		// AcknowledgeNotification sets IsAcknowledged/AcknowledgedAt. It is a
		// no-op returning the stored row when already acknowledged.
		AcknowledgeNotification(ctx context.Context, id string, at time.Time) (Notification, error)
		// QueryReplies returns direct replies ordered by creation time ascending.
		QueryReplies(ctx context.Context, parentID string) ([]Notification, error)
	}

	// Broadcaster is the realtime push port. Delivery is best-effort: a
	// failed publish degrades latency, never correctness.
	Broadcaster interface {
		PublishToUser(ctx context.Context, userID string, event Event) error
	}

	// ActorDirectory is the slice of the actor resolver the fan-out needs.
	ActorDirectory interface {
		GetActor(ctx context.Context, id string) (actor.Actor, error)
		ActiveByRole(ctx context.Context, role actor.Role) ([]actor.Actor, error)
		ActiveActors(ctx context.Context) ([]actor.Actor, error)
	}

	Service struct {
		repo     Repository
		actors   ActorDirectory
		bcast    Broadcaster
		mailSvc  core.EmailService
		reporter core.Reporter
		validate *validator.Validate
	}

	// Option tweaks a single notification write.
	Option func(*Notification)
)

// WithSender marks the notification as sent by a human actor instead of the
// system.
func WithSender(senderID string) Option {
	return func(n *Notification) {
		n.SenderID = &senderID
	}
}

func NewService(repo Repository, actors ActorDirectory, bcast Broadcaster, mailSvc core.EmailService, reporter core.Reporter, validate *validator.Validate) *Service {
	return &Service{
		repo:     repo,
		actors:   actors,
		bcast:    bcast,
		mailSvc:  mailSvc,
		reporter: reporter,
		validate: validate,
	}
}

// NotifyUser persists a notification for one recipient, then attempts
// realtime delivery. The persisted record is the durable guarantee; push
// failures are absorbed.
func (svc *Service) NotifyUser(ctx context.Context, recipientID string, nn NewNotification, opts ...Option) (Notification, error) {
	if err := nn.Validate(svc.validate); err != nil {
		return Notification{}, err
	}
	if recipientID == "" {
		return Notification{}, core.NewValidationError(errNoRecipient, core.FieldError{Field: "recipient_id", Error: errNoRecipient.Error()})
	}
	return svc.create(ctx, recipientID, nn, opts...)
}

// NotifyBulk issues one independent write per recipient. It is NOT atomic:
// a mid-batch failure leaves earlier recipients notified. Partial success
// is an accepted outcome; per-recipient failures are reported, not returned.
func (svc *Service) NotifyBulk(ctx context.Context, recipientIDs []string, nn NewNotification, opts ...Option) ([]Notification, error) {
	if err := nn.Validate(svc.validate); err != nil {
		return nil, err
	}
	notifs := make([]Notification, 0, len(recipientIDs))
	for _, rid := range recipientIDs {
		if rid == "" {
			continue
		}
		n, err := svc.create(ctx, rid, nn, opts...)
		if err != nil {
			svc.reporter.Report(fmt.Sprintf("notification: bulk write for recipient %s", rid), err)
			continue
		}
		notifs = append(notifs, n)
	}
	return notifs, nil
}

// NotifyRole fans out to every actor active with the role at call time.
// Actors gaining the role afterwards are not retroactively notified.
func (svc *Service) NotifyRole(ctx context.Context, role actor.Role, nn NewNotification, opts ...Option) ([]Notification, error) {
	members, err := svc.actors.ActiveByRole(ctx, role)
	if err != nil {
		return nil, errors.Wrap(err, "resolving role members")
	}
	return svc.NotifyBulk(ctx, actorIDs(members), nn, opts...)
}

// NotifyAll fans out to every active actor. Privileged: the caller must be
// an admin.
func (svc *Service) NotifyAll(ctx context.Context, caller actor.Actor, nn NewNotification, opts ...Option) ([]Notification, error) {
	if !caller.IsAdmin() {
		return nil, core.NewAuthorizationError("only admins may broadcast to all users")
	}
	active, err := svc.actors.ActiveActors(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "resolving active actors")
	}
	return svc.NotifyBulk(ctx, actorIDs(active), nn, opts...)
}

// Reply creates a child notification addressed to the parent's sender, or
// to the parent's recipient when the parent was system-generated.
func (svc *Service) Reply(ctx context.Context, senderID, parentID, message string) (Notification, error) {
	parent, err := svc.repo.GetNotification(ctx, parentID)
	if err != nil {
		return Notification{}, err
	}

	recipientID := parent.RecipientID
	if parent.SenderID != nil {
		recipientID = *parent.SenderID
	}
	if recipientID == senderID {
		return Notification{}, core.NewValidationError(errSelfReply)
	}

	message = core.CleanString(message)
	if message == "" {
		return Notification{}, core.NewValidationError(errors.New("message is required"), core.FieldError{Field: "message", Error: "this field is required"})
	}

	nn := NewNotification{
		Title:   "Re: " + parent.Title,
		Message: message,
		Kind:    parent.Kind,
	}
	return svc.create(ctx, recipientID, nn, WithSender(senderID), asReplyTo(parent))
}

// Acknowledge flips the acknowledgment flag. Idempotent: repeated calls do
// not change AcknowledgedAt. Only the recipient may acknowledge.
func (svc *Service) Acknowledge(ctx context.Context, actorID, id string) error {
	n, err := svc.repo.GetNotification(ctx, id)
	if err != nil {
		return err
	}
	if n.RecipientID != actorID {
		return core.NewAuthorizationError("only the recipient may acknowledge a notification")
	}
	if n.IsAcknowledged {
		return nil
	}

	n, err = svc.repo.AcknowledgeNotification(ctx, id, NowFunc().UTC())
	if err != nil {
		return errors.Wrap(err, "acknowledging notification")
	}

	// best-effort realtime event to the sender; not a persisted notification
	if n.SenderID != nil {
		event := Event{Name: EventAcknowledged, Payload: n}
		if err := svc.bcast.PublishToUser(ctx, *n.SenderID, event); err != nil {
			svc.reporter.Report(fmt.Sprintf("notification: ack push to %s", *n.SenderID), err)
		}
	}
	return nil
}

// MarkRead flags the notification as read. Only the recipient may do so.
func (svc *Service) MarkRead(ctx context.Context, actorID, id string) (Notification, error) {
	n, err := svc.repo.GetNotification(ctx, id)
	if err != nil {
		return Notification{}, err
	}
	if n.RecipientID != actorID {
		return Notification{}, core.NewAuthorizationError("only the recipient may mark a notification read")
	}
	if n.IsRead {
		return n, nil
	}
	return svc.repo.MarkRead(ctx, id)
}

// Thread returns the parent plus its direct replies, oldest first. Access
// is restricted to the parent's sender or recipient.
func (svc *Service) Thread(ctx context.Context, actorID, id string) (Thread, error) {
	parent, err := svc.repo.GetNotification(ctx, id)
	if err != nil {
		return Thread{}, err
	}
	if !canAccessThread(parent, actorID) {
		return Thread{}, core.NewAuthorizationError("thread access restricted to its participants")
	}

	replies, err := svc.repo.QueryReplies(ctx, parent.ID)
	if err != nil {
		return Thread{}, errors.Wrap(err, "querying replies")
	}
	if replies == nil {
		replies = []Notification{}
	}
	return Thread{Parent: parent, Replies: replies}, nil
}

// Query lists the actor's own notifications, newest first.
func (svc *Service) Query(ctx context.Context, recipientID string, filter Filter) ([]Notification, error) {
	return svc.repo.QueryByRecipient(ctx, recipientID, filter)
}

func (svc *Service) Get(ctx context.Context, id string) (Notification, error) {
	return svc.repo.GetNotification(ctx, id)
}

func (svc *Service) create(ctx context.Context, recipientID string, nn NewNotification, opts ...Option) (Notification, error) {
	n := Notification{
		ID:          uuid.New().String(),
		RecipientID: recipientID,
		Title:       nn.Title,
		Message:     nn.Message,
		Kind:        nn.Kind,
		Link:        nn.Link,
		Attachments: nn.Attachments,
		CreatedAt:   NowFunc().UTC(),
	}
	for _, opt := range opts {
		opt(&n)
	}

	n, err := svc.repo.CreateNotification(ctx, n)
	if err != nil {
		return Notification{}, errors.Wrap(err, "creating notification")
	}

	svc.deliver(ctx, n)
	return n, nil
}

// deliver attempts the best-effort paths on top of the persisted record:
// realtime push, and email for warning/error kinds.
func (svc *Service) deliver(ctx context.Context, n Notification) {
	event := Event{Name: EventNotified, Payload: n}
	if err := svc.bcast.PublishToUser(ctx, n.RecipientID, event); err != nil {
		svc.reporter.Report(fmt.Sprintf("notification: push to %s", n.RecipientID), err)
	}

	if svc.mailSvc == nil || (n.Kind != KindWarning && n.Kind != KindError) {
		return
	}
	recipient, err := svc.actors.GetActor(ctx, n.RecipientID)
	if err != nil {
		svc.reporter.Report(fmt.Sprintf("notification: mail lookup for %s", n.RecipientID), err)
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:      []mail.Address{{Name: recipient.Name, Address: recipient.Email}},
		Subject: n.Title,
		BodyStr: n.Message,
	})
}

func asReplyTo(parent Notification) Option {
	return func(n *Notification) {
		parentID := parent.ID
		n.ParentID = &parentID
	}
}

func canAccessThread(parent Notification, actorID string) bool {
	if parent.RecipientID == actorID {
		return true
	}
	return parent.SenderID != nil && *parent.SenderID == actorID
}

func actorIDs(actors []actor.Actor) []string {
	ids := make([]string, 0, len(actors))
	for _, act := range actors {
		ids = append(ids, act.ID)
	}
	return ids
}
