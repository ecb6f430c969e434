package document

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/idhini/core"
	"github.com/trezcool/idhini/core/actor"
	"github.com/trezcool/idhini/core/notification"
)

var (
	NowFunc = time.Now // mockable

	// errors
	ErrNotFound = errors.New("document not found")
	// ErrInvalidTransition is returned when a document is not in the
	// expected pre-state for the requested review, including re-review
	// attempts on terminal documents and lost transition races.
	ErrInvalidTransition = errors.New("document is not in the expected state for this review")
)

// Audit actions
const (
	entityType      = "document"
	actionSubmitted = "document.submitted"
	actionAdvanced  = "document.advanced"
)

var typeLabels = map[Type]string{
	TypeRequisition: "Requisition",
	TypeDeptReport:  "Department report",
	TypeProposal:    "Proposal",
	TypeStaffReport: "Staff/client report",
}

type (
	Repository interface {
		CreateDocument(ctx context.Context, doc Document) (Document, error)
		GetDocument(ctx context.Context, id string) (Document, error)
		// FilterDocuments applies AND operation on available Filter fields.
		FilterDocuments(ctx context.Context, filter Filter) ([]Document, error)
		// ApplyTransition moves the document from `from` to `to` and appends
		// the stage record, atomically against the stored status: it returns
		// ErrInvalidTransition when the stored status no longer equals
		// `from`, which serializes racing reviews on the same document.
		ApplyTransition(ctx context.Context, id string, from, to Status, rec StageRecord) (Document, error)
	}

	// ActorResolver is the slice of the actor resolver the state machine
	// needs. All methods are read-only.
	ActorResolver interface {
		ResolveDepartment(ctx context.Context, ref string) (actor.Department, bool)
		AuthorityOf(ctx context.Context, act actor.Actor) (actor.AuthoritySet, error)
		DepartmentHead(ctx context.Context, dept actor.Department) (actor.Actor, bool)
	}

	// Notifier is the fan-out port invoked on every transition. Calls are
	// best-effort from the state machine's point of view: their failures
	// are reported, never surfaced to the submitter or reviewer.
	Notifier interface {
		NotifyUser(ctx context.Context, recipientID string, nn notification.NewNotification, opts ...notification.Option) (notification.Notification, error)
		NotifyBulk(ctx context.Context, recipientIDs []string, nn notification.NewNotification, opts ...notification.Option) ([]notification.Notification, error)
		NotifyRole(ctx context.Context, role actor.Role, nn notification.NewNotification, opts ...notification.Option) ([]notification.Notification, error)
	}

	// Auditor records mutating actions without ever blocking them.
	Auditor interface {
		Record(ctx context.Context, actorID, action, entityType, entityID string, metadata map[string]string)
	}

	// Service is the approval state machine: it validates and applies
	// status transitions given the acting actor's authority and the
	// document's current state.
	Service struct {
		repo     Repository
		resolver ActorResolver
		notifier Notifier
		auditor  Auditor
		reporter core.Reporter
		validate *validator.Validate
		excluded []string // department tags bypassing the intermediate stage
	}
)

func NewService(repo Repository, resolver ActorResolver, notifier Notifier, auditor Auditor, reporter core.Reporter, validate *validator.Validate, excludedDepts []string) *Service {
	return &Service{
		repo:     repo,
		resolver: resolver,
		notifier: notifier,
		auditor:  auditor,
		reporter: reporter,
		validate: validate,
		excluded: excludedDepts,
	}
}

// Submit creates a document in its type's initial pending status, applying
// the entry bypasses: admin authors and department heads go straight to the
// admin stage, excluded departments skip the intermediate reviewer, and an
// unresolvable department routes to admin instead of sticking unroutable.
func (svc *Service) Submit(ctx context.Context, act actor.Actor, nd NewDocument) (Document, error) {
	if err := nd.Validate(svc.validate); err != nil {
		return Document{}, err
	}

	ch := chains[nd.Type]
	idx, unroutable := svc.entryStage(ctx, act, ch, nd.Department)

	now := NowFunc().UTC()
	doc := Document{
		ID:          uuid.New().String(),
		Type:        nd.Type,
		Title:       nd.Title,
		Body:        nd.Body,
		OwnerID:     act.ID,
		Department:  nd.Department,
		Status:      ch.stages[idx].pending,
		Stages:      []StageRecord{},
		Attachments: nd.Attachments,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	doc, err := svc.repo.CreateDocument(ctx, doc)
	if err != nil {
		return Document{}, errors.Wrap(err, "creating document")
	}

	label := typeLabels[doc.Type]
	svc.notifyOwner(ctx, doc, notification.NewNotification{
		Title:   label + " submitted",
		Message: fmt.Sprintf("Your %s %q has been submitted successfully and is awaiting review.", strings.ToLower(label), doc.Title),
		Kind:    notification.KindSuccess,
	})
	svc.notifyStageReviewers(ctx, doc, ch.stages[idx], unroutable)

	svc.auditor.Record(ctx, act.ID, actionSubmitted, entityType, doc.ID, map[string]string{
		"type":   string(doc.Type),
		"status": string(doc.Status),
	})
	return doc, nil
}

// Advance applies a reviewer decision to the document's current stage. The
// next status is a pure function of (type, status, decision); the store's
// status precondition guarantees a racing second review loses with
// ErrInvalidTransition instead of double-applying.
func (svc *Service) Advance(ctx context.Context, act actor.Actor, docID string, ad AdvanceDocument) (Document, error) {
	if err := ad.Validate(svc.validate); err != nil {
		return Document{}, err
	}

	doc, err := svc.repo.GetDocument(ctx, docID)
	if err != nil {
		return Document{}, err
	}
	if doc.Status.IsTerminal() {
		return Document{}, ErrInvalidTransition
	}

	ch := chains[doc.Type]
	stg, idx, ok := ch.stageAt(doc.Status)
	if !ok {
		return Document{}, ErrInvalidTransition
	}

	if err := svc.authorize(ctx, act, doc, stg); err != nil {
		return Document{}, err
	}

	from := doc.Status
	next := ch.next(idx, ad.Decision)
	rec := StageRecord{
		Stage:      stg.name,
		ReviewerID: act.ID,
		Decision:   ad.Decision,
		Notes:      ad.Notes,
		Timestamp:  NowFunc().UTC(),
	}

	doc, err = svc.repo.ApplyTransition(ctx, doc.ID, from, next, rec)
	if err != nil {
		return Document{}, err
	}

	svc.fanOutTransition(ctx, act, doc, stg, ch)

	svc.auditor.Record(ctx, act.ID, actionAdvanced, entityType, doc.ID, map[string]string{
		"stage":    stg.name,
		"decision": string(ad.Decision),
		"from":     string(from),
		"to":       string(doc.Status),
	})
	return doc, nil
}

func (svc *Service) Get(ctx context.Context, id string) (Document, error) {
	return svc.repo.GetDocument(ctx, id)
}

func (svc *Service) Query(ctx context.Context, filter Filter) ([]Document, error) {
	return svc.repo.FilterDocuments(ctx, filter)
}

// entryStage picks the first stage a fresh document lands on. The second
// return reports that a department-scoped first stage had to be skipped
// because the department reference resolved to nothing.
func (svc *Service) entryStage(ctx context.Context, act actor.Actor, ch chain, deptRef string) (int, bool) {
	last := len(ch.stages) - 1
	if act.IsAdmin() {
		return last, false
	}

	first := ch.stages[0]
	if first.deptScoped {
		if act.IsDeptHead() {
			// heads submit directly to admin; they cannot review themselves
			return last, false
		}
		if _, ok := svc.resolver.ResolveDepartment(ctx, deptRef); !ok {
			return last, true
		}
		return 0, false
	}

	if ch.bypassable && svc.isExcluded(ctx, deptRef) {
		return last, false
	}
	return 0, false
}

// isExcluded checks the document's department tag against the configured
// excluded-department list, preferring the resolved department name over
// the raw reference.
func (svc *Service) isExcluded(ctx context.Context, deptRef string) bool {
	tag := core.CleanString(deptRef)
	if tag == "" {
		return false
	}
	if dept, ok := svc.resolver.ResolveDepartment(ctx, deptRef); ok {
		tag = dept.Name
	}
	for _, excl := range svc.excluded {
		if strings.EqualFold(tag, excl) {
			return true
		}
	}
	return false
}

// authorize confirms the actor has authority over the document's current
// stage. Admins may act on any stage; department stages check the authority
// relation against the document's resolved department.
func (svc *Service) authorize(ctx context.Context, act actor.Actor, doc Document, stg stage) error {
	if act.IsAdmin() {
		return nil
	}

	if stg.deptScoped {
		dept, ok := svc.resolver.ResolveDepartment(ctx, doc.Department)
		if !ok {
			// unroutable department: admin only
			return core.NewAuthorizationError("document has no resolvable department, admin review required")
		}
		set, err := svc.resolver.AuthorityOf(ctx, act)
		if err != nil {
			return errors.Wrap(err, "resolving actor authority")
		}
		if !set.Over(dept) {
			return core.NewAuthorizationError(fmt.Sprintf("no authority over department %q", dept.Name))
		}
		return nil
	}

	if act.Role != stg.role {
		return core.NewAuthorizationError(fmt.Sprintf("stage %q requires role %q", stg.name, stg.role))
	}
	return nil
}

// fanOutTransition informs the submitter, the next stage's reviewer(s) when
// a new pending stage resulted, and every prior reviewer on final approval.
func (svc *Service) fanOutTransition(ctx context.Context, act actor.Actor, doc Document, reviewed stage, ch chain) {
	label := typeLabels[doc.Type]

	switch {
	case doc.Status == ch.approved:
		svc.notifyOwner(ctx, doc, notification.NewNotification{
			Title:   label + " approved",
			Message: fmt.Sprintf("Your %s %q has received final approval.", strings.ToLower(label), doc.Title),
			Kind:    notification.KindSuccess,
		})
		svc.notifyPriorReviewers(ctx, act, doc, label)
	case doc.Status.IsTerminal(): // rejected at some stage
		svc.notifyOwner(ctx, doc, notification.NewNotification{
			Title:   label + " rejected",
			Message: fmt.Sprintf("Your %s %q was rejected at the %s stage.", strings.ToLower(label), doc.Title, reviewed.name),
			Kind:    notification.KindWarning,
		})
	default: // a new pending stage resulted
		svc.notifyOwner(ctx, doc, notification.NewNotification{
			Title:   label + " moved forward",
			Message: fmt.Sprintf("Your %s %q passed the %s stage and is awaiting further review.", strings.ToLower(label), doc.Title, reviewed.name),
			Kind:    notification.KindSuccess,
		})
		if stg, _, ok := ch.stageAt(doc.Status); ok {
			svc.notifyStageReviewers(ctx, doc, stg, false)
		}
	}
}

func (svc *Service) notifyOwner(ctx context.Context, doc Document, nn notification.NewNotification) {
	nn.Link = docLink(doc)
	if _, err := svc.notifier.NotifyUser(ctx, doc.OwnerID, nn); err != nil {
		svc.reporter.Report(fmt.Sprintf("document: owner fan-out for %s", doc.ID), err)
	}
}

// notifyStageReviewers pings whoever can act on the given pending stage: the
// resolved department head for department stages, or a role broadcast. When
// no reviewer can be resolved the admin role is warned instead.
func (svc *Service) notifyStageReviewers(ctx context.Context, doc Document, stg stage, unroutable bool) {
	label := typeLabels[doc.Type]
	nn := notification.NewNotification{
		Title:   label + " awaiting review",
		Message: fmt.Sprintf("A %s %q is awaiting your review.", strings.ToLower(label), doc.Title),
		Kind:    notification.KindInfo,
		Link:    docLink(doc),
	}

	if unroutable {
		nn.Title = label + " routed directly to admin"
		nn.Message = fmt.Sprintf("The department %q on %s %q could not be resolved; the document requires admin review.", doc.Department, strings.ToLower(label), doc.Title)
		nn.Kind = notification.KindWarning
		if _, err := svc.notifier.NotifyRole(ctx, actor.RoleAdmin, nn); err != nil {
			svc.reporter.Report(fmt.Sprintf("document: admin fan-out for %s", doc.ID), err)
		}
		return
	}

	if stg.deptScoped {
		if dept, ok := svc.resolver.ResolveDepartment(ctx, doc.Department); ok {
			if head, ok := svc.resolver.DepartmentHead(ctx, dept); ok {
				if _, err := svc.notifier.NotifyUser(ctx, head.ID, nn); err != nil {
					svc.reporter.Report(fmt.Sprintf("document: reviewer fan-out for %s", doc.ID), err)
				}
				return
			}
		}
		// no eligible head: fall through to an admin broadcast
		nn.Kind = notification.KindWarning
		if _, err := svc.notifier.NotifyRole(ctx, actor.RoleAdmin, nn); err != nil {
			svc.reporter.Report(fmt.Sprintf("document: admin fan-out for %s", doc.ID), err)
		}
		return
	}

	if _, err := svc.notifier.NotifyRole(ctx, stg.role, nn); err != nil {
		svc.reporter.Report(fmt.Sprintf("document: role fan-out for %s", doc.ID), err)
	}
}

// notifyPriorReviewers informs every distinct earlier-stage reviewer that
// the document they passed along reached final approval.
func (svc *Service) notifyPriorReviewers(ctx context.Context, act actor.Actor, doc Document, label string) {
	seen := map[string]bool{act.ID: true, doc.OwnerID: true}
	var reviewers []string
	for _, rec := range doc.Stages {
		if !seen[rec.ReviewerID] {
			seen[rec.ReviewerID] = true
			reviewers = append(reviewers, rec.ReviewerID)
		}
	}
	if len(reviewers) == 0 {
		return
	}

	nn := notification.NewNotification{
		Title:   label + " approved",
		Message: fmt.Sprintf("The %s %q you reviewed has received final approval.", strings.ToLower(label), doc.Title),
		Kind:    notification.KindInfo,
		Link:    docLink(doc),
	}
	if _, err := svc.notifier.NotifyBulk(ctx, reviewers, nn); err != nil {
		svc.reporter.Report(fmt.Sprintf("document: reviewer fan-out for %s", doc.ID), err)
	}
}

func docLink(doc Document) string {
	return "/documents/" + doc.ID
}
