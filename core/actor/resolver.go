package actor

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/idhini/core"
)

var (
	// errors
	ErrNotFound           = errors.New("actor not found")
	ErrDepartmentNotFound = errors.New("department not found")
	ErrEmailExists        = errors.New("an actor with this email already exists")
)

type (
	Repository interface {
		CreateActor(ctx context.Context, act Actor) (Actor, error)
		GetActor(ctx context.Context, id string) (Actor, error)
		GetActorByEmail(ctx context.Context, email string) (Actor, error)
		// FilterActors applies AND operation on available Filter fields.
		FilterActors(ctx context.Context, filter Filter) ([]Actor, error)
		CreateDepartment(ctx context.Context, dept Department) (Department, error)
		GetDepartment(ctx context.Context, id string) (Department, error)
		// GetDepartmentByName does a case-insensitive match on Department.Name.
		GetDepartmentByName(ctx context.Context, name string) (Department, error)
		QueryDepartments(ctx context.Context) ([]Department, error)
	}

	// Resolver computes each actor's role and organizational authority.
	Resolver struct {
		repo Repository
	}
)

func NewResolver(repo Repository) *Resolver {
	return &Resolver{repo: repo}
}

func (r *Resolver) CreateActor(ctx context.Context, na NewActor) (Actor, error) {
	if _, err := r.repo.GetActorByEmail(ctx, na.Email); err == nil {
		return Actor{}, core.NewValidationError(ErrEmailExists, core.FieldError{Field: "email", Error: ErrEmailExists.Error()})
	} else if errors.Cause(err) != ErrNotFound {
		return Actor{}, errors.Wrap(err, "checking actor email uniqueness")
	}

	now := time.Now().UTC()
	act := Actor{
		ID:         uuid.New().String(),
		Name:       na.Name,
		Email:      na.Email,
		Role:       na.Role,
		Department: na.Department,
		IsActive:   true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := act.SetPassword(na.Password); err != nil {
		return Actor{}, errors.Wrap(err, "setting password")
	}
	return r.repo.CreateActor(ctx, act)
}

func (r *Resolver) CreateDepartment(ctx context.Context, nd NewDepartment) (Department, error) {
	dept := Department{
		ID:        uuid.New().String(),
		Name:      nd.Name,
		HeadID:    nd.HeadID,
		HeadEmail: nd.HeadEmail,
	}
	return r.repo.CreateDepartment(ctx, dept)
}

func (r *Resolver) GetActor(ctx context.Context, id string) (Actor, error) {
	return r.repo.GetActor(ctx, id)
}

func (r *Resolver) GetActorByEmail(ctx context.Context, email string) (Actor, error) {
	return r.repo.GetActorByEmail(ctx, core.CleanString(email, true /* lower */))
}

func (r *Resolver) FilterActors(ctx context.Context, filter Filter) ([]Actor, error) {
	return r.repo.FilterActors(ctx, filter)
}

func (r *Resolver) QueryDepartments(ctx context.Context) ([]Department, error) {
	return r.repo.QueryDepartments(ctx)
}

// ResolveDepartment resolves a department reference that may be either a
// department id or a free-text department name. Reports false when neither
// matches.
func (r *Resolver) ResolveDepartment(ctx context.Context, ref string) (Department, bool) {
	ref = core.CleanString(ref)
	if ref == "" {
		return Department{}, false
	}
	if dept, err := r.repo.GetDepartment(ctx, ref); err == nil {
		return dept, true
	}
	if dept, err := r.repo.GetDepartmentByName(ctx, ref); err == nil {
		return dept, true
	}
	return Department{}, false
}

// AuthorityOf resolves the set of departments the actor has review authority
// over. Built once per actor load; checks against the set are pure.
func (r *Resolver) AuthorityOf(ctx context.Context, act Actor) (AuthoritySet, error) {
	set := AuthoritySet{depts: make(map[string]struct{})}
	if act.IsAdmin() {
		set.all = true
		return set, nil
	}
	if !act.IsDeptHead() {
		return set, nil
	}

	// declared department name only counts for heads (heuristic fallback)
	set.declared = core.CleanString(act.Department, true /* lower */)

	depts, err := r.repo.QueryDepartments(ctx)
	if err != nil {
		return AuthoritySet{}, errors.Wrap(err, "querying departments")
	}
	actEmail := core.CleanString(act.Email, true /* lower */)
	for _, dept := range depts {
		if dept.HeadID == act.ID {
			set.depts[dept.ID] = struct{}{}
			continue
		}
		if head := core.CleanString(dept.HeadEmail, true /* lower */); head != "" && head == actEmail {
			set.depts[dept.ID] = struct{}{}
		}
	}
	return set, nil
}

// AuthorityOver reports whether the actor has review authority over the
// given department.
func (r *Resolver) AuthorityOver(ctx context.Context, act Actor, dept Department) (bool, error) {
	set, err := r.AuthorityOf(ctx, act)
	if err != nil {
		return false, err
	}
	return set.Over(dept), nil
}

// DepartmentHead resolves the acting head of a department, by id first then
// by recorded head email. Reports false when no active head can be resolved.
func (r *Resolver) DepartmentHead(ctx context.Context, dept Department) (Actor, bool) {
	if dept.HeadID != "" {
		if act, err := r.repo.GetActor(ctx, dept.HeadID); err == nil && act.IsActive {
			return act, true
		}
	}
	if dept.HeadEmail != "" {
		if act, err := r.repo.GetActorByEmail(ctx, core.CleanString(dept.HeadEmail, true /* lower */)); err == nil && act.IsActive {
			return act, true
		}
	}
	return Actor{}, false
}

// ActiveByRole returns the actors currently active with the given role.
// The snapshot is taken at call time; later role changes are not replayed.
func (r *Resolver) ActiveByRole(ctx context.Context, role Role) ([]Actor, error) {
	active := true
	return r.repo.FilterActors(ctx, Filter{Role: role, IsActive: &active})
}

// ActiveActors returns every currently-active actor.
func (r *Resolver) ActiveActors(ctx context.Context) ([]Actor, error) {
	active := true
	return r.repo.FilterActors(ctx, Filter{IsActive: &active})
}

// AuthoritySet is the resolved review authority of one actor: all
// departments for admins, an explicit department id set for heads.
type AuthoritySet struct {
	all      bool
	depts    map[string]struct{}
	declared string // actor's own declared department name, lowered
}

func (s AuthoritySet) All() bool { return s.all }

// Over reports whether the set covers the given department. The declared
// name overlap is a known-dubious fallback kept for parity: a head declaring
// "IT" matches a department named "IT Audit" and vice versa.
func (s AuthoritySet) Over(dept Department) bool {
	if s.all {
		return true
	}
	if _, ok := s.depts[dept.ID]; ok {
		return true
	}
	return namesOverlap(s.declared, strings.ToLower(strings.TrimSpace(dept.Name)))
}

func namesOverlap(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}
