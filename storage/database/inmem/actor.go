package inmemdb

import (
	"context"
	"strings"

	"github.com/trezcool/idhini/core/actor"
)

type actorRepository struct {
	actors *actorTable
	depts  *departmentTable
}

var _ actor.Repository = (*actorRepository)(nil) // interface compliance check

func NewActorRepository(db *DB) *actorRepository {
	return &actorRepository{actors: db.actor, depts: db.department}
}

func (repo *actorRepository) CreateActor(ctx context.Context, act actor.Actor) (actor.Actor, error) {
	repo.actors.Lock()
	defer repo.actors.Unlock()

	repo.actors.table[act.ID] = &act
	return act, nil
}

func (repo *actorRepository) GetActor(ctx context.Context, id string) (actor.Actor, error) {
	repo.actors.RLock()
	defer repo.actors.RUnlock()

	if act, ok := repo.actors.table[id]; ok {
		return *act, nil
	}
	return actor.Actor{}, actor.ErrNotFound
}

func (repo *actorRepository) GetActorByEmail(ctx context.Context, email string) (actor.Actor, error) {
	repo.actors.RLock()
	defer repo.actors.RUnlock()

	for _, act := range repo.actors.table {
		if strings.EqualFold(act.Email, email) {
			return *act, nil
		}
	}
	return actor.Actor{}, actor.ErrNotFound
}

func (repo *actorRepository) FilterActors(ctx context.Context, filter actor.Filter) ([]actor.Actor, error) {
	repo.actors.RLock()
	defer repo.actors.RUnlock()

	actors := make([]actor.Actor, 0, len(repo.actors.table))
	for _, act := range repo.actors.table {
		if filter.Role != "" && act.Role != filter.Role {
			continue
		}
		if filter.IsActive != nil && act.IsActive != *filter.IsActive {
			continue
		}
		actors = append(actors, *act)
	}
	return actors, nil
}

func (repo *actorRepository) CreateDepartment(ctx context.Context, dept actor.Department) (actor.Department, error) {
	repo.depts.Lock()
	defer repo.depts.Unlock()

	repo.depts.table[dept.ID] = &dept
	return dept, nil
}

func (repo *actorRepository) GetDepartment(ctx context.Context, id string) (actor.Department, error) {
	repo.depts.RLock()
	defer repo.depts.RUnlock()

	if dept, ok := repo.depts.table[id]; ok {
		return *dept, nil
	}
	return actor.Department{}, actor.ErrDepartmentNotFound
}

func (repo *actorRepository) GetDepartmentByName(ctx context.Context, name string) (actor.Department, error) {
	repo.depts.RLock()
	defer repo.depts.RUnlock()

	name = strings.TrimSpace(name)
	for _, dept := range repo.depts.table {
		if strings.EqualFold(dept.Name, name) {
			return *dept, nil
		}
	}
	return actor.Department{}, actor.ErrDepartmentNotFound
}

func (repo *actorRepository) QueryDepartments(ctx context.Context) ([]actor.Department, error) {
	repo.depts.RLock()
	defer repo.depts.RUnlock()

	depts := make([]actor.Department, 0, len(repo.depts.table))
	for _, dept := range repo.depts.table {
		depts = append(depts, *dept)
	}
	return depts, nil
}
