package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/idhini/core/actor"
)

type actorRepository struct {
	db *sqlx.DB
}

var _ actor.Repository = (*actorRepository)(nil) // interface compliance check

func NewActorRepository(db *sqlx.DB) *actorRepository {
	return &actorRepository{db: db}
}

type actorRow struct {
	ID           string         `db:"id"`
	Name         string         `db:"name"`
	Email        string         `db:"email"`
	Role         string         `db:"role"`
	Department   string         `db:"department"`
	IsActive     bool           `db:"is_active"`
	PasswordHash []byte         `db:"password_hash"`
	CreatedAt    sql.NullTime   `db:"created_at"`
	UpdatedAt    sql.NullTime   `db:"updated_at"`
}

func (r actorRow) unpack() actor.Actor {
	return actor.Actor{
		ID:           r.ID,
		Name:         r.Name,
		Email:        r.Email,
		Role:         actor.Role(r.Role),
		Department:   r.Department,
		IsActive:     r.IsActive,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt.Time,
		UpdatedAt:    r.UpdatedAt.Time,
	}
}

func unpackActors(rows []actorRow) []actor.Actor {
	actors := make([]actor.Actor, 0, len(rows))
	for _, r := range rows {
		actors = append(actors, r.unpack())
	}
	return actors
}

// trapNoRowsErr maps psql "no rows" err to actor.ErrNotFound
func trapNoActorErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return actor.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo *actorRepository) CreateActor(ctx context.Context, act actor.Actor) (actor.Actor, error) {
	const query = `
		INSERT INTO actor (id, name, email, role, department, is_active, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := repo.db.ExecContext(ctx, query,
		act.ID, act.Name, act.Email, act.Role, act.Department, act.IsActive, act.PasswordHash,
		act.CreatedAt.UTC(), act.UpdatedAt.UTC(),
	)
	if err != nil {
		return actor.Actor{}, errors.Wrap(err, "inserting actor")
	}
	return act, nil
}

func (repo *actorRepository) GetActor(ctx context.Context, id string) (actor.Actor, error) {
	var row actorRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM actor WHERE id = $1`, id); err != nil {
		return actor.Actor{}, trapNoActorErr(err, "getting actor")
	}
	return row.unpack(), nil
}

func (repo *actorRepository) GetActorByEmail(ctx context.Context, email string) (actor.Actor, error) {
	var row actorRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM actor WHERE lower(email) = lower($1)`, email); err != nil {
		return actor.Actor{}, trapNoActorErr(err, "getting actor by email")
	}
	return row.unpack(), nil
}

func (repo *actorRepository) FilterActors(ctx context.Context, filter actor.Filter) ([]actor.Actor, error) {
	query := `SELECT * FROM actor WHERE true`
	args := make([]interface{}, 0, 2)
	if filter.Role != "" {
		query += ` AND role = ?`
		args = append(args, filter.Role)
	}
	if filter.IsActive != nil {
		query += ` AND is_active = ?`
		args = append(args, *filter.IsActive)
	}

	var rows []actorRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "filtering actors")
	}
	return unpackActors(rows), nil
}

type departmentRow struct {
	ID        string         `db:"id"`
	Name      string         `db:"name"`
	HeadID    sql.NullString `db:"head_id"`
	HeadEmail string         `db:"head_email"`
}

func (r departmentRow) unpack() actor.Department {
	return actor.Department{
		ID:        r.ID,
		Name:      r.Name,
		HeadID:    r.HeadID.String,
		HeadEmail: r.HeadEmail,
	}
}

func (repo *actorRepository) CreateDepartment(ctx context.Context, dept actor.Department) (actor.Department, error) {
	const query = `
		INSERT INTO department (id, name, head_id, head_email)
		VALUES ($1, $2, NULLIF($3, ''), $4)`
	_, err := repo.db.ExecContext(ctx, query, dept.ID, dept.Name, dept.HeadID, dept.HeadEmail)
	if err != nil {
		return actor.Department{}, errors.Wrap(err, "inserting department")
	}
	return dept, nil
}

func (repo *actorRepository) GetDepartment(ctx context.Context, id string) (actor.Department, error) {
	var row departmentRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM department WHERE id::text = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return actor.Department{}, actor.ErrDepartmentNotFound
		}
		return actor.Department{}, errors.Wrap(err, "getting department")
	}
	return row.unpack(), nil
}

func (repo *actorRepository) GetDepartmentByName(ctx context.Context, name string) (actor.Department, error) {
	var row departmentRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM department WHERE lower(name) = lower($1)`, name); err != nil {
		if err == sql.ErrNoRows {
			return actor.Department{}, actor.ErrDepartmentNotFound
		}
		return actor.Department{}, errors.Wrap(err, "getting department by name")
	}
	return row.unpack(), nil
}

func (repo *actorRepository) QueryDepartments(ctx context.Context) ([]actor.Department, error) {
	var rows []departmentRow
	if err := repo.db.SelectContext(ctx, &rows, `SELECT * FROM department`); err != nil {
		return nil, errors.Wrap(err, "querying departments")
	}
	depts := make([]actor.Department, 0, len(rows))
	for _, r := range rows {
		depts = append(depts, r.unpack())
	}
	return depts, nil
}
