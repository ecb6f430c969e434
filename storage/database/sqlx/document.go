package sqlxrepos

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/idhini/core/document"
)

type documentRepository struct {
	db *sqlx.DB
}

var _ document.Repository = (*documentRepository)(nil) // interface compliance check

func NewDocumentRepository(db *sqlx.DB) *documentRepository {
	return &documentRepository{db: db}
}

type documentRow struct {
	ID          string         `db:"id"`
	Type        string         `db:"type"`
	Title       string         `db:"title"`
	Body        string         `db:"body"`
	OwnerID     string         `db:"owner_id"`
	Department  string         `db:"department"`
	Status      string         `db:"status"`
	Stages      []byte         `db:"stages"`
	Attachments pq.StringArray `db:"attachments"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

func (r documentRow) unpack() (document.Document, error) {
	var stages []document.StageRecord
	if len(r.Stages) > 0 {
		if err := json.Unmarshal(r.Stages, &stages); err != nil {
			return document.Document{}, errors.Wrap(err, "unmarshalling stage records")
		}
	}
	if stages == nil {
		stages = []document.StageRecord{}
	}
	return document.Document{
		ID:          r.ID,
		Type:        document.Type(r.Type),
		Title:       r.Title,
		Body:        r.Body,
		OwnerID:     r.OwnerID,
		Department:  r.Department,
		Status:      document.Status(r.Status),
		Stages:      stages,
		Attachments: r.Attachments,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}, nil
}

func (repo *documentRepository) CreateDocument(ctx context.Context, doc document.Document) (document.Document, error) {
	stages, err := json.Marshal(doc.Stages)
	if err != nil {
		return document.Document{}, errors.Wrap(err, "marshalling stage records")
	}

	const query = `
		INSERT INTO document (id, type, title, body, owner_id, department, status, stages, attachments, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err = repo.db.ExecContext(ctx, query,
		doc.ID, doc.Type, doc.Title, doc.Body, doc.OwnerID, doc.Department, doc.Status,
		stages, pq.StringArray(doc.Attachments), doc.CreatedAt.UTC(), doc.UpdatedAt.UTC(),
	)
	if err != nil {
		return document.Document{}, errors.Wrap(err, "inserting document")
	}
	return doc, nil
}

func (repo *documentRepository) GetDocument(ctx context.Context, id string) (document.Document, error) {
	var row documentRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM document WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return document.Document{}, document.ErrNotFound
		}
		return document.Document{}, errors.Wrap(err, "getting document")
	}
	return row.unpack()
}

func (repo *documentRepository) FilterDocuments(ctx context.Context, filter document.Filter) ([]document.Document, error) {
	query := `SELECT * FROM document WHERE true`
	args := make([]interface{}, 0, 3)
	if filter.Type != "" {
		query += ` AND type = ?`
		args = append(args, filter.Type)
	}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, filter.Status)
	}
	if filter.OwnerID != "" {
		query += ` AND owner_id = ?`
		args = append(args, filter.OwnerID)
	}
	query += ` ORDER BY created_at DESC`

	var rows []documentRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "filtering documents")
	}

	docs := make([]document.Document, 0, len(rows))
	for _, r := range rows {
		doc, err := r.unpack()
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// ApplyTransition performs the status-preconditioned read-modify-write in a
// single UPDATE: a concurrent transition that got there first leaves the
// WHERE clause unsatisfied, which surfaces as ErrInvalidTransition.
func (repo *documentRepository) ApplyTransition(ctx context.Context, id string, from, to document.Status, rec document.StageRecord) (document.Document, error) {
	recJSON, err := json.Marshal(rec)
	if err != nil {
		return document.Document{}, errors.Wrap(err, "marshalling stage record")
	}

	const query = `
		UPDATE document
		SET status = $1, stages = stages || $2::jsonb, updated_at = $3
		WHERE id = $4 AND status = $5
		RETURNING *`
	var row documentRow
	err = repo.db.GetContext(ctx, &row, query, to, recJSON, time.Now().UTC(), id, from)
	if err == nil {
		return row.unpack()
	}
	if err != sql.ErrNoRows {
		return document.Document{}, errors.Wrap(err, "applying transition")
	}

	// no row matched: either the document is gone or the precondition lost a race
	var exists bool
	if err := repo.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM document WHERE id = $1)`, id); err != nil {
		return document.Document{}, errors.Wrap(err, "checking document")
	}
	if !exists {
		return document.Document{}, document.ErrNotFound
	}
	return document.Document{}, document.ErrInvalidTransition
}
