package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/trezcool/idhini/core/document"
)

type documentRepository struct {
	db *documentTable
}

var _ document.Repository = (*documentRepository)(nil) // interface compliance check

func NewDocumentRepository(db *DB) *documentRepository {
	return &documentRepository{db: db.document}
}

func (repo *documentRepository) CreateDocument(ctx context.Context, doc document.Document) (document.Document, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.table[doc.ID] = &doc
	return copyDoc(&doc), nil
}

func (repo *documentRepository) GetDocument(ctx context.Context, id string) (document.Document, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if doc, ok := repo.db.table[id]; ok {
		return copyDoc(doc), nil
	}
	return document.Document{}, document.ErrNotFound
}

func (repo *documentRepository) FilterDocuments(ctx context.Context, filter document.Filter) ([]document.Document, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	docs := make([]document.Document, 0, len(repo.db.table))
	for _, doc := range repo.db.table {
		if filter.Type != "" && doc.Type != filter.Type {
			continue
		}
		if filter.Status != "" && doc.Status != filter.Status {
			continue
		}
		if filter.OwnerID != "" && doc.OwnerID != filter.OwnerID {
			continue
		}
		docs = append(docs, copyDoc(doc))
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].CreatedAt.After(docs[j].CreatedAt) })
	return docs, nil
}

func (repo *documentRepository) ApplyTransition(ctx context.Context, id string, from, to document.Status, rec document.StageRecord) (document.Document, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	doc, ok := repo.db.table[id]
	if !ok {
		return document.Document{}, document.ErrNotFound
	}
	// status precondition: a racing transition loses here
	if doc.Status != from {
		return document.Document{}, document.ErrInvalidTransition
	}

	doc.Status = to
	doc.Stages = append(doc.Stages, rec)
	doc.UpdatedAt = time.Now().UTC()
	return copyDoc(doc), nil
}

// copyDoc deep-copies the stage slice so callers cannot mutate stored rows.
func copyDoc(doc *document.Document) document.Document {
	out := *doc
	out.Stages = append([]document.StageRecord(nil), doc.Stages...)
	out.Attachments = append([]string(nil), doc.Attachments...)
	return out
}
