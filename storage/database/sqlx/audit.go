package sqlxrepos

import (
	"context"
	"encoding/json"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/idhini/core/audit"
)

type auditSink struct {
	db *sqlx.DB
}

var _ audit.Sink = (*auditSink)(nil) // interface compliance check

func NewAuditSink(db *sqlx.DB) *auditSink {
	return &auditSink{db: db}
}

func (s *auditSink) Append(ctx context.Context, rec audit.Record) error {
	metadata, err := json.Marshal(rec.Metadata)
	if err != nil {
		return errors.Wrap(err, "marshalling audit metadata")
	}

	const query = `
		INSERT INTO audit_log (id, actor_id, action, entity_type, entity_id, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err = s.db.ExecContext(ctx, query,
		rec.ID, rec.ActorID, rec.Action, rec.EntityType, rec.EntityID, metadata, rec.CreatedAt.UTC(),
	)
	return errors.Wrap(err, "appending audit record")
}
