package inmemdb

import (
	"context"

	"github.com/trezcool/idhini/core/audit"
)

type auditSink struct {
	db *auditTable
}

var _ audit.Sink = (*auditSink)(nil) // interface compliance check

func NewAuditSink(db *DB) *auditSink {
	return &auditSink{db: db.audit}
}

func (s *auditSink) Append(ctx context.Context, rec audit.Record) error {
	s.db.Lock()
	defer s.db.Unlock()

	s.db.table = append(s.db.table, rec)
	return nil
}

// Records returns a snapshot of appended records, in append order.
func (s *auditSink) Records() []audit.Record {
	s.db.RLock()
	defer s.db.RUnlock()

	return append([]audit.Record(nil), s.db.table...)
}
