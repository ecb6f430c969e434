package audit

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/idhini/core"
)

type sinkMock struct {
	records []Record
	err     error
}

func (s *sinkMock) Append(_ context.Context, rec Record) error {
	if s.err != nil {
		return s.err
	}
	s.records = append(s.records, rec)
	return nil
}

func TestRecorder_Record(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	NowFunc = func() time.Time { return now }
	defer func() { NowFunc = time.Now }()

	sink := &sinkMock{}
	reporter := core.NewReporterMock()
	rec := NewRecorder(sink, reporter)

	rec.Record(context.Background(), "admin", "document.advanced", "document", "doc1", map[string]string{"decision": "approved"})

	if len(sink.records) != 1 {
		t.Fatalf("sink records = %d, want 1", len(sink.records))
	}
	got := sink.records[0]
	if got.ID == "" || got.ActorID != "admin" || got.Action != "document.advanced" ||
		got.EntityType != "document" || got.EntityID != "doc1" || !got.CreatedAt.Equal(now) {
		t.Errorf("Record() appended %+v", got)
	}
	if reporter.Count() != 0 {
		t.Errorf("reported failures = %d, want 0", reporter.Count())
	}
}

func TestRecorder_Record_sinkFailureIsAbsorbed(t *testing.T) {
	sink := &sinkMock{err: errors.New("table locked")}
	reporter := core.NewReporterMock()
	rec := NewRecorder(sink, reporter)

	rec.Record(context.Background(), "admin", "document.submitted", "document", "doc1", nil)

	if reporter.Count() != 1 {
		t.Errorf("reported failures = %d, want 1", reporter.Count())
	}
}
