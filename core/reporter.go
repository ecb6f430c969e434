package core

import "sync"

// Reporter is the side-channel for failures that are absorbed instead of
// surfaced: realtime push delivery, audit appends, best-effort emails.
// Implementations must never panic and never block the caller's request.
type Reporter interface {
	Report(op string, err error)
}

type logReporter struct {
	logger Logger
}

func NewLogReporter(logger Logger) Reporter {
	return &logReporter{logger: logger}
}

func (r *logReporter) Report(op string, err error) {
	if err == nil {
		return
	}
	r.logger.Warn(op, err)
}

// ReporterMock records reported failures for inspection in tests.
type ReporterMock struct {
	mutex   sync.Mutex
	Reports []ReportedError
}

type ReportedError struct {
	Op  string
	Err error
}

func NewReporterMock() *ReporterMock { return &ReporterMock{} }

func (r *ReporterMock) Report(op string, err error) {
	if err == nil {
		return
	}
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.Reports = append(r.Reports, ReportedError{Op: op, Err: err})
}

func (r *ReporterMock) Count() int {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return len(r.Reports)
}
