// Package inmemdb provides mutex-guarded in-memory repositories with the
// same semantics as the SQL implementations. Used in tests and local dev.
package inmemdb

import (
	"sync"

	"github.com/trezcool/idhini/core/actor"
	"github.com/trezcool/idhini/core/audit"
	"github.com/trezcool/idhini/core/document"
	"github.com/trezcool/idhini/core/notification"
)

type (
	DB struct {
		actor        *actorTable
		department   *departmentTable
		document     *documentTable
		notification *notificationTable
		audit        *auditTable
	}

	actorTable struct {
		sync.RWMutex
		table map[string]*actor.Actor
	}

	departmentTable struct {
		sync.RWMutex
		table map[string]*actor.Department
	}

	documentTable struct {
		sync.RWMutex
		table map[string]*document.Document
	}

	notificationTable struct {
		sync.RWMutex
		table map[string]*notification.Notification
		order map[string]int // insertion order, tie-breaker for equal timestamps
		seq   int
	}

	auditTable struct {
		sync.RWMutex
		table []audit.Record
	}
)

func Open() *DB {
	return &DB{
		actor:      &actorTable{table: make(map[string]*actor.Actor)},
		department: &departmentTable{table: make(map[string]*actor.Department)},
		document:   &documentTable{table: make(map[string]*document.Document)},
		notification: &notificationTable{
			table: make(map[string]*notification.Notification),
			order: make(map[string]int),
		},
		audit: &auditTable{},
	}
}
