package document

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/idhini/core"
)

// Document types. Each type routes through a fixed review chain.
const (
	TypeRequisition Type = "requisition"
	TypeDeptReport  Type = "dept_report"
	TypeProposal    Type = "proposal"
	TypeStaffReport Type = "staff_report"
)

// Statuses. A document only ever moves forward along its type's chain.
const (
	StatusPendingDeptHead   Status = "Pending_DeptHead"
	StatusPendingMarketing  Status = "Pending_Marketing"
	StatusPendingAdmin      Status = "Pending_Admin"
	StatusDeptHeadRejected  Status = "DeptHead_Rejected"
	StatusMarketingRejected Status = "Marketing_Rejected"
	StatusAdminApproved     Status = "Admin_Approved"
	StatusAdminRejected     Status = "Admin_Rejected"
)

const (
	DecisionApproved Decision = "approved"
	DecisionRejected Decision = "rejected"
)

type (
	Type     string
	Status   string
	Decision string
)

func (t Type) IsValid() bool {
	_, ok := chains[t]
	return ok
}

// IsTerminal reports whether no further transition is possible from s.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusDeptHeadRejected, StatusMarketingRejected, StatusAdminApproved, StatusAdminRejected:
		return true
	}
	return false
}

func (d Decision) IsValid() bool {
	return d == DecisionApproved || d == DecisionRejected
}

// StageRecord is one resolved reviewer checkpoint. Records are append-only
// and ordered by resolution time.
type StageRecord struct {
	Stage      string    `json:"stage"`
	ReviewerID string    `json:"reviewer_id"`
	Decision   Decision  `json:"decision"`
	Notes      string    `json:"notes,omitempty"`
	Timestamp  time.Time `json:"timestamp"` // UTC
}

type Document struct {
	ID          string        `json:"id"`
	Type        Type          `json:"type"`
	Title       string        `json:"title"`
	Body        string        `json:"body"`
	OwnerID     string        `json:"owner_id"`
	Department  string        `json:"department,omitempty"` // department id or free-text name
	Status      Status        `json:"status"`
	Stages      []StageRecord `json:"stages"`
	Attachments []string      `json:"attachments,omitempty"` // opaque external file refs
	CreatedAt   time.Time     `json:"created_at"` // UTC
	UpdatedAt   time.Time     `json:"updated_at"` // UTC
}

// NewDocument contains information needed to submit a new Document.
type NewDocument struct {
	Type        Type     `json:"type" validate:"required,oneof=requisition dept_report proposal staff_report"`
	Title       string   `json:"title" validate:"required"`
	Body        string   `json:"body" validate:"required"`
	Department  string   `json:"department"`
	Attachments []string `json:"attachments"`
}

func (nd *NewDocument) Validate(validate *validator.Validate) error {
	nd.Title = core.CleanString(nd.Title)
	nd.Body = core.CleanString(nd.Body)
	nd.Department = core.CleanString(nd.Department)
	return validate.Struct(nd)
}

// AdvanceDocument is a reviewer's decision on the document's current stage.
type AdvanceDocument struct {
	Decision Decision `json:"decision" validate:"required,oneof=approved rejected"`
	Notes    string   `json:"notes"`
}

func (ad *AdvanceDocument) Validate(validate *validator.Validate) error {
	ad.Notes = core.CleanString(ad.Notes)
	return validate.Struct(ad)
}

type Filter struct {
	Type    Type   `query:"type"`
	Status  Status `query:"status"`
	OwnerID string `query:"owner_id"`
}

func (f *Filter) IsEmpty() bool {
	return f.Type == "" && f.Status == "" && f.OwnerID == ""
}
