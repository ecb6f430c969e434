package document

import "github.com/trezcool/idhini/core/actor"

// Stage names as recorded in StageRecord entries.
const (
	StageDeptHead  = "depthead"
	StageMarketing = "marketing"
	StageAdmin     = "admin"
)

type (
	// stage is one reviewer checkpoint in a chain: who may act on it and
	// where approve/reject leads.
	stage struct {
		name       string
		role       actor.Role
		deptScoped bool // authority checked against the document's department
		pending    Status
		rejected   Status // terminal short-circuit on reject at this stage
	}

	// chain is the full ordered review path for one document type.
	chain struct {
		stages     []stage
		approved   Status // terminal status once the last stage approves
		bypassable bool   // excluded departments skip the intermediate stage
	}
)

var (
	deptHeadStage = stage{
		name:       StageDeptHead,
		role:       actor.RoleDeptHead,
		deptScoped: true,
		pending:    StatusPendingDeptHead,
		rejected:   StatusDeptHeadRejected,
	}
	marketingStage = stage{
		name:     StageMarketing,
		role:     actor.RoleMarketing,
		pending:  StatusPendingMarketing,
		rejected: StatusMarketingRejected,
	}
	adminStage = stage{
		name:     StageAdmin,
		role:     actor.RoleAdmin,
		pending:  StatusPendingAdmin,
		rejected: StatusAdminRejected,
	}

	// chains is fixed data: the decision table consulted by the generic
	// Submit/Advance implementation.
	chains = map[Type]chain{
		TypeRequisition: {
			stages:   []stage{deptHeadStage, adminStage},
			approved: StatusAdminApproved,
		},
		TypeDeptReport: {
			stages:   []stage{deptHeadStage, adminStage},
			approved: StatusAdminApproved,
		},
		TypeProposal: {
			stages:     []stage{marketingStage, adminStage},
			approved:   StatusAdminApproved,
			bypassable: true,
		},
		TypeStaffReport: {
			stages:     []stage{marketingStage, adminStage},
			approved:   StatusAdminApproved,
			bypassable: true,
		},
	}
)

// stageAt returns the chain stage whose pending status matches, along with
// its index. Reports false for terminal (or foreign) statuses.
func (c chain) stageAt(status Status) (stage, int, bool) {
	for i, stg := range c.stages {
		if stg.pending == status {
			return stg, i, true
		}
	}
	return stage{}, 0, false
}

// next computes the status following a decision at stage index i.
// Pure function of the chain data; no document state involved.
func (c chain) next(i int, decision Decision) Status {
	if decision == DecisionRejected {
		return c.stages[i].rejected
	}
	if i+1 < len(c.stages) {
		return c.stages[i+1].pending
	}
	return c.approved
}
