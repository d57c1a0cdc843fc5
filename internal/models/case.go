package models

import "time"

// Case statuses
const (
	CaseStatusActive    = "active"
	CaseStatusCompleted = "completed"
	CaseStatusCancelled = "cancelled"
)

// Workflow states for the expropriation process, in processing order
const (
	StateIntake        = "intake"
	StateLegalReview   = "legal_review"
	StateAppraisal     = "appraisal"
	StateTitleSearch   = "title_search"
	StateNegotiation   = "negotiation"
	StatePayment       = "payment"
	StateRegistration  = "registration"
	StateClosed        = "closed"
	StateRejected      = "rejected"
)

// Case represents one expropriation case (expediente): the property being
// expropriated, its owner, and where the file currently sits in the workflow.
type Case struct {
	ID           string
	CaseNumber   string // e.g. EXP-2026-00042, issued from a database sequence
	Status       string
	State        string // current workflow state
	DepartmentID *string

	// Property owner
	OwnerName   string
	OwnerCedula string

	// Property location
	Address      string
	Municipality string
	Province     string

	// Legal/financial metadata
	LandAreaM2         *float64
	ConstructionAreaM2 *float64
	AppraisalValue     *float64

	CreatedBy   string
	Metadata    Metadata
	StartedAt   time.Time
	CompletedAt *time.Time

	Deleted   bool
	DeletedAt *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CaseTransition records one movement of a case between workflow states,
// including the departments involved and who performed it.
type CaseTransition struct {
	ID               string
	CaseID           string
	FromState        string
	ToState          string
	FromDepartmentID *string
	ToDepartmentID   *string
	UserID           string
	Comments         *string
	RejectionReason  *string
	CreatedAt        time.Time
}

// IsTerminalState reports whether no further transition is allowed from state
func IsTerminalState(state string) bool {
	return state == StateClosed || state == StateRejected
}

// IsValidState reports whether state is one of the known workflow states
func IsValidState(state string) bool {
	switch state {
	case StateIntake, StateLegalReview, StateAppraisal, StateTitleSearch,
		StateNegotiation, StatePayment, StateRegistration, StateClosed, StateRejected:
		return true
	}
	return false
}
