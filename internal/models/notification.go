package models

import "time"

// Notification types
const (
	NotificationTaskAssigned        = "task_assigned"
	NotificationDocumentRequired    = "document_required"
	NotificationWorkflowUpdate      = "workflow_update"
	NotificationDeadlineApproaching = "deadline_approaching"
	NotificationApprovalRequired    = "approval_required"
	NotificationSystemAlert         = "system_alert"
)

// Notification is an in-app message for one user, optionally tied to a case
type Notification struct {
	ID        string
	UserID    string
	CaseID    *string
	Type      string
	Title     string
	Message   string
	Read      bool
	ReadAt    *time.Time
	CreatedAt time.Time
}
