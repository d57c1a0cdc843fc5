package models

import "time"

// Task types
const (
	TaskTypeReview        = "review"
	TaskTypeApproval      = "approval"
	TaskTypeCoordination  = "coordination"
	TaskTypeVerification  = "verification"
	TaskTypeNotification  = "notification"
	TaskTypeDocumentation = "documentation"
)

// Task priorities
const (
	TaskPriorityLow    = "low"
	TaskPriorityMedium = "medium"
	TaskPriorityHigh   = "high"
	TaskPriorityUrgent = "urgent"
)

// Task statuses
const (
	TaskStatusPending    = "pending"
	TaskStatusInProgress = "in_progress"
	TaskStatusCompleted  = "completed"
	TaskStatusCancelled  = "cancelled"
	TaskStatusBlocked    = "blocked"
)

// Task is one unit of departmental work on a case. Parallel processing is
// expressed through dependencies: a task cannot be completed while any of the
// tasks it depends on is still open.
type Task struct {
	ID           string
	CaseID       string
	DepartmentID string
	AssignedTo   *string
	Title        string
	Description  string
	Type         string
	Priority     string
	Status       string
	DueDate      *time.Time
	CompletedAt  *time.Time
	Result       string
	CreatedBy    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TaskDependency links a task to one it must wait for. Both tasks belong to
// the same case.
type TaskDependency struct {
	ID        string
	TaskID    string
	DependsOn string
	CreatedAt time.Time
}

// IsOverdue reports whether the task passed its due date without completing
func (t *Task) IsOverdue() bool {
	return t.DueDate != nil && t.DueDate.Before(time.Now()) && t.Status != TaskStatusCompleted
}

// IsOpen reports whether the task still blocks tasks that depend on it
func (t *Task) IsOpen() bool {
	return t.Status == TaskStatusPending || t.Status == TaskStatusInProgress || t.Status == TaskStatusBlocked
}

// IsValidTaskType reports whether taskType is one of the known task types
func IsValidTaskType(taskType string) bool {
	switch taskType {
	case TaskTypeReview, TaskTypeApproval, TaskTypeCoordination,
		TaskTypeVerification, TaskTypeNotification, TaskTypeDocumentation:
		return true
	}
	return false
}

// IsValidTaskPriority reports whether priority is one of the known priorities
func IsValidTaskPriority(priority string) bool {
	switch priority {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh, TaskPriorityUrgent:
		return true
	}
	return false
}
