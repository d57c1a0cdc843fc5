package models

import "time"

// Document review statuses
const (
	DocumentStatusPending  = "pending"
	DocumentStatusApproved = "approved"
	DocumentStatusRejected = "rejected"
)

// DocumentType describes a kind of document a case may require
// (title deed, appraisal report, survey plan, ...)
type DocumentType struct {
	ID        string
	Name      string
	Code      string
	Required  bool
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Document holds the metadata of one uploaded file attached to a case.
// The binary itself lives in external storage; only the storage key is kept.
type Document struct {
	ID          string
	CaseID      string
	TypeID      string
	FileName    string
	StorageKey  string
	ContentType string
	SizeBytes   int64
	SHA256      string

	Status        string
	ReviewComment *string
	ReviewedBy    *string
	ReviewedAt    *time.Time

	UploadedBy string
	Deleted    bool
	DeletedAt  *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
