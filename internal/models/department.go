package models

import "time"

// Department represents a government department in the expropriation workflow
type Department struct {
	ID                string
	Name              string
	Code              string // short unique code, e.g. "DJU" for the legal department
	Description       string
	WorkflowOrder     int
	ParallelProcessing bool // whether this department can process simultaneously with others
	ResponseTimeHours int
	Active            bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
