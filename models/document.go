package models

import (
	"time"
)

// Document statuses
const (
	DocStatusPending           = "pending"
	DocStatusInReview          = "in_review"
	DocStatusApproved          = "approved"
	DocStatusRejected          = "rejected"
	DocStatusRevisionRequested = "revision_requested"
)

// Document priorities, ordered urgent > high > medium > low
const (
	PriorityUrgent = "urgent"
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

// PriorityFieldOrder is the MySQL FIELD() ordering expression used when listing
// documents or pending approvals by urgency.
const PriorityFieldOrder = "FIELD(documents.priority, 'urgent', 'high', 'medium', 'low')"

type Document struct {
	DocumentID        int        `gorm:"primaryKey;column:document_id" json:"document_id"`
	Title             string     `gorm:"column:title" json:"title"`
	DocumentType      string     `gorm:"column:document_type" json:"document_type"`
	Department        string     `gorm:"column:department" json:"department"`
	Priority          string     `gorm:"column:priority" json:"priority"`
	Status            string     `gorm:"column:status" json:"status"`
	UploadedBy        int        `gorm:"column:uploaded_by" json:"uploaded_by"`
	CurrentApproverID *int       `gorm:"column:current_approver_id" json:"current_approver_id,omitempty"`
	Remarks           string     `gorm:"column:remarks" json:"remarks"`
	OriginalFilename  string     `gorm:"column:original_filename" json:"original_filename"`
	StoredFilename    string     `gorm:"column:stored_filename" json:"stored_filename"`
	FileSize          int64      `gorm:"column:file_size" json:"file_size"`
	MimeType          string     `gorm:"column:mime_type" json:"mime_type"`
	CreatedAt         time.Time  `gorm:"column:created_at" json:"created_at"`
	UpdatedAt         time.Time  `gorm:"column:updated_at" json:"updated_at"`
	DeleteAt          *time.Time `gorm:"column:delete_at" json:"delete_at,omitempty"`

	// Relations
	Uploader        *User `gorm:"foreignKey:UploadedBy" json:"uploader,omitempty"`
	CurrentApprover *User `gorm:"foreignKey:CurrentApproverID" json:"current_approver,omitempty"`
}

func (Document) TableName() string {
	return "documents"
}

// IsTerminal reports whether the document has reached a state the workflow
// engine no longer advances.
func (d *Document) IsTerminal() bool {
	switch d.Status {
	case DocStatusApproved, DocStatusRejected, DocStatusRevisionRequested:
		return true
	}
	return false
}

// IsValidPriority checks a priority value before it reaches the database.
func IsValidPriority(priority string) bool {
	switch priority {
	case PriorityUrgent, PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}
