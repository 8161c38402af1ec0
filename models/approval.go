package models

import "time"

// Approval step statuses
const (
	ApprovalStatusPending           = "pending"
	ApprovalStatusApproved          = "approved"
	ApprovalStatusRejected          = "rejected"
	ApprovalStatusRevisionRequested = "revision_requested"
)

// DocumentApproval is one level in a document's approval chain. All levels for
// a document are created together at submission time; each is decided exactly
// once and never reopened.
type DocumentApproval struct {
	ApprovalID    int        `gorm:"primaryKey;column:approval_id" json:"approval_id"`
	DocumentID    int        `gorm:"column:document_id" json:"document_id"`
	ApprovalLevel int        `gorm:"column:approval_level" json:"approval_level"`
	ApproverID    int        `gorm:"column:approver_id" json:"approver_id"`
	Status        string     `gorm:"column:status" json:"status"`
	Comments      *string    `gorm:"column:comments" json:"comments,omitempty"`
	DecisionDate  *time.Time `gorm:"column:decision_date" json:"decision_date,omitempty"`
	CreatedAt     time.Time  `gorm:"column:created_at" json:"created_at"`

	// Relations
	Document *Document `gorm:"foreignKey:DocumentID" json:"document,omitempty"`
	Approver *User     `gorm:"foreignKey:ApproverID" json:"approver,omitempty"`
}

func (DocumentApproval) TableName() string {
	return "document_approvals"
}
