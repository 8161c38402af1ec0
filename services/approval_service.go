package services

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"document-approval-api/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
	DecisionRevise  Decision = "revise"
)

// comment recorded when an approver approves without writing one
const defaultApproveComment = "Approved"

// DecideRequest carries one approver decision into the workflow engine. The
// actor identity comes from the authenticated session and is trusted as-is.
type DecideRequest struct {
	ApprovalID     int
	ActorID        int
	Decision       Decision
	Comments       string
	SignatureImage string
	IPAddress      string
	UserAgent      string
}

// SignatureSummary is the redacted signature descriptor returned to callers.
// The full hash and the raw image never leave the engine.
type SignatureSummary struct {
	Hash     string    `json:"hash"`
	Signer   string    `json:"signer"`
	SignedAt time.Time `json:"signed_at"`
	HasImage bool      `json:"has_image"`
}

type DecideResult struct {
	IsFinalApproval bool              `json:"is_final_approval"`
	NextApproverID  *int              `json:"next_approver_id,omitempty"`
	NextApprover    string            `json:"next_approver,omitempty"`
	Message         string            `json:"message"`
	Signature       *SignatureSummary `json:"signature,omitempty"`
}

// ApprovalService is the sequential approval workflow engine. Every decision
// runs inside one transaction: step update, signature, document state and
// in-system notifications commit or roll back as a unit. Emails and the audit
// row happen after commit and never affect the outcome.
type ApprovalService struct {
	db         *gorm.DB
	signatures *SignatureService
	notifier   *NotificationService
}

func NewApprovalService(db *gorm.DB) *ApprovalService {
	return &ApprovalService{
		db:         db,
		signatures: NewSignatureService(),
		notifier:   NewNotificationService(),
	}
}

// Decide applies one approver decision to the step identified by
// req.ApprovalID. The step must be pending, assigned to req.ActorID, and be
// the document's active step; anything else fails with ErrApprovalNotFound
// before any mutation. Two concurrent calls on the same step are serialized
// by the row lock taken here, so the loser re-reads a decided step and fails
// the same way.
func (s *ApprovalService) Decide(req DecideRequest) (*DecideResult, error) {
	comments := strings.TrimSpace(req.Comments)

	switch req.Decision {
	case DecisionApprove:
		if req.SignatureImage != "" {
			if err := s.signatures.ValidateImage(req.SignatureImage); err != nil {
				return nil, err
			}
		}
		if comments == "" {
			comments = defaultApproveComment
		}
	case DecisionReject, DecisionRevise:
		if comments == "" {
			return nil, ErrCommentsRequired
		}
	default:
		return nil, fmt.Errorf("unknown decision %q", req.Decision)
	}

	tx := s.db.Begin()
	if tx.Error != nil {
		return nil, fmt.Errorf("begin decision transaction: %w", tx.Error)
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	var step models.DocumentApproval
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("approval_id = ? AND approver_id = ? AND status = ?",
			req.ApprovalID, req.ActorID, models.ApprovalStatusPending).
		First(&step).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrApprovalNotFound
		}
		return nil, fmt.Errorf("load approval step: %w", err)
	}

	var doc models.Document
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("document_id = ? AND delete_at IS NULL", step.DocumentID).
		First(&doc).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrApprovalNotFound
		}
		return nil, fmt.Errorf("load document: %w", err)
	}

	// The chain is decided strictly in level order: the actor must hold the
	// document right now. A pending step ahead of the active level is not
	// actionable yet, and steps left over on a terminal document never are.
	if doc.CurrentApproverID == nil || *doc.CurrentApproverID != req.ActorID {
		tx.Rollback()
		return nil, ErrApprovalNotFound
	}

	now := time.Now()
	if err := tx.Model(&models.DocumentApproval{}).
		Where("approval_id = ?", step.ApprovalID).
		Updates(map[string]interface{}{
			"status":        stepStatusFor(req.Decision),
			"comments":      comments,
			"decision_date": now,
		}).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("update approval step: %w", err)
	}

	var (
		result *DecideResult
		emails []EmailJob
		err    error
	)
	switch req.Decision {
	case DecisionApprove:
		result, emails, err = s.applyApproval(tx, req, &step, &doc, now)
	case DecisionReject:
		result, emails, err = s.applyTermination(tx, req, &doc, now, DecisionReject, comments)
	case DecisionRevise:
		result, emails, err = s.applyTermination(tx, req, &doc, now, DecisionRevise, comments)
	}
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("commit decision: %w", err)
	}

	// Audit and external delivery are informational; the decision is already
	// durable at this point.
	s.writeAudit(req, &doc, result.Message)
	go s.notifier.Dispatch(emails)

	return result, nil
}

func stepStatusFor(decision Decision) string {
	switch decision {
	case DecisionApprove:
		return models.ApprovalStatusApproved
	case DecisionReject:
		return models.ApprovalStatusRejected
	default:
		return models.ApprovalStatusRevisionRequested
	}
}

// applyApproval signs the document, then either forwards it to the next
// pending level or finalizes it.
func (s *ApprovalService) applyApproval(tx *gorm.DB, req DecideRequest, step *models.DocumentApproval, doc *models.Document, now time.Time) (*DecideResult, []EmailJob, error) {
	signature, err := s.signatures.Sign(tx, doc, req.ActorID, step.ApprovalLevel, req.SignatureImage)
	if err != nil {
		return nil, nil, err
	}

	// The immediate next link in the chain is the lowest pending level above
	// the current one; gaps in level numbering are tolerated.
	var next models.DocumentApproval
	nextErr := tx.Where("document_id = ? AND approval_level > ? AND status = ?",
		doc.DocumentID, step.ApprovalLevel, models.ApprovalStatusPending).
		Order("approval_level ASC").
		First(&next).Error
	if nextErr != nil && !errors.Is(nextErr, gorm.ErrRecordNotFound) {
		return nil, nil, fmt.Errorf("find next approval step: %w", nextErr)
	}

	uploader, err := s.loadUser(tx, doc.UploadedBy)
	if err != nil {
		return nil, nil, err
	}

	summary := &SignatureSummary{
		Hash:     truncateHash(signature.SignatureHash),
		Signer:   signature.SignerName,
		SignedAt: signature.SignedAt,
		HasImage: signature.HasImage(),
	}

	if errors.Is(nextErr, gorm.ErrRecordNotFound) {
		// Final approval: chain exhausted.
		if err := tx.Model(&models.Document{}).
			Where("document_id = ?", doc.DocumentID).
			Updates(map[string]interface{}{
				"status":              models.DocStatusApproved,
				"current_approver_id": nil,
				"updated_at":          now,
			}).Error; err != nil {
			return nil, nil, fmt.Errorf("finalize document: %w", err)
		}
		doc.Status = models.DocStatusApproved
		doc.CurrentApproverID = nil

		var emails []EmailJob
		title := "Document fully approved"
		message := fmt.Sprintf("Your document %q has received final approval.", doc.Title)
		s.notifier.Create(tx, uploader.UserID, &doc.DocumentID, title, message, "success")
		emails = append(emails, EmailJob{To: uploader.Email, RecipientName: uploader.DisplayName(), Subject: title, Message: message})

		emails = s.notifyPrincipal(tx, req.ActorID, doc, emails,
			"Document approval completed",
			fmt.Sprintf("Document %q (%s) has completed its approval chain.", doc.Title, doc.Department))

		return &DecideResult{
			IsFinalApproval: true,
			Message:         "Document approved",
			Signature:       summary,
		}, emails, nil
	}

	// Forward to the next approver in the chain.
	nextApprover, err := s.loadUser(tx, next.ApproverID)
	if err != nil {
		return nil, nil, err
	}

	if err := tx.Model(&models.Document{}).
		Where("document_id = ?", doc.DocumentID).
		Updates(map[string]interface{}{
			"status":              models.DocStatusInReview,
			"current_approver_id": next.ApproverID,
			"updated_at":          now,
		}).Error; err != nil {
		return nil, nil, fmt.Errorf("forward document: %w", err)
	}
	doc.Status = models.DocStatusInReview
	doc.CurrentApproverID = &next.ApproverID

	var emails []EmailJob
	title := "Document moved to the next approval level"
	message := fmt.Sprintf("Your document %q was approved at level %d and forwarded to %s.",
		doc.Title, step.ApprovalLevel, nextApprover.DisplayName())
	s.notifier.Create(tx, uploader.UserID, &doc.DocumentID, title, message, "info")
	emails = append(emails, EmailJob{To: uploader.Email, RecipientName: uploader.DisplayName(), Subject: title, Message: message})

	// The next approver always gets the in-system row; only the principal
	// also gets the email escalation.
	approverTitle := "Document awaiting your approval"
	approverMessage := fmt.Sprintf("Document %q (%s, priority %s) is waiting for your decision at level %d.",
		doc.Title, doc.Department, doc.Priority, next.ApprovalLevel)
	s.notifier.Create(tx, nextApprover.UserID, &doc.DocumentID, approverTitle, approverMessage, "info")
	if nextApprover.RoleID == models.RolePrincipal {
		emails = append(emails, EmailJob{To: nextApprover.Email, RecipientName: nextApprover.DisplayName(), Subject: approverTitle, Message: approverMessage})
	}

	nextID := next.ApproverID
	return &DecideResult{
		IsFinalApproval: false,
		NextApproverID:  &nextID,
		NextApprover:    nextApprover.DisplayName(),
		Message:         "Document forwarded to the next approver",
		Signature:       summary,
	}, emails, nil
}

// applyTermination handles the reject and revise paths. Both overwrite the
// document remarks with the decision comment; only rejection clears the
// current approver, a revision keeps the same approver assigned.
func (s *ApprovalService) applyTermination(tx *gorm.DB, req DecideRequest, doc *models.Document, now time.Time, decision Decision, comments string) (*DecideResult, []EmailJob, error) {
	updates := map[string]interface{}{
		"updated_at": now,
	}
	var (
		title   string
		message string
		kind    string
		result  string
	)
	if decision == DecisionReject {
		updates["status"] = models.DocStatusRejected
		updates["remarks"] = "Rejected: " + comments
		updates["current_approver_id"] = nil
		title = "Document rejected"
		message = fmt.Sprintf("Your document %q was rejected. Reason: %s", doc.Title, comments)
		kind = "error"
		result = "Document rejected"
	} else {
		updates["status"] = models.DocStatusRevisionRequested
		updates["remarks"] = "Revision needed: " + comments
		title = "Revision requested"
		message = fmt.Sprintf("Your document %q needs revision: %s", doc.Title, comments)
		kind = "warning"
		result = "Revision requested"
	}

	if err := tx.Model(&models.Document{}).
		Where("document_id = ?", doc.DocumentID).
		Updates(updates).Error; err != nil {
		return nil, nil, fmt.Errorf("update document status: %w", err)
	}
	doc.Status = updates["status"].(string)
	doc.Remarks = updates["remarks"].(string)
	if decision == DecisionReject {
		doc.CurrentApproverID = nil
	}

	uploader, err := s.loadUser(tx, doc.UploadedBy)
	if err != nil {
		return nil, nil, err
	}

	var emails []EmailJob
	s.notifier.Create(tx, uploader.UserID, &doc.DocumentID, title, message, kind)
	emails = append(emails, EmailJob{To: uploader.Email, RecipientName: uploader.DisplayName(), Subject: title, Message: message})

	emails = s.notifyPrincipal(tx, req.ActorID, doc, emails, title,
		fmt.Sprintf("Document %q (%s): %s", doc.Title, doc.Department, message))

	return &DecideResult{Message: result}, emails, nil
}

// notifyPrincipal escalates a decision to the principal unless the principal
// is the actor who just decided. A missing principal row only logs.
func (s *ApprovalService) notifyPrincipal(tx *gorm.DB, actorID int, doc *models.Document, emails []EmailJob, title, message string) []EmailJob {
	var principal models.User
	if err := tx.Where("role_id = ? AND delete_at IS NULL", models.RolePrincipal).
		First(&principal).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("principal lookup failed: %v", err)
		}
		return emails
	}
	if principal.UserID == actorID {
		return emails
	}

	s.notifier.Create(tx, principal.UserID, &doc.DocumentID, title, message, "info")
	return append(emails, EmailJob{To: principal.Email, RecipientName: principal.DisplayName(), Subject: title, Message: message})
}

func (s *ApprovalService) loadUser(tx *gorm.DB, userID int) (*models.User, error) {
	var user models.User
	if err := tx.Where("user_id = ?", userID).First(&user).Error; err != nil {
		return nil, fmt.Errorf("load user %d: %w", userID, err)
	}
	return &user, nil
}

func (s *ApprovalService) writeAudit(req DecideRequest, doc *models.Document, description string) {
	entityID := doc.DocumentID
	audit := models.AuditLog{
		UserID:      req.ActorID,
		Action:      auditActionFor(req.Decision),
		EntityType:  "document",
		EntityID:    &entityID,
		Description: &description,
		IPAddress:   req.IPAddress,
		CreatedAt:   time.Now(),
	}
	if strings.TrimSpace(req.UserAgent) != "" {
		ua := req.UserAgent
		audit.UserAgent = &ua
	}

	if err := s.db.Create(&audit).Error; err != nil {
		log.Printf("audit log write failed (user=%d document=%d): %v", req.ActorID, doc.DocumentID, err)
	}
}

func auditActionFor(decision Decision) string {
	switch decision {
	case DecisionApprove:
		return "approve"
	case DecisionReject:
		return "reject"
	default:
		return "request_revision"
	}
}

func truncateHash(hash string) string {
	if len(hash) <= 12 {
		return hash
	}
	return hash[:12]
}
