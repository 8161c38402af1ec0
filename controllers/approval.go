package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"document-approval-api/config"
	"document-approval-api/models"
	"document-approval-api/services"

	"github.com/gin-gonic/gin"
)

var (
	approvalSvcOnce sync.Once
	approvalSvc     *services.ApprovalService
)

func getApprovalService() *services.ApprovalService {
	approvalSvcOnce.Do(func() {
		approvalSvc = services.NewApprovalService(config.DB)
	})
	return approvalSvc
}

type decisionRequest struct {
	Comments       string `json:"comments"`
	SignatureImage string `json:"signature_image"`
}

// ApproveDocument handles POST /approvals/:id/approve
func ApproveDocument(c *gin.Context) {
	decide(c, services.DecisionApprove)
}

// RejectDocument handles POST /approvals/:id/reject
func RejectDocument(c *gin.Context) {
	decide(c, services.DecisionReject)
}

// RequestRevision handles POST /approvals/:id/request-revision
func RequestRevision(c *gin.Context) {
	decide(c, services.DecisionRevise)
}

func decide(c *gin.Context, decision services.Decision) {
	approvalID, err := strconv.Atoi(c.Param("id"))
	if err != nil || approvalID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid approval ID"})
		return
	}

	var req decisionRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	userIDValue, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "User context missing"})
		return
	}
	userID, ok := userIDValue.(int)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Invalid user context"})
		return
	}

	result, err := getApprovalService().Decide(services.DecideRequest{
		ApprovalID:     approvalID,
		ActorID:        userID,
		Decision:       decision,
		Comments:       req.Comments,
		SignatureImage: req.SignatureImage,
		IPAddress:      c.ClientIP(),
		UserAgent:      c.GetHeader("User-Agent"),
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrApprovalNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, services.ErrCommentsRequired),
			errors.Is(err, services.ErrInvalidSignatureImage):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process decision"})
		}
		return
	}

	response := gin.H{
		"success":           true,
		"message":           result.Message,
		"is_final_approval": result.IsFinalApproval,
	}
	if result.NextApprover != "" {
		response["next_approver"] = result.NextApprover
	}
	if result.Signature != nil {
		response["signature"] = result.Signature
	}

	c.JSON(http.StatusOK, response)
}

type pendingApprovalRow struct {
	ApprovalID    int       `gorm:"column:approval_id" json:"approval_id"`
	ApprovalLevel int       `gorm:"column:approval_level" json:"approval_level"`
	CreatedAt     time.Time `gorm:"column:created_at" json:"created_at"`
	DocumentID    int       `gorm:"column:document_id" json:"document_id"`
	Title         string    `gorm:"column:title" json:"title"`
	DocumentType  string    `gorm:"column:document_type" json:"document_type"`
	Department    string    `gorm:"column:department" json:"department"`
	Priority      string    `gorm:"column:priority" json:"priority"`
	Status        string    `gorm:"column:status" json:"status"`
	UploaderName  string    `gorm:"column:uploader_name" json:"uploader_name"`
}

// GetPendingApprovals lists the caller's pending approval steps, most urgent
// documents first, oldest first within the same priority.
func GetPendingApprovals(c *gin.Context) {
	userID, _ := c.Get("userID")

	var rows []pendingApprovalRow
	if err := config.DB.Table("document_approvals").
		Select("document_approvals.approval_id, document_approvals.approval_level, document_approvals.created_at, "+
			"documents.document_id, documents.title, documents.document_type, documents.department, documents.priority, documents.status, "+
			"CONCAT(users.user_fname, ' ', users.user_lname) AS uploader_name").
		Joins("JOIN documents ON documents.document_id = document_approvals.document_id AND documents.delete_at IS NULL").
		Joins("JOIN users ON users.user_id = documents.uploaded_by").
		Where("document_approvals.approver_id = ? AND document_approvals.status = ?", userID, models.ApprovalStatusPending).
		Order(models.PriorityFieldOrder + ", document_approvals.created_at ASC").
		Scan(&rows).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch pending approvals"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"approvals": rows,
		"total":     len(rows),
	})
}

type approvalHistoryEntry struct {
	models.DocumentApproval
	Signature *models.DocumentSignature `json:"signature,omitempty"`
}

// GetApprovalHistory lists every approval step of a document in chain order
// with its signature, if one was produced.
func GetApprovalHistory(c *gin.Context) {
	documentID, err := strconv.Atoi(c.Param("documentId"))
	if err != nil || documentID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid document ID"})
		return
	}

	var doc models.Document
	if err := config.DB.Where("document_id = ? AND delete_at IS NULL", documentID).
		First(&doc).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Document not found"})
		return
	}

	var approvals []models.DocumentApproval
	if err := config.DB.Preload("Approver").
		Where("document_id = ?", documentID).
		Order("approval_level ASC").
		Find(&approvals).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch approval history"})
		return
	}

	if !canViewDocument(c, &doc, approvals) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
		return
	}

	var signatures []models.DocumentSignature
	if err := config.DB.Where("document_id = ?", documentID).
		Find(&signatures).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch signatures"})
		return
	}

	signatureByLevel := make(map[int]*models.DocumentSignature, len(signatures))
	for i := range signatures {
		signatureByLevel[signatures[i].ApprovalLevel] = &signatures[i]
	}

	history := make([]approvalHistoryEntry, 0, len(approvals))
	for _, approval := range approvals {
		history = append(history, approvalHistoryEntry{
			DocumentApproval: approval,
			Signature:        signatureByLevel[approval.ApprovalLevel],
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"document": doc,
		"history":  history,
	})
}

// canViewDocument allows the uploader, anyone in the approval chain, the
// principal and admins.
func canViewDocument(c *gin.Context, doc *models.Document, approvals []models.DocumentApproval) bool {
	userIDValue, _ := c.Get("userID")
	roleIDValue, _ := c.Get("roleID")
	userID, _ := userIDValue.(int)
	roleID, _ := roleIDValue.(int)

	if roleID == models.RolePrincipal || roleID == models.RoleAdmin {
		return true
	}
	if doc.UploadedBy == userID {
		return true
	}
	for _, approval := range approvals {
		if approval.ApproverID == userID {
			return true
		}
	}
	return false
}
