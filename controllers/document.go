package controllers

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"document-approval-api/config"
	"document-approval-api/models"
	"document-approval-api/services"
	"document-approval-api/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

var documentFileTypes = map[string]string{
	".pdf":  "application/pdf",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".xls":  "application/vnd.ms-excel",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

// UploadDocument creates a document together with its ordered approval chain:
// the uploader's head teacher at level 1 (unless the uploader is the head
// teacher), then the principal. The chain and the document row commit as one
// unit and the first approver is notified.
func UploadDocument(c *gin.Context) {
	userIDValue, _ := c.Get("userID")
	userID, _ := userIDValue.(int)
	departmentValue, _ := c.Get("department")
	department, _ := departmentValue.(string)

	title := utils.SanitizeInput(c.PostForm("title"))
	documentType := utils.SanitizeInput(c.PostForm("document_type"))
	priority := strings.ToLower(strings.TrimSpace(c.PostForm("priority")))
	if priority == "" {
		priority = models.PriorityMedium
	}

	if title == "" || documentType == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Title and document type are required"})
		return
	}
	if !models.IsValidPriority(priority) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Priority must be urgent, high, medium or low"})
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}

	maxSize := int64(10 * 1024 * 1024) // 10MB
	if file.Size > maxSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File size exceeds 10MB limit"})
		return
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	mimeType, allowed := documentFileTypes[ext]
	if !allowed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File type not allowed"})
		return
	}

	// Resolve the approval chain before touching storage, so a misconfigured
	// department fails fast.
	approvers, err := resolveApprovalChain(userID, department)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	uploadPath := os.Getenv("UPLOAD_PATH")
	if uploadPath == "" {
		uploadPath = "./uploads"
	}
	storedFilename := uuid.NewString() + ext
	fullPath := filepath.Join(uploadPath, storedFilename)

	if err := c.SaveUploadedFile(file, fullPath); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save file"})
		return
	}

	now := time.Now()
	firstApprover := approvers[0]

	tx := config.DB.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	document := models.Document{
		Title:             title,
		DocumentType:      documentType,
		Department:        department,
		Priority:          priority,
		Status:            models.DocStatusPending,
		UploadedBy:        userID,
		CurrentApproverID: &firstApprover.UserID,
		OriginalFilename:  file.Filename,
		StoredFilename:    storedFilename,
		FileSize:          file.Size,
		MimeType:          mimeType,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := tx.Create(&document).Error; err != nil {
		tx.Rollback()
		removeStoredFile(fullPath)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create document"})
		return
	}

	chain := make([]models.DocumentApproval, 0, len(approvers))
	for i, approver := range approvers {
		step := models.DocumentApproval{
			DocumentID:    document.DocumentID,
			ApprovalLevel: i + 1,
			ApproverID:    approver.UserID,
			Status:        models.ApprovalStatusPending,
			CreatedAt:     now,
		}
		if err := tx.Create(&step).Error; err != nil {
			tx.Rollback()
			removeStoredFile(fullPath)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create approval chain"})
			return
		}
		chain = append(chain, step)
	}

	notifier := services.NewNotificationService()
	notifier.Create(tx, firstApprover.UserID, &document.DocumentID,
		"Document awaiting your approval",
		fmt.Sprintf("Document %q (%s, priority %s) was submitted for your review.", title, department, priority),
		"info")

	if err := tx.Commit().Error; err != nil {
		removeStoredFile(fullPath)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to submit document"})
		return
	}

	writeUploadAudit(c, userID, document.DocumentID, title)

	go notifier.Dispatch([]services.EmailJob{{
		To:            firstApprover.Email,
		RecipientName: firstApprover.DisplayName(),
		Subject:       "Document awaiting your approval",
		Message:       fmt.Sprintf("Document %q (%s, priority %s) was submitted and is waiting for your review.", title, department, priority),
	}})

	c.JSON(http.StatusCreated, gin.H{
		"success":  true,
		"message":  "Document submitted for approval",
		"document": document,
		"chain":    chain,
	})
}

// resolveApprovalChain builds the ordered approver list for a department per
// the approval matrix: head teacher of the department first, then the
// principal. The uploader never approves their own document.
func resolveApprovalChain(uploaderID int, department string) ([]models.User, error) {
	var approvers []models.User

	var headTeacher models.User
	err := config.DB.Where("role_id = ? AND department = ? AND delete_at IS NULL AND account_status = ?",
		models.RoleHeadTeacher, department, "active").
		First(&headTeacher).Error
	if err == nil && headTeacher.UserID != uploaderID {
		approvers = append(approvers, headTeacher)
	}

	var principal models.User
	err = config.DB.Where("role_id = ? AND delete_at IS NULL AND account_status = ?",
		models.RolePrincipal, "active").
		First(&principal).Error
	if err == nil && principal.UserID != uploaderID {
		approvers = append(approvers, principal)
	}

	if len(approvers) == 0 {
		return nil, fmt.Errorf("no approvers are configured for department %q", department)
	}
	return approvers, nil
}

func removeStoredFile(path string) {
	if err := os.Remove(path); err != nil {
		log.Printf("failed to remove stored file %s: %v", path, err)
	}
}

func writeUploadAudit(c *gin.Context, userID, documentID int, title string) {
	description := fmt.Sprintf("Uploaded document %q", title)
	entityID := documentID
	audit := models.AuditLog{
		UserID:      userID,
		Action:      "upload",
		EntityType:  "document",
		EntityID:    &entityID,
		Description: &description,
		IPAddress:   c.ClientIP(),
		CreatedAt:   time.Now(),
	}
	if ua := strings.TrimSpace(c.GetHeader("User-Agent")); ua != "" {
		audit.UserAgent = &ua
	}
	if err := config.DB.Create(&audit).Error; err != nil {
		log.Printf("audit log write failed (user=%d document=%d): %v", userID, documentID, err)
	}
}

// GetMyDocuments lists the caller's own documents, optionally filtered by
// status, most urgent first.
func GetMyDocuments(c *gin.Context) {
	userID, _ := c.Get("userID")

	query := config.DB.Preload("CurrentApprover").
		Where("uploaded_by = ? AND delete_at IS NULL", userID)

	if status := strings.TrimSpace(c.Query("status")); status != "" {
		query = query.Where("status = ?", status)
	}

	var documents []models.Document
	if err := query.Order(models.PriorityFieldOrder + ", created_at DESC").
		Find(&documents).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch documents"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"documents": documents,
		"total":     len(documents),
	})
}

// GetDocument returns one document with its approval chain.
func GetDocument(c *gin.Context) {
	documentID, err := strconv.Atoi(c.Param("id"))
	if err != nil || documentID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid document ID"})
		return
	}

	var document models.Document
	if err := config.DB.Preload("Uploader").Preload("CurrentApprover").
		Where("document_id = ? AND delete_at IS NULL", documentID).
		First(&document).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Document not found"})
		return
	}

	var approvals []models.DocumentApproval
	if err := config.DB.Preload("Approver").
		Where("document_id = ?", documentID).
		Order("approval_level ASC").
		Find(&approvals).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch approval chain"})
		return
	}

	if !canViewDocument(c, &document, approvals) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"document": document,
		"chain":    approvals,
	})
}

// DownloadDocument streams the stored file.
func DownloadDocument(c *gin.Context) {
	documentID, err := strconv.Atoi(c.Param("id"))
	if err != nil || documentID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid document ID"})
		return
	}

	var document models.Document
	if err := config.DB.Where("document_id = ? AND delete_at IS NULL", documentID).
		First(&document).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Document not found"})
		return
	}

	var approvals []models.DocumentApproval
	if err := config.DB.Where("document_id = ?", documentID).
		Find(&approvals).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch approval chain"})
		return
	}

	if !canViewDocument(c, &document, approvals) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
		return
	}

	uploadPath := os.Getenv("UPLOAD_PATH")
	if uploadPath == "" {
		uploadPath = "./uploads"
	}
	fullPath := filepath.Join(uploadPath, document.StoredFilename)

	if _, err := os.Stat(fullPath); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Stored file is missing"})
		return
	}

	c.FileAttachment(fullPath, document.OriginalFilename)
}
