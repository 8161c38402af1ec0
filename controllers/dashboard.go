package controllers

import (
	"log"
	"net/http"
	"time"

	"document-approval-api/config"
	"document-approval-api/models"

	"github.com/gin-gonic/gin"
)

// GetDashboardStats returns dashboard statistics. Teachers see their own
// documents; head teachers, the principal and admins see organization-wide
// numbers plus their own pending approvals.
func GetDashboardStats(c *gin.Context) {
	userIDVal, userExists := c.Get("userID")
	roleIDVal, roleExists := c.Get("roleID")
	if !userExists || !roleExists {
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"error":   "authentication context missing",
		})
		return
	}

	userID, okUser := userIDVal.(int)
	roleID, okRole := roleIDVal.(int)
	if !okUser || !okRole {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "invalid user or role id",
		})
		return
	}

	var stats map[string]interface{}
	if roleID == models.RoleTeacher {
		stats = getUploaderDashboard(userID)
	} else {
		stats = getApproverDashboard(userID, roleID)
	}
	if stats == nil {
		stats = make(map[string]interface{})
	}

	stats["current_date"] = time.Now().Format("2006-01-02")

	c.JSON(http.StatusOK, gin.H{"stats": stats})
}

type statusCountRow struct {
	Status string `gorm:"column:status"`
	Count  int64  `gorm:"column:count"`
}

type departmentCountRow struct {
	Department string `gorm:"column:department"`
	Count      int64  `gorm:"column:count"`
}

func getUploaderDashboard(userID int) map[string]interface{} {
	stats := make(map[string]interface{})

	var rows []statusCountRow
	if err := config.DB.Model(&models.Document{}).
		Select("status, COUNT(*) AS count").
		Where("uploaded_by = ? AND delete_at IS NULL", userID).
		Group("status").
		Scan(&rows).Error; err != nil {
		log.Printf("dashboard query failed (documents by status, user=%d): %v", userID, err)
	}

	byStatus := make(map[string]int64)
	var total int64
	for _, row := range rows {
		byStatus[row.Status] = row.Count
		total += row.Count
	}
	stats["my_documents_total"] = total
	stats["my_documents_by_status"] = byStatus

	var unread int64
	if err := config.DB.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&unread).Error; err != nil {
		log.Printf("dashboard query failed (unread notifications, user=%d): %v", userID, err)
	}
	stats["unread_notifications"] = unread

	var recent []models.Document
	if err := config.DB.Where("uploaded_by = ? AND delete_at IS NULL", userID).
		Order("updated_at DESC").
		Limit(5).
		Find(&recent).Error; err != nil {
		log.Printf("dashboard query failed (recent documents, user=%d): %v", userID, err)
	}
	stats["recent_documents"] = recent

	return stats
}

func getApproverDashboard(userID, roleID int) map[string]interface{} {
	stats := make(map[string]interface{})

	var pending int64
	if err := config.DB.Model(&models.DocumentApproval{}).
		Where("approver_id = ? AND status = ?", userID, models.ApprovalStatusPending).
		Count(&pending).Error; err != nil {
		log.Printf("dashboard query failed (pending approvals, user=%d): %v", userID, err)
	}
	stats["my_pending_approvals"] = pending

	var rows []statusCountRow
	if err := config.DB.Model(&models.Document{}).
		Select("status, COUNT(*) AS count").
		Where("delete_at IS NULL").
		Group("status").
		Scan(&rows).Error; err != nil {
		log.Printf("dashboard query failed (documents by status): %v", err)
	}

	byStatus := make(map[string]int64)
	var total int64
	for _, row := range rows {
		byStatus[row.Status] = row.Count
		total += row.Count
	}
	stats["documents_total"] = total
	stats["documents_by_status"] = byStatus

	if roleID == models.RolePrincipal || roleID == models.RoleAdmin {
		var departments []departmentCountRow
		if err := config.DB.Model(&models.Document{}).
			Select("department, COUNT(*) AS count").
			Where("delete_at IS NULL").
			Group("department").
			Scan(&departments).Error; err != nil {
			log.Printf("dashboard query failed (documents by department): %v", err)
		}
		stats["documents_by_department"] = departments

		var signatures int64
		if err := config.DB.Model(&models.DocumentSignature{}).Count(&signatures).Error; err != nil {
			log.Printf("dashboard query failed (signature count): %v", err)
		}
		stats["signatures_total"] = signatures
	}

	return stats
}
