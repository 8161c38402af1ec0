package services

import (
	"fmt"
	"html/template"
	"log"
	"strings"
	"time"

	"document-approval-api/config"
	"document-approval-api/models"

	"gorm.io/gorm"
)

// sendMailFunc is swappable in tests.
var sendMailFunc = config.SendMail

// EmailJob is an external delivery queued during a workflow transaction and
// dispatched only after the transaction commits.
type EmailJob struct {
	To            string
	RecipientName string
	Subject       string
	Message       string
}

// NotificationService creates in-system notification rows and delivers
// best-effort emails. Neither path is ever allowed to fail the workflow that
// triggered it.
type NotificationService struct{}

func NewNotificationService() *NotificationService {
	return &NotificationService{}
}

// Create inserts an in-system notification using the given handle, which may
// be an open transaction so a workflow rollback also undoes the row. Insert
// failure is logged and swallowed.
func (s *NotificationService) Create(db *gorm.DB, userID int, documentID *int, title, message, kind string) {
	notification := models.Notification{
		UserID:   uint(userID),
		Title:    title,
		Message:  message,
		Type:     kind,
		CreateAt: time.Now(),
	}
	if documentID != nil {
		related := uint(*documentID)
		notification.RelatedDocumentID = &related
	}

	if err := db.Create(&notification).Error; err != nil {
		log.Printf("notification insert failed (user=%d title=%q): %v", userID, title, err)
	}
}

// Dispatch sends queued emails. Call only after the owning transaction has
// committed; failures are logged and swallowed.
func (s *NotificationService) Dispatch(jobs []EmailJob) {
	for _, job := range jobs {
		if strings.TrimSpace(job.To) == "" {
			continue
		}
		html := formalEmailHTML(job.Subject, job.RecipientName, job.Message)
		if err := sendMailFunc([]string{job.To}, job.Subject, html); err != nil {
			log.Printf("notification email send failed (subject=%q to=%s): %v", job.Subject, job.To, err)
		}
	}
}

func formalEmailHTML(subject, recipientName, message string) string {
	name := strings.TrimSpace(recipientName)
	if name == "" {
		name = "recipient"
	}

	escapedSubject := template.HTMLEscapeString(subject)
	escapedGreeting := template.HTMLEscapeString(fmt.Sprintf("Dear %s,", name))
	escapedMessage := template.HTMLEscapeString(strings.TrimSpace(message))
	escapedMessage = strings.ReplaceAll(strings.ReplaceAll(escapedMessage, "\r\n", "\n"), "\r", "\n")
	escapedMessage = strings.ReplaceAll(escapedMessage, "\n", "<br />")

	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>%s</title>
</head>
<body style="margin:0;padding:0;background-color:#f9fafb;font-family:'Segoe UI',Tahoma,Arial,sans-serif;">
<div style="max-width:640px;margin:0 auto;padding:24px 20px;">
  <div style="background-color:#ffffff;border:1px solid #e5e7eb;border-radius:12px;padding:24px 24px 28px 24px;">
    <p style="margin:0 0 16px 0;font-size:16px;line-height:1.7;color:#111827;">%s</p>
    <p style="margin:0 0 0 0;font-size:16px;line-height:1.7;color:#111827;word-break:break-word;">%s</p>
  </div>
</div>
</body>
</html>`, escapedSubject, escapedGreeting, escapedMessage)
}
