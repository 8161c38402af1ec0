package services

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"document-approval-api/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// recognized embedded-image encodings for signature images
var signatureImagePrefixes = []string{
	"data:image/png;base64,",
	"data:image/jpeg;base64,",
	"data:image/jpg;base64,",
}

// SignatureService produces the signature record created when an approval step
// is approved. It has no workflow state of its own; it always operates on the
// caller's open transaction so a failure anywhere rolls back the whole
// decision.
type SignatureService struct{}

func NewSignatureService() *SignatureService {
	return &SignatureService{}
}

// ValidateImage checks that an attached signature image is a base64 data URI
// with a recognized image media type.
func (s *SignatureService) ValidateImage(image string) error {
	for _, prefix := range signatureImagePrefixes {
		if strings.HasPrefix(image, prefix) {
			payload := image[len(prefix):]
			if payload == "" {
				return ErrInvalidSignatureImage
			}
			if _, err := base64.StdEncoding.DecodeString(payload); err != nil {
				return ErrInvalidSignatureImage
			}
			return nil
		}
	}
	return ErrInvalidSignatureImage
}

// Sign resolves the signer's identity snapshot, writes the signature row and
// appends a signature note to the document's remarks. Must be called inside
// the workflow transaction; every error is fatal to that transaction.
func (s *SignatureService) Sign(tx *gorm.DB, doc *models.Document, signerID, approvalLevel int, image string) (*models.DocumentSignature, error) {
	var signer models.User
	if err := tx.Preload("Role").
		Where("user_id = ? AND delete_at IS NULL", signerID).
		First(&signer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSignerNotFound
		}
		return nil, fmt.Errorf("load signer: %w", err)
	}

	signedAt := time.Now()
	signature := models.DocumentSignature{
		DocumentID:       doc.DocumentID,
		SignerID:         signer.UserID,
		SignerName:       signer.DisplayName(),
		SignerRole:       signer.Role.Role,
		SignerDepartment: signer.Department,
		SignerSubject:    signer.Subject,
		ApprovalLevel:    approvalLevel,
		SignatureHash:    signatureHash(doc.DocumentID, signer.UserID, signedAt),
		SignedAt:         signedAt,
	}
	if image != "" {
		signature.SignatureImage = &image
	}

	if err := tx.Create(&signature).Error; err != nil {
		return nil, fmt.Errorf("create signature: %w", err)
	}

	note := fmt.Sprintf("Digitally signed by %s (%s, %s) at level %d on %s",
		signature.SignerName, signature.SignerRole, signature.SignerDepartment,
		approvalLevel, signedAt.Format("2006-01-02 15:04:05"))

	// Remarks are append-only on the signing path; prior entries stay intact.
	if doc.Remarks == "" {
		doc.Remarks = note
	} else {
		doc.Remarks = doc.Remarks + "\n" + note
	}

	if err := tx.Model(&models.Document{}).
		Where("document_id = ?", doc.DocumentID).
		Update("remarks", doc.Remarks).Error; err != nil {
		return nil, fmt.Errorf("append signature remark: %w", err)
	}

	return &signature, nil
}

// signatureHash derives a collision-resistant, unpredictable fingerprint from
// the document, signer, signing time and a random nonce.
func signatureHash(documentID, signerID int, signedAt time.Time) string {
	payload := fmt.Sprintf("%d|%d|%d|%s", documentID, signerID, signedAt.UnixNano(), uuid.NewString())
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}
