package models

import "time"

// DocumentSignature records a digital signature produced when an approval step
// is approved. Signer identity fields are captured by value at signing time so
// the record reflects the signer's name, role and department as of that moment,
// even if the organizational data changes later.
type DocumentSignature struct {
	SignatureID      int       `gorm:"primaryKey;column:signature_id" json:"signature_id"`
	DocumentID       int       `gorm:"column:document_id" json:"document_id"`
	SignerID         int       `gorm:"column:signer_id" json:"signer_id"`
	SignerName       string    `gorm:"column:signer_name" json:"signer_name"`
	SignerRole       string    `gorm:"column:signer_role" json:"signer_role"`
	SignerDepartment string    `gorm:"column:signer_department" json:"signer_department"`
	SignerSubject    *string   `gorm:"column:signer_subject" json:"signer_subject,omitempty"`
	ApprovalLevel    int       `gorm:"column:approval_level" json:"approval_level"`
	SignatureHash    string    `gorm:"column:signature_hash;unique" json:"-"`
	SignatureImage   *string   `gorm:"column:signature_image" json:"-"`
	SignedAt         time.Time `gorm:"column:signed_at" json:"signed_at"`
}

func (DocumentSignature) TableName() string {
	return "document_signatures"
}

// HasImage reports whether a rendered signature image was attached.
func (s *DocumentSignature) HasImage() bool {
	return s.SignatureImage != nil && *s.SignatureImage != ""
}
