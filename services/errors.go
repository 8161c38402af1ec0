package services

import "errors"

// Sentinel errors surfaced by the workflow engine. Controllers map these to
// HTTP statuses; anything else is treated as an internal persistence failure.
var (
	// ErrApprovalNotFound covers a missing step, an already-decided step, and
	// an actor who is not the assigned approver. The cases are deliberately
	// collapsed so callers cannot probe which one applied.
	ErrApprovalNotFound = errors.New("approval not found or already decided")

	// ErrCommentsRequired is returned when a reject or revision decision
	// arrives without comments.
	ErrCommentsRequired = errors.New("comments are required for this decision")

	// ErrInvalidSignatureImage is returned when an attached signature image is
	// not a recognized embedded-image encoding.
	ErrInvalidSignatureImage = errors.New("signature image must be a base64 data URI (png or jpeg)")

	// ErrSignerNotFound indicates the signer row vanished between
	// authentication and signing; the surrounding transaction is rolled back.
	ErrSignerNotFound = errors.New("signer record not found")
)
