package services

import (
	"testing"
	"time"
)

func TestVerificationCodeIssueAndVerify(t *testing.T) {
	s := NewVerificationCodeService()
	defer s.Close()

	code, err := s.Issue("teacher@school.ac.th")
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}
	if len(code) != 6 {
		t.Fatalf("expected a 6-digit code, got %q", code)
	}

	wrong := "000000"
	if code == wrong {
		wrong = "000001"
	}
	if s.Verify("teacher@school.ac.th", wrong) {
		t.Fatalf("wrong code must not verify")
	}
	if !s.Verify("teacher@school.ac.th", code) {
		t.Fatalf("correct code must verify")
	}
	// Consumed on success.
	if s.Verify("teacher@school.ac.th", code) {
		t.Fatalf("code must be single-use")
	}
}

func TestVerificationCodeUnknownKey(t *testing.T) {
	s := NewVerificationCodeService()
	defer s.Close()

	if s.Verify("nobody@school.ac.th", "123456") {
		t.Fatalf("unknown key must not verify")
	}
}

func TestVerificationCodeReissueReplaces(t *testing.T) {
	s := NewVerificationCodeService()
	defer s.Close()

	first, err := s.Issue("teacher@school.ac.th")
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}
	second, err := s.Issue("teacher@school.ac.th")
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	if first != second && s.Verify("teacher@school.ac.th", first) {
		t.Fatalf("replaced code must not verify")
	}
	if !s.Verify("teacher@school.ac.th", second) {
		t.Fatalf("latest code must verify")
	}
}

func TestVerificationCodeExpiry(t *testing.T) {
	s := NewVerificationCodeService()
	defer s.Close()

	s.mu.Lock()
	s.codes["teacher@school.ac.th"] = codeEntry{code: "123456", expiresAt: time.Now().Add(-time.Second)}
	s.mu.Unlock()

	if s.Verify("teacher@school.ac.th", "123456") {
		t.Fatalf("expired code must not verify")
	}
}

func TestVerificationCodeSweepEvictsExpired(t *testing.T) {
	s := NewVerificationCodeService()
	defer s.Close()

	now := time.Now()
	s.mu.Lock()
	s.codes["stale@school.ac.th"] = codeEntry{code: "111111", expiresAt: now.Add(-time.Minute)}
	s.codes["fresh@school.ac.th"] = codeEntry{code: "222222", expiresAt: now.Add(time.Minute)}
	s.mu.Unlock()

	s.sweep(now)

	s.mu.RLock()
	_, staleKept := s.codes["stale@school.ac.th"]
	_, freshKept := s.codes["fresh@school.ac.th"]
	s.mu.RUnlock()

	if staleKept {
		t.Fatalf("expired entry survived the sweep")
	}
	if !freshKept {
		t.Fatalf("live entry was evicted")
	}
}
