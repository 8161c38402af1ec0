package services

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"sync"
	"time"
)

const (
	verificationCodeTTL   = 10 * time.Minute
	verificationSweepTick = time.Minute
)

type codeEntry struct {
	code      string
	expiresAt time.Time
}

// VerificationCodeService holds short-lived verification codes (password
// reset) in process memory. Entries expire after a TTL; a background sweep
// and on-access checks both evict stale codes.
type VerificationCodeService struct {
	mu    sync.RWMutex
	codes map[string]codeEntry
	stop  chan struct{}
	once  sync.Once
}

func NewVerificationCodeService() *VerificationCodeService {
	s := &VerificationCodeService{
		codes: make(map[string]codeEntry),
		stop:  make(chan struct{}),
	}
	go s.sweepLoop()
	return s
}

// Issue generates a 6-digit code for the key, replacing any previous one.
func (s *VerificationCodeService) Issue(key string) (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", fmt.Errorf("generate verification code: %w", err)
	}
	code := fmt.Sprintf("%06d", n.Int64())

	s.mu.Lock()
	s.codes[key] = codeEntry{code: code, expiresAt: time.Now().Add(verificationCodeTTL)}
	s.mu.Unlock()

	return code, nil
}

// Verify checks the code for the key and consumes it on success. Expired or
// unknown codes fail.
func (s *VerificationCodeService) Verify(key, code string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.codes[key]
	if !ok {
		return false
	}
	if time.Now().After(entry.expiresAt) {
		delete(s.codes, key)
		return false
	}
	if entry.code != code {
		return false
	}
	delete(s.codes, key)
	return true
}

// Close stops the background sweep.
func (s *VerificationCodeService) Close() {
	s.once.Do(func() { close(s.stop) })
}

func (s *VerificationCodeService) sweepLoop() {
	ticker := time.NewTicker(verificationSweepTick)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.sweep(time.Now())
		case <-s.stop:
			return
		}
	}
}

func (s *VerificationCodeService) sweep(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, entry := range s.codes {
		if now.After(entry.expiresAt) {
			delete(s.codes, key)
		}
	}
}
