package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

var ErrInvalidSignature = errors.New("invalid signature")

type Signer struct {
	secretKey []byte
	logger    *slog.Logger
}

func NewSigner(secretKey string, logger *slog.Logger) *Signer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Signer{
		secretKey: []byte(secretKey),
		logger:    logger,
	}
}

func (s *Signer) Sign(data []byte) string {
	mac := hmac.New(sha256.New, s.secretKey)
	mac.Write(data)
	return hex.EncodeToString(mac.Sum(nil))
}

func (s *Signer) Verify(data []byte, signature string) error {
	expected := s.Sign(data)

	if !hmac.Equal([]byte(expected), []byte(signature)) {
		s.logger.Warn("Signature verification failed")
		return ErrInvalidSignature
	}
	return nil
}

func resultPayload(contentID string, score int, compliant bool, checkedAt time.Time) []byte {
	return fmt.Appendf(nil, "%s:%d:%t:%d", contentID, score, compliant, checkedAt.UTC().UnixMilli())
}

// SignResult binds a gate decision to the content it was made for, so a
// publishing step can check the decision was not altered in transit.
func (s *Signer) SignResult(contentID string, score int, compliant bool, checkedAt time.Time) string {
	return s.Sign(resultPayload(contentID, score, compliant, checkedAt))
}

func (s *Signer) VerifyResult(contentID string, score int, compliant bool, checkedAt time.Time, signature string) error {
	return s.Verify(resultPayload(contentID, score, compliant, checkedAt), signature)
}
