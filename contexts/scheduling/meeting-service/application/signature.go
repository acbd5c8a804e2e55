package application

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	domainerrors "hireloop/contexts/scheduling/meeting-service/domain/errors"
)

// HMACSignatureVerifier checks hex-encoded HMAC-SHA256 signatures over the
// raw webhook body.
type HMACSignatureVerifier struct {
	Secret []byte
}

func (v HMACSignatureVerifier) Verify(body []byte, signature string) error {
	signature = strings.TrimSpace(signature)
	if signature == "" {
		return domainerrors.ErrInvalidSignature
	}

	mac := hmac.New(sha256.New, v.Secret)
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(strings.ToLower(signature))) {
		return domainerrors.ErrInvalidSignature
	}
	return nil
}

// Sign produces the signature clients and tests attach to a payload.
func (v HMACSignatureVerifier) Sign(body []byte) string {
	mac := hmac.New(sha256.New, v.Secret)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
