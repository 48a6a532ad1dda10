// Package storage is the boundary to the external evidence object store.
// The engine only resolves short-lived signed access URLs for persisted
// evidence metadata; upload and storage of the binaries happen elsewhere.
package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// Signer resolves a short-lived signed access URL for a storage path.
type Signer interface {
	Sign(storagePath string) (string, error)
}

// HMACSigner signs storage paths against the object store gateway with an
// expiring HMAC-SHA256 token.
type HMACSigner struct {
	BaseURL string
	Secret  []byte
	TTL     time.Duration
	now     func() time.Time
}

// NewHMACSigner builds an HMACSigner. ttl must be positive.
func NewHMACSigner(baseURL string, secret string, ttl time.Duration) (*HMACSigner, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("evidence URL base is required")
	}
	if secret == "" {
		return nil, fmt.Errorf("evidence signing secret is required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("evidence URL TTL must be positive, got %s", ttl)
	}
	return &HMACSigner{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		Secret:  []byte(secret),
		TTL:     ttl,
		now:     time.Now,
	}, nil
}

// Sign implements Signer.
func (s *HMACSigner) Sign(storagePath string) (string, error) {
	if storagePath == "" {
		return "", fmt.Errorf("storage path is required")
	}

	expires := s.now().Add(s.TTL).Unix()
	mac := hmac.New(sha256.New, s.Secret)
	fmt.Fprintf(mac, "%s:%d", storagePath, expires)
	signature := hex.EncodeToString(mac.Sum(nil))

	return fmt.Sprintf("%s/%s?expires=%d&signature=%s",
		s.BaseURL, strings.TrimPrefix(storagePath, "/"), expires, signature), nil
}
