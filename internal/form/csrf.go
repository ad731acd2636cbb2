// internal/form/csrf.go
//
// Impact – Forms subsystem: stateless CSRF tokens for form sessions.
//
// Context
//   Opening a form session returns a token, and state-changing calls on that
//   session (submit in particular) must echo it in the X-CSRF-Token header.
//   Tokens are stateless and bound to the session ID:
//
//      base64url( nonce | unixMicro | HMAC_SHA256(key, nonce+unixMicro+sid) )
//
//   The key comes from config (form.csrf_key, base64url, ≥ 32 bytes).  When
//   unset a random key is generated, so tokens do not survive a restart.
//
//------------------------------------------------------------------------------

package form

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const (
	nonceBytes    = 16
	tokenBytes    = nonceBytes + 8 + sha256.Size // nonce + ts + sig
	defaultMaxAge = 2 * time.Hour
	minKeyBytes   = 32
)

// CSRF issues and verifies session-bound tokens.
type CSRF struct {
	key    []byte
	maxAge time.Duration
	now    func() time.Time
}

// NewCSRF decodes a base64url key.  An empty key yields a random one and a
// warning; a short or malformed key is an error.
func NewCSRF(encodedKey string, maxAge time.Duration) (*CSRF, error) {
	if maxAge <= 0 {
		maxAge = defaultMaxAge
	}
	c := &CSRF{maxAge: maxAge, now: time.Now}

	if encodedKey == "" {
		c.key = make([]byte, minKeyBytes)
		if _, err := rand.Read(c.key); err != nil {
			return nil, fmt.Errorf("csrf: random key: %w", err)
		}
		zap.S().Warnw("form.csrf_key not set; using an ephemeral key")
		return c, nil
	}

	key, err := base64.RawURLEncoding.DecodeString(encodedKey)
	if err != nil {
		return nil, fmt.Errorf("csrf: decode key: %w", err)
	}
	if len(key) < minKeyBytes {
		return nil, fmt.Errorf("csrf: key must be at least %d bytes, got %d", minKeyBytes, len(key))
	}
	c.key = key
	return c, nil
}

// Generate creates a token for session sid.
func (c *CSRF) Generate(sid string) (string, error) {
	nonce := make([]byte, nonceBytes)
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}

	ts := make([]byte, 8)
	binary.BigEndian.PutUint64(ts, uint64(c.now().UnixMicro()))

	buf := make([]byte, 0, tokenBytes)
	buf = append(buf, nonce...)
	buf = append(buf, ts...)
	buf = append(buf, c.sign(nonce, ts, sid)...)

	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Verify reports whether tok was issued for sid and is within the age
// window.
func (c *CSRF) Verify(sid, tok string) bool {
	raw, err := base64.RawURLEncoding.DecodeString(tok)
	if err != nil || len(raw) != tokenBytes {
		return false
	}

	nonce := raw[:nonceBytes]
	tsBytes := raw[nonceBytes : nonceBytes+8]
	sig := raw[nonceBytes+8:]

	issued := time.UnixMicro(int64(binary.BigEndian.Uint64(tsBytes)))
	now := c.now()
	if now.Sub(issued) > c.maxAge || issued.Sub(now) > time.Minute {
		return false // expired or from the future
	}

	return hmac.Equal(sig, c.sign(nonce, tsBytes, sid))
}

func (c *CSRF) sign(nonce, ts []byte, sid string) []byte {
	mac := hmac.New(sha256.New, c.key)
	mac.Write(nonce)
	mac.Write(ts)
	mac.Write([]byte(sid))
	return mac.Sum(nil)
}
