package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"strconv"
	"strings"
	"time"
)

var (
	ErrMalformedToken = errors.New("malformed download token")
	ErrBadSignature   = errors.New("download token signature mismatch")
	ErrTokenExpired   = errors.New("download token expired")
	ErrSignerDisabled = errors.New("download signing secret missing")
)

// SignedURLSigner issues download tokens of the form base64(id|expiry|path).base64(hmac).
// The export id and path never need a database lookup to be trusted.
type SignedURLSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewSignedURLSigner(secret string, ttl time.Duration) *SignedURLSigner {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SignedURLSigner{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Generate signs a link to relPath for exportID, valid for the signer's TTL.
func (s *SignedURLSigner) Generate(exportID, relPath string) (string, time.Time, error) {
	if len(s.secret) == 0 {
		return "", time.Time{}, ErrSignerDisabled
	}
	if exportID == "" || relPath == "" || strings.Contains(exportID, "|") {
		return "", time.Time{}, ErrMalformedToken
	}
	expiresAt := s.now().Add(s.ttl).Truncate(time.Second)
	payload := exportID + "|" + strconv.FormatInt(expiresAt.Unix(), 10) + "|" + relPath
	token := encode([]byte(payload)) + "." + encode(s.mac([]byte(payload)))
	return token, expiresAt, nil
}

// Parse checks the signature and, unless allowExpired, the expiry.
func (s *SignedURLSigner) Parse(token string, allowExpired bool) (exportID, relPath string, expiresAt time.Time, err error) {
	body, sig, ok := strings.Cut(token, ".")
	if !ok {
		return "", "", time.Time{}, ErrMalformedToken
	}
	payload, err := decode(body)
	if err != nil {
		return "", "", time.Time{}, ErrMalformedToken
	}
	given, err := decode(sig)
	if err != nil || !hmac.Equal(given, s.mac(payload)) {
		return "", "", time.Time{}, ErrBadSignature
	}
	fields := strings.SplitN(string(payload), "|", 3)
	if len(fields) != 3 {
		return "", "", time.Time{}, ErrMalformedToken
	}
	unix, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return "", "", time.Time{}, ErrMalformedToken
	}
	expiresAt = time.Unix(unix, 0)
	if !allowExpired && s.now().After(expiresAt) {
		return "", "", time.Time{}, ErrTokenExpired
	}
	return fields[0], fields[2], expiresAt, nil
}

func (s *SignedURLSigner) mac(payload []byte) []byte {
	h := hmac.New(sha256.New, s.secret)
	h.Write(payload)
	return h.Sum(nil)
}

func encode(b []byte) string { return base64.RawURLEncoding.EncodeToString(b) }

func decode(s string) ([]byte, error) { return base64.RawURLEncoding.DecodeString(s) }
