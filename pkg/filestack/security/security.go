// Package security creates and verifies Filestack policies and signatures.
//
// A policy is a JSON document describing what a request may do, encoded as
// URL-safe base64. The signature is the hex HMAC-SHA256 of the encoded policy,
// keyed by the application secret.
//
//	sec, err := security.New(secret,
//	    security.WithCalls(security.CallRead, security.CallConvert),
//	    security.WithExpiresIn(15*time.Minute),
//	)
//	url := sec.SignURL("https://www.filestackapi.com/api/file/abc?key=KEY")
//	// https://www.filestackapi.com/api/file/abc?key=KEY&signature=...&policy=...
package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/tendant/filestack-go/pkg/filestack"
)

// Calls a policy can grant.
const (
	CallRead        = "read"
	CallStore       = "store"
	CallPick        = "pick"
	CallStat        = "stat"
	CallWrite       = "write"
	CallWriteURL    = "writeUrl"
	CallConvert     = "convert"
	CallRemove      = "remove"
	CallRunWorkflow = "runWorkflow"
)

// DefaultExpiresIn is the policy lifetime when none is given.
const DefaultExpiresIn = time.Hour

// Policy is the set of permissions a signed request carries.
type Policy struct {
	Expiry    int64    `json:"expiry"`
	Call      []string `json:"call,omitempty"`
	Handle    string   `json:"handle,omitempty"`
	URL       string   `json:"url,omitempty"`
	MaxSize   int64    `json:"maxSize,omitempty"`
	MinSize   int64    `json:"minSize,omitempty"`
	Path      string   `json:"path,omitempty"`
	Container string   `json:"container,omitempty"`
}

// ExpiresAt returns the policy expiry as a time.
func (p Policy) ExpiresAt() time.Time {
	return time.Unix(p.Expiry, 0)
}

// Security holds an encoded policy and its signature. It implements
// filestack.Signer and is safe for concurrent use.
type Security struct {
	policy    Policy
	encoded   string
	signature string
}

var _ filestack.Signer = (*Security)(nil)

// New creates a policy from opts and signs it with secret.
func New(secret string, opts ...Option) (*Security, error) {
	if secret == "" {
		return nil, ErrNoSecret
	}

	s := &settings{
		now:       time.Now,
		expiresIn: DefaultExpiresIn,
	}
	for _, opt := range opts {
		opt(s)
	}

	policy := s.policy
	if !s.expiry.IsZero() {
		policy.Expiry = s.expiry.Unix()
	} else {
		policy.Expiry = s.now().Add(s.expiresIn).Unix()
	}

	encoded, err := EncodePolicy(policy)
	if err != nil {
		return nil, err
	}

	return &Security{
		policy:    policy,
		encoded:   encoded,
		signature: Sign(secret, encoded),
	}, nil
}

// Policy returns the URL-safe base64 encoded policy.
func (s *Security) Policy() string {
	return s.encoded
}

// Signature returns the hex HMAC-SHA256 signature of the encoded policy.
func (s *Security) Signature() string {
	return s.signature
}

// Decoded returns the policy before encoding.
func (s *Security) Decoded() Policy {
	return s.policy
}

// SignURL appends the signature and policy query parameters to url.
func (s *Security) SignURL(url string) string {
	separator := "?"
	if strings.Contains(url, "?") {
		separator = "&"
	}
	return fmt.Sprintf("%s%ssignature=%s&policy=%s", url, separator, s.signature, s.encoded)
}

// EncodePolicy serializes p as JSON and encodes it with URL-safe base64.
func EncodePolicy(p Policy) (string, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("failed to marshal policy: %w", err)
	}
	return base64.URLEncoding.EncodeToString(raw), nil
}

// DecodePolicy reverses EncodePolicy. Both padded and unpadded input is accepted.
func DecodePolicy(encoded string) (*Policy, error) {
	raw, err := base64.URLEncoding.DecodeString(encoded)
	if err != nil {
		raw, err = base64.RawURLEncoding.DecodeString(encoded)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedPolicy, err)
		}
	}

	var p Policy
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPolicy, err)
	}
	return &p, nil
}

// Sign returns the hex HMAC-SHA256 of encodedPolicy keyed by secret.
func Sign(secret, encodedPolicy string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(encodedPolicy))
	return hex.EncodeToString(h.Sum(nil))
}

// Verify checks signature against encodedPolicy and returns the decoded policy
// if it is authentic and not expired at now.
func Verify(secret, encodedPolicy, signature string, now time.Time) (*Policy, error) {
	if secret == "" {
		return nil, ErrNoSecret
	}

	expected := Sign(secret, encodedPolicy)
	// Constant-time comparison
	if !hmac.Equal([]byte(signature), []byte(expected)) {
		return nil, ErrInvalidSignature
	}

	p, err := DecodePolicy(encodedPolicy)
	if err != nil {
		return nil, err
	}

	if now.Unix() > p.Expiry {
		return p, ErrExpired
	}
	return p, nil
}

// CallsFor returns the calls a policy needs to perform action.
func CallsFor(action filestack.Action) []string {
	switch action {
	case filestack.ActionDelete:
		return []string{CallRemove}
	case filestack.ActionOverwrite:
		return []string{CallWrite}
	case filestack.ActionUpload:
		return []string{CallStore}
	case filestack.ActionTransform:
		return []string{CallRead, CallConvert}
	default:
		return nil
	}
}
