package security

import "errors"

var (
	// ErrNoSecret is returned when creating a policy without an application secret
	ErrNoSecret = errors.New("security: no secret configured")

	// ErrMalformedPolicy is returned when a policy cannot be decoded
	ErrMalformedPolicy = errors.New("security: malformed policy")

	// ErrInvalidSignature is returned when the signature does not match the policy
	ErrInvalidSignature = errors.New("security: invalid signature")

	// ErrExpired is returned when the policy expiry has passed
	ErrExpired = errors.New("security: policy has expired")
)

// IsAuthError returns true if the error is a verification error
func IsAuthError(err error) bool {
	return errors.Is(err, ErrMalformedPolicy) ||
		errors.Is(err, ErrInvalidSignature) ||
		errors.Is(err, ErrExpired)
}
