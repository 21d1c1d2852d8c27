package security

import "time"

// Option is a functional option for configuring the policy a Security signs.
type Option func(*settings)

type settings struct {
	now       func() time.Time
	expiresIn time.Duration
	expiry    time.Time
	policy    Policy
}

// WithExpiry sets an absolute expiry time. It takes precedence over WithExpiresIn.
func WithExpiry(t time.Time) Option {
	return func(s *settings) {
		s.expiry = t
	}
}

// WithExpiresIn sets the policy lifetime relative to now.
// Default is 1 hour if not specified
func WithExpiresIn(d time.Duration) Option {
	return func(s *settings) {
		s.expiresIn = d
	}
}

// WithCalls restricts the policy to the given calls. No calls means all calls.
func WithCalls(calls ...string) Option {
	return func(s *settings) {
		s.policy.Call = append([]string(nil), calls...)
	}
}

// WithHandle restricts the policy to a single file handle.
func WithHandle(handle string) Option {
	return func(s *settings) {
		s.policy.Handle = handle
	}
}

// WithURL restricts the policy to a URL pattern (regular expression).
func WithURL(url string) Option {
	return func(s *settings) {
		s.policy.URL = url
	}
}

// WithMaxSize sets the largest file in bytes the policy allows to be stored.
func WithMaxSize(n int64) Option {
	return func(s *settings) {
		s.policy.MaxSize = n
	}
}

// WithMinSize sets the smallest file in bytes the policy allows to be stored.
func WithMinSize(n int64) Option {
	return func(s *settings) {
		s.policy.MinSize = n
	}
}

// WithPath restricts storage to a path pattern.
func WithPath(path string) Option {
	return func(s *settings) {
		s.policy.Path = path
	}
}

// WithContainer restricts storage to a container pattern.
func WithContainer(container string) Option {
	return func(s *settings) {
		s.policy.Container = container
	}
}

// WithClock replaces time.Now. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(s *settings) {
		s.now = now
	}
}
