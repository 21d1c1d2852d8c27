package filestack

import (
	"fmt"
	"strings"
)

// Signer is the security credential consumed by CreateURL. security.Security
// implements it.
type Signer interface {
	Policy() string
	Signature() string
	// SignURL appends the signing query parameters to url.
	SignURL(url string) string
}

// URLBuilder creates request URLs for the Filestack REST and processing APIs.
type URLBuilder struct {
	APIBaseURL        string // e.g. "https://www.filestackapi.com/api"
	ProcessingBaseURL string // e.g. "https://cdn.filestackcontent.com"
}

var defaultBuilder = NewURLBuilder()

// NewURLBuilder returns a builder pointed at the production Filestack endpoints.
func NewURLBuilder() *URLBuilder {
	return &URLBuilder{
		APIBaseURL:        APIURL,
		ProcessingBaseURL: ProcessingURL,
	}
}

// NewURLBuilderWithBase returns a builder with custom base URLs. Empty values fall
// back to the production endpoints.
func NewURLBuilderWithBase(apiBaseURL, processingBaseURL string) *URLBuilder {
	b := NewURLBuilder()
	if apiBaseURL != "" {
		b.APIBaseURL = strings.TrimSuffix(apiBaseURL, "/")
	}
	if processingBaseURL != "" {
		b.ProcessingBaseURL = strings.TrimSuffix(processingBaseURL, "/")
	}
	return b
}

// CreateURL builds the URL for action using the production endpoints.
// See URLBuilder.CreateURL.
func CreateURL(action Action, apiKey string, opts Options, security Signer) (string, error) {
	return defaultBuilder.CreateURL(action, apiKey, opts, security)
}

// CreateURL builds the URL for action.
//
// Option keys are case-insensitive. delete and overwrite require "handle";
// transform requires "handle" and "tasks_str". An unknown action yields an empty
// URL rather than an error.
//
// When security is non-nil the URL is signed: transform embeds the policy and
// signature as a path segment, every other action goes through security.SignURL.
func (b *URLBuilder) CreateURL(action Action, apiKey string, opts Options, security Signer) (string, error) {
	opts = opts.Normalize()

	var url string
	switch action {
	case ActionDelete, ActionOverwrite:
		handle, err := required(action, opts, OptHandle)
		if err != nil {
			return "", err
		}
		url = fmt.Sprintf("%s/file/%s?key=%s", b.APIBaseURL, handle, apiKey)

	case ActionTransform:
		tasks, err := required(action, opts, OptTasksStr)
		if err != nil {
			return "", err
		}
		handle, err := required(action, opts, OptHandle)
		if err != nil {
			return "", err
		}

		var securityStr string
		if security != nil {
			securityStr = fmt.Sprintf("/security=policy:%s,signature:%s",
				security.Policy(), security.Signature())
		}

		// Signed inline; skip SignURL below.
		return fmt.Sprintf("%s/%s%s/%s/%s",
			b.ProcessingBaseURL, apiKey, securityStr, tasks, handle), nil

	case ActionUpload:
		location, ok := opts.Lookup(OptLocation)
		if !ok {
			location = DefaultLocation
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "%s/store/%s?key=%s", b.APIBaseURL, location, apiKey)
		for _, opt := range opts.Filter(uploadOptions) {
			fmt.Fprintf(&sb, "&%s=%s", opt.Key, formatValue(opt.Value))
		}
		url = sb.String()
	}

	if security != nil {
		url = security.SignURL(url)
	}
	return url, nil
}

func required(action Action, opts Options, key string) (string, error) {
	v, ok := opts.Lookup(key)
	if !ok || v == "" {
		return "", &OptionError{Action: action, Key: key, Err: ErrMissingOption}
	}
	return v, nil
}
