package filestack

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockSigner struct {
	mock.Mock
}

func (m *mockSigner) Policy() string {
	return m.Called().String(0)
}

func (m *mockSigner) Signature() string {
	return m.Called().String(0)
}

func (m *mockSigner) SignURL(url string) string {
	return m.Called(url).String(0)
}

func TestCreateURL(t *testing.T) {
	tests := []struct {
		name     string
		action   Action
		opts     Options
		expected string
	}{
		{
			name:     "delete",
			action:   ActionDelete,
			opts:     Options{{Key: "handle", Value: "h1"}},
			expected: "https://www.filestackapi.com/api/file/h1?key=KEY123",
		},
		{
			name:     "overwrite",
			action:   ActionOverwrite,
			opts:     Options{{Key: "handle", Value: "h1"}},
			expected: "https://www.filestackapi.com/api/file/h1?key=KEY123",
		},
		{
			name:     "transform without security",
			action:   ActionTransform,
			opts:     Options{{Key: "tasks_str", Value: "resize=w:100"}, {Key: "handle", Value: "h1"}},
			expected: "https://cdn.filestackcontent.com/KEY123/resize=w:100/h1",
		},
		{
			name:     "upload with location and filtered options",
			action:   ActionUpload,
			opts:     Options{{Key: "filename", Value: "a.png"}, {Key: "location", Value: "GCS"}, {Key: "evil", Value: "x"}},
			expected: "https://www.filestackapi.com/api/store/GCS?key=KEY123&filename=a.png",
		},
		{
			name:     "upload defaults to S3",
			action:   ActionUpload,
			opts:     Options{{Key: "filename", Value: "a.png"}},
			expected: "https://www.filestackapi.com/api/store/S3?key=KEY123&filename=a.png",
		},
		{
			name:   "upload keeps option order",
			action: ActionUpload,
			opts: Options{
				{Key: "access", Value: "public"},
				{Key: "path", Value: "/photos/"},
				{Key: "filename", Value: "a.png"},
				{Key: "base64decode", Value: true},
			},
			expected: "https://www.filestackapi.com/api/store/S3?key=KEY123&access=public&path=/photos/&filename=a.png&base64decode=true",
		},
		{
			name:     "upload without options",
			action:   ActionUpload,
			expected: "https://www.filestackapi.com/api/store/S3?key=KEY123",
		},
		{
			name:     "unknown action",
			action:   Action("download"),
			opts:     Options{{Key: "handle", Value: "h1"}},
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			url, err := CreateURL(tt.action, "KEY123", tt.opts, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, url)
		})
	}
}

func TestCreateURL_CaseInsensitiveOptions(t *testing.T) {
	lower, err := CreateURL(ActionDelete, "KEY123", Options{{Key: "handle", Value: "abc"}}, nil)
	require.NoError(t, err)

	mixed, err := CreateURL(ActionDelete, "KEY123", Options{{Key: "Handle", Value: "abc"}}, nil)
	require.NoError(t, err)

	assert.Equal(t, lower, mixed)

	upload, err := CreateURL(ActionUpload, "KEY123", Options{{Key: "FileName", Value: "a.png"}, {Key: "LOCATION", Value: "azure"}}, nil)
	require.NoError(t, err)
	assert.Equal(t, "https://www.filestackapi.com/api/store/azure?key=KEY123&filename=a.png", upload)
}

func TestCreateURL_DoesNotMutateOptions(t *testing.T) {
	opts := Options{{Key: "Handle", Value: "abc"}}
	_, err := CreateURL(ActionDelete, "KEY123", opts, nil)
	require.NoError(t, err)
	assert.Equal(t, "Handle", opts[0].Key)
}

func TestCreateURL_MissingOptions(t *testing.T) {
	tests := []struct {
		name    string
		action  Action
		opts    Options
		wantKey string
	}{
		{"delete without handle", ActionDelete, nil, OptHandle},
		{"overwrite with empty handle", ActionOverwrite, Options{{Key: "handle", Value: ""}}, OptHandle},
		{"transform without tasks", ActionTransform, Options{{Key: "handle", Value: "h1"}}, OptTasksStr},
		{"transform without handle", ActionTransform, Options{{Key: "tasks_str", Value: "flip"}}, OptHandle},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			url, err := CreateURL(tt.action, "KEY123", tt.opts, nil)
			require.Error(t, err)
			assert.Empty(t, url)
			assert.True(t, errors.Is(err, ErrMissingOption))

			var optErr *OptionError
			require.True(t, errors.As(err, &optErr))
			assert.Equal(t, tt.action, optErr.Action)
			assert.Equal(t, tt.wantKey, optErr.Key)
		})
	}
}

func TestCreateURL_TransformEmbedsSecurity(t *testing.T) {
	signer := new(mockSigner)
	signer.On("Policy").Return("P")
	signer.On("Signature").Return("S")

	url, err := CreateURL(ActionTransform, "KEY123", Options{
		{Key: "tasks_str", Value: "resize=w:100"},
		{Key: "handle", Value: "h1"},
	}, signer)
	require.NoError(t, err)

	assert.Equal(t, "https://cdn.filestackcontent.com/KEY123/security=policy:P,signature:S/resize=w:100/h1", url)
	signer.AssertNotCalled(t, "SignURL", mock.Anything)
}

func TestCreateURL_SignsWithSigner(t *testing.T) {
	unsigned := "https://www.filestackapi.com/api/file/h1?key=KEY123"

	signer := new(mockSigner)
	signer.On("SignURL", unsigned).Return(unsigned + "&signature=S&policy=P")

	url, err := CreateURL(ActionDelete, "KEY123", Options{{Key: "handle", Value: "h1"}}, signer)
	require.NoError(t, err)

	assert.Equal(t, unsigned+"&signature=S&policy=P", url)
	signer.AssertNumberOfCalls(t, "SignURL", 1)
	signer.AssertNotCalled(t, "Policy")
}

func TestCreateURL_UnknownActionWithSigner(t *testing.T) {
	signer := new(mockSigner)
	signer.On("SignURL", "").Return("?signature=S&policy=P")

	url, err := CreateURL(Action("bogus"), "KEY123", nil, signer)
	require.NoError(t, err)
	assert.Equal(t, "?signature=S&policy=P", url)
	signer.AssertExpectations(t)
}

func TestURLBuilderWithBase(t *testing.T) {
	b := NewURLBuilderWithBase("http://127.0.0.1:8080/api/", "")

	url, err := b.CreateURL(ActionDelete, "KEY123", Options{{Key: "handle", Value: "h1"}}, nil)
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:8080/api/file/h1?key=KEY123", url)
	assert.Equal(t, ProcessingURL, b.ProcessingBaseURL)
}

func TestParseAction(t *testing.T) {
	for _, a := range Actions {
		got, err := ParseAction(string(a))
		require.NoError(t, err)
		assert.Equal(t, a, got)
	}

	got, err := ParseAction(" Upload ")
	require.NoError(t, err)
	assert.Equal(t, ActionUpload, got)

	_, err = ParseAction("download")
	assert.ErrorIs(t, err, ErrUnknownAction)
}
