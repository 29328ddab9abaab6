package gateway

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewCORSHandler(t *testing.T) {
	logger := discardLogger()

	assert.Nil(t, NewCORSHandler(false, "https://app.example.com", logger))
	assert.Nil(t, NewCORSHandler(true, "", logger))
	assert.Nil(t, NewCORSHandler(true, " , ", logger))
	assert.NotNil(t, NewCORSHandler(true, "https://app.example.com,https://admin.example.com", logger))
}

func TestParseOrigins(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{name: "Empty", input: "", expected: nil},
		{name: "Single", input: "https://app.example.com", expected: []string{"https://app.example.com"}},
		{
			name:     "TrimsWhitespace",
			input:    " https://app.example.com , https://admin.example.com ",
			expected: []string{"https://app.example.com", "https://admin.example.com"},
		},
		{name: "DropsBlanks", input: "https://app.example.com,,", expected: []string{"https://app.example.com"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseOrigins(tt.input))
		})
	}
}

func TestOriginAllowed(t *testing.T) {
	listed := map[string]struct{}{"https://app.example.com": {}}

	tests := []struct {
		name     string
		origin   string
		allowed  map[string]struct{}
		expected bool
	}{
		{name: "NoOrigin", origin: "", allowed: listed, expected: true},
		{name: "Listed", origin: "https://app.example.com", allowed: listed, expected: true},
		{name: "ListedDifferentCase", origin: "https://APP.example.com", allowed: listed, expected: true},
		{name: "SameHostHTTP", origin: "http://example.com", allowed: listed, expected: true},
		{name: "SameHostHTTPS", origin: "https://example.com", allowed: listed, expected: true},
		{name: "Unlisted", origin: "https://evil.example.com", allowed: listed, expected: false},
		{name: "Wildcard", origin: "https://evil.example.com", allowed: map[string]struct{}{"*": {}}, expected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/v1/tasks", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}

			assert.Equal(t, tt.expected, originAllowed(req, tt.allowed))
		})
	}
}
