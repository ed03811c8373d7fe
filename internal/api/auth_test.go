package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateAPIKey(t *testing.T) {
	assert.True(t, ValidateAPIKey("s3cret", "s3cret"))
	assert.False(t, ValidateAPIKey("s3cret", "other"))
	assert.False(t, ValidateAPIKey("s3cre", "s3cret"))
	assert.False(t, ValidateAPIKey("", "s3cret"))
	assert.False(t, ValidateAPIKey("", ""))
}

func TestExtractAPIKey(t *testing.T) {
	tests := []struct {
		header  string
		want    string
		wantErr string
	}{
		{"Bearer s3cret", "s3cret", ""},
		{"Bearer  padded  ", "padded", ""},
		{"", "", "missing Authorization header"},
		{"Basic abc", "", "invalid Authorization header format"},
		{"bearer s3cret", "", "invalid Authorization header format"},
		{"Bearer    ", "", "missing API key"},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/reminders", nil)
		if tt.header != "" {
			req.Header.Set("Authorization", tt.header)
		}
		got, err := ExtractAPIKey(req)
		if tt.wantErr != "" {
			assert.EqualError(t, err, tt.wantErr, tt.header)
			continue
		}
		assert.NoError(t, err, tt.header)
		assert.Equal(t, tt.want, got, tt.header)
	}
}
