package domain

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/allisson/secpolicy/internal/errors"
)

func TestRequestContext_IsStateChanging(t *testing.T) {
	for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete} {
		assert.True(t, RequestContext{Method: method}.IsStateChanging(), method)
	}
	for _, method := range []string{http.MethodGet, http.MethodHead, http.MethodOptions} {
		assert.False(t, RequestContext{Method: method}.IsStateChanging(), method)
	}
}

func TestRequestContext_Subject(t *testing.T) {
	request := RequestContext{
		Identity:  "192.0.2.1",
		SessionID: "s1",
		RequestID: "r1",
		Method:    http.MethodPost,
		Path:      "/v1/fields/encrypt",
		UserAgent: "ua",
	}

	subject := request.Subject()
	assert.Equal(t, "192.0.2.1", subject.Identity)
	assert.Equal(t, "s1", subject.SessionID)
	assert.Equal(t, "/v1/fields/encrypt", subject.Path)
}

func TestScreener_Screen(t *testing.T) {
	screener := NewScreener(DefaultBlockedPatterns(), DefaultMaxInputLength)

	tests := []struct {
		value string
		rule  string
	}{
		{`<script>alert(1)</script>`, "script_tag"},
		{`<SCRIPT src=x>`, "script_tag"},
		{`JavaScript:alert(1)`, "javascript_uri"},
		{`<img src=x onerror=alert(1)>`, "inline_handler"},
		{`<body onload = "x()">`, "inline_handler"},
		{`../../etc/passwd`, "path_traversal"},
		{`..\..\windows`, "path_traversal"},
		{`<iframe src=x>`, "iframe_tag"},
		{`<object data=x>`, "object_tag"},
		{`<embed src=x>`, "embed_tag"},
		{strings.Repeat("a", DefaultMaxInputLength+1), "max_length"},
	}

	for _, tt := range tests {
		t.Run(tt.rule, func(t *testing.T) {
			err := screener.Screen(map[string]string{"comment": tt.value})
			var suspicious *SuspiciousInputError
			require.ErrorAs(t, err, &suspicious)
			assert.Equal(t, "comment", suspicious.Field)
			assert.Equal(t, tt.rule, suspicious.Rule)
			assert.ErrorIs(t, err, ErrSuspiciousInput)
			assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
			assert.NotContains(t, err.Error(), tt.value)
		})
	}
}

func TestScreener_AcceptsPlainInput(t *testing.T) {
	screener := NewScreener(DefaultBlockedPatterns(), DefaultMaxInputLength)

	err := screener.Screen(map[string]string{
		"name":    "Ana Souza",
		"email":   "ana@example.com",
		"message": "Meeting at 10:30, bring the one-pager. Version 1.2 is final.",
		"url":     "https://example.com/docs/intro",
	})
	assert.NoError(t, err)
	assert.NoError(t, screener.Screen(nil))
}

func TestScreener_DeterministicOrder(t *testing.T) {
	screener := NewScreener(DefaultBlockedPatterns(), 0)

	err := screener.Screen(map[string]string{"zeta": "<script>", "alpha": "../x"})
	var suspicious *SuspiciousInputError
	require.ErrorAs(t, err, &suspicious)
	assert.Equal(t, "alpha", suspicious.Field)
	assert.Equal(t, "suspicious_input", suspicious.ErrorCode())
}
