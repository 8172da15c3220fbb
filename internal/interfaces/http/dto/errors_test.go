package dto

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code string
		want int
	}{
		{ErrCodeValidation, http.StatusBadRequest},
		{ErrCodeNotFound, http.StatusNotFound},
		{ErrCodeAlreadyExists, http.StatusConflict},
		{ErrCodeInvalidState, http.StatusUnprocessableEntity},
		{ErrCodeConversion, http.StatusUnprocessableEntity},
		{ErrCodePersistence, http.StatusInternalServerError},
		{ErrCodeInvalidJSON, http.StatusBadRequest},
		{"ERR_NEVER_SEEN", http.StatusInternalServerError},
		{"", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.want, GetHTTPStatus(tt.code))
		})
	}
}

func TestNormalizeErrorCode(t *testing.T) {
	tests := []struct {
		code string
		want string
	}{
		{"NOT_FOUND", ErrCodeNotFound},
		{"INVALID_STATE", ErrCodeInvalidState},
		{"VALIDATION_ERROR", ErrCodeValidation},
		{"INTERNAL_ERROR", ErrCodeInternal},
		// Already-normalized and unknown codes pass through untouched.
		{ErrCodeNotFound, ErrCodeNotFound},
		{"SOMETHING_ELSE", "SOMETHING_ELSE"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeErrorCode(tt.code))
		})
	}
}
