package dto

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSuccessResponse(t *testing.T) {
	resp := NewSuccessResponse(map[string]string{"id": "abc"})

	assert.True(t, resp.Success)
	assert.Nil(t, resp.Error)

	data, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":true,"data":{"id":"abc"}}`, string(data))
}

func TestNewErrorResponse(t *testing.T) {
	resp := NewErrorResponse(ErrCodeNotFound, "Template not found")

	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeNotFound, resp.Error.Code)
	assert.Equal(t, "Template not found", resp.Error.Message)

	// The data field is omitted entirely on errors.
	data, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.NotContains(t, string(data), `"data"`)
}

func TestNewErrorResponseWithRequestID(t *testing.T) {
	resp := NewErrorResponseWithRequestID(ErrCodeValidation, "name is required", "req-42")

	require.NotNil(t, resp.Error)
	assert.Equal(t, "req-42", resp.Error.RequestID)

	// Without a request id the field stays out of the payload.
	bare, err := json.Marshal(NewErrorResponse(ErrCodeValidation, "name is required"))
	require.NoError(t, err)
	assert.NotContains(t, string(bare), "request_id")
}
