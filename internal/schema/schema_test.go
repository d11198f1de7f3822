package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	s := Object(map[string]Property{
		"path":    String("file path"),
		"content": String("file content"),
	}, "path")

	tests := []struct {
		name   string
		input  map[string]any
		field  string
		reason string
	}{
		{
			name:  "valid",
			input: map[string]any{"path": "a", "content": ""},
		},
		{
			name:  "optional field absent",
			input: map[string]any{"path": "a"},
		},
		{
			name:  "unknown fields are ignored",
			input: map[string]any{"path": "a", "extra": 1},
		},
		{
			name:   "missing required",
			input:  map[string]any{},
			field:  "path",
			reason: "missing required field",
		},
		{
			name:   "missing required reported before type errors",
			input:  map[string]any{"content": 1},
			field:  "path",
			reason: "missing required field",
		},
		{
			name:   "wrong type",
			input:  map[string]any{"path": 3.0},
			field:  "path",
			reason: "must be a string",
		},
		{
			name:   "first failing field in name order",
			input:  map[string]any{"path": true, "content": 2.0},
			field:  "content",
			reason: "must be a string",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := s.Validate(tc.input)
			if tc.field == "" {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.field, verr.Field)
			assert.Equal(t, tc.reason, verr.Reason)
		})
	}
}

func TestValidationError(t *testing.T) {
	err := Object(map[string]Property{"command": String("")}, "command").Validate(map[string]any{"command": nil})
	assert.EqualError(t, err, `invalid argument "command": must be a string`)
}
