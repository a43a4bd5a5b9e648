package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateInputs(t *testing.T) {
	tests := []struct {
		name     string
		user     string
		email    string
		password string
		wantErr  string
	}{
		{"valid", "Ada", "ada@example.com", "secret123", ""},
		{"blank name", "  ", "ada@example.com", "secret123", "name is required"},
		{"bad email", "Ada", "ada@", "secret123", "invalid email format"},
		{"short password", "Ada", "ada@example.com", "abc1", "at least 8"},
		{"no digit", "Ada", "ada@example.com", "secretsecret", "one letter and one number"},
		{"no letter", "Ada", "ada@example.com", "12345678", "one letter and one number"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateInputs(tt.user, tt.email, tt.password)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
