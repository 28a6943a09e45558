package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword(t *testing.T) {
	hashService := NewHashService(bcrypt.MinCost)

	tests := []struct {
		name        string
		password    string
		expectError error
	}{
		{
			name:     "Valid password",
			password: "securepassword",
		},
		{
			name:        "Empty password",
			password:    "",
			expectError: ErrWeakPassword,
		},
		{
			name:        "Too short",
			password:    "abc",
			expectError: ErrWeakPassword,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hashedPassword, err := hashService.HashPassword(tt.password)
			if tt.expectError != nil {
				assert.ErrorIs(t, err, tt.expectError)
				assert.Empty(t, hashedPassword)
			} else {
				assert.NoError(t, err)
				assert.NotEqual(t, tt.password, hashedPassword)
			}
		})
	}
}

func TestComparePassword(t *testing.T) {
	hashService := NewHashService(bcrypt.MinCost)
	hashed, err := hashService.HashPassword("securepassword")
	assert.NoError(t, err)

	tests := []struct {
		name        string
		password    string
		hashed      string
		expectMatch bool
	}{
		{"Matching password", "securepassword", hashed, true},
		{"Wrong password", "wrongpassword", hashed, false},
		{"Garbage hash", "securepassword", "not-a-hash", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expectMatch, hashService.ComparePassword(tt.hashed, tt.password))
		})
	}
}

func TestNewHashServiceCostFallback(t *testing.T) {
	assert.Equal(t, bcrypt.DefaultCost, NewHashService(100).cost)
	assert.Equal(t, bcrypt.MinCost, NewHashService(bcrypt.MinCost).cost)
}
