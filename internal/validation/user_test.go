package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidatePassword(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"Valid", "SecurePass12", false},
		{"Exactly Min Length", "abcdefg1", false},
		{"Exactly Max Length", strings.Repeat("b", 71) + "1", false},
		{"Too Short", "abc1", true},
		{"Too Long", strings.Repeat("b", 72) + "1", true},
		{"No Letter", "1234567890", true},
		{"No Digit", "SecurePassword", true},
		{"Unicode Letters", "Ångström123", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateUsername(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		username string
		wantErr  bool
	}{
		{"Valid", "test_user123", false},
		{"Too Short", "tu", true},
		{"Too Long", strings.Repeat("a", 31), true},
		{"Illegal Chars", "user@123", true},
		{"Starts Dash", "-user", true},
		{"Ends Underscore", "user_", true},
		{"Starts Underscore", "_user", true},
		{"Ends Dash", "user-", true},
		{"Inner Dash", "jane-doe", false},
		{"Inner Underscore", "jane_doe", false},
		{"Minimum Length", "abc", false},
		{"Maximum Length", strings.Repeat("a", 30), false},
		{"Space", "jane doe", true},
		{"Non ASCII Letter", "josé", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUsername(tt.username)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
