package validate_test

import (
	"testing"

	"github.com/ErlanBelekov/charon/internal/validate"
	"github.com/stretchr/testify/assert"
)

func TestUsername(t *testing.T) {
	tests := []struct {
		name  string
		input string
		ok    bool
	}{
		{"lowercase alnum", "alice1", true},
		{"mixed case", "AliceSmith", true},
		{"digits only", "12345", true},
		{"empty", "", false},
		{"underscore", "alice_1", false},
		{"space", "alice 1", false},
		{"trailing newline", "alice\n", false},
		{"unicode letter", "alicé", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := validate.Username(tt.input)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.input, got, "valid input must be returned unchanged")
			} else {
				assert.Empty(t, got)
			}
		})
	}
}

func TestEmail(t *testing.T) {
	tests := []struct {
		name  string
		input string
		ok    bool
	}{
		{"plain", "a@example.com", true},
		{"upper case", "Alice@Example.COM", true},
		{"dotted local part", "first.last@example.org", true},
		{"special local chars", "a+b~c@example.net", true},
		{"subdomain", "a@mail.example.co.uk", true},
		{"two letter tld", "a@example.de", true},
		{"whitelisted long tld", "a@example.museum", true},
		{"ipv4 literal", "root@192.168.0.1", true},
		{"with port", "a@example.com:2525", true},
		{"empty", "", false},
		{"missing at", "example.com", false},
		{"missing domain", "a@", false},
		{"unknown long tld", "a@example.website", false},
		{"leading dot in local", ".a@example.com", false},
		{"double dot in local", "a..b@example.com", false},
		{"port too long", "a@example.com:123456", false},
		{"space", "a b@example.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := validate.Email(tt.input)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.input, got)
			}
		})
	}
}

func TestPassword(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		confirm string
		ok      bool
	}{
		{"matching", "Secret1", "Secret1", true},
		{"empty", "", "", false},
		{"mismatch", "Secret1", "Secret2", false},
		{"no trimming", "Secret1 ", "Secret1", false},
		{"case sensitive", "secret1", "Secret1", false},
		{"whitespace only is allowed", " ", " ", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := validate.Password(tt.raw, tt.confirm)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.raw, got)
			}
		})
	}
}
