package phone

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonical(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"already canonical", "919876500000", "919876500000"},
		{"plus prefix", "+919876500000", "919876500000"},
		{"formatted", "+91 98765-00000", "919876500000"},
		{"parens", "(91)9876500000", "919876500000"},
		{"national ten digit", "9876500000", "919876500000"},
		{"whitespace", "  919876500000\n", "919876500000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Canonical(tt.raw))
		})
	}
}

func TestValid(t *testing.T) {
	assert.True(t, Valid("919876500000"))
	assert.True(t, Valid("9876500000"))
	assert.False(t, Valid("12345"))
	assert.False(t, Valid("91abc6500000"))
	assert.False(t, Valid("9198765000001234567"))
	assert.False(t, Valid(""))
}
