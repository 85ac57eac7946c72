package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVerifyAdminPIN(t *testing.T) {
	tests := []struct {
		name       string
		supplied   string
		configured string
		want       bool
	}{
		{"match", "1234", "1234", true},
		{"mismatch", "1235", "1234", false},
		{"prefix", "123", "1234", false},
		{"empty supplied", "", "1234", false},
		{"empty configured", "1234", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, VerifyAdminPIN(tt.supplied, tt.configured))
		})
	}
}
