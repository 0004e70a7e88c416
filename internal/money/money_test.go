package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatBRL(t *testing.T) {
	tests := []struct {
		cents int64
		want  string
	}{
		{0, "R$ 0,00"},
		{5, "R$ 0,05"},
		{99, "R$ 0,99"},
		{100, "R$ 1,00"},
		{2550, "R$ 25,50"},
		{100000, "R$ 1.000,00"},
		{123456789, "R$ 1.234.567,89"},
		{-2550, "-R$ 25,50"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, FormatBRL(tc.cents), "cents=%d", tc.cents)
	}
}
