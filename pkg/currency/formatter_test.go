package currency

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatUSD(t *testing.T) {
	tests := []struct {
		amount float64
		want   string
	}{
		{0, "$0"},
		{999, "$999"},
		{1234.4, "$1,234"},
		{1234.5, "$1,235"},
		{1234567, "$1,234,567"},
		{-2500, "-$2,500"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatUSD(tt.amount))
	}
}

func TestParseUSD(t *testing.T) {
	tests := []struct {
		in     string
		want   float64
		wantOK bool
	}{
		{"$1,234", 1234, true},
		{"US$980", 980, true},
		{" 1234.50 ", 1234.5, true},
		{"$0", 0, true},
		{"", 0, false},
		{"$", 0, false},
		{"Price unavailable", 0, false},
		{"-$50", 0, false},
		{"1.2.3", 0, false},
		{"Inf", 0, false},
		{"NaN", 0, false},
		{"€500", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseUSD(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.InDelta(t, tt.want, got, 1e-9)
			}
		})
	}
}
