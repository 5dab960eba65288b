package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLineTotal(t *testing.T) {
	tests := []struct {
		name  string
		qty   int64
		price string
		want  string
	}{
		{"whole", 4, "250", "1000"},
		{"fractional price", 3, "10.10", "30.3"},
		{"zero quantity", 0, "99.99", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LineTotal(tt.qty, MustMoney(tt.price))
			assert.True(t, got.Equal(MustMoney(tt.want)), "got %s", got)
		})
	}
}
