package numerator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfig_Format(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "INV-00001", cfg.Format(1))
	assert.Equal(t, "INV-12345", cfg.Format(12345))
	assert.Equal(t, "INV-123456", cfg.Format(123456))
}

func TestConfig_FormatDefaultsWidth(t *testing.T) {
	cfg := Config{Prefix: "CN"}
	assert.Equal(t, "CN-00007", cfg.Format(7))
}
