// Package numerator provides domain contracts for invoice numbering.
package numerator

import "fmt"

// Config holds numbering configuration.
type Config struct {
	// Prefix added to all numbers (e.g., "INV")
	Prefix string

	// PadWidth is the minimum number width (default 5)
	PadWidth int
}

// DefaultConfig returns INV-00001 style numbering.
func DefaultConfig() Config {
	return Config{
		Prefix:   "INV",
		PadWidth: 5,
	}
}

// Format renders counter value n, e.g. INV-00042.
func (c Config) Format(n int64) string {
	width := c.PadWidth
	if width <= 0 {
		width = 5
	}
	return fmt.Sprintf("%s-%0*d", c.Prefix, width, n)
}
