package dispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeStatus(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected string
	}{
		{name: "already canonical", raw: "queued", expected: "queued"},
		{name: "uppercase", raw: "QUEUED", expected: "queued"},
		{name: "surrounding whitespace", raw: "  Scheduled ", expected: "scheduled"},
		{name: "hyphens fold to underscores", raw: "In-Progress", expected: "in_progress"},
		{name: "mixed", raw: " EN-ROUTE ", expected: "en_route"},
		{name: "empty", raw: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeStatus(tt.raw))
		})
	}
}
