package domain

import (
	"testing"
	"time"
)

func TestIntervalDuration(t *testing.T) {
	tests := []struct {
		name        string
		interval    string
		expected    time.Duration
		expectError bool
	}{
		{name: "one minute", interval: "1", expected: time.Minute},
		{name: "five minutes", interval: "5", expected: 5 * time.Minute},
		{name: "one hour", interval: "60", expected: time.Hour},
		{name: "four hours", interval: "240", expected: 4 * time.Hour},
		{name: "non-numeric", interval: "abc", expectError: true},
		{name: "empty", interval: "", expectError: true},
		{name: "zero", interval: "0", expectError: true},
		{name: "negative", interval: "-5", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := IntervalDuration(tt.interval)

			if tt.expectError {
				if err == nil {
					t.Error("Expected error but got none")
				}
				return
			}

			if err != nil {
				t.Errorf("Unexpected error: %v", err)
				return
			}
			if d != tt.expected {
				t.Errorf("Expected duration %v, got %v", tt.expected, d)
			}
		})
	}
}
