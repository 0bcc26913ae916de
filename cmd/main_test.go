package main

import (
	"os"
	"testing"
	"time"
)

func TestEnvOr(t *testing.T) {
	os.Unsetenv("TEST_ENV_OR")
	if got := envOr("TEST_ENV_OR", "fallback"); got != "fallback" {
		t.Errorf("expected fallback, got %s", got)
	}

	os.Setenv("TEST_ENV_OR", "value")
	defer os.Unsetenv("TEST_ENV_OR")
	if got := envOr("TEST_ENV_OR", "fallback"); got != "value" {
		t.Errorf("expected value, got %s", got)
	}
}

func TestEnvIntOr(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		fallback int
		expected int
	}{
		{"unset", "", 42, 42},
		{"valid", "7", 42, 7},
		{"invalid", "not-a-number", 42, 42},
		{"zero", "0", 42, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value == "" {
				os.Unsetenv("TEST_ENV_INT")
			} else {
				os.Setenv("TEST_ENV_INT", tt.value)
				defer os.Unsetenv("TEST_ENV_INT")
			}
			if got := envIntOr("TEST_ENV_INT", tt.fallback); got != tt.expected {
				t.Errorf("expected %d, got %d", tt.expected, got)
			}
		})
	}
}

func TestEnvDurationOr(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		expected time.Duration
	}{
		{"unset", "", 24 * time.Hour},
		{"valid", "30m", 30 * time.Minute},
		{"invalid", "soon", 24 * time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value == "" {
				os.Unsetenv("TEST_ENV_DURATION")
			} else {
				os.Setenv("TEST_ENV_DURATION", tt.value)
				defer os.Unsetenv("TEST_ENV_DURATION")
			}
			if got := envDurationOr("TEST_ENV_DURATION", 24*time.Hour); got != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}
