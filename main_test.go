package main

import (
	"slices"
	"testing"
)

func TestSplitMode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		args     []string
		wantMode string
		wantRest []string
	}{
		{name: "equals form", args: []string{"--mode=order-service", "--port=3000"}, wantMode: "order-service", wantRest: []string{"--port=3000"}},
		{name: "separate value", args: []string{"--port", "3000", "--mode", "notification-subscriber"}, wantMode: "notification-subscriber", wantRest: []string{"--port", "3000"}},
		{name: "missing", args: []string{"--port=3000"}, wantMode: "", wantRest: []string{"--port=3000"}},
		{name: "dangling flag", args: []string{"--mode"}, wantMode: "", wantRest: []string{"--mode"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			mode, rest := splitMode(tt.args)
			if mode != tt.wantMode {
				t.Fatalf("expected mode %q, got %q", tt.wantMode, mode)
			}
			if !slices.Equal(rest, tt.wantRest) {
				t.Fatalf("expected rest %v, got %v", tt.wantRest, rest)
			}
		})
	}
}
