package main

import (
	"testing"

	"github.com/spf13/cobra"
)

func TestSeedIsRequired(t *testing.T) {
	tests := []struct {
		name string
		cmd  *cobra.Command
		args []string
		ok   bool
	}{
		{"root", rootCmd, []string{"maps/small.txt"}, false},
		{"root with seed", rootCmd, []string{"maps/small.txt", "7"}, true},
		{"start", startCmd, []string{"maps/small.txt"}, false},
		{"start with seed", startCmd, []string{"maps/small.txt", "7"}, true},
	}

	for _, tt := range tests {
		err := tt.cmd.Args(tt.cmd, tt.args)
		if (err == nil) != tt.ok {
			t.Fatalf("%s: args %q gave error %v", tt.name, tt.args, err)
		}
	}
}

func TestParseSeed(t *testing.T) {
	seed, err := parseSeed("-42")
	if err != nil || seed != -42 {
		t.Fatalf("parseSeed(-42) = %d, %v", seed, err)
	}
	if _, err := parseSeed("soon"); err == nil {
		t.Fatalf("expected an error for a non-numeric seed")
	}
}
