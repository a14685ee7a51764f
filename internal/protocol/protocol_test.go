package protocol

import (
	"errors"
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		input string
		want  Message
	}{
		{"PLAY alice", Play{Name: "alice"}},
		{"PLAY Jo Smith", Play{Name: "Jo Smith"}},
		{"PLAY", Play{Name: ""}},
		{"PLAY \n", Play{Name: ""}},
		{"SPECTATE", Spectate{}},
		{"SPECTATE\r\n", Spectate{}},
		{"KEY h", Key{Key: 'h'}},
		{"KEY Q", Key{Key: 'Q'}},
		{"QUIT", Quit{}},
	}

	for _, tt := range tests {
		got, err := Parse([]byte(tt.input))
		if err != nil {
			t.Fatalf("Parse(%q) failed: %v", tt.input, err)
		}
		if got != tt.want {
			t.Fatalf("Parse(%q) = %#v, want %#v", tt.input, got, tt.want)
		}
	}
}

func TestParseMalformed(t *testing.T) {
	for _, input := range []string{"", "HELLO", "play alice", "KEY", "KEY hj", "SPECTATE me"} {
		if _, err := Parse([]byte(input)); !errors.Is(err, ErrMalformed) {
			t.Fatalf("Parse(%q) expected ErrMalformed, got %v", input, err)
		}
	}
}

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		max   int
		want  string
	}{
		{"plain", "alice", 50, "alice"},
		{"blank", "   ", 50, ""},
		{"empty", "", 50, ""},
		{"control", "a\x01b", 50, "a_b"},
		{"tab replaced", "a\tb", 50, "a_b"},
		{"only tabs", "\t\t", 50, ""},
		{"truncated", "abcdef", 3, "abc"},
		{"default length", strings.Repeat("x", 60), 0, strings.Repeat("x", DefaultMaxNameLength)},
		{"composed", "é", 50, "é"},
		{"invalid utf8", "a\xffb", 50, "a_b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeName(tt.input, tt.max); got != tt.want {
				t.Fatalf("SanitizeName(%q, %d) = %q, want %q", tt.input, tt.max, got, tt.want)
			}
		})
	}
}

func TestGameOverFormat(t *testing.T) {
	got := GameOver([]Standing{
		{Letter: 'A', Gold: 120, Name: "alice"},
		{Letter: 'B', Gold: 7, Name: "bob"},
	})

	want := "QUIT GAME OVER:\n" +
		"A        120 alice\n" +
		"B          7 bob\n"
	if got != want {
		t.Fatalf("unexpected report:\n%q\nwant:\n%q", got, want)
	}
}

func TestOutboundFormats(t *testing.T) {
	checks := map[string]string{
		Grid(21, 79):                "GRID 21 79",
		OK('C'):                     "OK C",
		Gold(4, 10, 236):            "GOLD 4 10 236",
		Display("+-+\n"):            "DISPLAY\n+-+\n",
		QuitMessage(ReasonGameFull): "QUIT Game is full: no more players can join.",
		Error(ReasonUnknownKey):     "ERROR unknown keystroke",
	}
	for got, want := range checks {
		if got != want {
			t.Fatalf("got %q, want %q", got, want)
		}
	}
}
