package protocol

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

const (
	DefaultMaxNameLength = 50

	KeyQuit byte = 'Q'
)

const (
	ReasonGameFull         = "Game is full: no more players can join."
	ReasonMissingName      = "Sorry - you must provide player's name."
	ReasonSpectatorReplace = "You have been replaced by a new spectator."
	ReasonSpectatorQuit    = "Thanks for watching!"
	ReasonPlayerQuit       = "Thanks for playing!"
	ReasonJoinRefused      = "Join refused."
	ReasonUnknownKey       = "unknown keystroke"
	ReasonMalformed        = "malformed message"
)

var ErrMalformed = errors.New("malformed message")

// Message is one decoded inbound client message: Play, Spectate, Key or Quit.
type Message interface {
	isMessage()
}

// Play asks to join as a player. Name is empty when the client sent none.
type Play struct {
	Name string
}

type Spectate struct{}

type Key struct {
	Key byte
}

type Quit struct{}

func (Play) isMessage()     {}
func (Spectate) isMessage() {}
func (Key) isMessage()      {}
func (Quit) isMessage()     {}

// Parse decodes one inbound datagram.
func Parse(data []byte) (Message, error) {
	text := strings.TrimRight(string(data), "\r\n")

	command, rest, _ := strings.Cut(text, " ")
	switch command {
	case "PLAY":
		return Play{Name: rest}, nil

	case "SPECTATE":
		if strings.TrimSpace(rest) != "" {
			return nil, fmt.Errorf("%w: SPECTATE takes no arguments", ErrMalformed)
		}
		return Spectate{}, nil

	case "KEY":
		if len(rest) != 1 {
			return nil, fmt.Errorf("%w: KEY needs exactly one character, got %q", ErrMalformed, rest)
		}
		return Key{Key: rest[0]}, nil

	case "QUIT":
		return Quit{}, nil

	default:
		return nil, fmt.Errorf("%w: unknown command %q", ErrMalformed, command)
	}
}

func Grid(rows, cols int) string {
	return fmt.Sprintf("GRID %d %d", rows, cols)
}

func OK(letter byte) string {
	return fmt.Sprintf("OK %c", letter)
}

func Display(grid string) string {
	return "DISPLAY\n" + grid
}

func Gold(collected, purse, remaining int) string {
	return fmt.Sprintf("GOLD %d %d %d", collected, purse, remaining)
}

func QuitMessage(reason string) string {
	return "QUIT " + reason
}

func Error(reason string) string {
	return "ERROR " + reason
}

type Standing struct {
	Letter byte
	Gold   int
	Name   string
}

// GameOver formats the final leaderboard, one line per player in join order.
func GameOver(standings []Standing) string {
	var sb strings.Builder
	sb.WriteString("QUIT GAME OVER:\n")
	for _, s := range standings {
		fmt.Fprintf(&sb, "%c %10d %s\n", s.Letter, s.Gold, s.Name)
	}
	return sb.String()
}

// SanitizeName normalizes a client supplied name, truncates it to maxLen
// runes and replaces control characters with '_'. A name with nothing but
// blanks comes back empty.
func SanitizeName(name string, maxLen int) string {
	name = norm.NFC.String(name)
	if strings.TrimSpace(name) == "" {
		return ""
	}
	if maxLen <= 0 {
		maxLen = DefaultMaxNameLength
	}

	var sb strings.Builder
	n := 0
	for _, r := range name {
		if n >= maxLen {
			break
		}
		if r == utf8.RuneError || !unicode.IsGraphic(r) {
			r = '_'
		}
		sb.WriteRune(r)
		n++
	}
	return sb.String()
}
