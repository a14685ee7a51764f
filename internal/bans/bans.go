package bans

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/siohaza/nuggets/internal/callbacks"
)

type Ban struct {
	Name      string    `json:"name"`
	Reason    string    `json:"reason"`
	BannedAt  time.Time `json:"banned_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Permanent bool      `json:"permanent"`
}

func (b *Ban) expired(now time.Time) bool {
	return !b.Permanent && now.After(b.ExpiresAt)
}

// List is a JSON backed set of banned player names. It plugs into the
// server's callback chain and refuses joins under a banned name.
type List struct {
	callbacks.DefaultCallbacks

	bans     map[string]*Ban
	filePath string
	logger   *slog.Logger
	mu       sync.RWMutex
}

func NewList(filePath string, logger *slog.Logger) *List {
	if logger == nil {
		logger = slog.Default()
	}
	return &List{
		bans:     make(map[string]*Ban),
		filePath: filePath,
		logger:   logger,
	}
}

func key(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Load replaces the list with the file's contents. A missing file is an
// empty list.
func (l *List) Load() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	data, err := os.ReadFile(l.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read bans file: %w", err)
	}

	var bans []*Ban
	if err := json.Unmarshal(data, &bans); err != nil {
		return fmt.Errorf("failed to parse bans file: %w", err)
	}

	now := time.Now()
	l.bans = make(map[string]*Ban)
	for _, ban := range bans {
		if ban.Name == "" || ban.expired(now) {
			continue
		}
		l.bans[key(ban.Name)] = ban
	}

	l.logger.Info("loaded bans", "path", l.filePath, "count", len(l.bans))
	return nil
}

func (l *List) IsBanned(name string) (bool, *Ban) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	ban, exists := l.bans[key(name)]
	if !exists || ban.expired(time.Now()) {
		return false, nil
	}
	return true, ban
}

// Add bans name for duration, or forever when duration is zero, and saves
// the list.
func (l *List) Add(name, reason string, duration time.Duration) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	ban := &Ban{
		Name:      name,
		Reason:    reason,
		BannedAt:  time.Now(),
		Permanent: duration == 0,
	}
	if duration > 0 {
		ban.ExpiresAt = ban.BannedAt.Add(duration)
	}
	l.bans[key(name)] = ban

	return l.saveLocked()
}

func (l *List) Remove(name string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.bans, key(name))
	return l.saveLocked()
}

// Active returns the unexpired bans ordered by name.
func (l *List) Active() []*Ban {
	l.mu.RLock()
	defer l.mu.RUnlock()

	now := time.Now()
	bans := make([]*Ban, 0, len(l.bans))
	for _, ban := range l.bans {
		if !ban.expired(now) {
			bans = append(bans, ban)
		}
	}
	sort.Slice(bans, func(i, j int) bool { return key(bans[i].Name) < key(bans[j].Name) })
	return bans
}

func (l *List) saveLocked() error {
	bans := make([]*Ban, 0, len(l.bans))
	for _, ban := range l.bans {
		bans = append(bans, ban)
	}
	sort.Slice(bans, func(i, j int) bool { return key(bans[i].Name) < key(bans[j].Name) })

	data, err := json.MarshalIndent(bans, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal bans: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(l.filePath), 0755); err != nil {
		return fmt.Errorf("failed to create bans directory: %w", err)
	}
	if err := os.WriteFile(l.filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write bans file: %w", err)
	}
	return nil
}

func (l *List) OnJoinRequest(name string) bool {
	if banned, ban := l.IsBanned(name); banned {
		l.logger.Info("refusing banned player", "name", name, "reason", ban.Reason)
		return false
	}
	return true
}
