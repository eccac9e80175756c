package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

const ledgerFile = "alert_ledger.json"

// AlertLedger remembers when an alert was last sent for each city so scheduled
// runs do not repeat it inside the cooldown window. Only the city and the send
// time are stored.
type AlertLedger struct {
	filePath string
	lastSent map[string]time.Time
	mu       sync.RWMutex
	cooldown time.Duration
	clock    clockwork.Clock
}

// SentAlert is one persisted ledger entry.
type SentAlert struct {
	City   string    `json:"city"`
	SentAt time.Time `json:"sent_at"`
}

// NewAlertLedger opens (or creates) the ledger under dataDir.
func NewAlertLedger(dataDir string, cooldown time.Duration, clock clockwork.Clock) (*AlertLedger, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	l := &AlertLedger{
		filePath: filepath.Join(dataDir, ledgerFile),
		lastSent: make(map[string]time.Time),
		cooldown: cooldown,
		clock:    clock,
	}

	if err := l.load(); err != nil {
		return nil, fmt.Errorf("failed to load alert ledger: %w", err)
	}
	l.cleanup()

	return l, nil
}

// InCooldown reports whether an alert for city was sent less than one cooldown ago.
func (l *AlertLedger) InCooldown(city string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	sentAt, ok := l.lastSent[city]
	if !ok {
		return false
	}
	return l.clock.Since(sentAt) < l.cooldown
}

// MarkSent records an alert for city at the current time and persists the ledger.
func (l *AlertLedger) MarkSent(city string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.lastSent[city] = l.clock.Now()
	return l.save()
}

// Count returns the number of cities with a recorded alert.
func (l *AlertLedger) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.lastSent)
}

// cleanup drops entries whose cooldown has expired
func (l *AlertLedger) cleanup() {
	cutoff := l.clock.Now().Add(-l.cooldown)
	for city, sentAt := range l.lastSent {
		if sentAt.Before(cutoff) {
			delete(l.lastSent, city)
		}
	}
}

func (l *AlertLedger) load() error {
	file, err := os.Open(l.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to open ledger file: %w", err)
	}
	defer file.Close()

	var entries []SentAlert
	if err := json.NewDecoder(file).Decode(&entries); err != nil {
		return fmt.Errorf("failed to decode ledger data: %w", err)
	}
	for _, e := range entries {
		l.lastSent[e.City] = e.SentAt
	}
	return nil
}

func (l *AlertLedger) save() error {
	entries := make([]SentAlert, 0, len(l.lastSent))
	for city, sentAt := range l.lastSent {
		entries = append(entries, SentAlert{City: city, SentAt: sentAt})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].City < entries[j].City })

	tmp := l.filePath + ".tmp"
	file, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(entries); err != nil {
		file.Close()
		return fmt.Errorf("failed to encode ledger: %w", err)
	}
	if err := file.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, l.filePath)
}
