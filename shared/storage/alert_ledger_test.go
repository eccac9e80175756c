package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlertLedger_Cooldown(t *testing.T) {
	dir := t.TempDir()
	clock := clockwork.NewFakeClock()

	ledger, err := NewAlertLedger(dir, time.Hour, clock)
	require.NoError(t, err)

	assert.False(t, ledger.InCooldown("Abidjan"))
	require.NoError(t, ledger.MarkSent("Abidjan"))
	assert.True(t, ledger.InCooldown("Abidjan"))
	assert.False(t, ledger.InCooldown("Korhogo"))

	clock.Advance(59 * time.Minute)
	assert.True(t, ledger.InCooldown("Abidjan"))

	clock.Advance(2 * time.Minute)
	assert.False(t, ledger.InCooldown("Abidjan"))
}

func TestAlertLedger_Persists(t *testing.T) {
	dir := t.TempDir()
	clock := clockwork.NewFakeClock()

	first, err := NewAlertLedger(dir, time.Hour, clock)
	require.NoError(t, err)
	require.NoError(t, first.MarkSent("San Pedro"))
	require.NoError(t, first.MarkSent("Bouaké"))

	_, err = os.Stat(filepath.Join(dir, ledgerFile))
	require.NoError(t, err)

	second, err := NewAlertLedger(dir, time.Hour, clock)
	require.NoError(t, err)
	assert.Equal(t, 2, second.Count())
	assert.True(t, second.InCooldown("Bouaké"))
}

func TestAlertLedger_DropsExpiredOnLoad(t *testing.T) {
	dir := t.TempDir()
	clock := clockwork.NewFakeClock()

	first, err := NewAlertLedger(dir, time.Hour, clock)
	require.NoError(t, err)
	require.NoError(t, first.MarkSent("Yamoussoukro"))

	clock.Advance(3 * time.Hour)
	second, err := NewAlertLedger(dir, time.Hour, clock)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Count())
}

func TestAlertLedger_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ledgerFile), []byte("{not json"), 0o644))

	_, err := NewAlertLedger(dir, time.Hour, nil)
	assert.Error(t, err)
}
