package state

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/smartman0307/pycryptobot/pkg/types"
)

func TestLoadMissingFileIsCleanFlat(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "state.json"), "BTC-USD")

	pos, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if pos.State != types.PositionFlat {
		t.Errorf("missing file should load as FLAT, got %s", pos.State)
	}
	if pos.Market != "BTC-USD" {
		t.Errorf("market = %q, want BTC-USD", pos.Market)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "state.json"), "BTC-USD")

	saved := types.Position{
		Market:       "BTC-USD",
		State:        types.PositionHolding,
		EntryOrderID: "order-1",
		EntryPrice:   43210.5,
		EntrySize:    0.01,
		EntryTime:    time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC),
	}
	if err := store.Save(saved); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.State != types.PositionHolding || loaded.EntryPrice != 43210.5 || loaded.EntryOrderID != "order-1" {
		t.Errorf("round trip mismatch: %+v", loaded)
	}
}

func TestLoadRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := NewStore(path, "BTC-USD").Load(); err == nil {
		t.Error("corrupt file should be rejected")
	}
}

func TestLoadRejectsWrongMarket(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")
	if err := NewStore(path, "ETH-USD").Save(types.Position{State: types.PositionFlat}); err != nil {
		t.Fatal(err)
	}

	if _, err := NewStore(path, "BTC-USD").Load(); err == nil {
		t.Error("state for another market should be rejected")
	}
}

func TestSavePreservesCallerTimestamp(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "state.json"), "BTC-USD")

	stamped := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	if err := store.Save(types.Position{State: types.PositionHolding, UpdatedAt: stamped}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !loaded.UpdatedAt.Equal(stamped) {
		t.Errorf("UpdatedAt = %v, want the stamp set before Save %v", loaded.UpdatedAt, stamped)
	}

	if err := store.Save(types.Position{State: types.PositionFlat}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err = store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.UpdatedAt.IsZero() {
		t.Error("unstamped position should get a save-time timestamp")
	}
}

func TestSaveKeepsBackup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	store := NewStore(path, "BTC-USD")

	if err := store.Save(types.Position{State: types.PositionFlat}); err != nil {
		t.Fatal(err)
	}
	if err := store.Save(types.Position{State: types.PositionHolding, EntryPrice: 100}); err != nil {
		t.Fatal(err)
	}

	if _, err := os.Stat(path + ".bak"); err != nil {
		t.Errorf("expected backup file: %v", err)
	}
}
