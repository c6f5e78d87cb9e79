// Package state persists the position across restarts: atomic JSON writes
// with a backup of the previous state.
package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/smartman0307/pycryptobot/pkg/types"
)

// Store persists one market's position to disk. The position is saved after
// every transition, before the next tick can run.
type Store struct {
	path   string
	market string
}

// NewStore creates a store at the given path for one market.
func NewStore(path, market string) *Store {
	return &Store{path: path, market: market}
}

// Load reads the persisted position. A missing file yields a clean FLAT
// position; a corrupt file or one written for another market is an error so
// the operator notices instead of trading on the wrong state.
func (s *Store) Load() (types.Position, error) {
	clean := types.Position{Market: s.market, State: types.PositionFlat, UpdatedAt: time.Now().UTC()}

	raw, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return clean, nil
	}
	if err != nil {
		return clean, fmt.Errorf("read state file %s: %w", s.path, err)
	}

	var pos types.Position
	if err := json.Unmarshal(raw, &pos); err != nil {
		return clean, fmt.Errorf("state file %s is corrupt: %w", s.path, err)
	}
	if pos.Market != s.market {
		return clean, fmt.Errorf("state file %s belongs to market %s, expected %s", s.path, pos.Market, s.market)
	}
	if pos.State != types.PositionFlat && pos.State != types.PositionHolding {
		return clean, fmt.Errorf("state file %s has invalid position state %q", s.path, pos.State)
	}
	return pos, nil
}

// Save writes the position atomically: backup the previous file, write a
// temp file, then rename over the original.
func (s *Store) Save(pos types.Position) error {
	pos.Market = s.market
	if pos.UpdatedAt.IsZero() {
		pos.UpdatedAt = time.Now().UTC()
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create state directory: %w", err)
		}
	}

	if prev, err := os.ReadFile(s.path); err == nil {
		if err := os.WriteFile(s.path+".bak", prev, 0o644); err != nil {
			return fmt.Errorf("write state backup: %w", err)
		}
	}

	raw, err := json.MarshalIndent(pos, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal position: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write temp state file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}
