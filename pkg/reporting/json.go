package reporting

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/smartman0307/pycryptobot/internal/backtest"
)

// WriteSummaryJSON writes the full summary, decisions included, as indented
// JSON.
func WriteSummaryJSON(summary *backtest.Summary, path string) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
