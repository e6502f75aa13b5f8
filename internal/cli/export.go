package cli

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
)

// Export writes records to path in the format chosen by its extension:
// .csv writes header and rows, .json and .msgpack encode records.
func Export(path string, records any, header []string, rows [][]string) error {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".csv", ".json", ".msgpack", ".mp":
	default:
		return fmt.Errorf("unsupported export format %q (use .csv, .json or .msgpack)", ext)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	switch ext {
	case ".csv":
		w := csv.NewWriter(f)
		if err := w.Write(header); err != nil {
			return err
		}
		if err := w.WriteAll(rows); err != nil {
			return err
		}
	case ".json":
		enc := json.NewEncoder(f)
		enc.SetIndent("", "  ")
		if err := enc.Encode(records); err != nil {
			return err
		}
	case ".msgpack", ".mp":
		enc := msgpack.NewEncoder(f)
		enc.SetCustomStructTag("json")
		if err := enc.Encode(records); err != nil {
			return err
		}
	}

	return f.Sync()
}
