package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"StockTracker/internal/model"
)

// LoadRecords reads the record array from a JSON file. An empty file is an empty store.
func LoadRecords(filePath string) ([]model.StockRecord, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	records := []model.StockRecord{}
	if len(bytes.TrimSpace(data)) == 0 {
		return records, nil
	}
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode %s: %w", filePath, err)
	}
	if records == nil {
		records = []model.StockRecord{}
	}
	return records, nil
}

// SaveRecords writes the record array with write-temp, fsync, rename so a crash
// never leaves a half-written store behind.
func SaveRecords(filePath string, records []model.StockRecord) error {
	if records == nil {
		records = []model.StockRecord{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode records: %w", err)
	}
	return writeAtomic(filePath, data)
}

func writeAtomic(filePath string, data []byte) error {
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(filePath)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	// Close before rename, required on Windows.
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, filePath)
}

// seed creates the store file on first run, from the template when one is readable.
func seed(filePath, templatePath string) error {
	if _, err := os.Stat(filePath); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return err
	}
	if templatePath != "" {
		if recs, err := LoadRecords(templatePath); err == nil {
			return SaveRecords(filePath, recs)
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("load template: %w", err)
		}
	}
	return SaveRecords(filePath, nil)
}
