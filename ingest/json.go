package ingest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"billworks/bill"
)

// JSONSource loads bill tables from a JSON file shaped like the Tables
// contract.
type JSONSource struct{}

// Load reads and validates one bill. The input identifier is the file stem.
func (JSONSource) Load(path string) (*bill.Package, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read bill input: %w", err)
	}

	var t Tables
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, &DataError{Table: "json", Field: "-", Reason: err.Error()}
	}
	return BuildPackage(inputStem(path), t)
}

func inputStem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
