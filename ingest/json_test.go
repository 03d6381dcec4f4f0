package ingest

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestJSONSource_Load(t *testing.T) {
	data := []byte(`{
		"title": [{"key": "Name of Work", "value": "Road Widening"}],
		"workOrder": [
			{"id": "1", "description": "Earthwork", "unit": "cum", "quantity": 100, "rate": 50},
			{"id": "2.1", "description": "Sub-base", "unit": "cum", "quantity": 10, "rate": 500}
		],
		"billQuantity": [
			{"id": "2.1", "description": "Sub-base", "unit": "cum", "quantity": 10, "rate": 495}
		],
		"final": true,
		"contractedDays": 100,
		"actualDays": 105
	}`)
	path := filepath.Join(t.TempDir(), "first-rab.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	p, err := JSONSource{}.Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if p.InputID != "first-rab" {
		t.Errorf("InputID = %q, want file stem", p.InputID)
	}
	if len(p.WorkOrder) != 2 {
		t.Errorf("work-order roots = %d, want 2", len(p.WorkOrder))
	}
	if !p.Final || p.ActualDays != 105 {
		t.Errorf("contract fields lost: %+v", p)
	}
}

func TestJSONSource_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := JSONSource{}.Load(path)
	var de *DataError
	if !errors.As(err, &de) {
		t.Errorf("error = %v, want *DataError", err)
	}
}

func TestJSONSource_MissingFile(t *testing.T) {
	if _, err := (JSONSource{}).Load("/nonexistent/bill.json"); err == nil {
		t.Error("Load() accepted a missing file")
	}
}
