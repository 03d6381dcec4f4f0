package main

import (
	"fmt"
	"testing"
)

func TestSourceFor(t *testing.T) {
	tests := []struct {
		path    string
		want    string
		wantErr bool
	}{
		{path: "bill.json", want: "ingest.JSONSource"},
		{path: "BILL.XLSX", want: "ingest.XLSXSource"},
		{path: "bill.csv", wantErr: true},
		{path: "bill", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			src, err := sourceFor(tt.path)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("sourceFor(%q) accepted unsupported input", tt.path)
				}
				return
			}
			if err != nil {
				t.Fatalf("sourceFor(%q) error: %v", tt.path, err)
			}
			if got := fmt.Sprintf("%T", src); got != tt.want {
				t.Errorf("sourceFor(%q) = %s, want %s", tt.path, got, tt.want)
			}
		})
	}
}
