package backend

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"salesheet/internal/config"
	"salesheet/internal/sheets/memory"
	"salesheet/internal/sheets/xlsx"
	"salesheet/internal/storage"
)

func TestBackendType_IsValid(t *testing.T) {
	for _, bt := range GetBackendTypes() {
		if !bt.IsValid() {
			t.Errorf("%s should be valid", bt)
		}
	}
	if BackendType("csv").IsValid() {
		t.Error("csv should not be valid")
	}
}

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Error("expected error for nil config")
	}
	if _, err := FromAppConfig(&config.Config{DataBackend: "csv"}); err == nil {
		t.Error("expected error for invalid backend")
	}

	cfg, err := FromAppConfig(&config.Config{BaseDir: "/srv", DataBackend: "xlsx", SQLiteDBPath: "/srv/db.sqlite"})
	if err != nil {
		t.Fatalf("FromAppConfig: %v", err)
	}
	if cfg.Type != XLSXBackend || cfg.XLSXPath != "/srv/sample_data/sample_sales_data.xlsx" {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if cfg.MemorySeedFile != "/srv/sample_data/sales_entry.csv" || cfg.SQLiteDBPath != "/srv/db.sqlite" {
		t.Errorf("unexpected paths: %+v", cfg)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"xlsx with path", Config{Type: XLSXBackend, XLSXPath: "a.xlsx"}, false},
		{"xlsx without path", Config{Type: XLSXBackend}, true},
		{"sqlite without path", Config{Type: SQLiteBackend}, true},
		{"sheets without id", Config{Type: SheetsBackend}, true},
		{"memory", Config{Type: MemoryBackend}, false},
		{"unknown", Config{Type: "csv"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.config.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestFactory_CreateBackend(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	f := NewFactory(nil)

	res, err := f.CreateBackend(ctx, Config{Type: XLSXBackend, XLSXPath: filepath.Join(dir, "s.xlsx")})
	if err != nil {
		t.Fatalf("xlsx: %v", err)
	}
	if _, ok := res.Workbook.(*xlsx.Workbook); !ok || res.Close() != nil {
		t.Errorf("unexpected xlsx backend: %T", res.Workbook)
	}

	res, err = f.CreateBackend(ctx, Config{Type: SQLiteBackend, SQLiteDBPath: filepath.Join(dir, "db", "s.db")})
	if err != nil {
		t.Fatalf("sqlite: %v", err)
	}
	if _, ok := res.Workbook.(*storage.SQLiteRepository); !ok {
		t.Errorf("unexpected sqlite backend: %T", res.Workbook)
	}
	if err := res.Close(); err != nil {
		t.Errorf("sqlite cleanup: %v", err)
	}

	seed := filepath.Join(dir, "seed.csv")
	content := "Date,Product Name,Category,Quantity Sold,Unit Price,Total Amount,Payment Method,Customer Type\n" +
		"2025-08-01,Coffee,Beverage,2,2.00,4.00,Cash,Regular\n"
	if err := os.WriteFile(seed, []byte(content), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	res, err = f.CreateBackend(ctx, Config{Type: MemoryBackend, MemorySeedFile: seed})
	if err != nil {
		t.Fatalf("memory: %v", err)
	}
	if _, ok := res.Workbook.(*memory.Store); !ok {
		t.Fatalf("unexpected memory backend: %T", res.Workbook)
	}
	imp, err := res.Workbook.ReadTransactions(ctx)
	if err != nil || len(imp.Transactions) != 1 {
		t.Errorf("seeded memory backend read %+v, %v", imp, err)
	}

	if _, err := f.CreateBackend(ctx, Config{Type: SheetsBackend}); err == nil {
		t.Error("expected error for sheets backend without spreadsheet id")
	}
}
