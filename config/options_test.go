package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultOptionsValidate(t *testing.T) {
	if err := DefaultOptions().Validate(); err != nil {
		t.Fatalf("DefaultOptions() should validate cleanly: %v", err)
	}
}

func TestValidateRejectsNonPositiveTimeout(t *testing.T) {
	o := DefaultOptions()
	o.TransactionTimeout = 0
	if err := o.Validate(); err == nil {
		t.Fatal("expected validation error for zero TransactionTimeout")
	}
}

func TestValidateRejectsUnknownCodec(t *testing.T) {
	o := DefaultOptions()
	o.SnapshotExport.Codec = "rot13"
	if err := o.Validate(); err == nil {
		t.Fatal("expected validation error for unknown codec")
	}
}

func TestLoadFromEnvOverridesFields(t *testing.T) {
	os.Setenv("WIDGETSTORE_INITIAL_CAPACITY", "128")
	os.Setenv("WIDGETSTORE_TRANSACTION_TIMEOUT", "2s")
	os.Setenv("WIDGETSTORE_VACUUM_RATE", "1m")
	os.Setenv("WIDGETSTORE_EXPORT_CODEC", "zstd")
	defer func() {
		os.Unsetenv("WIDGETSTORE_INITIAL_CAPACITY")
		os.Unsetenv("WIDGETSTORE_TRANSACTION_TIMEOUT")
		os.Unsetenv("WIDGETSTORE_VACUUM_RATE")
		os.Unsetenv("WIDGETSTORE_EXPORT_CODEC")
	}()

	o := DefaultOptions()
	if err := o.LoadFromEnv(); err != nil {
		t.Fatalf("LoadFromEnv: %v", err)
	}
	if o.InitialCapacity != 128 {
		t.Errorf("InitialCapacity = %d, want 128", o.InitialCapacity)
	}
	if o.TransactionTimeout != 2*time.Second {
		t.Errorf("TransactionTimeout = %v, want 2s", o.TransactionTimeout)
	}
	if o.VacuumRate != time.Minute {
		t.Errorf("VacuumRate = %v, want 1m", o.VacuumRate)
	}
	if o.SnapshotExport.Codec != "zstd" {
		t.Errorf("SnapshotExport.Codec = %q, want zstd", o.SnapshotExport.Codec)
	}
}

func TestLoadFromFileAndToYAMLRoundTrip(t *testing.T) {
	o := DefaultOptions()
	o.InitialCapacity = 256

	data, err := o.ToYAML()
	if err != nil {
		t.Fatalf("ToYAML: %v", err)
	}

	path := filepath.Join(t.TempDir(), "widgetstore.yaml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	loaded := DefaultOptions()
	loaded.InitialCapacity = 1
	if err := loaded.LoadFromFile(path); err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if loaded.InitialCapacity != 256 {
		t.Errorf("InitialCapacity after round trip = %d, want 256", loaded.InitialCapacity)
	}
}
