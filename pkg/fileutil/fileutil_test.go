package fileutil_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kelvie/precache/pkg/fileutil"
)

func TestEnsureDir_CreatesNestedPath(t *testing.T) {
	tempDir := t.TempDir()

	err := fileutil.EnsureDir(tempDir, "stores", "app-pwa", "objects")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	info, statErr := os.Stat(filepath.Join(tempDir, "stores", "app-pwa", "objects"))
	if statErr != nil {
		t.Fatalf("expected directory to exist: %v", statErr)
	}
	if !info.IsDir() {
		t.Error("expected a directory")
	}
}

func TestEnsureDir_ExistingDirIsNoError(t *testing.T) {
	tempDir := t.TempDir()

	if err := fileutil.EnsureDir(tempDir); err != nil {
		t.Fatalf("unexpected error on existing dir: %v", err)
	}
}

func TestWriteFileAtomic_WritesContent(t *testing.T) {
	tempDir := t.TempDir()
	target := filepath.Join(tempDir, "index.json")

	if err := fileutil.WriteFileAtomic(target, []byte(`{"a":1}`), 0644); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	content, readErr := os.ReadFile(target)
	if readErr != nil {
		t.Fatalf("failed to read written file: %v", readErr)
	}
	if string(content) != `{"a":1}` {
		t.Errorf("unexpected content: %s", content)
	}
}

func TestWriteFileAtomic_OverwritesInPlace(t *testing.T) {
	tempDir := t.TempDir()
	target := filepath.Join(tempDir, "object.bin")

	if err := fileutil.WriteFileAtomic(target, []byte("first"), 0644); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := fileutil.WriteFileAtomic(target, []byte("second"), 0644); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	content, readErr := os.ReadFile(target)
	if readErr != nil {
		t.Fatalf("failed to read written file: %v", readErr)
	}
	if string(content) != "second" {
		t.Errorf("expected overwritten content, got %s", content)
	}
}

func TestWriteFileAtomic_LeavesNoTempFiles(t *testing.T) {
	tempDir := t.TempDir()
	target := filepath.Join(tempDir, "object.bin")

	if err := fileutil.WriteFileAtomic(target, []byte("data"), 0644); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	entries, readErr := os.ReadDir(tempDir)
	if readErr != nil {
		t.Fatalf("failed to list temp dir: %v", readErr)
	}
	if len(entries) != 1 {
		t.Errorf("expected only the target file, found %d entries", len(entries))
	}
}

func TestWriteFileAtomic_MissingDirFails(t *testing.T) {
	tempDir := t.TempDir()
	target := filepath.Join(tempDir, "missing", "object.bin")

	if err := fileutil.WriteFileAtomic(target, []byte("data"), 0644); err == nil {
		t.Fatal("expected error writing into a missing directory")
	}
}
