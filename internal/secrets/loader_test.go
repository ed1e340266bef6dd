package secrets

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "key")
	if err := os.WriteFile(path, []byte("  sk-file-secret\n"), 0o600); err != nil {
		t.Fatalf("writing secret file: %s", err)
	}

	secret, err := Load(Source{Name: "api key", File: path})
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if secret != "sk-file-secret" {
		t.Fatalf("expected the trimmed file content, got %q", secret)
	}
}

func TestLoadFileTakesPrecedenceOverEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "key")
	if err := os.WriteFile(path, []byte("from-file"), 0o600); err != nil {
		t.Fatalf("writing secret file: %s", err)
	}
	t.Setenv("TEST_SECRET", "from-env")

	secret, err := Load(Source{Name: "api key", File: path, Env: "TEST_SECRET"})
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if secret != "from-file" {
		t.Fatalf("expected the file to win, got %q", secret)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("TEST_SECRET", " sk-env-secret ")

	secret, err := Load(Source{Name: "api key", Env: "TEST_SECRET"})
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if secret != "sk-env-secret" {
		t.Fatalf("expected the trimmed env value, got %q", secret)
	}
}

func TestLoadFailures(t *testing.T) {
	if _, err := Load(Source{Name: "api key"}); err == nil {
		t.Fatal("expected an error when nothing is configured")
	}

	if _, err := Load(Source{Name: "api key", File: filepath.Join(t.TempDir(), "missing")}); err == nil {
		t.Fatal("expected an error for a missing file")
	}

	empty := filepath.Join(t.TempDir(), "empty")
	if err := os.WriteFile(empty, []byte("  \n"), 0o600); err != nil {
		t.Fatalf("writing empty file: %s", err)
	}
	if _, err := Load(Source{Name: "api key", File: empty}); err == nil {
		t.Fatal("expected an error for an empty file")
	}
}
