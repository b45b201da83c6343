package secrets

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("SCREENING_TEST_TOKEN", "  env-token  ")

	token, err := Load(Source{Name: "github token", EnvVar: "SCREENING_TEST_TOKEN"})
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if token != "env-token" {
		t.Fatalf("expected trimmed env token, got %q", token)
	}
}

func TestLoadFilePrecedence(t *testing.T) {
	t.Setenv("SCREENING_TEST_TOKEN", "env-token")

	path := filepath.Join(t.TempDir(), "token")
	if err := os.WriteFile(path, []byte("file-token\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	token, err := Load(Source{Name: "github token", EnvVar: "SCREENING_TEST_TOKEN", File: path})
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if token != "file-token" {
		t.Fatalf("file must take precedence, got %q", token)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(Source{Name: "github token", File: filepath.Join(t.TempDir(), "absent")})
	if err == nil {
		t.Fatal("expected an error for a missing file")
	}
}

func TestLoadAbsentIsNotAnError(t *testing.T) {
	token, err := Load(Source{Name: "github token", EnvVar: "SCREENING_UNSET_TOKEN"})
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if token != "" {
		t.Fatalf("expected empty token, got %q", token)
	}
}
