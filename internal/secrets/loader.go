package secrets

import (
	"fmt"
	"os"
	"strings"
)

// Source describes how to load a secret value.
type Source struct {
	// Name is used in error messages to give more context about the secret.
	Name string
	// EnvVar is the name of an environment variable holding the secret.
	EnvVar string
	// File points to a file containing the secret value. When set it takes
	// precedence over EnvVar.
	File string
}

// Load returns the resolved secret value from the provided source. When File is
// set it takes precedence over EnvVar. The returned secret is always trimmed.
// An empty result is not an error: an absent GitHub token simply selects the
// unauthenticated backend for the run.
func Load(src Source) (string, error) {
	name := strings.TrimSpace(src.Name)
	if name == "" {
		name = "secret"
	}

	file := strings.TrimSpace(src.File)
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("reading %s from file %q: %w", name, file, err)
		}
		return strings.TrimSpace(string(data)), nil
	}

	envVar := strings.TrimSpace(src.EnvVar)
	if envVar == "" {
		return "", nil
	}

	return strings.TrimSpace(os.Getenv(envVar)), nil
}
