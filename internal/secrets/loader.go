package secrets

import (
	"fmt"
	"os"
	"strings"
)

// Source describes how to resolve a secret value.
type Source struct {
	// Name is used in error messages to give more context about the secret.
	Name string
	// Env names an environment variable holding the secret value directly.
	Env string
	// File points to a file containing the secret value. When set it takes
	// precedence over Env.
	File string
}

// Load resolves the secret from the provided source. A file takes precedence
// over an environment variable. The returned secret is always trimmed. An
// error is returned when no source yields a usable value.
func Load(src Source) (string, error) {
	name := strings.TrimSpace(src.Name)
	if name == "" {
		name = "secret"
	}

	if file := strings.TrimSpace(src.File); file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("reading %s from file %q: %w", name, file, err)
		}
		secret := strings.TrimSpace(string(data))
		if secret == "" {
			return "", fmt.Errorf("%s file %q is empty", name, file)
		}
		return secret, nil
	}

	if env := strings.TrimSpace(src.Env); env != "" {
		if secret := strings.TrimSpace(os.Getenv(env)); secret != "" {
			return secret, nil
		}
	}

	return "", fmt.Errorf("%s is not configured", name)
}
