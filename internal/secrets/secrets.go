// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads credentials from a directory of plain-text files.
// Each regular file is one secret: the filename is the key and the trimmed
// contents are the value. The relay reads api2convert-api-key.
package secrets

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// maxSecretSize bounds how much of a secret file is read.
const maxSecretSize = 64 << 10

// Secrets maps key names to values.
type Secrets map[string]string

// Get returns the value for key, or fallback when the key is absent.
func (s Secrets) Get(key, fallback string) string {
	if v, ok := s[key]; ok {
		return v
	}
	return fallback
}

// Keys returns the loaded key names in sorted order.
func (s Secrets) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Load reads the files in dir. A missing directory yields an empty set.
// Dotfiles, subdirectories and empty files are skipped; unreadable files are
// reported on warn and skipped.
func Load(dir string, warn io.Writer) (Secrets, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return Secrets{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}
	if warn == nil {
		warn = io.Discard
	}

	secrets := make(Secrets)
	for _, entry := range entries {
		name := entry.Name()
		if !entry.Type().IsRegular() || strings.HasPrefix(name, ".") {
			continue
		}

		value, err := readSecret(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(warn, "warning: could not read secret %s: %v\n", name, err)
			continue
		}
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

func readSecret(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxSecretSize))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
