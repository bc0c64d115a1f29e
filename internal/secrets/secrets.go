// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads API keys and credentials from a directory of
// plain-text files. Each file is one secret: the filename is the key name
// and the file contents (trimmed) are the value.
//
// Supported key files: openai-api-key, gemini-api-key,
// baidu-translate-appid, baidu-translate-appkey.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Secrets maps key names to values.
type Secrets map[string]string

// Get returns the value for key, or fallback when the key is absent or
// empty. fallback is typically an environment variable or config value.
func (s Secrets) Get(key, fallback string) string {
	if v := s[key]; v != "" {
		return v
	}
	return fallback
}

// Load reads all files in dir into a Secrets map. A missing directory is
// not an error; Load returns an empty map. Unreadable files produce a
// warning on stderr but do not abort.
func Load(dir string) (Secrets, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return Secrets{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	s := make(Secrets)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not read secret %s: %v\n", name, err)
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			s[name] = value
		}
	}

	return s, nil
}
