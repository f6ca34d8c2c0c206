// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads API keys from a directory of plain-text files.
// The filename is the key name and the trimmed file contents are the value.
//
// Known key files: openai-api-key, gemini-api-key.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pdiddy/requirements-engine/pkg/types"
)

// Key names read from the secrets directory.
const (
	OpenAIKey = "openai-api-key"
	GeminiKey = "gemini-api-key"
)

// Set maps key names to values.
type Set map[string]string

// KeyFor returns the key file holding the API key for a cloud provider.
func KeyFor(provider types.CloudProvider) string {
	if provider == types.ProviderGemini {
		return GeminiKey
	}
	return OpenAIKey
}

// Load reads every regular, non-hidden file in dir. A missing directory is
// not an error. Empty files are skipped; unreadable files are skipped with a
// warning on stderr.
func Load(dir string) (Set, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return Set{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	set := make(Set, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not read secret %s: %v\n", name, err)
			continue
		}
		if value := strings.TrimSpace(string(data)); value != "" {
			set[name] = value
		}
	}
	return set, nil
}

// Resolve returns explicit when it is set, otherwise the stored value for key.
func (s Set) Resolve(key, explicit string) string {
	if explicit != "" {
		return explicit
	}
	return s[key]
}

// Names returns the loaded key names in sorted order.
func (s Set) Names() []string {
	names := make([]string, 0, len(s))
	for k := range s {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
