package dashboard

import (
	"fmt"
	"os"
	"strings"

	"github.com/natefinch/atomic"
)

// LoadSession reads the opaque session credential blob produced by the login
// flow. The pipeline attaches it verbatim and never inspects its structure.
// Returns "" without error when the file does not exist; the source then
// operates unauthenticated and typically sees an empty listing.
func LoadSession(path string) (string, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read session file %s: %w", path, err)
	}

	return strings.TrimSpace(string(data)), nil
}

// SaveSession persists a refreshed session blob atomically so a concurrent
// extraction pass never observes a partially written credential.
func SaveSession(path, blob string) error {
	if err := atomic.WriteFile(path, strings.NewReader(blob)); err != nil {
		return fmt.Errorf("write session file %s: %w", path, err)
	}

	return nil
}
