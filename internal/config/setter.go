package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/v2"
)

// ErrEmptyKeyPath is returned when an empty key is provided.
var ErrEmptyKeyPath = errors.New("empty key path")

// SetConfigValue validates value against the key's schema and writes it to
// the JSON config file at filePath, creating the file if needed.
func SetConfigValue(filePath, key, value string) error {
	if key == "" {
		return ErrEmptyKeyPath
	}
	parsed, err := ValidateValue(key, value)
	if err != nil {
		return err
	}
	return Persist(filePath, key, parsed.Parsed)
}

// Persist sets key to value in the JSON config file at filePath, keeping
// every other key. The file is replaced atomically.
func Persist(filePath, key string, value any) error {
	if key == "" {
		return ErrEmptyKeyPath
	}
	if filePath == "" {
		return fmt.Errorf("no config file path")
	}

	k := koanf.New(".")
	if err := loadFile(k, filePath); err != nil {
		return err
	}
	if err := k.Set(key, value); err != nil {
		return fmt.Errorf("setting %s: %w", key, err)
	}

	data, err := k.Marshal(json.Parser())
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return writeFileAtomic(filePath, data)
}

// writeFileAtomic writes data to a temp file in the same directory and
// renames it over path.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("setting permissions: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replacing config file: %w", err)
	}
	return nil
}
