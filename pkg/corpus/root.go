package corpus

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/jllopis/ethos/pkg/errors"
)

// Marker file names probed during upward root discovery, in order.
var rootMarkers = []string{
	"ethos.yaml",
	filepath.Join(".ethos", "ethos.yaml"),
}

// FindRoot walks upwards from startDir looking for an ethos.yaml or
// .ethos/ethos.yaml marker and returns the directory holding it. An
// empty string with a nil error means no marker was found.
func FindRoot(startDir string) (string, error) {
	if strings.TrimSpace(startDir) == "" {
		return "", errors.New(errors.CodeInvalidInput, "startDir is required", nil)
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}
	for {
		for _, marker := range rootMarkers {
			candidate := filepath.Join(dir, marker)
			if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
				return dir, nil
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", nil
}

// ConfigPath returns the marker file under root, preferring the
// top-level ethos.yaml. Empty when neither exists.
func ConfigPath(root string) string {
	for _, marker := range rootMarkers {
		candidate := filepath.Join(root, marker)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
	}
	return ""
}
