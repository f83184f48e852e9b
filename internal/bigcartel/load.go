package bigcartel

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const defaultExportName = "products.json"

// LoadProducts reads and decodes a BigCartel export file. A missing file
// surfaces as fs.ErrNotExist so callers can report it distinctly from
// malformed JSON.
func LoadProducts(path string) ([]Product, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read export file: %w", err)
	}

	var products []Product
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, fmt.Errorf("parse export file %s: %w", path, err)
	}

	return products, nil
}

// ResolvePath picks the export file location. An explicit argument always
// wins. Otherwise the default name is resolved next to the running binary,
// falling back to a small search path under the working directory when the
// executable location is unavailable.
func ResolvePath(arg string) string {
	if arg != "" {
		return arg
	}

	if exe, err := os.Executable(); err == nil {
		return filepath.Join(filepath.Dir(exe), defaultExportName)
	}

	candidates := []string{
		filepath.Join("backend", "scripts", defaultExportName),
		filepath.Join("scripts", defaultExportName),
	}
	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	return defaultExportName
}
