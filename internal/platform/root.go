package platform

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fabianshop/storefront/pkg/adapters/fs"
)

// FindRoot recursively looks upwards for a catalog root indicator: a
// products.json file or a .git directory. It returns the absolute path of
// the first directory that has one.
func FindRoot(startDir string) (string, error) {
	abs, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	dir := abs
	for {
		if hasFile(dir, fs.DefaultFile) || hasFile(dir, ".git") {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("catalog root not found from %s", abs)
}

func hasFile(dir, name string) bool {
	_, err := os.Stat(filepath.Join(dir, name))
	return err == nil
}
