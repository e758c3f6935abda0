package platform

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindRoot(t *testing.T) {
	// base/
	//   shop/ (products.json)
	//     assets/
	//       img/
	//   empty/
	baseDir := t.TempDir()
	shopDir := filepath.Join(baseDir, "shop")
	nestedDir := filepath.Join(shopDir, "assets", "img")
	emptyDir := filepath.Join(baseDir, "empty")

	require.NoError(t, os.MkdirAll(nestedDir, 0755))
	require.NoError(t, os.MkdirAll(emptyDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(shopDir, "products.json"), []byte(`{"products":[]}`), 0644))

	tests := []struct {
		name      string
		startPath string
		wantRoot  string
	}{
		{"at root", shopDir, shopDir},
		{"nested", nestedDir, shopDir},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FindRoot(tt.startPath)
			require.NoError(t, err)
			want, _ := filepath.Abs(tt.wantRoot)
			assert.Equal(t, want, got)
		})
	}

	// The temp dir may itself sit under a git checkout, so only assert the
	// search does not stop at the empty directory.
	if got, err := FindRoot(emptyDir); err == nil {
		assert.NotEqual(t, emptyDir, got)
	}
}
