package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationsDir_FindsPairedFiles(t *testing.T) {
	dir, err := MigrationsDir()
	require.NoError(t, err)

	ups, err := filepath.Glob(filepath.Join(dir, "*.up.sql"))
	require.NoError(t, err)
	require.NotEmpty(t, ups)
	for _, up := range ups {
		down := up[:len(up)-len(".up.sql")] + ".down.sql"
		_, err := os.Stat(down)
		assert.NoError(t, err, "missing down migration for %s", filepath.Base(up))
	}
}
