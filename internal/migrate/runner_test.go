package migrate

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscoverUpMigrations_Order(t *testing.T) {
	fsys := fstest.MapFS{
		"migrations/0002_probe_results_up.sql": {Data: []byte("SELECT 2;")},
		"migrations/0001_devices_up.sql":       {Data: []byte("SELECT 1;")},
		"migrations/0001_devices_down.sql":     {Data: []byte("SELECT 0;")},
		"migrations/notes.txt":                 {Data: []byte("ignored")},
		"migrations/xx_bad_up.sql":             {Data: []byte("ignored")},
	}
	files, err := Runner{}.discoverUpMigrations(fsys)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, int64(1), files[0].Version)
	assert.Equal(t, "migrations/0001_devices_up.sql", files[0].Path)
	assert.Equal(t, int64(2), files[1].Version)
}
