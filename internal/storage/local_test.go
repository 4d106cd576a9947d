package storage

import (
	"context"
	"os"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveNamesFileWithUUIDPrefix(t *testing.T) {
	store, err := NewLocalStore(t.TempDir(), 1024)
	require.NoError(t, err)

	key, size, err := store.Save(context.Background(), "x-ray scan.png", strings.NewReader("pixels"))
	require.NoError(t, err)
	assert.EqualValues(t, 6, size)
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]{32}_x-ray_scan\.png$`), key)

	data, err := os.ReadFile(store.Path(key))
	require.NoError(t, err)
	assert.Equal(t, "pixels", string(data))

	require.NoError(t, store.Remove(key))
	require.NoError(t, store.Remove(key))
}

func TestSaveRejectsOversizedFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStore(dir, 4)
	require.NoError(t, err)

	_, _, err = store.Save(context.Background(), "big.bin", strings.NewReader("12345"))
	assert.ErrorIs(t, err, ErrTooLarge)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSanitizeName(t *testing.T) {
	assert.Equal(t, "passwd", SanitizeName("../../etc/passwd"))
	assert.Equal(t, "report.pdf", SanitizeName(`C:\docs\report.pdf`))
	assert.Equal(t, "file", SanitizeName(".."))
	assert.Equal(t, "htaccess", SanitizeName(".htaccess"))
}
