package archive

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeZip(t *testing.T, path string, members map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for name, content := range members {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
}

func TestExtract(t *testing.T) {
	dir := t.TempDir()
	zipPath := filepath.Join(dir, "19981206.zip")
	writeZip(t, zipPath, map[string]string{
		"scan1.nc": "first",
		"scan2.nc": "second",
	})

	dest := filepath.Join(dir, "scratch")
	date, files, err := Extractor{}.Extract(zipPath, dest)
	require.NoError(t, err)

	assert.Equal(t, "19981206", date, "date token is the basename without .zip")
	require.Len(t, files, 2)

	for _, f := range files {
		content, err := os.ReadFile(f)
		require.NoError(t, err)
		assert.NotEmpty(t, content)
	}
}

func TestExtractRejectsEscapingMember(t *testing.T) {
	dir := t.TempDir()
	zipPath := filepath.Join(dir, "evil.zip")
	writeZip(t, zipPath, map[string]string{
		"../outside.nc": "escape attempt",
	})

	_, _, err := Extractor{}.Extract(zipPath, filepath.Join(dir, "scratch"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "escapes destination")
}

func TestExtractMissingArchive(t *testing.T) {
	_, _, err := Extractor{}.Extract(filepath.Join(t.TempDir(), "absent.zip"), t.TempDir())
	assert.Error(t, err)
}

func TestRemoveIgnoresMissingFiles(t *testing.T) {
	dir := t.TempDir()
	present := filepath.Join(dir, "present.nc")
	require.NoError(t, os.WriteFile(present, []byte("x"), 0o644))

	Extractor{}.Remove([]string{present, filepath.Join(dir, "gone.nc"), ""})

	_, err := os.Stat(present)
	assert.True(t, os.IsNotExist(err), "present file removed")
}

func TestList(t *testing.T) {
	root := t.TempDir()
	yearDir := filepath.Join(root, "1998")
	require.NoError(t, os.MkdirAll(yearDir, 0o755))

	for _, name := range []string{"19981207.zip", "19981206.zip", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(yearDir, name), []byte("x"), 0o644))
	}

	zips, err := List(root, 1998)
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(yearDir, "19981206.zip"),
		filepath.Join(yearDir, "19981207.zip"),
	}, zips)
}

func TestListEmptyYear(t *testing.T) {
	zips, err := List(t.TempDir(), 2099)
	require.NoError(t, err)
	assert.Empty(t, zips)
}
