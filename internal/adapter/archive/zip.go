// Package archive handles the zip batches that deliver one day of radar
// volumes each: extraction into a scratch directory before transformation,
// and best-effort removal of the extracted temporaries afterwards.
package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Extractor unpacks zip batches and cleans up their temporaries.
type Extractor struct{}

// Extract unpacks every member of the archive into destDir. It returns the
// archive's date token (the basename without the .zip suffix) and the list
// of extracted file paths, which is the unit of work fed to the transformer.
func (Extractor) Extract(zipPath, destDir string) (string, []string, error) {
	date := strings.TrimSuffix(filepath.Base(zipPath), ".zip")

	zr, err := zip.OpenReader(zipPath)
	if err != nil {
		return "", nil, fmt.Errorf("open archive %s: %w", zipPath, err)
	}
	defer zr.Close()

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", nil, fmt.Errorf("create scratch dir %s: %w", destDir, err)
	}

	root := filepath.Clean(destDir)
	var files []string
	for _, member := range zr.File {
		dest := filepath.Join(root, member.Name)
		if !strings.HasPrefix(dest, root+string(os.PathSeparator)) {
			return "", nil, fmt.Errorf("archive %s: member %q escapes destination", zipPath, member.Name)
		}
		if member.FileInfo().IsDir() {
			if err := os.MkdirAll(dest, 0o755); err != nil {
				return "", nil, err
			}
			continue
		}
		if err := extractMember(member, dest); err != nil {
			return "", nil, fmt.Errorf("archive %s: %w", zipPath, err)
		}
		files = append(files, dest)
	}
	return date, files, nil
}

// Remove deletes extracted temporaries, ignoring files that are already gone.
func (Extractor) Remove(paths []string) {
	for _, p := range paths {
		if p == "" {
			continue
		}
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			continue
		}
	}
}

func extractMember(member *zip.File, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	in, err := member.Open()
	if err != nil {
		return fmt.Errorf("member %s: %w", member.Name, err)
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close() //nolint:errcheck
		return fmt.Errorf("member %s: %w", member.Name, err)
	}
	return out.Close()
}

// List returns the zip batches for one year under root, sorted by name.
func List(root string, year int) ([]string, error) {
	pattern := filepath.Join(root, strconv.Itoa(year), "*.zip")
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	return matches, nil
}
