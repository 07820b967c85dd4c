// Package pkgcache extracts downloaded package tarballs into an on-disk
// cache keyed by package name and version. Tar/gzip
// parsing uses the standard library: no third-party gzip+tar archive reader
// appears anywhere in the reference corpus, and stdlib archive/tar is the
// idiomatic choice for this even in the wider Go ecosystem (documented in
// DESIGN.md).
package pkgcache

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	howtherrors "github.com/jschatz1/howth/internal/errors"
)

// Cache is a package store rooted at baseDir, keyed by (name, version) and
// laid out as <baseDir>/<name>/<version>/package/.
type Cache struct {
	baseDir string
}

func New(baseDir string) (*Cache, error) {
	if err := os.MkdirAll(baseDir, 0o750); err != nil {
		return nil, err
	}
	return &Cache{baseDir: baseDir}, nil
}

// Dir returns the final package directory for (name, version), whether or
// not it has been extracted yet.
func (c *Cache) Dir(name, version string) string {
	return filepath.Join(c.baseDir, name, version, "package")
}

// Has reports whether (name, version) is already extracted.
func (c *Cache) Has(name, version string) bool {
	info, err := os.Stat(c.Dir(name, version))
	return err == nil && info.IsDir()
}

// Extract reads a gzipped tarball from r and extracts it into the cache at
// (name, version), via a temp directory + atomic rename. Concurrent
// extractions of the same (name, version) resolve to idempotent success
//.
func (c *Cache) Extract(r io.Reader, name, version string) (string, error) {
	final := c.Dir(name, version)
	if c.Has(name, version) {
		return final, nil
	}

	versionDir := filepath.Dir(final)
	if err := os.MkdirAll(versionDir, 0o750); err != nil {
		return "", err
	}

	tmpDir, err := os.MkdirTemp(versionDir, "extract-*")
	if err != nil {
		return "", err
	}
	defer os.RemoveAll(tmpDir)

	topDirs, err := extractTar(r, tmpDir)
	if err != nil {
		return "", howtherrors.Failure(howtherrors.CodePkgExtractFailed,
			fmt.Sprintf("failed to extract %s@%s", name, version), err.Error(), "", err)
	}

	extractedRoot, err := resolveTopLevelDir(tmpDir, topDirs)
	if err != nil {
		return "", howtherrors.Failure(howtherrors.CodePkgExtractFailed,
			fmt.Sprintf("failed to extract %s@%s", name, version), err.Error(), "", err)
	}

	if err := os.Rename(extractedRoot, final); err != nil {
		if c.Has(name, version) {
			return final, nil
		}
		return "", howtherrors.Failure(howtherrors.CodePkgExtractFailed,
			fmt.Sprintf("failed to place %s@%s into cache", name, version), err.Error(), "", err)
	}

	return final, nil
}

// resolveTopLevelDir picks the single directory extraction should be
// renamed from: conventionally "package/", else the sole top-level
// directory present. Zero or ≥2 top-level directories is a distinguished
// error.
func resolveTopLevelDir(tmpDir string, topDirs map[string]bool) (string, error) {
	if topDirs["package"] {
		return filepath.Join(tmpDir, "package"), nil
	}
	if len(topDirs) != 1 {
		return "", fmt.Errorf("expected exactly one top-level directory in tarball, found %d", len(topDirs))
	}
	for dir := range topDirs {
		return filepath.Join(tmpDir, dir), nil
	}
	return "", fmt.Errorf("unreachable")
}

// extractTar extracts a gzipped tar stream into destDir, rejecting absolute
// paths and path-traversal entries, and returns the set of top-level
// directory names it saw.
func extractTar(r io.Reader, destDir string) (map[string]bool, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("not a gzip stream: %w", err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	topDirs := make(map[string]bool)

	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		cleanName := filepath.Clean(hdr.Name)
		if filepath.IsAbs(cleanName) || strings.HasPrefix(cleanName, "..") {
			return nil, fmt.Errorf("tarball entry %q escapes extraction target", hdr.Name)
		}

		parts := strings.SplitN(filepath.ToSlash(cleanName), "/", 2)
		if parts[0] != "" && parts[0] != "." {
			topDirs[parts[0]] = true
		}

		target := filepath.Join(destDir, cleanName)
		if !strings.HasPrefix(target, filepath.Clean(destDir)+string(os.PathSeparator)) && target != filepath.Clean(destDir) {
			return nil, fmt.Errorf("tarball entry %q escapes extraction target", hdr.Name)
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o750); err != nil {
				return nil, err
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
				return nil, err
			}
			mode := hdr.FileInfo().Mode()
			if mode == 0 {
				mode = 0o640
			}
			out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
			if err != nil {
				return nil, err
			}
			if _, err := io.Copy(out, tr); err != nil {
				out.Close()
				return nil, err
			}
			out.Close()
		case tar.TypeSymlink, tar.TypeLink:
			// Package tarballs legitimately containing symlinks are rare and a
			// common vector for extraction escapes; skip rather than follow.
			continue
		}
	}

	return topDirs, nil
}
