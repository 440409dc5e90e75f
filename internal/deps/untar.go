package deps

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Unpack extracts a forge tar.gz archive into dest, stripping the
// archive's single top-level directory (forges name it
// {repo}-{ref}/...). Any existing content at dest is replaced.
func Unpack(archive []byte, dest string) error {
	if err := os.RemoveAll(dest); err != nil {
		return fmt.Errorf("deps: clear %s: %w", dest, err)
	}
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return fmt.Errorf("deps: create %s: %w", dest, err)
	}

	gz, err := gzip.NewReader(bytes.NewReader(archive))
	if err != nil {
		return fmt.Errorf("deps: gunzip: %w", err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("deps: read tar: %w", err)
		}

		rel := stripRoot(hdr.Name)
		if rel == "" {
			continue
		}
		target, err := securePath(dest, rel)
		if err != nil {
			return err
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("deps: mkdir %s: %w", target, err)
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return fmt.Errorf("deps: mkdir for %s: %w", target, err)
			}
			f, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
			if err != nil {
				return fmt.Errorf("deps: create %s: %w", target, err)
			}
			if _, err := io.Copy(f, tr); err != nil {
				f.Close()
				return fmt.Errorf("deps: extract %s: %w", target, err)
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("deps: close %s: %w", target, err)
			}
		default:
			// Symlinks and special files in source archives are skipped.
		}
	}
}

// stripRoot drops the first path component of an archive entry name.
func stripRoot(name string) string {
	name = strings.TrimPrefix(name, "./")
	if idx := strings.IndexByte(name, '/'); idx >= 0 {
		return name[idx+1:]
	}
	return ""
}

// securePath joins rel under dest, rejecting traversal outside it.
func securePath(dest, rel string) (string, error) {
	target := filepath.Join(dest, filepath.FromSlash(rel))
	if !strings.HasPrefix(target, filepath.Clean(dest)+string(os.PathSeparator)) {
		return "", fmt.Errorf("deps: archive entry %q escapes package directory", rel)
	}
	return target, nil
}
