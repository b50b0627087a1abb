package artifact

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ArchiveDir packs the contents of dir into a tar.gz archive with paths
// relative to dir. Only directories and regular files are archived, anything
// else (symlinks, sockets) is skipped. limit caps the compressed size, zero
// means no cap.
func ArchiveDir(dir string, limit int) ([]byte, error) {
	var buf bytes.Buffer
	gzipWriter := gzip.NewWriter(&buf)
	tarWriter := tar.NewWriter(gzipWriter)

	err := filepath.Walk(dir, func(file string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(dir, file)
		if err != nil {
			return err
		}
		if relPath == "." || (!fi.IsDir() && !fi.Mode().IsRegular()) {
			return nil
		}

		header, err := tar.FileInfoHeader(fi, "")
		if err != nil {
			return err
		}
		header.Name = filepath.ToSlash(relPath)
		if fi.IsDir() {
			header.Name += "/"
		}

		if err := tarWriter.WriteHeader(header); err != nil {
			return err
		}

		if fi.IsDir() {
			return nil
		}

		data, err := os.Open(file)
		if err != nil {
			return err
		}
		defer data.Close()

		if _, err := io.Copy(tarWriter, data); err != nil {
			return err
		}

		if limit > 0 && buf.Len() > limit {
			return fmt.Errorf("archive exceeds limit: more than %d bytes", limit)
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to archive %s: %w", dir, err)
	}

	if err := tarWriter.Close(); err != nil {
		return nil, err
	}
	if err := gzipWriter.Close(); err != nil {
		return nil, err
	}

	if limit > 0 && buf.Len() > limit {
		return nil, fmt.Errorf("archive exceeds limit: %d bytes > %d bytes", buf.Len(), limit)
	}

	return buf.Bytes(), nil
}
