// Package ops backs up and restores the data directory used by the file
// and sqlite stores.
package ops

import (
	"archive/tar"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const stampLayout = "20060102T150405Z"

// ArchiveName is the default backup file name for a point in time.
func ArchiveName(now time.Time) string {
	return "todolist-" + now.UTC().Format(stampLayout) + ".tar.gz"
}

// sidecar reports sqlite journal files. Their committed content is folded
// into the database snapshot, so they are never archived on their own.
func sidecar(name string) bool {
	return strings.HasSuffix(name, "-journal") || strings.HasSuffix(name, "-wal") || strings.HasSuffix(name, "-shm")
}

// BackupDataDir writes srcDir as a gzip'd tar to archivePath. Live sqlite
// databases are archived as a consistent snapshot that includes rows still
// sitting in the write-ahead log. Symlinks are skipped. The archive only
// appears at archivePath once it is complete.
func BackupDataDir(srcDir, archivePath string) (err error) {
	srcDir = filepath.Clean(strings.TrimSpace(srcDir))
	archivePath = filepath.Clean(strings.TrimSpace(archivePath))
	if srcDir == "." || archivePath == "." {
		return errors.New("srcDir and archivePath are required")
	}
	info, err := os.Stat(srcDir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("source is not a directory: %s", srcDir)
	}
	if err := os.MkdirAll(filepath.Dir(archivePath), 0o755); err != nil {
		return err
	}

	scratch, err := os.MkdirTemp("", "todolist-backup-")
	if err != nil {
		return err
	}
	defer os.RemoveAll(scratch)

	partial := archivePath + ".partial"
	aw, err := createArchive(partial)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := aw.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			_ = os.Remove(partial)
			return
		}
		err = os.Rename(partial, archivePath)
	}()

	return filepath.WalkDir(srcDir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil || path == srcDir {
			return walkErr
		}
		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		switch {
		case d.Type()&fs.ModeSymlink != 0, sidecar(rel):
			return nil
		case d.IsDir():
			return aw.addDir(rel, d)
		}

		source := path
		if ok, err := isSQLite(path); err != nil {
			return err
		} else if ok {
			source = filepath.Join(scratch, strings.ReplaceAll(rel, "/", "_"))
			if err := snapshotSQLite(path, source); err != nil {
				return fmt.Errorf("snapshot %s: %w", rel, err)
			}
		}
		return aw.addFile(rel, source, d)
	})
}

type archiveWriter struct {
	file *os.File
	gz   *gzip.Writer
	tw   *tar.Writer
}

func createArchive(path string) (*archiveWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	gz := gzip.NewWriter(f)
	return &archiveWriter{file: f, gz: gz, tw: tar.NewWriter(gz)}, nil
}

func (a *archiveWriter) addDir(rel string, d fs.DirEntry) error {
	info, err := d.Info()
	if err != nil {
		return err
	}
	return a.tw.WriteHeader(&tar.Header{
		Typeflag: tar.TypeDir,
		Name:     rel + "/",
		Mode:     int64(info.Mode().Perm()),
		ModTime:  info.ModTime(),
	})
}

// addFile stores the content of source under rel, keeping d's mode and mtime.
func (a *archiveWriter) addFile(rel, source string, d fs.DirEntry) error {
	info, err := d.Info()
	if err != nil {
		return err
	}
	src, err := os.Open(source)
	if err != nil {
		return err
	}
	defer src.Close()

	st, err := src.Stat()
	if err != nil {
		return err
	}
	if err := a.tw.WriteHeader(&tar.Header{
		Typeflag: tar.TypeReg,
		Name:     rel,
		Mode:     int64(info.Mode().Perm()),
		Size:     st.Size(),
		ModTime:  info.ModTime(),
	}); err != nil {
		return err
	}
	_, err = io.Copy(a.tw, src)
	return err
}

func (a *archiveWriter) Close() error {
	return errors.Join(a.tw.Close(), a.gz.Close(), a.file.Close())
}

// RestoreDataDir unpacks an archive made by BackupDataDir into targetDir.
// Entries that would land outside targetDir are rejected.
func RestoreDataDir(archivePath, targetDir string) error {
	archivePath = filepath.Clean(strings.TrimSpace(archivePath))
	targetDir = filepath.Clean(strings.TrimSpace(targetDir))
	if archivePath == "." || targetDir == "." {
		return errors.New("archivePath and targetDir are required")
	}
	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return err
	}

	f, err := os.Open(archivePath)
	if err != nil {
		return err
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return fmt.Errorf("read %s: %w", archivePath, err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := extract(tr, hdr, targetDir); err != nil {
			return err
		}
	}
}

func extract(r io.Reader, hdr *tar.Header, targetDir string) error {
	rel, err := entryPath(hdr.Name)
	if err != nil {
		return err
	}
	out := filepath.Join(targetDir, rel)
	mode := fs.FileMode(hdr.Mode).Perm()

	switch hdr.Typeflag {
	case tar.TypeDir:
		return os.MkdirAll(out, mode|0o700)
	case tar.TypeReg:
		if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
			return err
		}
		dst, err := os.OpenFile(out, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, mode)
		if err != nil {
			return err
		}
		_, err = io.Copy(dst, r)
		return errors.Join(err, dst.Close())
	default:
		return nil
	}
}

// entryPath validates an archive entry name and returns it as a local path.
func entryPath(name string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(strings.TrimSpace(name)))
	switch {
	case clean == "." || clean == "":
		return "", errors.New("invalid archive entry path")
	case filepath.IsAbs(clean):
		return "", fmt.Errorf("invalid absolute archive entry path: %s", name)
	case !filepath.IsLocal(clean):
		return "", fmt.Errorf("invalid archive entry path traversal: %s", name)
	}
	return clean, nil
}
