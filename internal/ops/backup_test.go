package ops

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sharleen10/todolist/internal/task"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func readTree(t *testing.T, root string) map[string]string {
	t.Helper()
	got := map[string]string{}
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		b, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		got[filepath.ToSlash(rel)] = string(b)
		return nil
	})
	require.NoError(t, err)
	return got
}

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestBackupRestoreDataDir_RoundTrip(t *testing.T) {
	src := filepath.Join(t.TempDir(), "data")
	files := map[string]string{
		"tasks.json":     `{"nextId":2,"tasks":[{"id":1,"title":"Buy milk"}]}`,
		"catalog.json":   `{"projects":["Home"],"labels":["errand"]}`,
		"notes.bin":      "SQLite",
		"nested/old.txt": "kept",
	}
	writeTree(t, src, files)
	writeTree(t, src, map[string]string{"tasks.db-journal": "scratch"})

	archive := filepath.Join(t.TempDir(), "backups", "backup.tar.gz")
	require.NoError(t, BackupDataDir(src, archive))
	_, err := os.Stat(archive)
	require.NoError(t, err)

	restoreDir := filepath.Join(t.TempDir(), "restore")
	require.NoError(t, RestoreDataDir(archive, restoreDir))

	assert.Equal(t, files, readTree(t, restoreDir))
}

func openLiveStore(t *testing.T, dir string, titles ...string) *task.SQLiteRepo {
	t.Helper()
	repo, err := task.OpenSQLiteRepo(filepath.Join(dir, "tasks.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	for _, title := range titles {
		_, err := repo.Create(context.Background(), task.Input{Title: title})
		require.NoError(t, err)
	}
	return repo
}

func TestBackupDataDir_OpenSQLiteStore(t *testing.T) {
	src := filepath.Join(t.TempDir(), "data")
	openLiveStore(t, src, "one", "two", "three")
	_, err := os.Stat(filepath.Join(src, "tasks.db-wal"))
	require.NoError(t, err, "rows should still be in the write-ahead log")

	archive := filepath.Join(t.TempDir(), "backup.tar.gz")
	require.NoError(t, BackupDataDir(src, archive))

	restoreDir := filepath.Join(t.TempDir(), "restore")
	require.NoError(t, RestoreDataDir(archive, restoreDir))
	_, err = os.Stat(filepath.Join(restoreDir, "tasks.db-wal"))
	assert.True(t, os.IsNotExist(err))

	restored, err := task.OpenSQLiteRepo(filepath.Join(restoreDir, "tasks.db"))
	require.NoError(t, err)
	defer restored.Close()
	list, err := restored.List(context.Background(), task.Filter{})
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "three", list[2].Title)

	next, err := restored.Create(context.Background(), task.Input{Title: "four"})
	require.NoError(t, err)
	assert.Equal(t, 4, next.ID)
}

func TestBackupDataDir_FailureLeavesNoArchive(t *testing.T) {
	src := filepath.Join(t.TempDir(), "data")
	writeTree(t, src, map[string]string{"tasks.db": "SQLite format 3\x00 but truncated"})

	archive := filepath.Join(t.TempDir(), "backup.tar.gz")
	assert.Error(t, BackupDataDir(src, archive))
	_, err := os.Stat(archive)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(archive + ".partial")
	assert.True(t, os.IsNotExist(err))
}

func TestBackupDataDir_RejectsFile(t *testing.T) {
	f := filepath.Join(t.TempDir(), "tasks.json")
	require.NoError(t, os.WriteFile(f, []byte("{}"), 0o644))

	err := BackupDataDir(f, filepath.Join(t.TempDir(), "out.tar.gz"))
	assert.ErrorContains(t, err, "not a directory")
}

func TestRestoreDataDir_RejectsPathTraversal(t *testing.T) {
	archive := filepath.Join(t.TempDir(), "bad.tar.gz")
	f, err := os.Create(archive)
	require.NoError(t, err)

	gz := gzip.NewWriter(f)
	tw := tar.NewWriter(gz)
	require.NoError(t, tw.WriteHeader(&tar.Header{
		Name:     "../escape.txt",
		Typeflag: tar.TypeReg,
		Mode:     0o644,
		Size:     int64(len("bad")),
	}))
	_, err = tw.Write([]byte("bad"))
	require.NoError(t, err)
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())

	out := filepath.Join(t.TempDir(), "out")
	assert.Error(t, RestoreDataDir(archive, out))
	_, err = os.Stat(filepath.Join(filepath.Dir(out), "escape.txt"))
	assert.True(t, os.IsNotExist(err))
}

func TestDrill_VerifiesDigest(t *testing.T) {
	src := filepath.Join(t.TempDir(), "data")
	writeTree(t, src, map[string]string{
		"tasks.json":   `{"nextId":1,"tasks":[]}`,
		"catalog.json": `{}`,
	})
	now := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)

	report, err := Drill(src, t.TempDir(), now, quietLogger())
	require.NoError(t, err)
	assert.Contains(t, report.Archive, "todolist-drill-20240310T090000Z.tar.gz")
	assert.NotEmpty(t, report.Digest)

	want, err := DirDigest(src)
	require.NoError(t, err)
	assert.Equal(t, want, report.Digest)
}

func TestDrill_OpenSQLiteStore(t *testing.T) {
	src := filepath.Join(t.TempDir(), "data")
	openLiveStore(t, src, "one", "two")
	writeTree(t, src, map[string]string{"catalog.json": `{}`})

	report, err := Drill(src, t.TempDir(), time.Now(), quietLogger())
	require.NoError(t, err)
	assert.NotEmpty(t, report.Digest)
}

func TestDirDigest_SeesUncheckpointedRows(t *testing.T) {
	empty := filepath.Join(t.TempDir(), "empty")
	openLiveStore(t, empty)
	full := filepath.Join(t.TempDir(), "full")
	openLiveStore(t, full, "one")

	a, err := DirDigest(empty)
	require.NoError(t, err)
	b, err := DirDigest(full)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestDirDigest_ChangesWithContent(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"tasks.json": "a"})
	first, err := DirDigest(root)
	require.NoError(t, err)

	writeTree(t, root, map[string]string{"tasks.json": "b"})
	second, err := DirDigest(root)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestArchiveName(t *testing.T) {
	got := ArchiveName(time.Date(2024, 1, 2, 3, 4, 5, 0, time.FixedZone("x", 3600)))
	assert.Equal(t, "todolist-20240102T020405Z.tar.gz", got)
}
