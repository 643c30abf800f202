package ops

import (
	"bytes"
	"database/sql"
	"errors"
	"fmt"
	"hash"
	"io"
	"os"
	"slices"
	"strings"

	_ "github.com/mattn/go-sqlite3" // registers the sqlite3 driver with database/sql
)

var sqliteMagic = []byte("SQLite format 3\x00")

func isSQLite(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	head := make([]byte, len(sqliteMagic))
	if _, err := io.ReadFull(f, head); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return false, nil
		}
		return false, err
	}
	return bytes.Equal(head, sqliteMagic), nil
}

func openSQLite(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	return db, nil
}

// snapshotSQLite copies the committed content of src, write-ahead log
// included, into a fresh database file at dst.
func snapshotSQLite(src, dst string) error {
	db, err := openSQLite(src)
	if err != nil {
		return err
	}
	defer db.Close()

	_, err = db.Exec("VACUUM INTO ?", dst)
	return err
}

// hashSQLite writes every table's rows to h. Rows are sorted so the result
// does not depend on page layout, which a snapshot is free to change.
func hashSQLite(path string, h hash.Hash) error {
	db, err := openSQLite(path)
	if err != nil {
		return err
	}
	defer db.Close()

	tables, err := queryStrings(db, `SELECT name FROM sqlite_master WHERE type = 'table' ORDER BY name`)
	if err != nil {
		return err
	}
	for _, table := range tables {
		rows, err := tableRows(db, table)
		if err != nil {
			return fmt.Errorf("table %s: %w", table, err)
		}
		slices.Sort(rows)
		fmt.Fprintf(h, "table %s %d\n", table, len(rows))
		for _, row := range rows {
			_, _ = io.WriteString(h, row+"\n")
		}
	}
	return nil
}

func queryStrings(db *sql.DB, query string) ([]string, error) {
	rows, err := db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func tableRows(db *sql.DB, table string) ([]string, error) {
	rows, err := db.Query(`SELECT * FROM "` + strings.ReplaceAll(table, `"`, `""`) + `"`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	vals := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}

	var out []string
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		var b strings.Builder
		for i, v := range vals {
			if i > 0 {
				b.WriteByte('\x1f')
			}
			fmt.Fprintf(&b, "%v", v)
		}
		out = append(out, b.String())
	}
	return out, rows.Err()
}
