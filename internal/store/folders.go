package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path"
	"slices"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// RootPath is the path of the repository root folder.
const RootPath = "/"

// Folder is one row of the folder index.
type Folder struct {
	ID       int64  `yaml:"id" json:"id"`
	Path     string `yaml:"path" json:"path"`
	ParentID int64  `yaml:"-" json:"parent_id,omitempty"`
}

// ErrParentMissing is returned when a folder's parent is not indexed.
var ErrParentMissing = errors.New("parent folder not indexed")

// CleanPath normalizes a folder path: absolute, NFC, no trailing slash and
// no empty, "." or ".." segments.
func CleanPath(p string) (string, error) {
	if !strings.HasPrefix(p, "/") {
		return "", fmt.Errorf("folder path %q is not absolute", p)
	}
	return path.Clean(norm.NFC.String(p)), nil
}

// PutFolder inserts or updates one folder. Its parent must already be
// indexed; the root folder has none.
func (s *Store) PutFolder(ctx context.Context, f Folder) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return putFolder(ctx, tx, f)
	})
}

// ImportFolders indexes folders in one transaction. Parents are inserted
// before children regardless of input order.
func (s *Store) ImportFolders(ctx context.Context, folders []Folder) error {
	sorted := slices.Clone(folders)
	for i := range sorted {
		clean, err := CleanPath(sorted[i].Path)
		if err != nil {
			return err
		}
		sorted[i].Path = clean
	}
	slices.SortStableFunc(sorted, func(a, b Folder) int {
		return depth(a.Path) - depth(b.Path)
	})

	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, f := range sorted {
			if err := putFolder(ctx, tx, f); err != nil {
				return err
			}
		}
		return nil
	})
}

func depth(p string) int {
	if p == RootPath {
		return 0
	}
	return strings.Count(p, "/")
}

func putFolder(ctx context.Context, tx *sql.Tx, f Folder) error {
	p, err := CleanPath(f.Path)
	if err != nil {
		return err
	}

	var parent sql.NullInt64
	name := path.Base(p)
	if p == RootPath {
		name = ""
	} else {
		parentPath := path.Dir(p)
		var id int64
		err := tx.QueryRowContext(ctx, `SELECT id FROM folders WHERE path = ?`, parentPath).Scan(&id)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("folder %s: %w: %s", p, ErrParentMissing, parentPath)
		}
		if err != nil {
			return fmt.Errorf("lookup parent of %s: %w", p, err)
		}
		parent = sql.NullInt64{Int64: id, Valid: true}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO folders (id, parent_id, name, path)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			parent_id = excluded.parent_id,
			name = excluded.name,
			path = excluded.path
	`, f.ID, parent, name, p)
	if err != nil {
		return fmt.Errorf("write folder %d %s: %w", f.ID, p, err)
	}
	return nil
}

// ListFolders returns every indexed folder ordered by path.
func (s *Store) ListFolders(ctx context.Context) ([]Folder, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, COALESCE(parent_id, 0), path
		FROM folders
		ORDER BY path COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query folders: %w", err)
	}
	defer rows.Close()

	folders := []Folder{}
	for rows.Next() {
		var f Folder
		if err := rows.Scan(&f.ID, &f.ParentID, &f.Path); err != nil {
			return nil, fmt.Errorf("scan folder: %w", err)
		}
		folders = append(folders, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate folders: %w", err)
	}
	return folders, nil
}

// ExpandPath resolves a LIKE pattern to folder ids in ascending order. A
// pattern matches a folder when it matches the folder's path with a
// trailing slash, the prefix of every item path inside it. A pattern
// without unescaped wildcards names one folder; a backslash escapes
// '%', '_' and itself.
func (s *Store) ExpandPath(ctx context.Context, pattern string) ([]int64, error) {
	pattern = norm.NFC.String(pattern)

	var (
		query string
		arg   string
	)
	literal, isLiteral := unescapeLike(pattern)
	if !isLiteral {
		query = `
			SELECT id FROM folders
			WHERE (CASE WHEN path = '/' THEN '/' ELSE path || '/' END) GLOB ?
			ORDER BY id ASC`
		arg = likeToGlob(pattern)
	} else {
		clean, err := CleanPath(literal)
		if err != nil {
			return nil, err
		}
		query = `SELECT id FROM folders WHERE path = ? ORDER BY id ASC`
		arg = clean
	}

	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("expand %q: %w", pattern, err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan folder id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate folder ids: %w", err)
	}
	return ids, nil
}

// unescapeLike returns the path a LIKE pattern matches literally, and
// false when the pattern contains an unescaped wildcard.
func unescapeLike(like string) (string, bool) {
	var b strings.Builder
	escaped := false
	for _, r := range like {
		switch {
		case escaped:
			b.WriteRune(r)
			escaped = false
		case r == '\\':
			escaped = true
		case r == '%' || r == '_':
			return "", false
		default:
			b.WriteRune(r)
		}
	}
	return b.String(), true
}

// likeToGlob translates a LIKE pattern into an equivalent case-sensitive
// GLOB pattern. A backslash escapes the next character.
func likeToGlob(like string) string {
	var b strings.Builder
	escaped := false
	for _, r := range like {
		switch {
		case escaped:
			writeGlobLiteral(&b, r)
			escaped = false
		case r == '\\':
			escaped = true
		case r == '%':
			b.WriteByte('*')
		case r == '_':
			b.WriteByte('?')
		default:
			writeGlobLiteral(&b, r)
		}
	}
	return b.String()
}

func writeGlobLiteral(b *strings.Builder, r rune) {
	switch r {
	case '*', '?', '[':
		b.WriteByte('[')
		b.WriteRune(r)
		b.WriteByte(']')
	default:
		b.WriteRune(r)
	}
}

func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
