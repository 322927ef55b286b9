package index

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/starford/mdtree/internal/apperr"
	"github.com/starford/mdtree/internal/models"
)

// DocumentRow represents a row in the documents table.
type DocumentRow struct {
	Path      string
	Title     string
	Checksum  string
	Tags      []string
	Size      int64
	UpdatedAt time.Time
}

// ListOptions filters and pages ListDocuments.
type ListOptions struct {
	Limit  int
	Offset int
	Tag    string
	// Prefix restricts results to paths under a directory.
	Prefix string
	// Sort is one of "path", "title" or "updated". Defaults to "path".
	Sort string
}

var sortColumns = map[string]string{
	"":        "path ASC",
	"path":    "path ASC",
	"title":   "title ASC, path ASC",
	"updated": "updated_at DESC, path ASC",
}

// Upsert inserts or replaces a document together with its full-text entry,
// outline and outgoing links.
func (db *DB) Upsert(d DocumentRow, text string, headings []models.Heading, links []models.Link) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if d.Tags == nil {
		d.Tags = []string{}
	}
	tagsJSON, _ := json.Marshal(d.Tags)

	_, err = tx.Exec(`
		INSERT INTO documents (path, title, checksum, tags, body, size, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			title      = excluded.title,
			checksum   = excluded.checksum,
			tags       = excluded.tags,
			body       = excluded.body,
			size       = excluded.size,
			updated_at = excluded.updated_at
	`, d.Path, d.Title, d.Checksum, string(tagsJSON), text, d.Size, d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert document: %w", err)
	}

	if err := ftsUpsert(tx, d.Path, d.Title, text, d.Tags); err != nil {
		return err
	}

	if _, err := tx.Exec(`DELETE FROM headings WHERE path = ?`, d.Path); err != nil {
		return fmt.Errorf("index: clear headings: %w", err)
	}
	if len(headings) > 0 {
		stmt, err := tx.Prepare(`INSERT INTO headings (path, ord, level, text, line) VALUES (?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("index: prepare heading insert: %w", err)
		}
		defer stmt.Close()
		for i, h := range headings {
			if _, err := stmt.Exec(d.Path, i, h.Level, h.Text, h.Line); err != nil {
				return fmt.Errorf("index: insert heading: %w", err)
			}
		}
	}

	if _, err := tx.Exec(`DELETE FROM links WHERE source = ?`, d.Path); err != nil {
		return fmt.Errorf("index: clear links: %w", err)
	}
	if len(links) > 0 {
		stmt, err := tx.Prepare(`INSERT OR IGNORE INTO links (source, target, type) VALUES (?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("index: prepare link insert: %w", err)
		}
		defer stmt.Close()
		for _, l := range links {
			if _, err := stmt.Exec(d.Path, l.Target, l.Type); err != nil {
				return fmt.Errorf("index: insert link: %w", err)
			}
		}
	}

	return tx.Commit()
}

// Delete removes a document and everything derived from it.
func (db *DB) Delete(path string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, path)
	_, _ = tx.Exec(`DELETE FROM headings WHERE path = ?`, path)
	_, _ = tx.Exec(`DELETE FROM links WHERE source = ?`, path)
	if _, err := tx.Exec(`DELETE FROM documents WHERE path = ?`, path); err != nil {
		return fmt.Errorf("index: delete document: %w", err)
	}
	return tx.Commit()
}

// GetChecksum returns the stored checksum for a document, or the empty
// string if it is not indexed.
func (db *DB) GetChecksum(path string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM documents WHERE path = ?`, path).Scan(&cs)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("index: checksum: %w", err)
	}
	return cs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRow(s scanner) (DocumentRow, error) {
	var (
		r    DocumentRow
		tags string
	)
	if err := s.Scan(&r.Path, &r.Title, &r.Checksum, &tags, &r.Size, &r.UpdatedAt); err != nil {
		return r, err
	}
	_ = json.Unmarshal([]byte(tags), &r.Tags)
	return r, nil
}

const rowColumns = `path, title, checksum, tags, size, updated_at`

// GetDocument returns one indexed document or apperr.ErrNotFound.
func (db *DB) GetDocument(path string) (*DocumentRow, error) {
	r, err := scanRow(db.conn.QueryRow(`SELECT `+rowColumns+` FROM documents WHERE path = ?`, path))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", apperr.ErrNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("index: get document: %w", err)
	}
	return &r, nil
}

// ListDocuments returns a page of documents and the total number matching
// the filters.
func (db *DB) ListDocuments(opts ListOptions) ([]DocumentRow, int, error) {
	order, ok := sortColumns[opts.Sort]
	if !ok {
		return nil, 0, fmt.Errorf("%w: sort %q", apperr.ErrInvalidFormat, opts.Sort)
	}
	if opts.Limit <= 0 {
		opts.Limit = 50
	}

	var (
		where []string
		args  []any
	)
	if opts.Tag != "" {
		where = append(where, `EXISTS (SELECT 1 FROM json_each(documents.tags) WHERE json_each.value = ?)`)
		args = append(args, opts.Tag)
	}
	if p := strings.Trim(opts.Prefix, "/"); p != "" {
		where = append(where, `path LIKE ? ESCAPE '\'`)
		args = append(args, escapeLike(p)+"/%")
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := db.conn.QueryRow(`SELECT count(*) FROM documents`+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("index: count documents: %w", err)
	}

	rows, err := db.conn.Query(`SELECT `+rowColumns+` FROM documents`+clause+
		` ORDER BY `+order+` LIMIT ? OFFSET ?`, append(args, opts.Limit, opts.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("index: list documents: %w", err)
	}
	defer rows.Close()

	var out []DocumentRow
	for rows.Next() {
		r, err := scanRow(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, r)
	}
	return out, total, rows.Err()
}

// Outline returns the headings of a document in order.
func (db *DB) Outline(path string) ([]models.Heading, error) {
	if _, err := db.GetDocument(path); err != nil {
		return nil, err
	}
	rows, err := db.conn.Query(`SELECT level, text, line FROM headings WHERE path = ? ORDER BY ord`, path)
	if err != nil {
		return nil, fmt.Errorf("index: outline: %w", err)
	}
	defer rows.Close()

	out := []models.Heading{}
	for rows.Next() {
		var h models.Heading
		if err := rows.Scan(&h.Level, &h.Text, &h.Line); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// Backlinks returns the links pointing at a document, matching relative
// links by path and wikilinks by path or name without extension.
func (db *DB) Backlinks(target string) ([]models.Link, error) {
	noExt := strings.TrimSuffix(target, path.Ext(target))
	rows, err := db.conn.Query(`
		SELECT DISTINCT source, target, type FROM links
		WHERE (type = 'relative' AND target = ?)
		   OR (type = 'wikilink' AND target IN (?, ?, ?))
		ORDER BY source
	`, target, target, noExt, path.Base(noExt))
	if err != nil {
		return nil, fmt.Errorf("index: backlinks: %w", err)
	}
	defer rows.Close()

	var out []models.Link
	for rows.Next() {
		var l models.Link
		if err := rows.Scan(&l.Source, &l.Target, &l.Type); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// AllChecksums returns path → checksum for every indexed document.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM documents`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
