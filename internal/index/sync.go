package index

import (
	"log/slog"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/starford/mdtree/internal/checksum"
	"github.com/starford/mdtree/internal/models"
	"github.com/starford/mdtree/internal/parser"
	"github.com/starford/mdtree/internal/storage"
)

// Sync walks the workspace and brings the index up to date:
//   - new/changed files are parsed and upserted
//   - files removed from disk are deleted from the index
func Sync(db DocumentIndex, store storage.Provider, logger *slog.Logger) error {
	metas, err := store.List("")
	if err != nil {
		return err
	}

	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(metas))
	indexed := 0
	for _, m := range metas {
		disk[m.Path] = struct{}{}

		if checksums[m.Path] == m.Checksum {
			continue
		}

		data, err := store.Read(m.Path)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		if err := IndexDocument(db, m.Path, data, m.UpdatedAt); err != nil {
			logger.Warn("sync: index failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		indexed++
		logger.Debug("sync: indexed", slog.String("path", m.Path))
	}

	removed := 0
	for p := range checksums {
		if _, ok := disk[p]; ok {
			continue
		}
		if err := db.Delete(p); err != nil {
			logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
			continue
		}
		removed++
		logger.Debug("sync: removed stale", slog.String("path", p))
	}

	logger.Info("sync: done",
		slog.Int("documents", len(metas)),
		slog.Int("indexed", indexed),
		slog.Int("removed", removed))
	return nil
}

// IndexDocument parses data and upserts it under path.
func IndexDocument(db DocumentIndex, p string, data []byte, updated time.Time) error {
	res, err := parser.Parse(data)
	if err != nil {
		return err
	}
	if updated.IsZero() {
		updated = time.Now().UTC()
	}
	row := DocumentRow{
		Path:      p,
		Title:     res.Title,
		Checksum:  checksum.Sum(data),
		Tags:      res.Tags,
		Size:      int64(len(data)),
		UpdatedAt: updated,
	}
	return db.Upsert(row, res.Text, res.Headings, Links(p, res))
}

// Links classifies the destinations and wikilinks of a parsed document.
// Relative destinations are resolved against the directory of source and
// stripped of query and fragment.
func Links(source string, res *parser.Result) []models.Link {
	var out []models.Link
	for _, dest := range res.Links {
		u, err := url.Parse(dest)
		if err != nil {
			continue
		}
		if u.Scheme != "" || u.Host != "" {
			out = append(out, models.Link{Source: source, Target: dest, Type: "url"})
			continue
		}
		if u.Path == "" {
			continue // same-document anchor
		}
		target := u.Path
		if !strings.HasPrefix(target, "/") {
			target = path.Join(path.Dir(source), target)
		}
		target = strings.TrimPrefix(path.Clean(target), "/")
		out = append(out, models.Link{Source: source, Target: target, Type: "relative"})
	}
	for _, w := range res.Wikilinks {
		if i := strings.Index(w, "#"); i >= 0 {
			w = w[:i]
		}
		if w = strings.TrimSpace(w); w != "" {
			out = append(out, models.Link{Source: source, Target: w, Type: "wikilink"})
		}
	}
	return out
}
