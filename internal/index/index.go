package index

import "github.com/starford/mdtree/internal/models"

// DocumentIndex is the set of index operations used by the services.
type DocumentIndex interface {
	Upsert(d DocumentRow, text string, headings []models.Heading, links []models.Link) error
	Delete(path string) error
	GetChecksum(path string) (string, error)
	GetDocument(path string) (*DocumentRow, error)
	ListDocuments(opts ListOptions) ([]DocumentRow, int, error)
	Outline(path string) ([]models.Heading, error)
	Search(query string, limit int) ([]models.SearchHit, error)
	Backlinks(path string) ([]models.Link, error)
	AllChecksums() (map[string]string, error)
	Close() error
}

var _ DocumentIndex = (*DB)(nil)
