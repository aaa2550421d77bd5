// Package memory keeps every repository in process memory. It backs the
// local-only mode and the service tests, and mirrors the postgres semantics:
// sequential ids are max+1, link pairs are unique and deletes cascade.
package memory

import (
	"sync"

	"github.com/yoockh/applytrack/internal/models"
	"github.com/yoockh/applytrack/internal/repositories"
)

type Store struct {
	mu sync.RWMutex

	jobs     map[string]models.JobDescription
	history  []models.StatusHistory
	activity []models.ActivityLog
	docs     map[string]map[string]models.Document // kind name -> id -> doc
	links    map[string][]models.DocumentLink      // kind name -> links
	cache    map[string]models.ScraperCache        // input hash -> row
}

func NewStore() *Store {
	return &Store{
		jobs: map[string]models.JobDescription{},
		docs: map[string]map[string]models.Document{
			models.KindResume.Name:      {},
			models.KindCoverLetter.Name: {},
		},
		links: map[string][]models.DocumentLink{},
		cache: map[string]models.ScraperCache{},
	}
}

func (s *Store) Jobs() repositories.JobRepository { return &jobRepo{s: s} }

func (s *Store) Resumes() repositories.DocumentRepository {
	return &documentRepo{s: s, kind: models.KindResume}
}

func (s *Store) CoverLetters() repositories.DocumentRepository {
	return &documentRepo{s: s, kind: models.KindCoverLetter}
}

func (s *Store) ScraperCache() repositories.ScraperCacheRepository { return &scraperCacheRepo{s: s} }

// dropJobLinks must be called with mu held.
func (s *Store) dropJobLinks(jobID string) {
	for kind, links := range s.links {
		kept := links[:0]
		for _, l := range links {
			if l.JobDescriptionID != jobID {
				kept = append(kept, l)
			}
		}
		s.links[kind] = kept
	}
}
