package service

import (
	"context"
	"log"

	"github.com/ridwanfathin/tour-quote-service/internal/domain"
	"github.com/ridwanfathin/tour-quote-service/internal/metrics"
	"github.com/ridwanfathin/tour-quote-service/internal/versioning"
)

// SaveVersionInput names a snapshot. AsNew also makes it the loaded version.
type SaveVersionInput struct {
	Name  string
	Note  string
	AsNew bool
}

// SavedVersion is the outcome of SaveVersion
type SavedVersion struct {
	Record         domain.VersionRecord `json:"record"`
	Index          int                  `json:"index"`
	CurrentVersion int                  `json:"current_version"`
	ArchiveKey     string               `json:"archive_key,omitempty"`
}

// VersionList is the version history of a quote
type VersionList struct {
	Versions       []domain.VersionRecord `json:"versions"`
	CurrentVersion int                    `json:"current_version"`
}

// SaveVersion snapshots the live state. When an archiver is configured the
// snapshot is also uploaded; an upload failure is logged and counted but
// does not fail the save.
func (s *QuoteServiceImpl) SaveVersion(ctx context.Context, quoteID string, input SaveVersionInput) (*SavedVersion, error) {
	var saved SavedVersion
	quote, err := s.mutate(ctx, quoteID, "save_version", func(quote *domain.Quote) error {
		store := s.versionStore(quote)
		if input.AsNew {
			saved.Record, saved.Index = store.SaveAsNewVersion(input.Name, input.Note)
		} else {
			saved.Record = store.Save(input.Name, input.Note)
			saved.Index = len(quote.Versions) - 1
		}
		return nil
	})
	op := "save"
	if input.AsNew {
		op = "save_as_new"
	}
	s.metrics.VersionOps.WithLabelValues(op, metrics.Outcome(err)).Inc()
	if err != nil {
		return nil, err
	}
	saved.CurrentVersion = quote.CurrentVersion
	log.Printf("Saved version %d (%s) of quote %s", saved.Record.Version, saved.Record.Name, quoteID)

	if s.archiver != nil {
		key, archiveErr := s.archiver.Archive(ctx, quoteID, saved.Record)
		if archiveErr != nil {
			s.metrics.ArchiveErrors.Inc()
			log.Printf("Warning: failed to archive version %d of quote %s: %v", saved.Record.Version, quoteID, archiveErr)
		} else {
			saved.ArchiveKey = key
		}
	}
	return &saved, nil
}

// ListVersions returns the saved versions and the loaded marker
func (s *QuoteServiceImpl) ListVersions(ctx context.Context, quoteID string) (*VersionList, error) {
	quote, err := s.loadQuote(ctx, quoteID)
	if err != nil {
		return nil, &QuoteServiceError{Op: "list_versions", Err: err}
	}
	store := s.versionStore(quote)
	return &VersionList{Versions: store.Versions(), CurrentVersion: store.CurrentVersion()}, nil
}

// LoadVersion makes version index the live state; -1 returns to the primary
func (s *QuoteServiceImpl) LoadVersion(ctx context.Context, quoteID string, index int) (*domain.Quote, error) {
	quote, err := s.mutate(ctx, quoteID, "load_version", func(quote *domain.Quote) error {
		_, err := s.versionStore(quote).Load(index)
		return err
	})
	s.metrics.VersionOps.WithLabelValues("load", metrics.Outcome(err)).Inc()
	return quote, err
}

// DeleteVersion removes version index
func (s *QuoteServiceImpl) DeleteVersion(ctx context.Context, quoteID string, index int) (*domain.Quote, error) {
	quote, err := s.mutate(ctx, quoteID, "delete_version", func(quote *domain.Quote) error {
		_, err := s.versionStore(quote).Delete(index)
		return err
	})
	s.metrics.VersionOps.WithLabelValues("delete", metrics.Outcome(err)).Inc()
	return quote, err
}

func (s *QuoteServiceImpl) versionStore(quote *domain.Quote) *versioning.Store {
	return versioning.NewStore(quote, versioning.WithClock(s.now), versioning.WithIDGenerator(s.newID))
}
