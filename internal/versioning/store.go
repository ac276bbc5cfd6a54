// Package versioning keeps named snapshots of a quote's pricing state and
// moves the live state between the primary state and those snapshots.
package versioning

import (
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/ridwanfathin/tour-quote-service/internal/domain"
	"github.com/ridwanfathin/tour-quote-service/internal/pricing"
)

// Store operates on one quote. It is not safe for concurrent use; callers
// serialise access per quote.
type Store struct {
	quote *domain.Quote
	now   func() time.Time
	newID func() string
}

// Option configures a Store
type Option func(*Store)

// WithClock overrides the time source used for saved_at
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator overrides the version id generator
func WithIDGenerator(newID func() string) Option {
	return func(s *Store) { s.newID = newID }
}

// NewStore wraps a quote. The quote is mutated in place by every operation.
func NewStore(quote *domain.Quote, opts ...Option) *Store {
	s := &Store{
		quote: quote,
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.quote.Versions == nil {
		s.quote.Versions = []domain.VersionRecord{}
	}
	return s
}

// Quote returns the wrapped quote
func (s *Store) Quote() *domain.Quote {
	return s.quote
}

// Versions returns a copy of the saved versions in storage order
func (s *Store) Versions() []domain.VersionRecord {
	out := make([]domain.VersionRecord, len(s.quote.Versions))
	for i, v := range s.quote.Versions {
		out[i] = v.Clone()
	}
	return out
}

// CurrentVersion returns the index of the loaded version, or -1 for primary
func (s *Store) CurrentVersion() int {
	return s.quote.CurrentVersion
}

// Save appends a snapshot of the live state. The current marker is unchanged.
func (s *Store) Save(name, note string) domain.VersionRecord {
	record := s.snapshot(name, note)
	s.quote.Versions = append(s.quote.Versions, record)
	s.touch()
	return record.Clone()
}

// SaveAsNewVersion appends a snapshot and marks it as the loaded version.
// It returns the record and its index.
func (s *Store) SaveAsNewVersion(name, note string) (domain.VersionRecord, int) {
	if s.quote.CurrentVersion == domain.PrimaryVersion {
		primary := s.quote.State.Clone()
		s.quote.Primary = &primary
	}
	record := s.snapshot(name, note)
	s.quote.Versions = append(s.quote.Versions, record)
	s.quote.CurrentVersion = len(s.quote.Versions) - 1
	s.touch()
	return record.Clone(), s.quote.CurrentVersion
}

// Load replaces the live state with version index, or with the primary state
// for index -1. Loading from the primary first stashes the live state as the
// primary. The operation is all-or-nothing and returns the new marker.
func (s *Store) Load(index int) (int, error) {
	if index == domain.PrimaryVersion {
		if s.quote.Primary != nil {
			s.quote.State = s.quote.Primary.Clone()
			s.quote.Primary = nil
		}
		s.quote.CurrentVersion = domain.PrimaryVersion
		s.touch()
		return s.quote.CurrentVersion, nil
	}
	if err := s.checkIndex(index); err != nil {
		return s.quote.CurrentVersion, err
	}

	if s.quote.CurrentVersion == domain.PrimaryVersion {
		primary := s.quote.State.Clone()
		s.quote.Primary = &primary
	}
	s.quote.State = s.quote.Versions[index].State.Clone()
	s.quote.CurrentVersion = index
	s.touch()
	return s.quote.CurrentVersion, nil
}

// Delete removes version index. Deleting the loaded version resets the marker
// to -1 and the live state becomes the primary state. A loaded version above
// the deleted one shifts down by one.
func (s *Store) Delete(index int) (int, error) {
	if err := s.checkIndex(index); err != nil {
		return s.quote.CurrentVersion, err
	}

	versions := make([]domain.VersionRecord, 0, len(s.quote.Versions)-1)
	versions = append(versions, s.quote.Versions[:index]...)
	versions = append(versions, s.quote.Versions[index+1:]...)
	s.quote.Versions = versions

	switch current := s.quote.CurrentVersion; {
	case current == index:
		s.quote.CurrentVersion = domain.PrimaryVersion
		s.quote.Primary = nil
	case current > index:
		s.quote.CurrentVersion = current - 1
	}
	s.touch()
	return s.quote.CurrentVersion, nil
}

// NextVersionNumber is one above the highest number ever issued, so numbers
// never repeat after a delete
func (s *Store) NextVersionNumber() int {
	highest := s.quote.LastVersionNumber
	for _, v := range s.quote.Versions {
		if v.Version > highest {
			highest = v.Version
		}
	}
	return highest + 1
}

func (s *Store) snapshot(name, note string) domain.VersionRecord {
	number := s.NextVersionNumber()
	if name == "" {
		name = "版本 " + strconv.Itoa(number)
	}
	s.quote.LastVersionNumber = number
	state := s.quote.State.Clone()
	breakdown := pricing.Aggregate(state.Categories, state.ParticipantCounts)
	return domain.VersionRecord{
		ID:        s.newID(),
		Version:   number,
		Name:      name,
		Note:      note,
		SavedAt:   s.now(),
		TotalCost: breakdown.TotalCost,
		State:     state,
	}
}

func (s *Store) checkIndex(index int) error {
	if index < 0 || index >= len(s.quote.Versions) {
		return &domain.NotFoundError{
			Resource: "version",
			ID:       strconv.Itoa(index),
			Err:      domain.ErrVersionNotFound,
		}
	}
	return nil
}

func (s *Store) touch() {
	s.quote.UpdatedAt = s.now()
}
