package scoreboard

import (
	"fmt"
	"maps"
	"slices"

	"github.com/pscheid92/scorecast/internal/domain"
)

// PersistFunc durably records a candidate document. Returning an error aborts the mutation.
type PersistFunc func(doc domain.Document) error

// Store holds the canonical Document.
// All methods are called from the Hub actor goroutine (no concurrent access).
type Store struct {
	doc     domain.Document
	persist PersistFunc
}

// NewStore creates a store seeded with initial. persist may be nil (no durability).
func NewStore(initial domain.Document, persist PersistFunc) *Store {
	return &Store{doc: initial.Clone(), persist: persist}
}

// Document returns a deep copy of the current state.
func (s *Store) Document() domain.Document {
	return s.doc.Clone()
}

// MergeTeam applies patch to the team named by id and returns the updated team.
func (s *Store) MergeTeam(id domain.TeamID, patch domain.TeamPatch) (domain.Team, error) {
	if _, err := domain.ParseTeamID(string(id)); err != nil {
		return domain.Team{}, err
	}
	if err := patch.Validate(); err != nil {
		return domain.Team{}, err
	}

	candidate := s.doc.Clone()
	team, _ := candidate.Team(id)
	*team = MergeTeam(*team, patch)

	if err := s.commit(candidate); err != nil {
		return domain.Team{}, err
	}
	updated, _ := s.doc.Team(id)
	return updated.Clone(), nil
}

// ReplaceTopLevel overwrites each top-level field named in patch with its value.
// Nested values are taken as complete replacements, not merged.
func (s *Store) ReplaceTopLevel(patch domain.DocumentPatch) (domain.Document, error) {
	candidate := s.doc.Clone()
	for _, key := range slices.Sorted(maps.Keys(patch)) {
		if domain.IsReservedField(key) {
			return domain.Document{}, fmt.Errorf("%w: field %q is reserved", domain.ErrInvalidPatch, key)
		}
		if err := candidate.SetField(key, patch[key]); err != nil {
			return domain.Document{}, err
		}
	}

	if err := s.commit(candidate); err != nil {
		return domain.Document{}, err
	}
	return s.doc.Clone(), nil
}

func (s *Store) commit(candidate domain.Document) error {
	if s.persist != nil {
		if err := s.persist(candidate); err != nil {
			return fmt.Errorf("persist document: %w", err)
		}
	}
	s.doc = candidate
	return nil
}
