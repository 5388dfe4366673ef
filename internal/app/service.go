// Package app orchestrates reading sessions: spread selection,
// shuffling, drawing, per-card reveal with its interpretation side
// effect, and the final synthesis.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/sirsean/project-augurbox/internal/domain"
	"github.com/sirsean/project-augurbox/internal/ports"
)

// Service drives reading sessions. All mutation happens under the
// session lock; oracle calls run on their own goroutines and publish
// back through the same lock.
type Service struct {
	cards   ports.CardStore
	spreads ports.SpreadStore
	oracle  ports.Oracle
	store   SessionStore
	rng     domain.RNG
	logger  *slog.Logger
}

func NewService(cards ports.CardStore, spreads ports.SpreadStore, oracle ports.Oracle, store SessionStore, rng domain.RNG, logger *slog.Logger) *Service {
	return &Service{
		cards:   cards,
		spreads: spreads,
		oracle:  oracle,
		store:   store,
		rng:     rng,
		logger:  logger,
	}
}

// SelectSpread starts a fresh session for the given spread, loading
// the full catalog as the deck. Unknown spread ids fail with
// domain.ErrSpreadNotFound; the UI treats that as a redirect back to
// the listing, not an error banner.
func (s *Service) SelectSpread(ctx context.Context, spreadID string) (*Snapshot, error) {
	spread, err := s.spreads.SpreadByID(ctx, spreadID)
	if err != nil {
		return nil, err
	}
	catalog, err := s.cards.Catalog(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	byCode := make(map[string]domain.Card, len(catalog))
	for _, c := range catalog {
		byCode[c.Code] = c
	}

	id := uuid.NewString()
	sess := &Session{
		Reading:         domain.NewReading(id, spread, catalog),
		Spread:          spread,
		CardsByCode:     byCode,
		Catalog:         catalog,
		Interpretations: make(map[string]*domain.Interpretation),
	}
	s.store.Put(id, sess)

	s.logger.InfoContext(ctx, "reading started", "reading_id", id, "spread", spreadID)

	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.snapshotLocked(), nil
}

// Get returns the current state of a session.
func (s *Service) Get(_ context.Context, readingID string) (*Snapshot, error) {
	sess, ok := s.store.Get(readingID)
	if !ok {
		return nil, domain.ErrReadingNotFound
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.snapshotLocked(), nil
}

// Shuffle permutes the session's deck and readies it for drawing.
func (s *Service) Shuffle(_ context.Context, readingID string) (*Snapshot, error) {
	sess, ok := s.store.Get(readingID)
	if !ok {
		return nil, domain.ErrReadingNotFound
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if err := sess.Reading.Shuffle(s.rng); err != nil {
		return nil, err
	}
	return sess.snapshotLocked(), nil
}

// Draw deals one card per spread position from the shuffled deck.
func (s *Service) Draw(_ context.Context, readingID string) (*Snapshot, error) {
	sess, ok := s.store.Get(readingID)
	if !ok {
		return nil, domain.ErrReadingNotFound
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if err := sess.Reading.Draw(sess.Spread, s.rng); err != nil {
		return nil, err
	}
	return sess.snapshotLocked(), nil
}

// Reveal flips the card at positionID and, when this call actually
// performed the flip, fires the interpretation request for it. A
// second reveal on the same position is a no-op and triggers nothing.
func (s *Service) Reveal(ctx context.Context, readingID, positionID string) (*Snapshot, error) {
	sess, ok := s.store.Get(readingID)
	if !ok {
		return nil, domain.ErrReadingNotFound
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	revealedNow, err := sess.Reading.Reveal(positionID)
	if err != nil {
		return nil, err
	}
	if revealedNow {
		s.requestInterpretationLocked(ctx, sess, positionID)
	}
	return sess.snapshotLocked(), nil
}

// RetryInterpretation re-runs a failed interpretation. Only a terminal
// errored record marked retryable is accepted; an in-flight or
// completed record is left alone.
func (s *Service) RetryInterpretation(ctx context.Context, readingID, positionID string) (*Snapshot, error) {
	sess, ok := s.store.Get(readingID)
	if !ok {
		return nil, domain.ErrReadingNotFound
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	in, ok := sess.Interpretations[positionID]
	if !ok {
		return nil, domain.ErrPositionNotFound
	}
	if in.Status != domain.StatusErrored {
		return nil, fmt.Errorf("%w: interpretation is %s", domain.ErrNotRetryable, in.Status)
	}
	if !in.Retryable {
		return nil, domain.ErrNotRetryable
	}

	s.requestInterpretationLocked(ctx, sess, positionID)
	return sess.snapshotLocked(), nil
}

// requestInterpretationLocked replaces the position's interpretation
// record and launches the oracle request. Callers hold sess.mu.
func (s *Service) requestInterpretationLocked(ctx context.Context, sess *Session, positionID string) {
	record := &domain.Interpretation{
		PositionID: positionID,
		GenState:   domain.GenState{Status: domain.StatusLoading},
	}
	sess.Interpretations[positionID] = record

	req := buildInterpretationRequest(sess, positionID)

	// The request outlives the HTTP call that triggered the reveal.
	bg := context.WithoutCancel(ctx)
	go s.oracle.Interpretation(bg, req, func(st domain.GenState) {
		sess.mu.Lock()
		defer sess.mu.Unlock()
		// A retry supersedes this record; late updates from the old
		// request are dropped rather than appended.
		if sess.Interpretations[positionID] == record {
			record.GenState = st
		}
	})
}

// buildInterpretationRequest gathers the already-revealed other
// positions (name and orientation only) plus the newly revealed card.
// Callers hold sess.mu.
func buildInterpretationRequest(sess *Session, positionID string) ports.InterpretationRequest {
	var revealed []ports.RevealedCard
	var positions []string
	for _, d := range sess.Reading.DrawnCards {
		if !d.IsRevealed || d.PositionID == positionID {
			continue
		}
		card := sess.CardsByCode[d.CardCode]
		revealed = append(revealed, ports.RevealedCard{
			Name:        card.Name,
			Orientation: d.Orientation(),
		})
		positions = append(positions, d.PositionID)
	}

	drawn, _ := sess.Reading.DrawnCard(positionID)
	card := sess.CardsByCode[drawn.CardCode]

	return ports.InterpretationRequest{
		ReadingType: sess.Spread.ID,
		Revealed:    revealed,
		Positions:   positions,
		Recent: ports.RecentCard{
			CardName:        card.Name,
			CardDescription: card.Description,
			Orientation:     drawn.Orientation(),
			PositionID:      positionID,
		},
	}
}

// Synthesize fires the one whole-reading synthesis. It is accepted
// only when the reading is complete and no interpretation is still in
// flight; it is rejected while a synthesis is in flight and once one
// has completed, and accepted again after a failure.
func (s *Service) Synthesize(ctx context.Context, readingID string) (*Snapshot, error) {
	sess, ok := s.store.Get(readingID)
	if !ok {
		return nil, domain.ErrReadingNotFound
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.Reading.Phase != domain.PhaseComplete {
		return nil, fmt.Errorf("%w: not all cards revealed", domain.ErrNotReady)
	}
	for _, pos := range sess.Spread.Positions {
		in, ok := sess.Interpretations[pos.ID]
		if !ok {
			return nil, fmt.Errorf("%w: no interpretation for %s", domain.ErrNotReady, pos.ID)
		}
		if in.Status == domain.StatusLoading || in.Status == domain.StatusStreaming {
			return nil, fmt.Errorf("%w: interpretation for %s in flight", domain.ErrNotReady, pos.ID)
		}
	}
	if sess.Synthesis != nil {
		switch sess.Synthesis.Status {
		case domain.StatusLoading, domain.StatusStreaming:
			return nil, fmt.Errorf("%w: synthesis in flight", domain.ErrNotReady)
		case domain.StatusComplete:
			return nil, fmt.Errorf("%w: synthesis already generated", domain.ErrNotReady)
		}
	}

	record := &domain.Synthesis{GenState: domain.GenState{Status: domain.StatusLoading}}
	sess.Synthesis = record

	req := buildSynthesisRequest(sess)

	bg := context.WithoutCancel(ctx)
	go s.oracle.Synthesis(bg, req, func(st domain.GenState) {
		sess.mu.Lock()
		defer sess.mu.Unlock()
		if sess.Synthesis == record {
			record.GenState = st
		}
	})

	return sess.snapshotLocked(), nil
}

// buildSynthesisRequest serializes the full reading. Callers hold
// sess.mu.
func buildSynthesisRequest(sess *Session) ports.SynthesisRequest {
	var completed []ports.CompletedInterpretation
	for _, pos := range sess.Spread.Positions {
		in, ok := sess.Interpretations[pos.ID]
		if !ok || in.Status != domain.StatusComplete {
			continue
		}
		completed = append(completed, ports.CompletedInterpretation{
			PositionID: pos.ID,
			Text:       in.Text,
		})
	}
	return ports.SynthesisRequest{
		ReadingType:     sess.Spread.ID,
		Spread:          sess.Spread,
		DrawnCards:      append([]domain.DrawnCard(nil), sess.Reading.DrawnCards...),
		AllCards:        sess.Catalog,
		Interpretations: completed,
	}
}
