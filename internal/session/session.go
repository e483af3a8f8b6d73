// Package session drives the capture-to-save workflow for one data-entry
// session. The Session struct is an explicit value: every transition takes
// a Session and returns the next one, so the state machine is auditable
// and testable without any hidden shared state.
package session

import (
	"context"
	"errors"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/peachtree-labs/happyhour/internal/extract"
	"github.com/peachtree-labs/happyhour/internal/match"
	"github.com/peachtree-labs/happyhour/internal/model"
	"github.com/peachtree-labs/happyhour/internal/store"
)

// State is a workflow position. Transitions only ever move
// capture -> processing -> result -> success, with result able to loop on
// refinement and any state able to reset back to capture.
type State string

const (
	StateCapture    State = "capture"
	StateProcessing State = "processing"
	StateResult     State = "result"
	StateSuccess    State = "success"
)

// Session is the complete mutable state of one data-entry session.
type Session struct {
	State          State
	Images         []extract.Image
	Text           string
	RestaurantName string
	Location       *model.Location

	// Venues is the directory snapshot loaded at session start, used for
	// model-assisted matching and manual re-matching.
	Venues []model.Venue

	Deal    *model.ExtractedDeal
	Match   *model.Venue
	Saved   *model.Venue
	Warning string
}

// Persister is the save seam, satisfied by persist.Saver.
type Persister interface {
	Save(ctx context.Context, deal model.ExtractedDeal, matchedID *string) (*model.Venue, error)
}

// Controller wires the services behind the workflow.
type Controller struct {
	extractor extract.Extractor
	venues    store.Source
	saver     Persister
}

// NewController creates a workflow controller.
func NewController(extractor extract.Extractor, venues store.Source, saver Persister) *Controller {
	return &Controller{extractor: extractor, venues: venues, saver: saver}
}

// recovery describes where the workflow goes after a processing failure.
type recovery struct {
	next       State
	substitute bool
	warning    string
}

// processRecovery is the failure policy table for Process. Any error not
// listed here is treated as extraction failure, the conservative default.
var processRecovery = map[error]recovery{
	extract.ErrEmptyInput: {next: StateCapture},
	extract.ErrExtractionFailed: {
		next:       StateResult,
		substitute: true,
		warning:    "extraction failed, rough draft substituted",
	},
}

// Start opens a fresh session. The venue directory load is best effort; a
// session without a directory still extracts, it just cannot match.
func (c *Controller) Start(ctx context.Context) Session {
	sess := Session{State: StateCapture}
	if c.venues == nil {
		return sess
	}
	venues, err := c.venues.ListVenues(ctx)
	if err != nil {
		zap.L().Warn("venue directory unavailable at session start", zap.Error(err))
		return sess
	}
	sess.Venues = venues
	return sess
}

// Process runs extraction and matching over the captured input. Extraction
// and a directory refresh run concurrently; the refreshed directory is
// what matching and later re-matching operate on.
func (c *Controller) Process(ctx context.Context, sess Session) (Session, error) {
	in := extract.Input{
		Images:         sess.Images,
		Text:           sess.Text,
		RestaurantName: sess.RestaurantName,
		Venues:         sess.Venues,
		Location:       sess.Location,
	}
	if in.Empty() {
		return sess, extract.ErrEmptyInput
	}
	sess.State = StateProcessing
	sess.Warning = ""

	var deal *model.ExtractedDeal
	var extractErr error
	venues := sess.Venues

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		deal, extractErr = c.extractor.Extract(gctx, in)
		return nil
	})
	if c.venues != nil {
		g.Go(func() error {
			fresh, err := c.venues.ListVenues(gctx)
			if err != nil {
				zap.L().Warn("venue directory refresh failed", zap.Error(err))
				return nil
			}
			venues = fresh
			return nil
		})
	}
	_ = g.Wait()
	sess.Venues = venues

	if extractErr != nil {
		rec := recoverPolicy(extractErr)
		sess.State = rec.next
		sess.Warning = rec.warning
		if !rec.substitute {
			return sess, extractErr
		}
		deal = extract.FallbackDraft(in)
	}

	sess.Deal = deal
	sess.Match = match.Match(*deal, sess.Venues, sess.Location)
	if sess.Match != nil {
		id := sess.Match.ID
		sess.Deal.MatchedVenueID = &id
	}
	sess.State = StateResult
	return sess, nil
}

// Refine applies operator feedback to the current deal. Model failure is
// absorbed: the record is kept as-is with a smaller confidence bump so the
// feedback still registers as forward progress. Empty feedback is rejected
// before any network call.
func (c *Controller) Refine(ctx context.Context, sess Session, feedback string) (Session, error) {
	if sess.State != StateResult || sess.Deal == nil {
		return sess, eris.New("session: nothing to refine")
	}
	if strings.TrimSpace(feedback) == "" {
		return sess, extract.ErrEmptyFeedback
	}

	refined, err := c.extractor.Refine(ctx, *sess.Deal, feedback)
	if err != nil {
		zap.L().Warn("refinement failed, keeping record with smaller bump", zap.Error(err))
		sess.Deal.Confidence = model.BumpConfidence(sess.Deal.Confidence, 0.05)
		return sess, nil
	}

	sess.Deal = refined
	return sess, nil
}

// Search filters the session's venue directory for manual re-matching.
// Matches on name, neighborhood and deal description, case-insensitive.
func (c *Controller) Search(sess Session, query string) []model.Venue {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return sess.Venues
	}

	var out []model.Venue
	for _, v := range sess.Venues {
		if strings.Contains(strings.ToLower(v.RestaurantName), query) ||
			strings.Contains(strings.ToLower(v.Neighborhood), query) ||
			strings.Contains(strings.ToLower(v.DealDescription), query) {
			out = append(out, v)
		}
	}
	return out
}

// SelectMatch overrides the automatic match with an operator-chosen venue.
func (c *Controller) SelectMatch(sess Session, venueID string) (Session, error) {
	if sess.State != StateResult || sess.Deal == nil {
		return sess, eris.New("session: no result to rematch")
	}
	for i := range sess.Venues {
		if sess.Venues[i].ID == venueID {
			sess.Match = &sess.Venues[i]
			id := sess.Venues[i].ID
			sess.Deal.MatchedVenueID = &id
			return sess, nil
		}
	}
	return sess, eris.Errorf("session: unknown venue %s", venueID)
}

// RejectMatch declares the deal a new restaurant, clearing any match.
func (c *Controller) RejectMatch(sess Session) Session {
	sess.Match = nil
	if sess.Deal != nil {
		sess.Deal.MatchedVenueID = nil
	}
	return sess
}

// Confirm persists the current deal. A save failure keeps the session in
// result so the operator can retry; success is terminal.
func (c *Controller) Confirm(ctx context.Context, sess Session) (Session, error) {
	if sess.State != StateResult || sess.Deal == nil {
		return sess, eris.New("session: nothing to confirm")
	}

	var matchedID *string
	if sess.Match != nil {
		id := sess.Match.ID
		matchedID = &id
	}

	saved, err := c.saver.Save(ctx, *sess.Deal, matchedID)
	if err != nil {
		return sess, err
	}

	sess.Saved = saved
	sess.State = StateSuccess
	return sess, nil
}

// Reset discards all session state and returns to capture. The directory
// snapshot is kept so the next capture can match immediately.
func (c *Controller) Reset(sess Session) Session {
	return Session{State: StateCapture, Venues: sess.Venues}
}

func recoverPolicy(err error) recovery {
	for sentinel, rec := range processRecovery {
		if errors.Is(err, sentinel) {
			return rec
		}
	}
	return processRecovery[extract.ErrExtractionFailed]
}
