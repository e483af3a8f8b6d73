// Package extract turns unstructured happy-hour submissions (free text
// and/or menu photographs) into structured ExtractedDeal records by way of
// a single vision-capable model call, and revises them from operator
// feedback. The model is treated as an external black box behind the
// anthropic.Client seam; everything after the raw text response is
// deterministic.
package extract

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/peachtree-labs/happyhour/internal/model"
	"github.com/peachtree-labs/happyhour/pkg/anthropic"
)

// Failure kinds surfaced to the session layer. The session's recovery
// table keys off these via errors.Is.
var (
	ErrEmptyInput       = eris.New("extract: no text or images supplied")
	ErrEmptyFeedback    = eris.New("extract: empty feedback")
	ErrExtractionFailed = eris.New("extraction failed")
	ErrRefinementFailed = eris.New("refinement failed")
)

// Image is one captured menu photograph.
type Image struct {
	Base64    string `json:"base64"`
	MediaType string `json:"mediaType"`
}

// Input is everything the operator captured for one extraction attempt.
// Venues and Location are optional; when present the venue directory is
// forwarded into the model call so matching happens in the same round trip.
type Input struct {
	Images         []Image
	Text           string
	RestaurantName string
	Venues         []model.Venue
	Location       *model.Location
}

// Empty reports whether the input has neither text nor images.
func (in Input) Empty() bool {
	return strings.TrimSpace(in.Text) == "" && len(in.Images) == 0
}

// Extractor is the narrow seam over the extraction and refinement model
// calls, swappable and mockable in tests.
type Extractor interface {
	Extract(ctx context.Context, in Input) (*model.ExtractedDeal, error)
	Refine(ctx context.Context, current model.ExtractedDeal, feedback string) (*model.ExtractedDeal, error)
}

// Service implements Extractor against the Anthropic Messages API.
type Service struct {
	client    anthropic.Client
	model     string
	maxTokens int64
	timeout   time.Duration
}

// NewService creates an extraction service. A non-positive timeout
// disables the per-call deadline.
func NewService(client anthropic.Client, modelID string, maxTokens int64, timeout time.Duration) *Service {
	return &Service{
		client:    client,
		model:     modelID,
		maxTokens: maxTokens,
		timeout:   timeout,
	}
}

// Extract runs one model call over the captured input and returns the
// structured deal. Transport, non-2xx and parse failures all surface as
// ErrExtractionFailed; the caller decides whether to substitute a draft.
func (s *Service) Extract(ctx context.Context, in Input) (*model.ExtractedDeal, error) {
	if in.Empty() {
		return nil, ErrEmptyInput
	}

	content := make([]anthropic.ContentPart, 0, len(in.Images)+1)
	for _, img := range in.Images {
		if !strings.HasPrefix(img.MediaType, "image/") {
			return nil, eris.Errorf("extract: unsupported media type %q", img.MediaType)
		}
		content = append(content, anthropic.ImagePart(img.MediaType, img.Base64))
	}
	content = append(content, anthropic.TextPart(buildExtractionPrompt(in)))

	req := anthropic.MessageRequest{
		Model:     s.model,
		MaxTokens: s.maxTokens,
		Messages:  []anthropic.Message{{Role: "user", Content: content}},
	}
	if len(in.Venues) > 0 {
		// The venue directory is stable across a data-entry session; cache it.
		req.System = []anthropic.SystemBlock{{
			Text:         venueDirectory(in.Venues, in.Location),
			CacheControl: &anthropic.CacheControl{TTL: "5m"},
		}}
	}

	resp, err := s.createMessage(ctx, req)
	if err != nil {
		zap.L().Warn("extraction call failed", zap.Error(err))
		return nil, eris.Wrap(ErrExtractionFailed, "create message")
	}
	resp.Usage.LogCost(s.model, "extract")

	deal, err := parseDeal(resp.FirstText())
	if err != nil {
		zap.L().Warn("extraction response unparseable", zap.Error(err))
		return nil, eris.Wrap(ErrExtractionFailed, "parse response")
	}
	return deal, nil
}

// Refine asks the model for a complete schema-conformant replacement of
// the current deal incorporating the operator's feedback. The confidence
// the model reports is discarded; on success the prior confidence is
// bumped by 0.1 (capped) so that human feedback raises trust monotonically.
func (s *Service) Refine(ctx context.Context, current model.ExtractedDeal, feedback string) (*model.ExtractedDeal, error) {
	if strings.TrimSpace(feedback) == "" {
		return nil, ErrEmptyFeedback
	}

	prompt, err := buildRefinementPrompt(current, feedback)
	if err != nil {
		return nil, eris.Wrap(ErrRefinementFailed, "build prompt")
	}

	resp, err := s.createMessage(ctx, anthropic.MessageRequest{
		Model:     s.model,
		MaxTokens: s.maxTokens,
		Messages: []anthropic.Message{{
			Role:    "user",
			Content: []anthropic.ContentPart{anthropic.TextPart(prompt)},
		}},
	})
	if err != nil {
		zap.L().Warn("refinement call failed", zap.Error(err))
		return nil, eris.Wrap(ErrRefinementFailed, "create message")
	}
	resp.Usage.LogCost(s.model, "refine")

	refined, err := parseDeal(resp.FirstText())
	if err != nil {
		zap.L().Warn("refinement response unparseable", zap.Error(err))
		return nil, eris.Wrap(ErrRefinementFailed, "parse response")
	}

	refined.Confidence = model.BumpConfidence(current.Confidence, 0.1)
	if refined.MatchedVenueID == nil {
		refined.MatchedVenueID = current.MatchedVenueID
	}
	return refined, nil
}

func (s *Service) createMessage(ctx context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	return s.client.CreateMessage(ctx, req)
}
