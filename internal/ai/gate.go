// Package ai scores creator proposals against a campaign brief using a hosted language model.
package ai

import (
	"context"
	"errors"
	"fmt"
)

// QualifyThreshold is the minimum overall score for a proposal to qualify.
const QualifyThreshold = 60

// NeutralScore is used for video and audio when no pitch video was submitted.
const NeutralScore = 50

// ErrMalformedResponse means the model answered but no usable JSON object could be read.
var ErrMalformedResponse = errors.New("ai: malformed response")

// TransportError wraps a failed call to the model API (network, timeout, quota, non-2xx).
type TransportError struct {
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("ai: transport failure (status %d): %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("ai: transport failure: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ProposalInput is everything the gate needs to score one proposal.
type ProposalInput struct {
	CampaignBrief string
	PitchVideoURL string
	CoverLetter   string
	CreatorNiches []string
}

// HasArtifact reports whether a pitch video accompanies the proposal.
func (in ProposalInput) HasArtifact() bool {
	return in.PitchVideoURL != ""
}

// QualityResult is the bounded outcome of one gate call.
type QualityResult struct {
	OverallScore   int    `json:"overallScore"`
	VideoScore     int    `json:"videoScore"`
	AudioScore     int    `json:"audioScore"`
	RelevanceScore int    `json:"relevanceScore"`
	Qualified      bool   `json:"qualified"`
	Feedback       string `json:"feedback"`
}

// QualityGate is implemented by Client and by test fakes.
type QualityGate interface {
	CheckProposal(ctx context.Context, in ProposalInput) (*QualityResult, error)
}

// ComposeScores derives the overall score and qualification from the three component scores.
// overall = round(video*0.35 + audio*0.25 + relevance*0.40), rounded half up.
func ComposeScores(video, audio, relevance int) (overall int, qualified bool) {
	video, audio, relevance = clamp(video), clamp(audio), clamp(relevance)
	overall = (35*video + 25*audio + 40*relevance + 50) / 100
	return overall, overall >= QualifyThreshold
}

func clamp(v int) int {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	}
	return v
}
