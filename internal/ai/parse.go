package ai

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

type rawScores struct {
	VideoScore     *float64 `json:"videoScore"`
	AudioScore     *float64 `json:"audioScore"`
	RelevanceScore *float64 `json:"relevanceScore"`
	Feedback       string   `json:"feedback"`
}

// parseProposalResult pulls the outermost {...} out of the model text and turns it into a result.
// Missing scores are an error rather than a silent default, except video/audio without an artifact.
func parseProposalResult(text string, hasArtifact bool) (*QualityResult, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("%w: no JSON object in response", ErrMalformedResponse)
	}

	var raw rawScores
	if err := json.Unmarshal([]byte(text[start:end+1]), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if raw.RelevanceScore == nil {
		return nil, fmt.Errorf("%w: relevanceScore missing", ErrMalformedResponse)
	}

	video, audio := NeutralScore, NeutralScore
	if hasArtifact {
		if raw.VideoScore == nil || raw.AudioScore == nil {
			return nil, fmt.Errorf("%w: videoScore or audioScore missing", ErrMalformedResponse)
		}
		video = clamp(int(math.Round(*raw.VideoScore)))
		audio = clamp(int(math.Round(*raw.AudioScore)))
	}
	relevance := clamp(int(math.Round(*raw.RelevanceScore)))

	overall, qualified := ComposeScores(video, audio, relevance)
	return &QualityResult{
		OverallScore:   overall,
		VideoScore:     video,
		AudioScore:     audio,
		RelevanceScore: relevance,
		Qualified:      qualified,
		Feedback:       strings.TrimSpace(raw.Feedback),
	}, nil
}
