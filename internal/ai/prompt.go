package ai

import (
	"fmt"
	"strings"
)

func buildProposalPrompt(in ProposalInput) string {
	video := "No pitch video submitted."
	if in.HasArtifact() {
		video = "PITCH VIDEO URL: " + in.PitchVideoURL
	}
	coverLetter := in.CoverLetter
	if strings.TrimSpace(coverLetter) == "" {
		coverLetter = "Not provided."
	}

	return fmt.Sprintf(`You are an AI quality gate for a creator marketplace platform. Evaluate this creator proposal for a brand campaign.

CAMPAIGN BRIEF:
%s

CREATOR NICHES: %s

%s

COVER LETTER:
%s

Score the proposal on the following criteria (0-100 each):
1. VIDEO_SCORE: Technical quality of the pitch video (lighting, audio, editing, production value). If no video, score 50.
2. AUDIO_SCORE: Audio clarity and quality in the video. If no video, score 50.
3. RELEVANCE_SCORE: How well the creator's content style and cover letter aligns with the campaign brief.

Respond ONLY with valid JSON in this exact format:
{
  "videoScore": <number>,
  "audioScore": <number>,
  "relevanceScore": <number>,
  "feedback": "<2-3 sentences of constructive feedback for the creator>"
}`, in.CampaignBrief, strings.Join(in.CreatorNiches, ", "), video, coverLetter)
}
