package testutil

import (
	"context"
	"sync"

	"github.com/unclebandit/creatorhub-backend/internal/ai"
)

// FakeGate returns a scripted result or error and records every input it saw.
type FakeGate struct {
	mu     sync.Mutex
	Result *ai.QualityResult
	Err    error
	// Hook, when set, runs inside CheckProposal before the scripted answer is returned.
	Hook   func(in ai.ProposalInput)
	inputs []ai.ProposalInput
}

// QualifiedResult is a gate answer that passes the threshold.
func QualifiedResult() *ai.QualityResult {
	overall, qualified := ai.ComposeScores(80, 70, 90)
	return &ai.QualityResult{
		OverallScore: overall, VideoScore: 80, AudioScore: 70, RelevanceScore: 90,
		Qualified: qualified, Feedback: "Strong, on-brief pitch.",
	}
}

// RejectedResult is a gate answer below the threshold.
func RejectedResult() *ai.QualityResult {
	overall, qualified := ai.ComposeScores(40, 30, 35)
	return &ai.QualityResult{
		OverallScore: overall, VideoScore: 40, AudioScore: 30, RelevanceScore: 35,
		Qualified: qualified, Feedback: "Pitch does not address the brief.",
	}
}

func (g *FakeGate) CheckProposal(_ context.Context, in ai.ProposalInput) (*ai.QualityResult, error) {
	g.mu.Lock()
	g.inputs = append(g.inputs, in)
	hook := g.Hook
	res, err := g.Result, g.Err
	g.mu.Unlock()

	if hook != nil {
		hook(in)
	}
	if err != nil {
		return nil, err
	}
	cp := *res
	return &cp, nil
}

func (g *FakeGate) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.inputs)
}

func (g *FakeGate) Inputs() []ai.ProposalInput {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]ai.ProposalInput(nil), g.inputs...)
}
