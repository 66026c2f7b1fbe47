package main

import (
	"context"
	"testing"

	"github.com/unclebandit/creatorhub-backend/internal/ai"
	"github.com/unclebandit/creatorhub-backend/internal/model"
	"github.com/unclebandit/creatorhub-backend/internal/queue"
	"github.com/unclebandit/creatorhub-backend/internal/service"
	"github.com/unclebandit/creatorhub-backend/internal/testutil"
)

func newTestWorker(gate *testutil.FakeGate) (*service.Worker, *testutil.Store, *model.Proposal) {
	store := testutil.NewStore()
	campaign := store.PutCampaign(model.Campaign{Title: "Launch", Description: "Videos"})
	creator := store.PutCreator(model.Creator{UserID: "creator-user-1"})
	proposal := store.PutProposal(model.Proposal{CampaignID: campaign.ID, CreatorID: creator.ID, Pitch: "pitch"})

	checks := &service.QualityCheckService{
		ProposalRepo:     &testutil.ProposalRepo{S: store},
		CampaignRepo:     &testutil.CampaignRepo{S: store},
		CreatorRepo:      &testutil.CreatorRepo{S: store},
		NotificationRepo: &testutil.NotificationRepo{S: store},
		Gate:             gate,
	}
	return service.NewWorker(checks, nil), store, proposal
}

func TestWorker(t *testing.T) {
	gate := &testutil.FakeGate{Result: testutil.QualifiedResult()}
	worker, store, proposal := newTestWorker(gate)

	q := queue.NewInMemoryQueue(nil)
	if err := q.Subscribe(service.DefaultAICheckQueue, worker.HandleJob); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	payload, err := queue.EncodeAICheckJob(proposal.ID)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := q.Publish(context.Background(), service.DefaultAICheckQueue, payload); err != nil {
		t.Fatalf("publish: %v", err)
	}
	// Redelivery of the same job must not score twice.
	if err := q.Publish(context.Background(), service.DefaultAICheckQueue, payload); err != nil {
		t.Fatalf("publish: %v", err)
	}
	q.Wait()

	p := store.Proposal(proposal.ID)
	if p.Status != model.ProposalQualified {
		t.Errorf("expected QUALIFIED, got %s", p.Status)
	}
	if gate.Calls() != 1 {
		t.Errorf("expected one gate call, got %d", gate.Calls())
	}
	if got := len(store.Notifications()); got != 1 {
		t.Errorf("expected one notification, got %d", got)
	}
}

func TestWorker_InvalidPayload(t *testing.T) {
	gate := &testutil.FakeGate{Result: testutil.QualifiedResult()}
	worker, _, _ := newTestWorker(gate)

	for _, payload := range []string{"not json", `{}`, `{"proposal_id":""}`} {
		if err := worker.HandleJob(context.Background(), []byte(payload)); err == nil {
			t.Errorf("expected error for payload %q", payload)
		}
	}
	if gate.Calls() != 0 {
		t.Errorf("gate must not be called for invalid jobs")
	}
}

func TestWorker_FailuresAreNotRetried(t *testing.T) {
	gate := &testutil.FakeGate{Err: ai.ErrMalformedResponse}
	worker, store, proposal := newTestWorker(gate)

	payload, _ := queue.EncodeAICheckJob(proposal.ID)
	if err := worker.HandleJob(context.Background(), payload); err != nil {
		t.Fatalf("failed checks are logged, not returned: %v", err)
	}
	if got := store.Proposal(proposal.ID).Status; got != model.ProposalSubmitted {
		t.Errorf("expected SUBMITTED after failed check, got %s", got)
	}

	missing, _ := queue.EncodeAICheckJob("missing")
	if err := worker.HandleJob(context.Background(), missing); err != nil {
		t.Errorf("missing proposal should be logged, got %v", err)
	}
	if gate.Calls() != 1 {
		t.Errorf("expected one gate call, got %d", gate.Calls())
	}
}
