package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/sessions"

	"github.com/unclebandit/creatorhub-backend/internal/ai"
	"github.com/unclebandit/creatorhub-backend/internal/auth"
	"github.com/unclebandit/creatorhub-backend/internal/controller"
	"github.com/unclebandit/creatorhub-backend/internal/handler"
	"github.com/unclebandit/creatorhub-backend/internal/lock"
	"github.com/unclebandit/creatorhub-backend/internal/metrics"
	"github.com/unclebandit/creatorhub-backend/internal/model"
	"github.com/unclebandit/creatorhub-backend/internal/paystack"
	"github.com/unclebandit/creatorhub-backend/internal/service"
	"github.com/unclebandit/creatorhub-backend/internal/testutil"
)

const (
	workerSecret  = "worker-secret-value"
	paystackKey   = "sk_test_paystack"
	sessionSecret = "0123456789abcdef0123456789abcdef"
)

var (
	brandUser   = auth.Principal{UserID: "brand-user-1", Role: auth.RoleBrand}
	creatorUser = auth.Principal{UserID: "creator-user-1", Role: auth.RoleCreator}
	adminUser   = auth.Principal{UserID: "admin-1", Role: auth.RoleAdmin}
)

type fakePinger struct{ err error }

func (p fakePinger) PingContext(context.Context) error { return p.err }

type testServer struct {
	store        *testutil.Store
	gate         *testutil.FakeGate
	sessionStore sessions.Store
	router       http.Handler
	campaign     *model.Campaign
	creator      *model.Creator
	proposal     *model.Proposal
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := testutil.NewStore()
	brand := store.PutBrand(model.Brand{UserID: brandUser.UserID, CompanyName: "Acme"})
	campaign := store.PutCampaign(model.Campaign{
		BrandID:      brand.ID,
		Title:        "Summer drinks",
		Description:  "Short-form videos",
		Requirements: "Show the can",
		Niches:       []string{"food"},
		BudgetKobo:   5_000_000,
		Deadline:     time.Now().Add(48 * time.Hour),
	})
	creator := store.PutCreator(model.Creator{UserID: creatorUser.UserID, Niches: []string{"food"}})
	proposal := store.PutProposal(model.Proposal{CampaignID: campaign.ID, CreatorID: creator.ID, Pitch: "Three clips", RateKobo: 100_000})

	gate := &testutil.FakeGate{Result: testutil.QualifiedResult()}
	sessionStore := auth.NewCookieStore(sessionSecret, false)

	campaignSvc := &service.CampaignService{
		CampaignRepo: &testutil.CampaignRepo{S: store},
		ProposalRepo: &testutil.ProposalRepo{S: store},
		BrandRepo:    &testutil.BrandRepo{S: store},
	}
	proposalSvc := &service.ProposalService{
		ProposalRepo:     &testutil.ProposalRepo{S: store},
		CampaignRepo:     &testutil.CampaignRepo{S: store},
		CreatorRepo:      &testutil.CreatorRepo{S: store},
		BrandRepo:        &testutil.BrandRepo{S: store},
		NotificationRepo: &testutil.NotificationRepo{S: store},
	}
	checkSvc := &service.QualityCheckService{
		ProposalRepo:     &testutil.ProposalRepo{S: store},
		CampaignRepo:     &testutil.CampaignRepo{S: store},
		CreatorRepo:      &testutil.CreatorRepo{S: store},
		NotificationRepo: &testutil.NotificationRepo{S: store},
		Gate:             gate,
	}
	creatorSvc := &service.CreatorService{CreatorRepo: &testutil.CreatorRepo{S: store}}
	paymentSvc := &service.PaymentService{
		PaymentRepo: &testutil.PaymentRepo{S: store},
		Secret:      paystackKey,
		Locker:      lock.NewLocalLocker(),
	}

	router := handler.NewRouter(handler.Routes{
		Campaigns: &controller.CampaignController{CampaignService: campaignSvc},
		Proposals: &controller.ProposalController{ProposalService: proposalSvc, QualityCheckService: checkSvc},
		Creators:  &controller.CreatorController{CreatorService: creatorSvc},
		Webhooks:  &controller.WebhookController{PaymentService: paymentSvc},
		Campaign:  handler.NewCampaignHandler(campaignSvc, nil),
		Resolver:  auth.NewResolver(workerSecret, sessionStore),
		DB:        fakePinger{},
		Metrics:   metrics.New(),
	})

	return &testServer{
		store: store, gate: gate, sessionStore: sessionStore, router: router,
		campaign: campaign, creator: creator, proposal: proposal,
	}
}

func (s *testServer) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

// loginAs attaches a session cookie for p to req.
func (s *testServer) loginAs(t *testing.T, req *http.Request, p auth.Principal) *http.Request {
	t.Helper()
	rec := httptest.NewRecorder()
	if err := auth.SaveSession(rec, httptest.NewRequest(http.MethodGet, "/", nil), s.sessionStore, p); err != nil {
		t.Fatalf("save session: %v", err)
	}
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	return req
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not JSON: %v (%s)", err, rec.Body.String())
	}
	return body
}

func TestAICheckEndpoint(t *testing.T) {
	s := newTestServer(t)
	path := "/proposals/" + s.proposal.ID + "/ai-check"

	req := httptest.NewRequest(http.MethodPost, path, nil)
	req.Header.Set(auth.WorkerSecretHeader, workerSecret)
	rec := s.do(t, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	result, ok := decode(t, rec)["result"].(map[string]interface{})
	if !ok || result["overallScore"] != float64(82) || result["qualified"] != true {
		t.Errorf("unexpected result: %s", rec.Body.String())
	}

	// Admins may re-trigger; the proposal is already checked.
	rec = s.do(t, s.loginAs(t, httptest.NewRequest(http.MethodPost, path, nil), adminUser))
	if rec.Code != http.StatusOK || decode(t, rec)["message"] != "Already checked" {
		t.Errorf("expected already checked, got %d: %s", rec.Code, rec.Body.String())
	}
	if s.gate.Calls() != 1 {
		t.Errorf("expected one gate call, got %d", s.gate.Calls())
	}
}

func TestAICheckEndpoint_Failures(t *testing.T) {
	s := newTestServer(t)
	path := "/proposals/" + s.proposal.ID + "/ai-check"

	wrongSecret := httptest.NewRequest(http.MethodPost, path, nil)
	wrongSecret.Header.Set(auth.WorkerSecretHeader, "guess")
	asCreator := s.loginAs(t, httptest.NewRequest(http.MethodPost, path, nil), creatorUser)
	for name, req := range map[string]*http.Request{
		"no credentials": httptest.NewRequest(http.MethodPost, path, nil),
		"wrong secret":   wrongSecret,
		"creator":        asCreator,
	} {
		t.Run(name, func(t *testing.T) {
			if rec := s.do(t, req); rec.Code != http.StatusUnauthorized {
				t.Errorf("expected 401, got %d", rec.Code)
			}
		})
	}

	req := httptest.NewRequest(http.MethodPost, "/proposals/missing/ai-check", nil)
	req.Header.Set(auth.WorkerSecretHeader, workerSecret)
	rec := s.do(t, req)
	if rec.Code != http.StatusNotFound || decode(t, rec)["error"] != "Proposal not found" {
		t.Errorf("expected 404, got %d: %s", rec.Code, rec.Body.String())
	}

	s.gate.Err = &ai.TransportError{StatusCode: 500, Err: errors.New("upstream exploded with secret detail")}
	req = httptest.NewRequest(http.MethodPost, path, nil)
	req.Header.Set(auth.WorkerSecretHeader, workerSecret)
	rec = s.do(t, req)
	if rec.Code != http.StatusInternalServerError || decode(t, rec)["error"] != "AI check failed" {
		t.Errorf("expected 500 AI check failed, got %d: %s", rec.Code, rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), "secret detail") {
		t.Errorf("internal error details leaked: %s", rec.Body.String())
	}
	if got := s.store.Proposal(s.proposal.ID).Status; got != model.ProposalSubmitted {
		t.Errorf("expected SUBMITTED after failure, got %s", got)
	}
}

func TestPaymentWebhookEndpoint(t *testing.T) {
	s := newTestServer(t)
	s.store.SetProposalStatus(s.proposal.ID, model.ProposalAccepted)
	s.store.PutPayment(model.Payment{ProposalID: s.proposal.ID, Reference: "R1", AmountKobo: 100_000})

	send := func(body, sig string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/webhooks/payments", strings.NewReader(body))
		if sig != "" {
			req.Header.Set(paystack.SignatureHeader, sig)
		}
		return s.do(t, req)
	}

	body := `{"event":"charge.success","data":{"reference":"R1","status":"success","id":12345}}`

	rec := send(body, paystack.Sign("wrong", []byte(body)))
	if rec.Code != http.StatusUnauthorized || decode(t, rec)["error"] != "Invalid signature" {
		t.Fatalf("expected 401, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := s.store.Payment("R1").Status; got != model.PaymentPending {
		t.Fatalf("payment mutated by unsigned request: %s", got)
	}

	rec = send(body, paystack.Sign(paystackKey, []byte(body)))
	if rec.Code != http.StatusOK || decode(t, rec)["received"] != true {
		t.Fatalf("expected 200 received, got %d: %s", rec.Code, rec.Body.String())
	}
	pay := s.store.Payment("R1")
	if pay.Status != model.PaymentSuccess || pay.PaystackRef != "12345" {
		t.Errorf("unexpected payment: %+v", pay)
	}
	if got := s.store.Proposal(s.proposal.ID).Status; got != model.ProposalCompleted {
		t.Errorf("expected COMPLETED, got %s", got)
	}

	unknown := `{"event":"charge.success","data":{"reference":"R404","status":"success","id":1}}`
	rec = send(unknown, paystack.Sign(paystackKey, []byte(unknown)))
	if rec.Code != http.StatusOK || decode(t, rec)["received"] != true {
		t.Errorf("unknown reference must be acked, got %d", rec.Code)
	}

	s.store.FailSettle = errors.New("db down")
	other := `{"event":"charge.success","data":{"reference":"R1","status":"success","id":2}}`
	rec = send(other, paystack.Sign(paystackKey, []byte(other)))
	if rec.Code != http.StatusInternalServerError || decode(t, rec)["error"] != "Webhook processing failed" {
		t.Errorf("expected 500, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestCampaignEndpoints(t *testing.T) {
	s := newTestServer(t)

	payload := `{"title":"Autumn","description":"Cosy videos","budget_kobo":200000,"niches":["home"],"deadline":"` +
		time.Now().Add(72*time.Hour).UTC().Format(time.RFC3339) + `"}`
	req := s.loginAs(t, httptest.NewRequest(http.MethodPost, "/campaigns", strings.NewReader(payload)), brandUser)
	rec := s.do(t, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = s.do(t, httptest.NewRequest(http.MethodPost, "/campaigns", strings.NewReader(payload)))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without session, got %d", rec.Code)
	}

	rec = s.do(t, s.loginAs(t, httptest.NewRequest(http.MethodPost, "/campaigns", strings.NewReader("{")), brandUser))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for bad body, got %d", rec.Code)
	}

	rec = s.do(t, httptest.NewRequest(http.MethodGet, "/campaigns?page=1&page_size=1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := decode(t, rec)
	pagination, _ := body["pagination"].(map[string]interface{})
	if pagination["total_count"] != float64(2) || pagination["total_pages"] != float64(2) {
		t.Errorf("unexpected pagination: %v", pagination)
	}
	if data, _ := body["data"].([]interface{}); len(data) != 1 {
		t.Errorf("expected one campaign on the page, got %d", len(data))
	}

	rec = s.do(t, httptest.NewRequest(http.MethodGet, "/campaigns/"+s.campaign.ID, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	stats, _ := decode(t, rec)["stats"].(map[string]interface{})
	if stats["total"] != float64(1) || stats["submitted"] != float64(1) {
		t.Errorf("unexpected stats: %v", stats)
	}

	rec = s.do(t, httptest.NewRequest(http.MethodGet, "/campaigns/missing", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestProposalEndpoints(t *testing.T) {
	s := newTestServer(t)
	s.store.PutCreator(model.Creator{UserID: "creator-user-2"})

	rec := s.do(t, s.loginAs(t, httptest.NewRequest(http.MethodPost, "/campaigns/"+s.campaign.ID+"/proposals",
		strings.NewReader(`{"pitch":"again","rate_kobo":5}`)), creatorUser))
	if rec.Code != http.StatusConflict {
		t.Errorf("expected 409 for a second proposal, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = s.do(t, s.loginAs(t, httptest.NewRequest(http.MethodPost, "/campaigns/"+s.campaign.ID+"/proposals",
		strings.NewReader(`{"pitch":"hello","rate_kobo":5}`)), auth.Principal{UserID: "creator-user-2", Role: auth.RoleCreator}))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = s.do(t, s.loginAs(t, httptest.NewRequest(http.MethodGet, "/campaigns/"+s.campaign.ID+"/proposals", nil), brandUser))
	if data, _ := decode(t, rec)["data"].([]interface{}); rec.Code != http.StatusOK || len(data) != 2 {
		t.Errorf("expected 2 proposals, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = s.do(t, s.loginAs(t, httptest.NewRequest(http.MethodPost, "/proposals/"+s.proposal.ID+"/accept", nil), brandUser))
	if rec.Code != http.StatusOK || decode(t, rec)["status"] != model.ProposalAccepted {
		t.Errorf("expected ACCEPTED, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = s.do(t, s.loginAs(t, httptest.NewRequest(http.MethodPost, "/proposals/"+s.proposal.ID+"/accept", nil), brandUser))
	if rec.Code != http.StatusConflict {
		t.Errorf("expected 409 on second accept, got %d", rec.Code)
	}

	rec = s.do(t, s.loginAs(t, httptest.NewRequest(http.MethodPost, "/proposals/"+s.proposal.ID+"/decline", nil), creatorUser))
	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403 for creator decline, got %d", rec.Code)
	}
}

func TestCreatorDiscoveryEndpoint(t *testing.T) {
	s := newTestServer(t)
	top := s.store.PutCreator(model.Creator{Username: "adaeze", Location: "Lagos, Nigeria", Niches: []string{"food"}, Platforms: []string{"tiktok"}, AvgRating: 4.8})
	busy := s.store.PutCreator(model.Creator{Username: "kemi", Location: "Abuja", Niches: []string{"food"}, Platforms: []string{"youtube"}, AvgRating: 4.2, Availability: model.CreatorBusy})
	s.store.PutCreator(model.Creator{Username: "tunde", Location: "Lagos", Niches: []string{"tech"}, Platforms: []string{"tiktok"}, AvgRating: 3.9})

	rec := s.do(t, httptest.NewRequest(http.MethodGet, "/creators?niche=food&limit=1", nil))
	body := decode(t, rec)
	creators, _ := body["creators"].([]interface{})
	if rec.Code != http.StatusOK || len(creators) != 1 || body["nextCursor"] != top.ID {
		t.Fatalf("expected first food creator with cursor, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = s.do(t, httptest.NewRequest(http.MethodGet, "/creators?niche=food&limit=1&cursor="+top.ID, nil))
	body = decode(t, rec)
	creators, _ = body["creators"].([]interface{})
	if len(creators) != 1 || creators[0].(map[string]interface{})["id"] != busy.ID {
		t.Fatalf("expected second page to hold %s, got %s", busy.ID, rec.Body.String())
	}

	rec = s.do(t, httptest.NewRequest(http.MethodGet, "/creators?location=lagos&minScore=4&availability=available", nil))
	body = decode(t, rec)
	creators, _ = body["creators"].([]interface{})
	if len(creators) != 1 || creators[0].(map[string]interface{})["username"] != "adaeze" || body["nextCursor"] != nil {
		t.Fatalf("expected only adaeze and no cursor, got %s", rec.Body.String())
	}

	rec = s.do(t, httptest.NewRequest(http.MethodGet, "/creators?availability=sleeping", nil))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422 for unknown availability, got %d", rec.Code)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)

	if rec := s.do(t, httptest.NewRequest(http.MethodGet, "/healthz", nil)); rec.Code != http.StatusOK {
		t.Errorf("expected healthy, got %d", rec.Code)
	}
	rec := s.do(t, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "go_goroutines") {
		t.Errorf("expected prometheus output, got %d", rec.Code)
	}

	down := handler.Healthz(fakePinger{err: errors.New("db gone")})
	rec = httptest.NewRecorder()
	down(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", rec.Code)
	}
}
