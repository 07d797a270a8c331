package orchestrate

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/eggnunes/intranet-eggnunes-sub004/services/esign/internal/config"
	"github.com/eggnunes/intranet-eggnunes-sub004/services/esign/internal/notify"
	"github.com/eggnunes/intranet-eggnunes-sub004/services/esign/internal/provider"
	"github.com/eggnunes/intranet-eggnunes-sub004/services/esign/internal/store"
)

type fakeRecorder struct {
	mu      sync.Mutex
	records []store.DocumentRecord
	audits  []string
	fail    bool
}

func (f *fakeRecorder) InsertRecord(_ context.Context, rec store.DocumentRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return context.DeadlineExceeded
	}
	f.records = append(f.records, rec)
	return nil
}

func (f *fakeRecorder) AddAudit(_ context.Context, _, _, step, status, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.audits = append(f.audits, step+":"+status)
	return nil
}

// fakeProvider serves create-document and execute-signature, counting calls.
type fakeProvider struct {
	mu           sync.Mutex
	createStatus int
	createCalls  int
	signCalls    int
	signers      int
}

func (f *fakeProvider) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		switch r.URL.Path {
		case "/docs/":
			f.createCalls++
			if f.createStatus != 0 {
				w.WriteHeader(f.createStatus)
				_, _ = w.Write([]byte(`{"detail":"nope"}`))
				return
			}
			var req provider.CreateDocumentRequest
			_ = json.NewDecoder(r.Body).Decode(&req)
			f.signers = len(req.Signers)
			doc := provider.Document{Token: "doc_1", Status: "pending"}
			urls := []string{"p1", "p2", "cli", "w1", "w2"}
			for i := range req.Signers {
				doc.Signers = append(doc.Signers, provider.DocumentSigner{
					Token:   "sg_" + urls[i],
					Name:    req.Signers[i].Name,
					Status:  "new",
					SignURL: "https://sign.example/" + urls[i],
				})
			}
			w.Header().Set("content-type", "application/json")
			_ = json.NewEncoder(w).Encode(doc)
		case "/sign/":
			f.signCalls++
			w.WriteHeader(200)
		default:
			http.NotFound(w, r)
		}
	})
}

func contractRequest() Request {
	return Request{
		DocType:         "contrato",
		DocName:         "Contrato 2026-041",
		DocumentBase64:  base64.StdEncoding.EncodeToString([]byte("%PDF-1.4")),
		ClientName:      "Juliana Castro",
		ClientEmail:     "juliana@example.com",
		ClientPhone:     "31999998888",
		ClientCPF:       "123.456.789-00",
		SendEmail:       true,
		SendWhatsApp:    true,
		IncludePartners: true,
		Witnesses: []WitnessSelection{
			{Key: "camila", Name: "Camila Duarte"},
			{Key: "rodrigo", Name: "Rodrigo Tavares"},
		},
	}
}

func newOrchestrator(providerURL, gatewayURL string, rec Recorder) *Orchestrator {
	return &Orchestrator{
		Provider: provider.New(providerURL, "api_tok"),
		Gateway:  notify.NewGateway(gatewayURL, "gw_tok"),
		Recorder: rec,
		AutoSign: config.AutoSignConfig{
			PartnerPrimaryToken:   "tok_fernanda",
			PartnerSecondaryToken: "tok_marcelo",
			WitnessTokens:         map[string]string{"camila": "tok_camila", "rodrigo": "tok_rodrigo"},
		},
		WhatsApp: config.WhatsAppConfig{CountryPrefix: "55", OfficialContact: "(31) 3227-0000"},
		Locale:   "pt-br",
	}
}

func TestContractHappyPath(t *testing.T) {
	fp := &fakeProvider{}
	pts := httptest.NewServer(fp.handler())
	defer pts.Close()
	gts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) }))
	defer gts.Close()

	rec := &fakeRecorder{}
	res := newOrchestrator(pts.URL, gts.URL, rec).Run(context.Background(), contractRequest())

	if !res.Success {
		t.Fatalf("expected success: %+v", res)
	}
	if res.DocToken != "doc_1" || !res.IsContract {
		t.Fatalf("bad result header: %+v", res)
	}
	if fp.signers != 5 {
		t.Fatalf("expected 5 submitted signers, got %d", fp.signers)
	}
	if len(res.AutoSign) != 4 {
		t.Fatalf("expected 4 auto-sign outcomes, got %v", res.AutoSign)
	}
	for role, o := range res.AutoSign {
		if !o.Success {
			t.Fatalf("role %s should have auto-signed: %+v", role, o)
		}
	}
	if fp.signCalls != 4 {
		t.Fatalf("expected 4 execute-signature calls, got %d", fp.signCalls)
	}
	if res.SignURL != "https://sign.example/cli" {
		t.Fatalf("client sign url wrong: %q", res.SignURL)
	}
	if !res.WhatsAppSent {
		t.Fatalf("notification should have been sent")
	}
	if res.Witness1Name != "Camila Duarte" || res.Witness2Name != "Rodrigo Tavares" {
		t.Fatalf("witness names missing from result")
	}
	if len(rec.records) != 1 {
		t.Fatalf("expected exactly one persisted record, got %d", len(rec.records))
	}
	if rec.records[0].PartnerPrimaryStatus != store.StatusSigned {
		t.Fatalf("auto-signed partner must persist as signed")
	}
	wantAudit := map[string]bool{"persist:ok": true, "notify:sent": true}
	for _, a := range rec.audits {
		delete(wantAudit, a)
	}
	if len(wantAudit) != 0 {
		t.Fatalf("missing audit rows: %v (got %v)", wantAudit, rec.audits)
	}
}

func TestBillingFailureShortCircuits(t *testing.T) {
	fp := &fakeProvider{createStatus: 402}
	pts := httptest.NewServer(fp.handler())
	defer pts.Close()

	rec := &fakeRecorder{}
	res := newOrchestrator(pts.URL, "", rec).Run(context.Background(), contractRequest())

	if res.Success {
		t.Fatalf("expected failure")
	}
	if res.Error != string(provider.FailureBilling) {
		t.Fatalf("expected billing classification, got %q", res.Error)
	}
	if res.UserMessage == "" {
		t.Fatalf("billing failure needs a user message")
	}
	if fp.signCalls != 0 {
		t.Fatalf("no auto-sign may run after a failed submission")
	}
	if len(rec.records) != 0 || len(rec.audits) != 0 {
		t.Fatalf("nothing may be persisted after a failed submission")
	}
}

func TestProcuracaoSkipsAutoSign(t *testing.T) {
	fp := &fakeProvider{}
	pts := httptest.NewServer(fp.handler())
	defer pts.Close()
	gts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) }))
	defer gts.Close()

	req := Request{
		DocType:        "procuracao",
		DocName:        "Procuração",
		DocumentBase64: base64.StdEncoding.EncodeToString([]byte("%PDF-1.4")),
		ClientName:     "Juliana Castro",
		ClientPhone:    "31999998888",
		SendWhatsApp:   true,
	}
	rec := &fakeRecorder{}
	res := newOrchestrator(pts.URL, gts.URL, rec).Run(context.Background(), req)

	if !res.Success || res.IsContract {
		t.Fatalf("expected single-party success: %+v", res)
	}
	if fp.signers != 1 {
		t.Fatalf("expected 1 submitted signer, got %d", fp.signers)
	}
	if fp.signCalls != 0 || res.AutoSign != nil {
		t.Fatalf("auto-sign must not run for single-party documents")
	}
	if !res.WhatsAppSent {
		t.Fatalf("notification should have been attempted with a phone present")
	}
}

func TestWitnessValidationBeforeProviderCall(t *testing.T) {
	fp := &fakeProvider{}
	pts := httptest.NewServer(fp.handler())
	defer pts.Close()

	req := contractRequest()
	req.Witnesses = req.Witnesses[:1]
	res := newOrchestrator(pts.URL, "", &fakeRecorder{}).Run(context.Background(), req)

	if res.Success || res.Error != "VALIDATION" {
		t.Fatalf("expected validation failure, got %+v", res)
	}
	if fp.createCalls != 0 {
		t.Fatalf("validation must fail before any provider call")
	}
}

func TestMissingProviderTokenIsConfigurationError(t *testing.T) {
	o := newOrchestrator("http://unused", "", &fakeRecorder{})
	o.Provider = provider.New("http://unused", "")
	res := o.Run(context.Background(), contractRequest())
	if res.Success || res.Error != "CONFIG_MISSING" {
		t.Fatalf("expected configuration error, got %+v", res)
	}
}

func TestPersistenceFailureDoesNotFailRun(t *testing.T) {
	fp := &fakeProvider{}
	pts := httptest.NewServer(fp.handler())
	defer pts.Close()

	rec := &fakeRecorder{fail: true}
	res := newOrchestrator(pts.URL, "", rec).Run(context.Background(), contractRequest())

	if !res.Success {
		t.Fatalf("a lost status row must not fail a run the provider accepted")
	}
	var persistStatus string
	for _, a := range res.Audit {
		if a.Step == "persist" {
			persistStatus = a.Status
		}
	}
	if persistStatus != "failed" {
		t.Fatalf("persist failure must be observable in the audit trail, got %q", persistStatus)
	}
}

func TestNotifySkipRecordedInAudit(t *testing.T) {
	fp := &fakeProvider{}
	pts := httptest.NewServer(fp.handler())
	defer pts.Close()

	req := contractRequest()
	req.ClientPhone = ""
	res := newOrchestrator(pts.URL, "", &fakeRecorder{}).Run(context.Background(), req)

	if !res.Success || res.WhatsAppSent {
		t.Fatalf("expected success without notification: %+v", res)
	}
	var notifyStatus string
	for _, a := range res.Audit {
		if a.Step == "notify" {
			notifyStatus = a.Status
		}
	}
	if notifyStatus != notify.OutcomeSkipped {
		t.Fatalf("skipped notification must be observable, got %q", notifyStatus)
	}
}

func TestValidationOnMissingFields(t *testing.T) {
	req := contractRequest()
	req.DocName = ""
	req.ClientName = ""
	res := newOrchestrator("http://unused", "", &fakeRecorder{}).Run(context.Background(), req)
	if res.Success || res.Error != "VALIDATION" {
		t.Fatalf("expected validation failure, got %+v", res)
	}
	details, ok := res.Details.(map[string]any)
	if !ok {
		t.Fatalf("validation details missing")
	}
	if _, ok := details["missing"]; !ok {
		t.Fatalf("validation details must name missing fields")
	}
}
