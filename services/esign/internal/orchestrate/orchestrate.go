// Package orchestrate runs one signing request end to end: build the signer
// set, submit to the provider, auto-sign the firm-side parties, persist the
// status record and notify the client. Only the provider submission is a hard
// contract; everything after it is best-effort enrichment.
package orchestrate

import (
	"context"
	"encoding/base64"
	"log"
	"strings"

	"github.com/google/uuid"

	"github.com/eggnunes/intranet-eggnunes-sub004/services/esign/internal/autosign"
	"github.com/eggnunes/intranet-eggnunes-sub004/services/esign/internal/config"
	"github.com/eggnunes/intranet-eggnunes-sub004/services/esign/internal/notify"
	"github.com/eggnunes/intranet-eggnunes-sub004/services/esign/internal/provider"
	"github.com/eggnunes/intranet-eggnunes-sub004/services/esign/internal/signers"
	"github.com/eggnunes/intranet-eggnunes-sub004/services/esign/internal/store"
)

type WitnessSelection struct {
	Key  string `json:"key"`
	Name string `json:"name"`
}

type Request struct {
	DocType         string             `json:"doc_type"`
	DocName         string             `json:"doc_name"`
	DocumentBase64  string             `json:"document_base64"`
	ClientName      string             `json:"client_name"`
	ClientEmail     string             `json:"client_email"`
	ClientPhone     string             `json:"client_phone"`
	ClientCPF       string             `json:"client_cpf"`
	SendEmail       bool               `json:"send_email"`
	SendWhatsApp    bool               `json:"send_whatsapp"`
	IncludePartners bool               `json:"include_partners"`
	Witnesses       []WitnessSelection `json:"witnesses"`
}

type SignerResult struct {
	Role    signers.Role `json:"role"`
	Name    string       `json:"name"`
	Email   string       `json:"email"`
	SignURL string       `json:"signUrl"`
	Status  string       `json:"status"`
}

// AuditEntry makes each best-effort side effect observable in the response:
// "skipped due to unmet preconditions" and "ran and failed" are different facts.
type AuditEntry struct {
	Step   string `json:"step"`
	Status string `json:"status"`
	Detail string `json:"detail,omitempty"`
}

type Result struct {
	Success     bool
	Error       string
	UserMessage string
	Details     any

	DocToken     string
	IsContract   bool
	AutoSign     map[signers.Role]autosign.Outcome
	Witness1Name string
	Witness2Name string
	Signers      []SignerResult
	SignURL      string
	WhatsAppSent bool
	Audit        []AuditEntry
}

// Recorder is the slice of the store this flow needs; tests substitute fakes.
type Recorder interface {
	InsertRecord(ctx context.Context, rec store.DocumentRecord) error
	AddAudit(ctx context.Context, auditID, docToken, step, status, detail string) error
}

type Orchestrator struct {
	Provider *provider.Client
	Gateway  *notify.Gateway
	Recorder Recorder

	AutoSign config.AutoSignConfig
	WhatsApp config.WhatsAppConfig
	Locale   string
}

func failure(code, userMessage string, details any) Result {
	return Result{Error: code, UserMessage: userMessage, Details: details}
}

// Run processes one request start to finish. A provider submission failure
// aborts immediately; auto-sign, persistence and notification failures are
// absorbed into the result and the audit log.
func (o *Orchestrator) Run(ctx context.Context, req Request) Result {
	if o.Provider == nil || o.Provider.APIToken == "" {
		return failure("CONFIG_MISSING", "O token de API do provedor de assinaturas não está configurado no servidor.", nil)
	}

	docType := signers.DocType(strings.TrimSpace(req.DocType))
	if !docType.Valid() {
		return failure("VALIDATION", "Tipo de documento inválido.", map[string]any{"doc_type": req.DocType})
	}
	var missing []string
	if strings.TrimSpace(req.DocName) == "" {
		missing = append(missing, "doc_name")
	}
	if strings.TrimSpace(req.ClientName) == "" {
		missing = append(missing, "client_name")
	}
	if strings.TrimSpace(req.DocumentBase64) == "" {
		missing = append(missing, "document_base64")
	}
	if len(missing) > 0 {
		return failure("VALIDATION", "Preencha os campos obrigatórios antes de enviar o documento.", map[string]any{"missing": missing})
	}
	if _, err := base64.StdEncoding.DecodeString(req.DocumentBase64); err != nil {
		return failure("VALIDATION", "O arquivo do documento está corrompido ou não é um PDF em base64.", nil)
	}

	isContract := docType == signers.DocContrato && req.IncludePartners
	if isContract {
		// A fee contract without its two witnesses is not a shorter contract,
		// it is an invalid one: fail before anything reaches the provider.
		if err := validateWitnesses(req.Witnesses); err != "" {
			return failure("VALIDATION", "Selecione exatamente duas testemunhas para o contrato.", map[string]any{"reason": err})
		}
	}

	set := signers.Build(signers.BuildInput{
		DocType:         docType,
		IncludePartners: req.IncludePartners,
		ClientName:      strings.TrimSpace(req.ClientName),
		ClientEmail:     strings.TrimSpace(req.ClientEmail),
		ClientPhone:     strings.TrimSpace(req.ClientPhone),
		SendEmail:       req.SendEmail,
		SendWhatsApp:    req.SendWhatsApp,
		Witnesses:       witnessInput(req.Witnesses),
	})

	doc, submitFail, err := o.Provider.CreateDocument(ctx, provider.CreateDocumentRequest{
		Name:      strings.TrimSpace(req.DocName),
		Base64PDF: req.DocumentBase64,
		Lang:      o.Locale,
		Signers:   o.payloads(set),
	})
	if err != nil {
		log.Printf("esign: provider unreachable: %v", err)
		return failure(string(provider.FailureUnclassified),
			"Não foi possível falar com o provedor de assinaturas. Tente novamente em alguns minutos.",
			map[string]any{"error": err.Error()})
	}
	if submitFail != nil {
		return failure(string(submitFail.Kind), submitFail.UserMessage, map[string]any{
			"status_code": submitFail.StatusCode,
			"body":        submitFail.Body,
		})
	}

	res := Result{
		Success:    true,
		DocToken:   doc.Token,
		IsContract: isContract,
	}
	if isContract {
		creds := autosign.ResolveCredentials(o.AutoSign, set)
		res.AutoSign = autosign.Run(ctx, o.Provider, set, doc, creds)
	}
	if w, ok := set.ByRole(signers.RoleWitness1); ok {
		res.Witness1Name = w.Name
	}
	if w, ok := set.ByRole(signers.RoleWitness2); ok {
		res.Witness2Name = w.Name
	}
	for i, sg := range set {
		sr := SignerResult{Role: sg.Role, Name: sg.Name, Email: sg.Email}
		if i < len(doc.Signers) {
			sr.SignURL = doc.Signers[i].SignURL
			sr.Status = doc.Signers[i].Status
		}
		res.Signers = append(res.Signers, sr)
	}

	rec := store.BuildDocumentRecord(store.RecordInput{
		DocType:    docType,
		DocName:    strings.TrimSpace(req.DocName),
		ClientName: strings.TrimSpace(req.ClientName),
		ClientMail: strings.TrimSpace(req.ClientEmail),
		ClientFone: strings.TrimSpace(req.ClientPhone),
		ClientCPF:  strings.TrimSpace(req.ClientCPF),
		Note:       "ok",
	}, set, doc, res.AutoSign)
	res.SignURL = rec.SignURL

	res.Audit = append(res.Audit, o.persist(ctx, rec))

	nout := notify.Send(ctx, o.Gateway, notify.Input{
		ClientName:      req.ClientName,
		ClientPhone:     req.ClientPhone,
		DocType:         docType,
		DocName:         req.DocName,
		SignURL:         rec.SignURL,
		SendWhatsApp:    req.SendWhatsApp,
		CountryPrefix:   o.WhatsApp.CountryPrefix,
		OfficialContact: o.WhatsApp.OfficialContact,
	})
	res.WhatsAppSent = nout.Status == notify.OutcomeSent
	res.Audit = append(res.Audit, AuditEntry{Step: "notify", Status: nout.Status, Detail: nout.Detail})
	o.audit(ctx, doc.Token, res.Audit)

	return res
}

func (o *Orchestrator) persist(ctx context.Context, rec store.DocumentRecord) AuditEntry {
	if o.Recorder == nil {
		return AuditEntry{Step: "persist", Status: "skipped", Detail: "store not configured"}
	}
	if err := o.Recorder.InsertRecord(ctx, rec); err != nil {
		// The provider transaction already succeeded; a lost status row must
		// not invalidate it.
		log.Printf("esign: status record insert failed for doc %s: %v", rec.DocToken, err)
		return AuditEntry{Step: "persist", Status: "failed", Detail: err.Error()}
	}
	return AuditEntry{Step: "persist", Status: "ok"}
}

func (o *Orchestrator) audit(ctx context.Context, docToken string, entries []AuditEntry) {
	if o.Recorder == nil {
		return
	}
	for _, e := range entries {
		if err := o.Recorder.AddAudit(ctx, "aud_"+uuid.NewString(), docToken, e.Step, e.Status, e.Detail); err != nil {
			log.Printf("esign: audit write failed for doc %s: %v", docToken, err)
		}
	}
}

func (o *Orchestrator) payloads(set signers.SignerSet) []provider.SignerPayload {
	out := make([]provider.SignerPayload, 0, len(set))
	for _, sg := range set {
		p := provider.SignerPayload{
			Name:                 sg.Name,
			Email:                sg.Email,
			AuthMode:             sg.AuthMode,
			RequireSelfiePhoto:   sg.RequireSelfie,
			RequireDocumentPhoto: sg.RequireDocumentPhoto,
			SendAutomaticEmail:   sg.SendAutomaticEmail,
			SendAutomaticWhats:   sg.SendAutomaticWhats,
			LockName:             sg.LockName,
			LockEmail:            sg.LockEmail,
			LockPhone:            sg.LockPhone,
			Qualification:        sg.Qualification,
		}
		if digits := notify.NormalizePhone(sg.Phone, o.WhatsApp.CountryPrefix); digits != "" {
			p.PhoneCountry = o.WhatsApp.CountryPrefix
			p.PhoneNumber = strings.TrimPrefix(digits, o.WhatsApp.CountryPrefix)
		}
		out = append(out, p)
	}
	return out
}

func witnessInput(sel []WitnessSelection) []signers.WitnessSelection {
	out := make([]signers.WitnessSelection, 0, len(sel))
	for _, w := range sel {
		out = append(out, signers.WitnessSelection{Key: w.Key, Name: w.Name})
	}
	return out
}

func validateWitnesses(sel []WitnessSelection) string {
	if len(sel) != 2 {
		return "exactly 2 witnesses required"
	}
	for _, w := range sel {
		if strings.TrimSpace(w.Key) == "" || strings.TrimSpace(w.Name) == "" {
			return "witness selection missing key or name"
		}
	}
	if sel[0].Key == sel[1].Key {
		return "witnesses must be two distinct people"
	}
	return ""
}
