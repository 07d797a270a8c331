// Package provider is the HTTP client for the e-signature provider's
// create-document and execute-signature endpoints.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

type Client struct {
	BaseURL  string
	APIToken string
	HTTP     *http.Client
}

func New(baseURL, apiToken string) *Client {
	return &Client{BaseURL: baseURL, APIToken: apiToken, HTTP: &http.Client{}}
}

type SignerPayload struct {
	Name                 string `json:"name"`
	Email                string `json:"email,omitempty"`
	PhoneCountry         string `json:"phone_country,omitempty"`
	PhoneNumber          string `json:"phone_number,omitempty"`
	AuthMode             string `json:"auth_mode"`
	RequireSelfiePhoto   bool   `json:"require_selfie_photo"`
	RequireDocumentPhoto bool   `json:"require_document_photo"`
	SendAutomaticEmail   bool   `json:"send_automatic_email"`
	SendAutomaticWhats   bool   `json:"send_automatic_whatsapp"`
	LockName             bool   `json:"lock_name"`
	LockEmail            bool   `json:"lock_email"`
	LockPhone            bool   `json:"lock_phone"`
	Qualification        string `json:"qualification,omitempty"`
}

type CreateDocumentRequest struct {
	Name      string          `json:"name"`
	Base64PDF string          `json:"base64_pdf"`
	Lang      string          `json:"lang"`
	Signers   []SignerPayload `json:"signers"`
}

type DocumentSigner struct {
	Token   string `json:"token"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Status  string `json:"status"`
	SignURL string `json:"sign_url"`
}

// Document is the provider's echo of a successful submission. Signers come
// back in submission order with provider-assigned tokens and signing URLs.
type Document struct {
	Token   string           `json:"token"`
	Status  string           `json:"status"`
	Signers []DocumentSigner `json:"signers"`
}

type FailureKind string

const (
	FailureAuth         FailureKind = "PROVIDER_AUTH"
	FailureBilling      FailureKind = "PROVIDER_BILLING"
	FailureMalformed    FailureKind = "PROVIDER_BAD_REQUEST"
	FailureRateLimited  FailureKind = "PROVIDER_RATE_LIMITED"
	FailureUnclassified FailureKind = "PROVIDER_ERROR"
)

// SubmitFailure is a normal result, not an error: a lapsed plan or a revoked
// token is routine and has to reach the portal dialog as actionable guidance.
type SubmitFailure struct {
	Kind        FailureKind
	StatusCode  int
	UserMessage string
	Body        string
}

func classify(status int, body string) *SubmitFailure {
	f := &SubmitFailure{StatusCode: status, Body: body}
	switch {
	case status == 401 || status == 403:
		f.Kind = FailureAuth
		f.UserMessage = "Falha de autenticação com o provedor de assinaturas. Verifique o token de API do escritório."
	case status == 402:
		f.Kind = FailureBilling
		f.UserMessage = "O plano do provedor de assinaturas está inativo ou sem créditos. Regularize a cobrança antes de enviar novos documentos."
	case status == 400 || status == 422:
		f.Kind = FailureMalformed
		f.UserMessage = "O provedor recusou o documento enviado. Confira o arquivo e os dados dos signatários."
	case status == 429:
		f.Kind = FailureRateLimited
		f.UserMessage = "Muitos envios em sequência. Aguarde um instante e tente novamente."
	default:
		f.Kind = FailureUnclassified
		f.UserMessage = "O provedor de assinaturas retornou um erro inesperado. Tente novamente em alguns minutos."
	}
	return f
}

// CreateDocument issues exactly one submission; there are no retries. A
// non-success provider status comes back as a SubmitFailure, while the error
// return is reserved for transport problems (connection refused, bad JSON).
func (c *Client) CreateDocument(ctx context.Context, req CreateDocumentRequest) (*Document, *SubmitFailure, error) {
	b, _ := json.Marshal(req)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/docs/", bytes.NewReader(b))
	if err != nil {
		return nil, nil, err
	}
	httpReq.Header.Set("content-type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.APIToken)
	resp, err := c.HTTP.Do(httpReq)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, classify(resp.StatusCode, string(body)), nil
	}
	var doc Document
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, nil, err
	}
	return &doc, nil, nil
}

// ExecuteSignature signs on behalf of one firm-side party. signerCredential is
// that identity's own provider token; signerToken is the provider-assigned
// token echoed back by CreateDocument.
func (c *Client) ExecuteSignature(ctx context.Context, signerCredential, signerToken string) error {
	body := map[string]any{"signer_token": signerToken}
	b, _ := json.Marshal(body)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/sign/", bytes.NewReader(b))
	if err != nil {
		return err
	}
	httpReq.Header.Set("content-type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+signerCredential)
	resp, err := c.HTTP.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("provider returned %d: %s", resp.StatusCode, string(body))
	}
	return nil
}
