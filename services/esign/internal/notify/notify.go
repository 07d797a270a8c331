// Package notify delivers the signing link to the client over the firm's
// WhatsApp gateway. Delivery is best-effort: every outcome, including a skip,
// is reported back for the audit trail and never fails the signing run.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/eggnunes/intranet-eggnunes-sub004/services/esign/internal/signers"
)

type Gateway struct {
	BaseURL  string
	APIToken string
	HTTP     *http.Client
}

func NewGateway(baseURL, apiToken string) *Gateway {
	return &Gateway{BaseURL: baseURL, APIToken: apiToken, HTTP: &http.Client{}}
}

func (g *Gateway) SendText(ctx context.Context, phone, message string) error {
	body := map[string]any{"phone": phone, "message": message}
	b, _ := json.Marshal(body)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.BaseURL+"/send-text", bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("content-type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.APIToken)
	resp, err := g.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("gateway returned %d", resp.StatusCode)
	}
	return nil
}

// NormalizePhone reduces raw portal input to digits and guarantees exactly one
// country prefix, whether the input came under- or over-prefixed.
func NormalizePhone(raw, prefix string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if digits == "" {
		return ""
	}
	if !strings.HasPrefix(digits, prefix) {
		return prefix + digits
	}
	rest := digits[len(prefix):]
	// "55 55 31 99999-8888": the stored number already carried the prefix and
	// the portal prepended another one.
	if strings.HasPrefix(rest, prefix) && len(rest) >= 12 {
		return rest
	}
	// An area code that happens to match the prefix, e.g. DDD 55 numbers:
	// local length means the leading digits are not a country prefix.
	if len(digits) <= 11 {
		return prefix + digits
	}
	return digits
}

func firstName(full string) string {
	parts := strings.Fields(strings.TrimSpace(full))
	if len(parts) == 0 {
		return ""
	}
	return parts[0]
}

// BuildMessage renders the fixed client-facing template. The outbound-only
// footer is mandatory: the gateway number does not receive replies.
func BuildMessage(clientName string, docType signers.DocType, docName, signURL, officialContact string) string {
	return fmt.Sprintf(
		"Olá, %s! Seu documento \"%s\" (%s) está pronto para assinatura.\n\n"+
			"Assine pelo link: %s\n\n"+
			"Esta é uma mensagem automática de um canal apenas de envio. "+
			"Em caso de dúvidas, fale conosco pelo canal oficial do escritório: %s",
		firstName(clientName), docName, docType.Label(), signURL, officialContact)
}

type Input struct {
	ClientName  string
	ClientPhone string
	DocType     signers.DocType
	DocName     string
	SignURL     string

	SendWhatsApp    bool
	CountryPrefix   string
	OfficialContact string
}

const (
	OutcomeSent    = "sent"
	OutcomeSkipped = "skipped"
	OutcomeFailed  = "failed"
)

type Outcome struct {
	Status string `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// Send checks the preconditions, normalizes the phone and issues one gateway
// call. Unmet preconditions are a skip, not an error.
func Send(ctx context.Context, gw *Gateway, in Input) Outcome {
	switch {
	case !in.SendWhatsApp:
		return Outcome{Status: OutcomeSkipped, Detail: "whatsapp delivery not requested"}
	case in.SignURL == "":
		return Outcome{Status: OutcomeSkipped, Detail: "no signing url returned by provider"}
	case gw == nil || gw.BaseURL == "" || gw.APIToken == "":
		return Outcome{Status: OutcomeSkipped, Detail: "whatsapp gateway not configured"}
	}
	phone := NormalizePhone(in.ClientPhone, in.CountryPrefix)
	if phone == "" {
		return Outcome{Status: OutcomeSkipped, Detail: "client has no usable phone number"}
	}
	msg := BuildMessage(in.ClientName, in.DocType, in.DocName, in.SignURL, in.OfficialContact)
	if err := gw.SendText(ctx, phone, msg); err != nil {
		return Outcome{Status: OutcomeFailed, Detail: err.Error()}
	}
	return Outcome{Status: OutcomeSent}
}
