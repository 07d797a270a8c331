// Package autosign executes the firm-side signatures of a freshly submitted
// document, one isolated provider call per configured identity.
package autosign

import (
	"context"
	"log"

	"github.com/eggnunes/intranet-eggnunes-sub004/services/esign/internal/config"
	"github.com/eggnunes/intranet-eggnunes-sub004/services/esign/internal/provider"
	"github.com/eggnunes/intranet-eggnunes-sub004/services/esign/internal/signers"
)

type Outcome struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Signer is the subset of the provider client autosign needs; tests substitute
// a fake counting calls.
type Signer interface {
	ExecuteSignature(ctx context.Context, signerCredential, signerToken string) error
}

// ResolveCredentials maps each firm-side role in the set to its identity's own
// token. Witness credentials are looked up by roster key, so the map follows
// whoever was actually selected. Roles with no configured token are absent.
func ResolveCredentials(cfg config.AutoSignConfig, set signers.SignerSet) map[signers.Role]string {
	creds := map[signers.Role]string{}
	for _, sg := range set {
		if !sg.Role.Internal() {
			continue
		}
		var tok string
		switch sg.Role {
		case signers.RolePartnerPrimary:
			tok = cfg.PartnerPrimaryToken
		case signers.RolePartnerSecondary:
			tok = cfg.PartnerSecondaryToken
		default:
			tok = cfg.WitnessTokens[sg.WitnessKey]
		}
		if tok != "" {
			creds[sg.Role] = tok
		}
	}
	return creds
}

// Run signs for every firm-side role that has both a provider signer token and
// a configured credential. Each call is independent: one failure never stops
// the remaining roles from being attempted. Unconfigured roles are skipped
// silently and produce no outcome at all.
func Run(ctx context.Context, client Signer, set signers.SignerSet, doc *provider.Document, creds map[signers.Role]string) map[signers.Role]Outcome {
	tokens := map[signers.Role]string{}
	for i, sg := range set {
		if i < len(doc.Signers) {
			tokens[sg.Role] = doc.Signers[i].Token
		}
	}

	outcomes := map[signers.Role]Outcome{}
	for _, sg := range set {
		if !sg.Role.Internal() {
			continue
		}
		cred, ok := creds[sg.Role]
		if !ok {
			continue
		}
		signerToken := tokens[sg.Role]
		if signerToken == "" {
			outcomes[sg.Role] = Outcome{Error: "provider returned no signer token for role"}
			continue
		}
		if err := client.ExecuteSignature(ctx, cred, signerToken); err != nil {
			log.Printf("esign: auto-sign failed for %s on doc %s: %v", sg.Role, doc.Token, err)
			outcomes[sg.Role] = Outcome{Error: err.Error()}
			continue
		}
		outcomes[sg.Role] = Outcome{Success: true}
	}
	return outcomes
}
