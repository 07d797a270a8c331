package store

import (
	"github.com/eggnunes/intranet-eggnunes-sub004/services/esign/internal/autosign"
	"github.com/eggnunes/intranet-eggnunes-sub004/services/esign/internal/provider"
	"github.com/eggnunes/intranet-eggnunes-sub004/services/esign/internal/signers"
)

const (
	StatusPending = "pending"
	StatusSigned  = "signed"
)

type RecordInput struct {
	DocType    signers.DocType
	DocName    string
	ClientName string
	ClientMail string
	ClientFone string
	ClientCPF  string
	Note       string
}

// BuildDocumentRecord maps each role onto the record's fixed columns. A role
// is "signed" only when its auto-sign outcome succeeded; a missing outcome and
// a failed outcome both stay "pending". The client is always pending here —
// their signature happens later, through the recorded sign URL.
func BuildDocumentRecord(in RecordInput, set signers.SignerSet, doc *provider.Document, outcomes map[signers.Role]autosign.Outcome) DocumentRecord {
	rec := DocumentRecord{
		DocToken:   doc.Token,
		DocType:    string(in.DocType),
		DocName:    in.DocName,
		ClientName: in.ClientName,
		ClientMail: in.ClientMail,
		ClientFone: in.ClientFone,
		ClientCPF:  in.ClientCPF,
		Note:       in.Note,
	}

	tokens := map[signers.Role]provider.DocumentSigner{}
	for i, sg := range set {
		if i < len(doc.Signers) {
			tokens[sg.Role] = doc.Signers[i]
		}
	}
	status := func(role signers.Role) string {
		if out, ok := outcomes[role]; ok && out.Success {
			return StatusSigned
		}
		return StatusPending
	}

	if ps, ok := tokens[signers.RolePartnerPrimary]; ok {
		rec.PartnerPrimaryToken = ps.Token
		rec.PartnerPrimaryStatus = status(signers.RolePartnerPrimary)
	}
	if ps, ok := tokens[signers.RolePartnerSecondary]; ok {
		rec.PartnerSecondaryToken = ps.Token
		rec.PartnerSecondaryStatus = status(signers.RolePartnerSecondary)
	}
	if cs, ok := tokens[signers.RoleClient]; ok {
		rec.ClientSignerToken = cs.Token
		rec.ClientStatus = StatusPending
		rec.SignURL = cs.SignURL
	}
	if w, ok := set.ByRole(signers.RoleWitness1); ok {
		rec.Witness1Name = w.Name
		if ws, ok := tokens[signers.RoleWitness1]; ok {
			rec.Witness1Token = ws.Token
			rec.Witness1Status = status(signers.RoleWitness1)
		}
	}
	if w, ok := set.ByRole(signers.RoleWitness2); ok {
		rec.Witness2Name = w.Name
		if ws, ok := tokens[signers.RoleWitness2]; ok {
			rec.Witness2Token = ws.Token
			rec.Witness2Status = status(signers.RoleWitness2)
		}
	}
	return rec
}
