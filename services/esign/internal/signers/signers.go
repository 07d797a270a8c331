// Package signers builds the role-tagged signer set for a signature request.
// Downstream components address signers by role, never by slice position.
package signers

type DocType string

const (
	// DocContrato is the fee contract: both partners, the client and two
	// witnesses sign.
	DocContrato DocType = "contrato"
	// DocProcuracao is the power of attorney: the client signs alone.
	DocProcuracao DocType = "procuracao"
)

func (d DocType) Valid() bool { return d == DocContrato || d == DocProcuracao }

// Label is the human-readable document name used in client-facing messages.
func (d DocType) Label() string {
	if d == DocContrato {
		return "Contrato de Honorários"
	}
	return "Procuração"
}

type Role string

const (
	RolePartnerPrimary   Role = "partner_primary"
	RolePartnerSecondary Role = "partner_secondary"
	RoleClient           Role = "client"
	RoleWitness1         Role = "witness_1"
	RoleWitness2         Role = "witness_2"
)

// Internal reports whether the role is firm-side, i.e. signed automatically
// with that identity's own credential rather than by a human in the provider UI.
func (r Role) Internal() bool { return r != RoleClient }

type Signer struct {
	Role  Role
	Name  string
	Email string
	Phone string

	// WitnessKey is the roster key for witness roles; empty otherwise.
	WitnessKey string

	AuthMode             string
	RequireSelfie        bool
	RequireDocumentPhoto bool
	SendAutomaticEmail   bool
	SendAutomaticWhats   bool
	LockName             bool
	LockEmail            bool
	LockPhone            bool

	// Qualification is the placement marker the provider stamps next to the
	// signature on the rendered document.
	Qualification string
}

// SignerSet preserves submission order; ByRole is the only lookup downstream
// code may rely on.
type SignerSet []Signer

func (s SignerSet) ByRole(role Role) (Signer, bool) {
	for _, sg := range s {
		if sg.Role == role {
			return sg, true
		}
	}
	return Signer{}, false
}

func (s SignerSet) Roles() []Role {
	out := make([]Role, 0, len(s))
	for _, sg := range s {
		out = append(out, sg.Role)
	}
	return out
}

type WitnessSelection struct {
	Key  string
	Name string
}

type BuildInput struct {
	DocType         DocType
	IncludePartners bool

	ClientName  string
	ClientEmail string
	ClientPhone string

	SendEmail    bool
	SendWhatsApp bool

	Witnesses []WitnessSelection
}

const (
	partnerPrimaryName   = "Dra. Fernanda Egg Nunes"
	partnerSecondaryName = "Dr. Marcelo Egg Nunes"

	authModeDefault = "assinaturaTela"
)

// Build never fails; it only emits shorter sets when the request carries fewer
// parties. Witness count validation happens before the orchestration starts.
func Build(in BuildInput) SignerSet {
	client := Signer{
		Role:                 RoleClient,
		Name:                 in.ClientName,
		Email:                in.ClientEmail,
		Phone:                in.ClientPhone,
		AuthMode:             authModeDefault,
		RequireSelfie:        true,
		RequireDocumentPhoto: true,
		SendAutomaticEmail:   in.SendEmail && in.ClientEmail != "",
		SendAutomaticWhats:   in.SendWhatsApp && in.ClientPhone != "",
		LockEmail:            in.ClientEmail != "",
		LockPhone:            in.ClientPhone != "",
		Qualification:        "contratante",
	}

	if in.DocType != DocContrato || !in.IncludePartners {
		return SignerSet{client}
	}

	set := SignerSet{
		internalSigner(RolePartnerPrimary, partnerPrimaryName, "contratada"),
		internalSigner(RolePartnerSecondary, partnerSecondaryName, "contratada"),
		client,
	}
	witnessRoles := []Role{RoleWitness1, RoleWitness2}
	for i, w := range in.Witnesses {
		if i >= len(witnessRoles) {
			break
		}
		sg := internalSigner(witnessRoles[i], w.Name, "testemunha")
		sg.WitnessKey = w.Key
		set = append(set, sg)
	}
	return set
}

func internalSigner(role Role, name, qualification string) Signer {
	return Signer{
		Role:          role,
		Name:          name,
		AuthMode:      authModeDefault,
		LockName:      true,
		Qualification: qualification,
	}
}
