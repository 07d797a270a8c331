package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct{ DB *pgxpool.Pool }

func New(db *pgxpool.Pool) *Store { return &Store{DB: db} }

// DocumentRecord is the fixed-shape row persisted once per signing run. There
// is no update path in this service; later status changes arrive elsewhere.
type DocumentRecord struct {
	DocToken   string `json:"doc_token"`
	DocType    string `json:"doc_type"`
	DocName    string `json:"doc_name"`
	ClientName string `json:"client_name"`
	ClientMail string `json:"client_email"`
	ClientFone string `json:"client_phone"`
	ClientCPF  string `json:"client_cpf"`

	PartnerPrimaryToken    string `json:"partner_primary_token"`
	PartnerPrimaryStatus   string `json:"partner_primary_status"`
	PartnerSecondaryToken  string `json:"partner_secondary_token"`
	PartnerSecondaryStatus string `json:"partner_secondary_status"`
	ClientSignerToken      string `json:"client_signer_token"`
	ClientStatus           string `json:"client_status"`
	Witness1Name           string `json:"witness1_name"`
	Witness1Token          string `json:"witness1_token"`
	Witness1Status         string `json:"witness1_status"`
	Witness2Name           string `json:"witness2_name"`
	Witness2Token          string `json:"witness2_token"`
	Witness2Status         string `json:"witness2_status"`

	SignURL   string    `json:"sign_url"`
	Note      string    `json:"note"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.DB.Exec(ctx, `
CREATE TABLE IF NOT EXISTS esign_documents(
  doc_token text PRIMARY KEY,
  doc_type text NOT NULL,
  doc_name text NOT NULL,
  client_name text NOT NULL,
  client_email text NOT NULL DEFAULT '',
  client_phone text NOT NULL DEFAULT '',
  client_cpf text NOT NULL DEFAULT '',
  partner_primary_token text NOT NULL DEFAULT '',
  partner_primary_status text NOT NULL DEFAULT '',
  partner_secondary_token text NOT NULL DEFAULT '',
  partner_secondary_status text NOT NULL DEFAULT '',
  client_signer_token text NOT NULL DEFAULT '',
  client_status text NOT NULL DEFAULT '',
  witness1_name text NOT NULL DEFAULT '',
  witness1_token text NOT NULL DEFAULT '',
  witness1_status text NOT NULL DEFAULT '',
  witness2_name text NOT NULL DEFAULT '',
  witness2_token text NOT NULL DEFAULT '',
  witness2_status text NOT NULL DEFAULT '',
  sign_url text NOT NULL DEFAULT '',
  note text NOT NULL DEFAULT '',
  created_at timestamptz NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS esign_audit(
  audit_id text PRIMARY KEY,
  doc_token text NOT NULL,
  step text NOT NULL,
  status text NOT NULL,
  detail text NOT NULL DEFAULT '',
  occurred_at timestamptz NOT NULL DEFAULT now()
);`)
	return err
}

// InsertRecord is the one write per signing run: an insert, never an update.
func (s *Store) InsertRecord(ctx context.Context, rec DocumentRecord) error {
	_, err := s.DB.Exec(ctx, `
INSERT INTO esign_documents(
  doc_token,doc_type,doc_name,client_name,client_email,client_phone,client_cpf,
  partner_primary_token,partner_primary_status,
  partner_secondary_token,partner_secondary_status,
  client_signer_token,client_status,
  witness1_name,witness1_token,witness1_status,
  witness2_name,witness2_token,witness2_status,
  sign_url,note)
VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21)`,
		rec.DocToken, rec.DocType, rec.DocName, rec.ClientName, rec.ClientMail, rec.ClientFone, rec.ClientCPF,
		rec.PartnerPrimaryToken, rec.PartnerPrimaryStatus,
		rec.PartnerSecondaryToken, rec.PartnerSecondaryStatus,
		rec.ClientSignerToken, rec.ClientStatus,
		rec.Witness1Name, rec.Witness1Token, rec.Witness1Status,
		rec.Witness2Name, rec.Witness2Token, rec.Witness2Status,
		rec.SignURL, rec.Note)
	return err
}

func (s *Store) GetRecord(ctx context.Context, docToken string) (DocumentRecord, error) {
	var rec DocumentRecord
	err := s.DB.QueryRow(ctx, `
SELECT doc_token,doc_type,doc_name,client_name,client_email,client_phone,client_cpf,
  partner_primary_token,partner_primary_status,
  partner_secondary_token,partner_secondary_status,
  client_signer_token,client_status,
  witness1_name,witness1_token,witness1_status,
  witness2_name,witness2_token,witness2_status,
  sign_url,note,created_at
FROM esign_documents WHERE doc_token=$1`, docToken).Scan(
		&rec.DocToken, &rec.DocType, &rec.DocName, &rec.ClientName, &rec.ClientMail, &rec.ClientFone, &rec.ClientCPF,
		&rec.PartnerPrimaryToken, &rec.PartnerPrimaryStatus,
		&rec.PartnerSecondaryToken, &rec.PartnerSecondaryStatus,
		&rec.ClientSignerToken, &rec.ClientStatus,
		&rec.Witness1Name, &rec.Witness1Token, &rec.Witness1Status,
		&rec.Witness2Name, &rec.Witness2Token, &rec.Witness2Status,
		&rec.SignURL, &rec.Note, &rec.CreatedAt)
	return rec, err
}

func (s *Store) ListRecent(ctx context.Context, limit int) ([]DocumentRecord, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows, err := s.DB.Query(ctx, `
SELECT doc_token,doc_type,doc_name,client_name,client_email,client_phone,client_cpf,
  partner_primary_token,partner_primary_status,
  partner_secondary_token,partner_secondary_status,
  client_signer_token,client_status,
  witness1_name,witness1_token,witness1_status,
  witness2_name,witness2_token,witness2_status,
  sign_url,note,created_at
FROM esign_documents ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []DocumentRecord
	for rows.Next() {
		var rec DocumentRecord
		if err := rows.Scan(
			&rec.DocToken, &rec.DocType, &rec.DocName, &rec.ClientName, &rec.ClientMail, &rec.ClientFone, &rec.ClientCPF,
			&rec.PartnerPrimaryToken, &rec.PartnerPrimaryStatus,
			&rec.PartnerSecondaryToken, &rec.PartnerSecondaryStatus,
			&rec.ClientSignerToken, &rec.ClientStatus,
			&rec.Witness1Name, &rec.Witness1Token, &rec.Witness1Status,
			&rec.Witness2Name, &rec.Witness2Token, &rec.Witness2Status,
			&rec.SignURL, &rec.Note, &rec.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *Store) AddAudit(ctx context.Context, auditID, docToken, step, status, detail string) error {
	_, err := s.DB.Exec(ctx, `INSERT INTO esign_audit(audit_id,doc_token,step,status,detail) VALUES($1,$2,$3,$4,$5)`,
		auditID, docToken, step, status, detail)
	return err
}
