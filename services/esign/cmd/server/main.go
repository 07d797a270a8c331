package main

import (
	"context"
	"log"
	"net/http"
	"strconv"

	"github.com/eggnunes/intranet-eggnunes-sub004/pkg/db"
	"github.com/eggnunes/intranet-eggnunes-sub004/pkg/httpx"
	"github.com/eggnunes/intranet-eggnunes-sub004/services/esign/internal/config"
	"github.com/eggnunes/intranet-eggnunes-sub004/services/esign/internal/notify"
	"github.com/eggnunes/intranet-eggnunes-sub004/services/esign/internal/orchestrate"
	"github.com/eggnunes/intranet-eggnunes-sub004/services/esign/internal/provider"
	"github.com/eggnunes/intranet-eggnunes-sub004/services/esign/internal/store"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
)

func main() {
	cfg := config.Load()

	pool, err := db.Connect(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("esign: database: %v", err)
	}
	st := store.New(pool)
	if err := st.EnsureSchema(context.Background()); err != nil {
		log.Fatalf("esign: schema: %v", err)
	}

	orc := &orchestrate.Orchestrator{
		Provider: provider.New(cfg.Provider.BaseURL, cfg.Provider.APIToken),
		Gateway:  notify.NewGateway(cfg.WhatsApp.BaseURL, cfg.WhatsApp.APIToken),
		Recorder: st,
		AutoSign: cfg.AutoSign,
		WhatsApp: cfg.WhatsApp,
		Locale:   cfg.Provider.Locale,
	}

	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })

	r.Route("/esign", func(api chi.Router) {

		api.Post("/documents", func(w http.ResponseWriter, r *http.Request) {
			var req orchestrate.Request
			if err := httpx.ReadJSON(r, &req); err != nil {
				httpx.WriteError(w, 400, "BAD_JSON", err.Error(), nil)
				return
			}
			res := orc.Run(r.Context(), req)
			if !res.Success {
				httpx.WriteFailure(w, res.Error, res.UserMessage, res.Details)
				return
			}
			out := map[string]any{
				"request_id":               httpx.NewRequestID(),
				"success":                  true,
				"documentToken":            res.DocToken,
				"isContract":               res.IsContract,
				"signers":                  res.Signers,
				"signUrl":                  res.SignURL,
				"whatsappNotificationSent": res.WhatsAppSent,
				"audit":                    res.Audit,
			}
			if res.IsContract {
				out["autoSignResults"] = res.AutoSign
				out["witness1Name"] = res.Witness1Name
				out["witness2Name"] = res.Witness2Name
			}
			httpx.WriteJSON(w, 200, out)
		})

		api.Get("/documents", func(w http.ResponseWriter, r *http.Request) {
			limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
			recs, err := st.ListRecent(r.Context(), limit)
			if err != nil {
				httpx.WriteError(w, 500, "DB_ERROR", err.Error(), nil)
				return
			}
			httpx.WriteJSON(w, 200, map[string]any{"request_id": httpx.NewRequestID(), "documents": recs})
		})

		api.Get("/documents/{doc_token}", func(w http.ResponseWriter, r *http.Request) {
			rec, err := st.GetRecord(r.Context(), chi.URLParam(r, "doc_token"))
			if err != nil {
				if err == pgx.ErrNoRows {
					httpx.WriteError(w, 404, "NOT_FOUND", "document not found", nil)
					return
				}
				httpx.WriteError(w, 500, "DB_ERROR", err.Error(), nil)
				return
			}
			httpx.WriteJSON(w, 200, map[string]any{"request_id": httpx.NewRequestID(), "document": rec})
		})

		api.Get("/witnesses", func(w http.ResponseWriter, r *http.Request) {
			httpx.WriteJSON(w, 200, map[string]any{"request_id": httpx.NewRequestID(), "witnesses": cfg.WitnessRoster})
		})
	})

	log.Printf("esign: listening on :%s", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		log.Fatal(err)
	}
}
