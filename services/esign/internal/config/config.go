package config

import (
	"os"
	"strings"
)

// Config is resolved once at startup and injected into every component that
// needs credentials. Nothing below cmd/server reads the environment.
type Config struct {
	Port        string
	DatabaseURL string

	Provider ProviderConfig
	AutoSign AutoSignConfig
	WhatsApp WhatsAppConfig

	// WitnessRoster is the fixed set of firm employees eligible to witness a
	// fee contract. Keys match the AutoSign.WitnessTokens map.
	WitnessRoster []Witness
}

type ProviderConfig struct {
	BaseURL  string
	APIToken string
	Locale   string
}

// AutoSignConfig carries one signing credential per firm-side identity. Each
// token belongs exclusively to that person's provider account; they are never
// shared across roles.
type AutoSignConfig struct {
	PartnerPrimaryToken   string
	PartnerSecondaryToken string
	WitnessTokens         map[string]string
}

type WhatsAppConfig struct {
	BaseURL         string
	APIToken        string
	CountryPrefix   string
	OfficialContact string
}

type Witness struct {
	Key  string `json:"key"`
	Name string `json:"name"`
}

func Load() Config {
	cfg := Config{
		Port:        envDefault("SERVICE_PORT", "8087"),
		DatabaseURL: strings.TrimSpace(os.Getenv("DATABASE_URL")),
		Provider: ProviderConfig{
			BaseURL:  envDefault("ESIGN_PROVIDER_BASE_URL", "https://api.zapsign.com.br/api/v1"),
			APIToken: strings.TrimSpace(os.Getenv("ESIGN_PROVIDER_API_TOKEN")),
			Locale:   envDefault("ESIGN_PROVIDER_LOCALE", "pt-br"),
		},
		AutoSign: AutoSignConfig{
			PartnerPrimaryToken:   strings.TrimSpace(os.Getenv("ESIGN_TOKEN_PARTNER_PRIMARY")),
			PartnerSecondaryToken: strings.TrimSpace(os.Getenv("ESIGN_TOKEN_PARTNER_SECONDARY")),
			WitnessTokens:         map[string]string{},
		},
		WhatsApp: WhatsAppConfig{
			BaseURL:         strings.TrimSpace(os.Getenv("WHATSAPP_GATEWAY_BASE_URL")),
			APIToken:        strings.TrimSpace(os.Getenv("WHATSAPP_GATEWAY_TOKEN")),
			CountryPrefix:   envDefault("WHATSAPP_COUNTRY_PREFIX", "55"),
			OfficialContact: envDefault("WHATSAPP_OFFICIAL_CONTACT", "(31) 3227-0000"),
		},
	}
	for _, w := range defaultRoster {
		cfg.WitnessRoster = append(cfg.WitnessRoster, w)
		if tok := strings.TrimSpace(os.Getenv("ESIGN_TOKEN_WITNESS_" + strings.ToUpper(w.Key))); tok != "" {
			cfg.AutoSign.WitnessTokens[w.Key] = tok
		}
	}
	return cfg
}

var defaultRoster = []Witness{
	{Key: "camila", Name: "Camila Duarte"},
	{Key: "rodrigo", Name: "Rodrigo Tavares"},
	{Key: "patricia", Name: "Patrícia Lemos"},
	{Key: "henrique", Name: "Henrique Sales"},
}

func envDefault(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}
