package config

import (
	"github.com/Jandr07/VolunteerConnect/internal/envconfig"
)

type Config struct {
	Port         string `validate:"required"`
	GCPProjectID string `validate:"required"`
	DataStore    string `validate:"required,oneof=firestore memory"`
	Auth         AuthConfig
	Firestore    FirestoreConfig
}

type AuthConfig struct {
	Mode     string `validate:"required,oneof=jwks noop"`
	JWKSURL  string
	Audience string
	Issuer   string
}

type FirestoreConfig struct {
	EmulatorHost string
}

func Load() (Config, error) {
	cfg := Config{
		Port:         envconfig.Get("PORT", "8080"),
		GCPProjectID: envconfig.Get("GCP_PROJECT_ID", "volunteerconnect-dev"),
		DataStore:    envconfig.Get("DATASTORE", "firestore"),
		Auth: AuthConfig{
			Mode:     envconfig.Get("AUTH_MODE", "jwks"),
			JWKSURL:  envconfig.Get("AUTH_JWKS_URL", ""),
			Audience: envconfig.Get("AUTH_AUDIENCE", ""),
			Issuer:   envconfig.Get("AUTH_ISSUER", ""),
		},
		Firestore: FirestoreConfig{
			EmulatorHost: envconfig.Get("FIRESTORE_EMULATOR_HOST", ""),
		},
	}
	return cfg, envconfig.Validate(cfg)
}
