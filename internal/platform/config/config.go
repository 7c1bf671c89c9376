// Package config builds runtime configuration from environment variables so
// main stays lean.
package config

import (
	"os"
	"strings"
	"time"
)

// Server captures everything the vault server needs at startup.
type Server struct {
	Addr          string
	PostgresURL   string
	RedisURL      string
	KafkaBrokers  []string
	AuditTopic    string
	SealKey       string
	JWTSigningKey string
	JWTIssuer     string
	JWTAudience   string
	LockTTL       time.Duration
}

// FromEnv builds a Server config from environment variables.
func FromEnv() Server {
	addr := os.Getenv("VAULT_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	sealKey := os.Getenv("VAULT_SEAL_KEY")
	if sealKey == "" {
		// 32 zero bytes, development only.
		sealKey = strings.Repeat("00", 32)
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	auditTopic := os.Getenv("AUDIT_TOPIC")
	if auditTopic == "" {
		auditTopic = "vault.audit"
	}

	lockTTL := 30 * time.Second
	if v := os.Getenv("ONBOARDING_LOCK_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			lockTTL = d
		}
	}

	var brokers []string
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		for _, b := range strings.Split(v, ",") {
			if b = strings.TrimSpace(b); b != "" {
				brokers = append(brokers, b)
			}
		}
	}

	return Server{
		Addr:          addr,
		PostgresURL:   os.Getenv("POSTGRES_URL"),
		RedisURL:      os.Getenv("REDIS_URL"),
		KafkaBrokers:  brokers,
		AuditTopic:    auditTopic,
		SealKey:       sealKey,
		JWTSigningKey: jwtSigningKey,
		JWTIssuer:     "vaultcore",
		JWTAudience:   "vault-api",
		LockTTL:       lockTTL,
	}
}
