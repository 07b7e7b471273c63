package config

import (
	"os"
	"strconv"
	"time"
)

// Config captures everything the server needs from the environment: the HTTP
// listener, the backing stores, and the raffle constants (pool size and
// extra-ticket pricing).
type Config struct {
	Addr          string
	DatabaseURL   string
	RedisURL      string
	JWTSigningKey string

	// PoolSize is N, the upper bound of the ticket number range [1, N].
	PoolSize int
	// UnitPrice is the purchase amount, in whole currency units, that buys
	// one block of extra tickets.
	UnitPrice int
	// TicketsPerUnit is the number of extra tickets granted per unit price.
	TicketsPerUnit int

	ProofDir        string
	ShutdownTimeout time.Duration
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	addr := os.Getenv("RIFA_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtSigningKey := os.Getenv("RIFA_JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Development default - must be overridden in production.
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	proofDir := os.Getenv("RIFA_PROOF_DIR")
	if proofDir == "" {
		proofDir = "proofs"
	}

	return Config{
		Addr:            addr,
		DatabaseURL:     os.Getenv("RIFA_DATABASE_URL"),
		RedisURL:        os.Getenv("RIFA_REDIS_URL"),
		JWTSigningKey:   jwtSigningKey,
		PoolSize:        envInt("RIFA_POOL_SIZE", 1000),
		UnitPrice:       envInt("RIFA_UNIT_PRICE", 7),
		TicketsPerUnit:  envInt("RIFA_TICKETS_PER_UNIT", 5),
		ProofDir:        proofDir,
		ShutdownTimeout: 10 * time.Second,
	}
}

func envInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}
