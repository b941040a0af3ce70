package authcore

import (
	"errors"
	"time"

	"github.com/meubolso/authcore/cipher"
	"github.com/meubolso/authcore/password"
	"github.com/meubolso/authcore/token"
)

// Config is the process-wide security configuration, loaded once at startup
// and treated as immutable afterwards.
type Config struct {
	Password   password.Config
	Token      TokenConfig
	Cipher     CipherConfig
	Revocation RevocationConfig
	Audit      AuditConfig
}

// TokenConfig configures session-token issuance and verification.
type TokenConfig struct {
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	SigningMethod token.SigningMethod // "hs256" (default) or "ed25519"
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
	Audience      string // expected aud claim; empty disables the check
	Leeway        time.Duration
	MaxFutureIAT  time.Duration
}

// CipherConfig carries the fixed symmetric key for field encryption.
type CipherConfig struct {
	Key []byte // exactly 32 bytes
}

// RevocationBackend selects where revoked token identifiers live.
type RevocationBackend string

const (
	// RevocationMemory keeps the set in-process with periodic pruning.
	RevocationMemory RevocationBackend = "memory"
	// RevocationRedis keeps the set in Redis with per-entry TTLs.
	RevocationRedis RevocationBackend = "redis"
)

// RevocationConfig configures the revocation store backend.
type RevocationConfig struct {
	Backend       RevocationBackend
	RedisPrefix   string
	PruneInterval time.Duration // memory backend janitor cadence
}

// AuditConfig configures the asynchronous audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// DefaultConfig returns the production defaults: argon2id at the package
// default work factor, 15-minute access tokens, 7-day refresh tokens, and
// an in-memory revocation store pruned every 10 minutes. Keys and issuer
// must still be supplied by the caller.
func DefaultConfig() Config {
	return Config{
		Password: password.DefaultConfig(),
		Token: TokenConfig{
			AccessTTL:     15 * time.Minute,
			RefreshTTL:    7 * 24 * time.Hour,
			SigningMethod: token.MethodHS256,
		},
		Revocation: RevocationConfig{
			Backend:       RevocationMemory,
			PruneInterval: 10 * time.Minute,
		},
		Audit: AuditConfig{
			Enabled:    true,
			BufferSize: 256,
			DropIfFull: true,
		},
	}
}

func (c Config) validate() error {
	if len(c.Cipher.Key) != cipher.KeySize {
		return errors.New("cipher key must be exactly 32 bytes")
	}
	switch c.Revocation.Backend {
	case RevocationMemory, RevocationRedis:
	case "":
		return errors.New("revocation backend is required")
	default:
		return errors.New("unsupported revocation backend")
	}
	if c.Revocation.Backend == RevocationMemory && c.Revocation.PruneInterval <= 0 {
		return errors.New("memory revocation backend requires a prune interval")
	}
	// Password and token sub-configs are validated by their own constructors.
	return nil
}
