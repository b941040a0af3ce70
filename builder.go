package authcore

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/meubolso/authcore/cipher"
	"github.com/meubolso/authcore/password"
	"github.com/meubolso/authcore/revocation"
	"github.com/meubolso/authcore/token"
)

// Builder assembles an Engine. Construction is allocation-only; no I/O
// happens until the first Engine method call.
type Builder struct {
	config Config
	redis  *redis.Client

	revocationStore revocation.Store
	auditSink       AuditSink

	built bool
}

// New returns a Builder preloaded with DefaultConfig.
func New() *Builder {
	return &Builder{config: DefaultConfig()}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithRedis supplies the client for the Redis revocation backend.
func (b *Builder) WithRedis(client *redis.Client) *Builder {
	b.redis = client
	return b
}

// WithRevocationStore injects a custom store, overriding the configured
// backend.
func (b *Builder) WithRevocationStore(store revocation.Store) *Builder {
	b.revocationStore = store
	return b
}

// WithAuditSink sets the destination for audit events.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// Build validates the configuration and wires the Engine. A Builder can
// build at most once.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, ErrBuilderReused
	}
	if err := b.config.validate(); err != nil {
		return nil, err
	}

	hasher, err := password.NewHasher(b.config.Password)
	if err != nil {
		return nil, err
	}

	fieldCipher, err := cipher.New(b.config.Cipher.Key)
	if err != nil {
		return nil, err
	}

	janitorCtx, stopJanitor := context.WithCancel(context.Background())
	store := b.revocationStore
	if store == nil {
		switch b.config.Revocation.Backend {
		case RevocationRedis:
			if b.redis == nil {
				stopJanitor()
				return nil, ErrRedisRequired
			}
			store = revocation.NewRedisStore(b.redis, b.config.Revocation.RedisPrefix)
		default:
			memory := revocation.NewMemoryStore()
			memory.StartJanitor(janitorCtx, b.config.Revocation.PruneInterval)
			store = memory
		}
	}

	tokens, err := token.NewManager(token.Config{
		AccessTTL:     b.config.Token.AccessTTL,
		RefreshTTL:    b.config.Token.RefreshTTL,
		SigningMethod: b.config.Token.SigningMethod,
		PrivateKey:    b.config.Token.PrivateKey,
		PublicKey:     b.config.Token.PublicKey,
		Issuer:        b.config.Token.Issuer,
		Audience:      b.config.Token.Audience,
		Leeway:        b.config.Token.Leeway,
		MaxFutureIAT:  b.config.Token.MaxFutureIAT,
	}, store)
	if err != nil {
		stopJanitor()
		return nil, err
	}

	b.built = true
	return &Engine{
		config:      b.config,
		hasher:      hasher,
		fieldCipher: fieldCipher,
		tokens:      tokens,
		revoked:     store,
		audit:       newAuditDispatcher(b.config.Audit, b.auditSink),
		metrics:     newMetrics(),
		stopJanitor: stopJanitor,
	}, nil
}
