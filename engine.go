package authcore

import (
	"context"
	"time"

	"github.com/meubolso/authcore/cipher"
	"github.com/meubolso/authcore/password"
	"github.com/meubolso/authcore/random"
	"github.com/meubolso/authcore/revocation"
	"github.com/meubolso/authcore/strength"
	"github.com/meubolso/authcore/token"
)

// TokenPair is the access/refresh pair issued at login.
type TokenPair struct {
	Access  string
	Refresh string
}

// Engine is the security facade the finance application talks to. All
// methods are safe for concurrent use after Build.
type Engine struct {
	config      Config
	hasher      *password.Hasher
	fieldCipher *cipher.Cipher
	tokens      *token.Manager
	revoked     revocation.Store
	audit       *auditDispatcher
	metrics     *Metrics
	stopJanitor context.CancelFunc
}

// Close stops the revocation janitor and flushes the audit dispatcher.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.stopJanitor != nil {
		e.stopJanitor()
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// HashPassword derives a salted adaptive hash of password.
func (e *Engine) HashPassword(pw string) (password.Record, error) {
	if e == nil || e.hasher == nil {
		return password.Record{}, ErrEngineNotReady
	}
	rec, err := e.hasher.Hash(pw)
	if err != nil {
		return password.Record{}, err
	}
	e.metrics.inc(MetricPasswordHashed)
	return rec, nil
}

// VerifyPassword checks pw against a stored record. False for any mismatch
// or malformed input, never an error.
func (e *Engine) VerifyPassword(pw, encoded string) bool {
	if e == nil || e.hasher == nil {
		return false
	}
	ok := e.hasher.Verify(pw, encoded)
	if ok {
		e.metrics.inc(MetricPasswordVerifySuccess)
	} else {
		e.metrics.inc(MetricPasswordVerifyFailure)
	}
	return ok
}

// PasswordNeedsRehash reports whether a stored record should be upgraded.
func (e *Engine) PasswordNeedsRehash(encoded string) (bool, error) {
	if e == nil || e.hasher == nil {
		return false, ErrEngineNotReady
	}
	return e.hasher.NeedsRehash(encoded)
}

// EvaluatePassword scores password strength. Pure and deterministic.
func (e *Engine) EvaluatePassword(pw string) strength.Result {
	return strength.Evaluate(pw)
}

// EncryptField seals a sensitive field value.
func (e *Engine) EncryptField(plaintext string) (string, error) {
	if e == nil || e.fieldCipher == nil {
		return "", ErrEngineNotReady
	}
	blob, err := e.fieldCipher.Encrypt(plaintext)
	if err != nil {
		return "", err
	}
	e.metrics.inc(MetricFieldEncrypted)
	return blob, nil
}

// DecryptField opens a sealed field value, failing closed on any tamper or
// key mismatch.
func (e *Engine) DecryptField(blob string) (string, error) {
	if e == nil || e.fieldCipher == nil {
		return "", ErrEngineNotReady
	}
	plaintext, err := e.fieldCipher.Decrypt(blob)
	if err != nil {
		e.metrics.inc(MetricFieldDecryptFailure)
		return "", err
	}
	e.metrics.inc(MetricFieldDecrypted)
	return plaintext, nil
}

// GenerateToken returns a URL-safe opaque token of lengthBytes random
// bytes, lengthBytes in [1, 1024].
func (e *Engine) GenerateToken(lengthBytes int) (string, error) {
	return random.Token(lengthBytes)
}

// GenerateSalt returns a fixed-size random salt for consumers outside of
// password hashing.
func (e *Engine) GenerateSalt() ([]byte, error) {
	return random.Salt()
}

// IssueSession mints the access/refresh pair for subject at login. The
// claims map is merged into the access token and must not be nil.
func (e *Engine) IssueSession(ctx context.Context, subject string, claims map[string]any) (TokenPair, error) {
	if e == nil || e.tokens == nil {
		return TokenPair{}, ErrEngineNotReady
	}

	access, err := e.tokens.IssueAccess(subject, claims)
	if err != nil {
		e.emit(ctx, "session_issue", subject, string(token.TypeAccess), err)
		return TokenPair{}, err
	}
	refresh, err := e.tokens.IssueRefresh(subject)
	if err != nil {
		e.emit(ctx, "session_issue", subject, string(token.TypeRefresh), err)
		return TokenPair{}, err
	}

	e.metrics.inc(MetricTokenIssued)
	e.emit(ctx, "session_issue", subject, "", nil)
	return TokenPair{Access: access, Refresh: refresh}, nil
}

// IssueAccessToken mints a standalone access token.
func (e *Engine) IssueAccessToken(subject string, claims map[string]any) (string, error) {
	if e == nil || e.tokens == nil {
		return "", ErrEngineNotReady
	}
	access, err := e.tokens.IssueAccess(subject, claims)
	if err == nil {
		e.metrics.inc(MetricTokenIssued)
	}
	return access, err
}

// IssueRefreshToken mints a standalone refresh token.
func (e *Engine) IssueRefreshToken(subject string) (string, error) {
	if e == nil || e.tokens == nil {
		return "", ErrEngineNotReady
	}
	refresh, err := e.tokens.IssueRefresh(subject)
	if err == nil {
		e.metrics.inc(MetricTokenIssued)
	}
	return refresh, err
}

// Validate runs the full token check sequence and never panics for any
// input.
func (e *Engine) Validate(ctx context.Context, tokenStr string) token.Result {
	if e == nil || e.tokens == nil {
		return token.Result{Reason: ErrEngineNotReady.Error()}
	}
	res := e.tokens.Validate(ctx, tokenStr)
	if res.Valid {
		e.metrics.inc(MetricTokenValidateSuccess)
	} else {
		e.metrics.inc(MetricTokenValidateFailure)
	}
	return res
}

// Refresh exchanges a live refresh token for a fresh access token.
func (e *Engine) Refresh(ctx context.Context, refreshToken string) (string, error) {
	if e == nil || e.tokens == nil {
		return "", ErrEngineNotReady
	}
	access, err := e.tokens.RefreshAccess(ctx, refreshToken)
	if err != nil {
		e.metrics.inc(MetricRefreshFailure)
		e.emit(ctx, "session_refresh", "", "", err)
		return "", err
	}
	e.metrics.inc(MetricRefreshSuccess)
	e.emit(ctx, "session_refresh", "", "", nil)
	return access, nil
}

// Revoke invalidates a token ahead of its natural expiry. Idempotent.
func (e *Engine) Revoke(ctx context.Context, tokenStr string) error {
	if e == nil || e.tokens == nil {
		return ErrEngineNotReady
	}
	err := e.tokens.Revoke(ctx, tokenStr)
	if err == nil {
		e.metrics.inc(MetricTokenRevoked)
	}
	e.emit(ctx, "token_revoke", "", "", err)
	return err
}

// ExpirationOf returns a token's parsed exp instant.
func (e *Engine) ExpirationOf(tokenStr string) (time.Time, error) {
	if e == nil || e.tokens == nil {
		return time.Time{}, ErrEngineNotReady
	}
	return e.tokens.ExpirationOf(tokenStr)
}

// AuditDropped reports how many audit events were discarded under
// backpressure.
func (e *Engine) AuditDropped() uint64 {
	if e == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot copies the engine counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) emit(ctx context.Context, eventType, subject, tokenType string, opErr error) {
	if e.audit == nil {
		return
	}
	event := AuditEvent{
		Timestamp: time.Now(),
		EventType: eventType,
		Subject:   subject,
		TokenType: tokenType,
		Success:   opErr == nil,
	}
	if opErr != nil {
		event.Error = opErr.Error()
	}
	e.audit.Emit(ctx, event)
}
