package token

import (
	"context"
	"crypto/ed25519"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/meubolso/authcore/revocation"
)

// Type discriminates access from refresh tokens. The discriminator is
// embedded in the typ claim and checked before any operation that assumes
// one kind or the other.
type Type string

const (
	// TypeAccess marks short-lived tokens that authorize individual calls.
	TypeAccess Type = "ACCESS"
	// TypeRefresh marks long-lived tokens used only to mint access tokens.
	TypeRefresh Type = "REFRESH"
)

// SigningMethod selects the signature algorithm.
type SigningMethod string

const (
	MethodHS256   SigningMethod = "hs256"
	MethodEd25519 SigningMethod = "ed25519"
)

// Validation failure reasons returned in Result.Reason.
const (
	ReasonMalformed   = "malformed"
	ReasonSignature   = "signature"
	ReasonExpired     = "expired"
	ReasonRevoked     = "revoked"
	ReasonUnavailable = "revocation store unavailable"
)

var (
	// ErrNilClaims is returned when the caller passes a nil claims map.
	ErrNilClaims = errors.New("claims map must not be nil")
	// ErrEmptySubject is returned when the subject id is empty.
	ErrEmptySubject = errors.New("subject must not be empty")
	// ErrWrongTokenType is returned by RefreshAccess for a valid token that
	// is not a refresh token.
	ErrWrongTokenType = errors.New("not a refresh token")
	// ErrRefreshInvalid is returned by RefreshAccess for an invalid, expired,
	// or revoked refresh token.
	ErrRefreshInvalid = errors.New("invalid refresh token")
	// ErrMalformedToken is returned by the low-level accessors for input
	// that does not parse as a token.
	ErrMalformedToken = errors.New("malformed token")
)

// Config holds issuance and verification parameters. It is fixed at
// construction and never mutated.
type Config struct {
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	SigningMethod SigningMethod
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
	Audience      string // expected aud claim; empty disables the check
	Leeway        time.Duration
	MaxFutureIAT  time.Duration
}

// Result is the outcome of Validate. Valid is false for any failure, with
// Reason naming the first check that failed; Validate never panics and
// never returns an error to the caller.
type Result struct {
	Valid   bool
	Reason  string
	Subject string
	Type    Type
	Claims  map[string]any
}

// Manager issues, validates, refreshes, and revokes session tokens. A token
// moves from issued to valid, then irreversibly to expired (time) or
// revoked (explicit); refreshing never mutates an existing token but mints
// a new access token from a still-valid refresh token.
//
// Manager is safe for concurrent use; the only shared mutable state is the
// revocation store, which guards itself.
type Manager struct {
	config  Config
	revoked revocation.Store
}

// NewManager validates cfg and returns a Manager backed by the given
// revocation store.
func NewManager(cfg Config, revoked revocation.Store) (*Manager, error) {
	if revoked == nil {
		return nil, errors.New("revocation store is required")
	}
	if cfg.AccessTTL <= 0 {
		return nil, errors.New("invalid access TTL configuration")
	}
	if cfg.RefreshTTL <= cfg.AccessTTL {
		return nil, errors.New("refresh TTL must exceed access TTL")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	if cfg.MaxFutureIAT == 0 {
		cfg.MaxFutureIAT = 10 * time.Minute
	}
	if cfg.MaxFutureIAT < 0 || cfg.MaxFutureIAT > 24*time.Hour {
		return nil, errors.New("invalid MaxFutureIAT configuration")
	}
	if strings.TrimSpace(cfg.Issuer) == "" {
		return nil, errors.New("issuer is required")
	}

	switch cfg.SigningMethod {
	case MethodHS256:
		if len(cfg.PrivateKey) < 32 {
			return nil, errors.New("hs256 requires a key of at least 32 bytes")
		}
	case MethodEd25519:
		if _, err := parseEdPrivateKey(cfg.PrivateKey); err != nil {
			return nil, err
		}
		if len(cfg.PublicKey) > 0 {
			if _, err := parseEdPublicKey(cfg.PublicKey); err != nil {
				return nil, err
			}
		}
	default:
		return nil, errors.New("unsupported signing method")
	}

	return &Manager{config: cfg, revoked: revoked}, nil
}

// IssueAccess mints an access token for subject, merging the caller's
// custom claims. The claims map must not be nil (pass an empty map when
// there is nothing to merge); reserved claims cannot be overridden.
func (m *Manager) IssueAccess(subject string, claims map[string]any) (string, error) {
	if claims == nil {
		return "", ErrNilClaims
	}
	return m.issue(subject, TypeAccess, claims, m.config.AccessTTL)
}

// IssueRefresh mints a refresh token for subject.
func (m *Manager) IssueRefresh(subject string) (string, error) {
	return m.issue(subject, TypeRefresh, nil, m.config.RefreshTTL)
}

// IssueWithTTL mints a token with an explicit lifetime instead of the
// configured one. A zero or negative ttl produces an already-expired token.
func (m *Manager) IssueWithTTL(subject string, typ Type, claims map[string]any, ttl time.Duration) (string, error) {
	return m.issue(subject, typ, claims, ttl)
}

func (m *Manager) issue(subject string, typ Type, custom map[string]any, ttl time.Duration) (string, error) {
	if subject == "" {
		return "", ErrEmptySubject
	}

	now := time.Now()
	claims := jwt.MapClaims{}
	for k, v := range custom {
		claims[k] = v
	}
	// Reserved claims win over caller-supplied ones.
	claims["sub"] = subject
	claims["typ"] = string(typ)
	claims["iss"] = m.config.Issuer
	if m.config.Audience != "" {
		claims["aud"] = m.config.Audience
	}
	claims["iat"] = jwt.NewNumericDate(now)
	claims["exp"] = jwt.NewNumericDate(now.Add(ttl))
	claims["jti"] = uuid.NewString()

	tok := jwt.NewWithClaims(m.signingMethod(), claims)
	key, err := m.signKey()
	if err != nil {
		return "", err
	}
	return tok.SignedString(key)
}

// Validate runs the full check sequence: syntactic well-formedness,
// signature integrity, expiry, then revocation membership. Any input,
// including the empty string, yields a Result rather than a panic or error.
// A revocation-store outage fails closed.
func (m *Manager) Validate(ctx context.Context, tokenStr string) Result {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{m.signingMethod().Alg()}),
		jwt.WithoutClaimsValidation(),
	)

	claims := jwt.MapClaims{}
	_, err := parser.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return m.verifyKey()
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenMalformed) {
			return Result{Reason: ReasonMalformed}
		}
		return Result{Reason: ReasonSignature}
	}

	subject, _ := claims["sub"].(string)
	typStr, _ := claims["typ"].(string)
	typ := Type(typStr)
	if subject == "" || (typ != TypeAccess && typ != TypeRefresh) {
		return Result{Reason: ReasonMalformed}
	}
	if iss, _ := claims["iss"].(string); iss != m.config.Issuer {
		return Result{Reason: ReasonMalformed, Subject: subject, Type: typ}
	}
	if m.config.Audience != "" {
		aud, err := claims.GetAudience()
		if err != nil || !audienceMatches(aud, m.config.Audience) {
			return Result{Reason: ReasonMalformed, Subject: subject, Type: typ}
		}
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return Result{Reason: ReasonMalformed, Subject: subject, Type: typ}
	}
	now := time.Now()
	if now.After(exp.Time.Add(m.config.Leeway)) {
		return Result{Reason: ReasonExpired, Subject: subject, Type: typ}
	}
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil && m.config.MaxFutureIAT > 0 {
		if iat.Time.After(now.Add(m.config.MaxFutureIAT)) {
			return Result{Reason: ReasonMalformed, Subject: subject, Type: typ}
		}
	}

	jti, _ := claims["jti"].(string)
	if jti == "" {
		return Result{Reason: ReasonMalformed, Subject: subject, Type: typ}
	}
	revoked, err := m.revoked.Contains(ctx, jti)
	if err != nil {
		return Result{Reason: ReasonUnavailable, Subject: subject, Type: typ}
	}
	if revoked {
		return Result{Reason: ReasonRevoked, Subject: subject, Type: typ}
	}

	return Result{Valid: true, Subject: subject, Type: typ, Claims: claims}
}

// Claims decodes the claim set without verifying the signature. It is a
// low-level accessor for already-validated tokens; malformed input is an
// error, not a validation result.
func (m *Manager) Claims(tokenStr string) (map[string]any, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenStr, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	return claims, nil
}

// Subject returns the sub claim. Same contract as Claims.
func (m *Manager) Subject(tokenStr string) (string, error) {
	claims, err := m.Claims(tokenStr)
	if err != nil {
		return "", err
	}
	subject, _ := claims["sub"].(string)
	if subject == "" {
		return "", fmt.Errorf("%w: missing sub claim", ErrMalformedToken)
	}
	return subject, nil
}

// ExpirationOf returns the parsed exp instant. Same contract as Claims.
func (m *Manager) ExpirationOf(tokenStr string) (time.Time, error) {
	claims, err := m.Claims(tokenStr)
	if err != nil {
		return time.Time{}, err
	}
	exp, err := jwt.MapClaims(claims).GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, fmt.Errorf("%w: missing exp claim", ErrMalformedToken)
	}
	return exp.Time, nil
}

// Revoke adds the token's identifier to the revocation store, bounded by
// the token's own expiry. Revoking twice is a no-op.
func (m *Manager) Revoke(ctx context.Context, tokenStr string) error {
	claims, err := m.Claims(tokenStr)
	if err != nil {
		return err
	}
	jti, _ := claims["jti"].(string)
	if jti == "" {
		return fmt.Errorf("%w: missing jti claim", ErrMalformedToken)
	}
	exp, err := jwt.MapClaims(claims).GetExpirationTime()
	if err != nil || exp == nil {
		return fmt.Errorf("%w: missing exp claim", ErrMalformedToken)
	}
	return m.revoked.Add(ctx, jti, exp.Time)
}

// RefreshAccess validates refreshToken and, when it is a live refresh
// token, mints a fresh access token for the same subject. A valid token of
// the wrong type is ErrWrongTokenType; anything else invalid is
// ErrRefreshInvalid.
func (m *Manager) RefreshAccess(ctx context.Context, refreshToken string) (string, error) {
	res := m.Validate(ctx, refreshToken)
	if res.Type == TypeAccess {
		return "", ErrWrongTokenType
	}
	if !res.Valid {
		return "", fmt.Errorf("%w: %s", ErrRefreshInvalid, res.Reason)
	}
	return m.IssueAccess(res.Subject, map[string]any{})
}

func audienceMatches(aud jwt.ClaimStrings, want string) bool {
	for _, a := range aud {
		if a == want {
			return true
		}
	}
	return false
}

func (m *Manager) signingMethod() jwt.SigningMethod {
	switch m.config.SigningMethod {
	case MethodEd25519:
		return jwt.SigningMethodEdDSA
	default:
		return jwt.SigningMethodHS256
	}
}

func (m *Manager) signKey() (interface{}, error) {
	switch m.config.SigningMethod {
	case MethodEd25519:
		return parseEdPrivateKey(m.config.PrivateKey)
	default:
		return m.config.PrivateKey, nil
	}
}

func (m *Manager) verifyKey() (interface{}, error) {
	switch m.config.SigningMethod {
	case MethodEd25519:
		if len(m.config.PublicKey) > 0 {
			return parseEdPublicKey(m.config.PublicKey)
		}
		priv, err := parseEdPrivateKey(m.config.PrivateKey)
		if err != nil {
			return nil, err
		}
		return priv.Public(), nil
	default:
		return m.config.PrivateKey, nil
	}
}

func parseEdPrivateKey(key []byte) (ed25519.PrivateKey, error) {
	if len(key) == ed25519.PrivateKeySize {
		return ed25519.PrivateKey(key), nil
	}
	parsed, err := jwt.ParseEdPrivateKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 private key")
	}
	edKey, ok := parsed.(ed25519.PrivateKey)
	if !ok {
		return nil, errors.New("invalid ed25519 private key type")
	}
	return edKey, nil
}

func parseEdPublicKey(key []byte) (ed25519.PublicKey, error) {
	if len(key) == ed25519.PublicKeySize {
		return ed25519.PublicKey(key), nil
	}
	parsed, err := jwt.ParseEdPublicKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 public key")
	}
	edKey, ok := parsed.(ed25519.PublicKey)
	if !ok {
		return nil, errors.New("invalid ed25519 public key type")
	}
	return edKey, nil
}
