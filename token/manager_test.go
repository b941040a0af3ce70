package token

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/meubolso/authcore/revocation"
)

func testManagerConfig() Config {
	return Config{
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    7 * 24 * time.Hour,
		SigningMethod: MethodHS256,
		PrivateKey:    []byte("0123456789abcdef0123456789abcdef"),
		Issuer:        "meubolso",
	}
}

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(testManagerConfig(), revocation.NewMemoryStore())
	if err != nil {
		t.Fatalf("NewManager error: %v", err)
	}
	return m
}

func TestIssueAndValidateAccessToken(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	tok, err := m.IssueAccess("user-1", map[string]any{"email": "a@b.com"})
	if err != nil {
		t.Fatalf("IssueAccess error: %v", err)
	}

	res := m.Validate(ctx, tok)
	if !res.Valid {
		t.Fatalf("expected valid token, got reason %q", res.Reason)
	}
	if res.Subject != "user-1" {
		t.Fatalf("expected subject user-1, got %q", res.Subject)
	}
	if res.Type != TypeAccess {
		t.Fatalf("expected ACCESS, got %s", res.Type)
	}
	if email, _ := res.Claims["email"].(string); email != "a@b.com" {
		t.Fatalf("expected merged email claim, got %v", res.Claims["email"])
	}
}

func TestIssueAccessRejectsNilClaims(t *testing.T) {
	m := newTestManager(t)

	if _, err := m.IssueAccess("user-1", nil); !errors.Is(err, ErrNilClaims) {
		t.Fatalf("expected ErrNilClaims, got %v", err)
	}
}

func TestIssueRejectsEmptySubject(t *testing.T) {
	m := newTestManager(t)

	if _, err := m.IssueAccess("", map[string]any{}); !errors.Is(err, ErrEmptySubject) {
		t.Fatalf("expected ErrEmptySubject, got %v", err)
	}
	if _, err := m.IssueRefresh(""); !errors.Is(err, ErrEmptySubject) {
		t.Fatalf("expected ErrEmptySubject, got %v", err)
	}
}

func TestReservedClaimsCannotBeOverridden(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	tok, err := m.IssueAccess("user-1", map[string]any{
		"sub": "attacker",
		"typ": "REFRESH",
		"iss": "elsewhere",
	})
	if err != nil {
		t.Fatalf("IssueAccess error: %v", err)
	}

	res := m.Validate(ctx, tok)
	if !res.Valid || res.Subject != "user-1" || res.Type != TypeAccess {
		t.Fatalf("expected reserved claims to win, got %+v", res)
	}
}

func TestValidateMalformedInput(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	for _, input := range []string{"", "garbage", "a.b", "a.b.c.d"} {
		res := m.Validate(ctx, input)
		if res.Valid {
			t.Fatalf("%q: expected invalid", input)
		}
		if res.Reason != ReasonMalformed {
			t.Fatalf("%q: expected reason %q, got %q", input, ReasonMalformed, res.Reason)
		}
	}
}

func TestValidateRejectsForeignSignature(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	foreignCfg := testManagerConfig()
	foreignCfg.PrivateKey = []byte("ffffffffffffffffffffffffffffffff")
	foreign, err := NewManager(foreignCfg, revocation.NewMemoryStore())
	if err != nil {
		t.Fatalf("NewManager error: %v", err)
	}

	tok, err := foreign.IssueAccess("user-1", map[string]any{})
	if err != nil {
		t.Fatalf("IssueAccess error: %v", err)
	}

	res := m.Validate(ctx, tok)
	if res.Valid || res.Reason != ReasonSignature {
		t.Fatalf("expected signature failure, got %+v", res)
	}
}

func TestValidateTamperedPayload(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	tok, err := m.IssueAccess("user-1", map[string]any{})
	if err != nil {
		t.Fatalf("IssueAccess error: %v", err)
	}

	parts := strings.Split(tok, ".")
	parts[1] = "eyJzdWIiOiJhdHRhY2tlciJ9"
	res := m.Validate(ctx, strings.Join(parts, "."))
	if res.Valid {
		t.Fatal("expected tampered token to be rejected")
	}
}

func TestValidateExpiredToken(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	tok, err := m.IssueWithTTL("user-1", TypeAccess, map[string]any{}, -time.Second)
	if err != nil {
		t.Fatalf("IssueWithTTL error: %v", err)
	}

	res := m.Validate(ctx, tok)
	if res.Valid || res.Reason != ReasonExpired {
		t.Fatalf("expected expired, got %+v", res)
	}
}

func TestRevokeBeforeExpiry(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	tok, err := m.IssueAccess("user-1", map[string]any{})
	if err != nil {
		t.Fatalf("IssueAccess error: %v", err)
	}

	if err := m.Revoke(ctx, tok); err != nil {
		t.Fatalf("Revoke error: %v", err)
	}
	// Revocation is idempotent.
	if err := m.Revoke(ctx, tok); err != nil {
		t.Fatalf("second Revoke error: %v", err)
	}

	res := m.Validate(ctx, tok)
	if res.Valid || res.Reason != ReasonRevoked {
		t.Fatalf("expected revoked, got %+v", res)
	}
}

func TestRefreshAccessIssuesNewAccessToken(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	refresh, err := m.IssueRefresh("user-1")
	if err != nil {
		t.Fatalf("IssueRefresh error: %v", err)
	}

	access, err := m.RefreshAccess(ctx, refresh)
	if err != nil {
		t.Fatalf("RefreshAccess error: %v", err)
	}

	res := m.Validate(ctx, access)
	if !res.Valid || res.Type != TypeAccess || res.Subject != "user-1" {
		t.Fatalf("expected valid access token for user-1, got %+v", res)
	}

	// The refresh token itself is untouched and still valid.
	if res := m.Validate(ctx, refresh); !res.Valid || res.Type != TypeRefresh {
		t.Fatalf("expected refresh token to remain valid, got %+v", res)
	}
}

func TestRefreshAccessRejectsAccessToken(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	access, err := m.IssueAccess("user-1", map[string]any{})
	if err != nil {
		t.Fatalf("IssueAccess error: %v", err)
	}

	if _, err := m.RefreshAccess(ctx, access); !errors.Is(err, ErrWrongTokenType) {
		t.Fatalf("expected ErrWrongTokenType, got %v", err)
	}
}

func TestRefreshAccessRejectsRevokedRefreshToken(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	refresh, err := m.IssueRefresh("user-1")
	if err != nil {
		t.Fatalf("IssueRefresh error: %v", err)
	}
	if err := m.Revoke(ctx, refresh); err != nil {
		t.Fatalf("Revoke error: %v", err)
	}

	if _, err := m.RefreshAccess(ctx, refresh); !errors.Is(err, ErrRefreshInvalid) {
		t.Fatalf("expected ErrRefreshInvalid, got %v", err)
	}
}

func TestRefreshAccessRejectsGarbage(t *testing.T) {
	m := newTestManager(t)

	if _, err := m.RefreshAccess(context.Background(), "garbage"); !errors.Is(err, ErrRefreshInvalid) {
		t.Fatalf("expected ErrRefreshInvalid, got %v", err)
	}
}

func TestLowLevelAccessors(t *testing.T) {
	m := newTestManager(t)

	before := time.Now()
	tok, err := m.IssueAccess("user-1", map[string]any{"plan": "premium"})
	if err != nil {
		t.Fatalf("IssueAccess error: %v", err)
	}

	claims, err := m.Claims(tok)
	if err != nil {
		t.Fatalf("Claims error: %v", err)
	}
	if plan, _ := claims["plan"].(string); plan != "premium" {
		t.Fatalf("expected plan claim, got %v", claims["plan"])
	}

	subject, err := m.Subject(tok)
	if err != nil {
		t.Fatalf("Subject error: %v", err)
	}
	if subject != "user-1" {
		t.Fatalf("expected user-1, got %q", subject)
	}

	exp, err := m.ExpirationOf(tok)
	if err != nil {
		t.Fatalf("ExpirationOf error: %v", err)
	}
	want := before.Add(15 * time.Minute)
	if exp.Before(want.Add(-time.Minute)) || exp.After(want.Add(time.Minute)) {
		t.Fatalf("unexpected expiration %v", exp)
	}

	if _, err := m.Claims("garbage"); !errors.Is(err, ErrMalformedToken) {
		t.Fatalf("expected ErrMalformedToken, got %v", err)
	}
	if _, err := m.Subject("garbage"); !errors.Is(err, ErrMalformedToken) {
		t.Fatalf("expected ErrMalformedToken, got %v", err)
	}
	if _, err := m.ExpirationOf("garbage"); !errors.Is(err, ErrMalformedToken) {
		t.Fatalf("expected ErrMalformedToken, got %v", err)
	}
}

func TestAudienceVerification(t *testing.T) {
	ctx := context.Background()
	store := revocation.NewMemoryStore()

	newManagerWithAudience := func(aud string) *Manager {
		t.Helper()
		cfg := testManagerConfig()
		cfg.Audience = aud
		m, err := NewManager(cfg, store)
		if err != nil {
			t.Fatalf("NewManager error: %v", err)
		}
		return m
	}

	app := newManagerWithAudience("meubolso-app")
	tok, err := app.IssueAccess("user-1", map[string]any{})
	if err != nil {
		t.Fatalf("IssueAccess error: %v", err)
	}

	if res := app.Validate(ctx, tok); !res.Valid {
		t.Fatalf("expected matching audience to validate, got reason %q", res.Reason)
	}

	// Same key, different expected audience.
	other := newManagerWithAudience("meubolso-admin")
	if res := other.Validate(ctx, tok); res.Valid || res.Reason != ReasonMalformed {
		t.Fatalf("expected audience mismatch to be rejected, got %+v", res)
	}

	// A token issued without an aud claim fails against a checking manager.
	plain := newTestManager(t)
	plainTok, err := plain.IssueAccess("user-1", map[string]any{})
	if err != nil {
		t.Fatalf("IssueAccess error: %v", err)
	}
	if res := app.Validate(ctx, plainTok); res.Valid || res.Reason != ReasonMalformed {
		t.Fatalf("expected missing aud claim to be rejected, got %+v", res)
	}

	// An unconfigured manager ignores the claim entirely.
	if res := plain.Validate(ctx, tok); !res.Valid {
		t.Fatalf("expected audience-agnostic validation to pass, got reason %q", res.Reason)
	}
}

func TestValidateFailsClosedWhenStoreDown(t *testing.T) {
	store := &failingStore{}
	m, err := NewManager(testManagerConfig(), store)
	if err != nil {
		t.Fatalf("NewManager error: %v", err)
	}

	tok, err := m.IssueAccess("user-1", map[string]any{})
	if err != nil {
		t.Fatalf("IssueAccess error: %v", err)
	}

	res := m.Validate(context.Background(), tok)
	if res.Valid || res.Reason != ReasonUnavailable {
		t.Fatalf("expected fail-closed result, got %+v", res)
	}
}

func TestNewManagerRejectsBadConfig(t *testing.T) {
	store := revocation.NewMemoryStore()

	bad := []Config{
		{},
		{AccessTTL: time.Minute, RefreshTTL: time.Second, SigningMethod: MethodHS256, PrivateKey: []byte("0123456789abcdef0123456789abcdef"), Issuer: "meubolso"},
		{AccessTTL: time.Minute, RefreshTTL: time.Hour, SigningMethod: MethodHS256, PrivateKey: []byte("short"), Issuer: "meubolso"},
		{AccessTTL: time.Minute, RefreshTTL: time.Hour, SigningMethod: MethodHS256, PrivateKey: []byte("0123456789abcdef0123456789abcdef")},
		{AccessTTL: time.Minute, RefreshTTL: time.Hour, SigningMethod: "rsa", PrivateKey: []byte("0123456789abcdef0123456789abcdef"), Issuer: "meubolso"},
	}

	for i, cfg := range bad {
		if _, err := NewManager(cfg, store); err == nil {
			t.Fatalf("case %d: expected config rejection", i)
		}
	}

	if _, err := NewManager(testManagerConfig(), nil); err == nil {
		t.Fatal("expected nil store rejection")
	}
}

type failingStore struct{}

func (failingStore) Add(context.Context, string, time.Time) error {
	return errors.New("store down")
}

func (failingStore) Contains(context.Context, string) (bool, error) {
	return false, errors.New("store down")
}
