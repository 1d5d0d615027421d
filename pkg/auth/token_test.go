package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/angelmondragon/tablepos-backend/pkg/config"
	"github.com/angelmondragon/tablepos-backend/pkg/enums"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

func testJWTConfig(minutes int) config.JWTConfig {
	return config.JWTConfig{
		Secret:            "secret",
		Issuer:            "tablepos",
		ExpirationMinutes: minutes,
	}
}

func TestMintAndParseAccessToken(t *testing.T) {
	cfg := testJWTConfig(30)
	now := time.Now().UTC()
	userID := uuid.New()

	token, err := MintAccessToken(cfg, now, AccessTokenPayload{UserID: userID, Role: enums.RoleCashier})
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}

	claims, err := ParseAccessToken(cfg, token)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}

	if claims.UserID != userID {
		t.Fatalf("expected user_id %s, got %s", userID, claims.UserID)
	}
	if claims.Role != enums.RoleCashier {
		t.Fatalf("unexpected role %s", claims.Role)
	}
	if claims.Issuer != cfg.Issuer {
		t.Fatalf("expected issuer %s, got %s", cfg.Issuer, claims.Issuer)
	}
	if claims.ID == "" {
		t.Fatal("expected a generated jti")
	}

	exp := now.Add(time.Duration(cfg.ExpirationMinutes) * time.Minute)
	diff := claims.ExpiresAt.Sub(exp)
	if diff < 0 {
		diff = -diff
	}
	if diff >= time.Second {
		t.Fatalf("expected exp roughly %v, got %v (diff %v)", exp.UTC(), claims.ExpiresAt.UTC(), diff)
	}
}

func TestParseAccessTokenInvalidSignature(t *testing.T) {
	cfg := testJWTConfig(10)
	token, err := MintAccessToken(cfg, time.Now(), AccessTokenPayload{UserID: uuid.New(), Role: enums.RoleManager})
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}

	if _, err := ParseAccessToken(cfg, token+"x"); err == nil {
		t.Fatal("expected invalid signature error")
	}

	other := cfg
	other.Secret = "different"
	if _, err := ParseAccessToken(other, token); err == nil {
		t.Fatal("expected token signed with another secret to fail")
	}
}

func TestParseAccessTokenExpired(t *testing.T) {
	cfg := testJWTConfig(15)
	token, err := MintAccessToken(cfg, time.Now().Add(-time.Hour), AccessTokenPayload{UserID: uuid.New(), Role: enums.RoleKitchen})
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}

	_, err = ParseAccessToken(cfg, token)
	if err == nil {
		t.Fatal("expected expiration error")
	}
	if !strings.Contains(err.Error(), "expired") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestParseAccessTokenWrongIssuer(t *testing.T) {
	cfg := testJWTConfig(5)
	token, err := MintAccessToken(cfg, time.Now(), AccessTokenPayload{UserID: uuid.New(), Role: enums.RoleManager})
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}
	other := cfg
	other.Issuer = "someone-else"
	if _, err := ParseAccessToken(other, token); err == nil {
		t.Fatal("expected issuer mismatch to fail")
	}
}

func TestMintAccessTokenValidatesPayload(t *testing.T) {
	cfg := testJWTConfig(5)
	if _, err := MintAccessToken(cfg, time.Now(), AccessTokenPayload{UserID: uuid.New(), Role: ""}); err == nil {
		t.Fatal("expected invalid role error")
	}
	if _, err := MintAccessToken(cfg, time.Now(), AccessTokenPayload{Role: enums.RoleManager}); err == nil {
		t.Fatal("expected missing user id error")
	}
}

func TestActorFromClaims(t *testing.T) {
	userID := uuid.New()
	actor := ActorFromClaims(&AccessTokenClaims{UserID: userID, Role: enums.RoleCashier})
	if !actor.Valid() || actor.UserID != userID {
		t.Fatalf("unexpected actor %+v", actor)
	}
	if !actor.HasRole(enums.RoleManager, enums.RoleCashier) {
		t.Fatal("cashier should match role set")
	}
	if actor.HasRole(enums.RoleKitchen) || actor.IsManager() {
		t.Fatal("cashier should not match kitchen or manager")
	}
	if ActorFromClaims(nil).Valid() {
		t.Fatal("nil claims should produce an invalid actor")
	}
}

func TestParseAccessTokenFoldsRoleCase(t *testing.T) {
	cfg := testJWTConfig(5)
	now := time.Now()
	signed := signRaw(t, cfg, AccessTokenClaims{
		UserID: uuid.New(),
		Role:   "MANAGER",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
		},
	})
	parsed, err := ParseAccessToken(cfg, signed)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if parsed.Role != enums.RoleManager {
		t.Fatalf("expected manager role, got %q", parsed.Role)
	}
}

func signRaw(t *testing.T, cfg config.JWTConfig, claims AccessTokenClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.Secret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return signed
}

func TestParseAccessTokenRejectsBadClaims(t *testing.T) {
	cfg := testJWTConfig(5)
	now := time.Now()
	registered := jwt.RegisteredClaims{
		Issuer:    cfg.Issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
	}

	cases := map[string]AccessTokenClaims{
		"unknown role":    {UserID: uuid.New(), Role: "waiter", RegisteredClaims: registered},
		"missing user id": {Role: enums.RoleCashier, RegisteredClaims: registered},
		"no expiry": {UserID: uuid.New(), Role: enums.RoleCashier, RegisteredClaims: jwt.RegisteredClaims{
			Issuer: cfg.Issuer,
		}},
	}
	for name, claims := range cases {
		if _, err := ParseAccessToken(cfg, signRaw(t, cfg, claims)); err == nil {
			t.Fatalf("%s: expected parse to fail", name)
		}
	}
}

func TestParseAccessTokenHonorsLeeway(t *testing.T) {
	cfg := testJWTConfig(5)
	cfg.Leeway = 30 * time.Second
	now := time.Now()
	token := signRaw(t, cfg, AccessTokenClaims{
		UserID: uuid.New(),
		Role:   enums.RoleKitchen,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now.Add(-10 * time.Minute)),
			ExpiresAt: jwt.NewNumericDate(now.Add(-10 * time.Second)),
		},
	})
	if _, err := ParseAccessToken(cfg, token); err != nil {
		t.Fatalf("token inside leeway should parse: %v", err)
	}

	cfg.Leeway = 0
	if _, err := ParseAccessToken(cfg, token); err == nil {
		t.Fatal("expected expired token without leeway to fail")
	}
}
