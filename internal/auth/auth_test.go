package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/bobmcallan/papertrade/internal/common"
	"github.com/bobmcallan/papertrade/internal/config"
	"github.com/bobmcallan/papertrade/internal/models"
	badgerstore "github.com/bobmcallan/papertrade/internal/storage/badger"
)

func newTestService(t *testing.T) (*Service, *badgerstore.Manager) {
	t.Helper()
	mgr, err := badgerstore.NewManager(common.NewSilentLogger(), &config.BadgerConfig{InMemory: true})
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	t.Cleanup(func() { mgr.Close() })

	tokens := NewTokenIssuer([]byte("test-secret"), time.Hour)
	return NewService(mgr.UserStorage(), tokens, decimal.NewFromInt(10000), common.NewSilentLogger()), mgr
}

func TestPassword_HashAndCheck(t *testing.T) {
	hash, err := HashPassword("password123")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if hash == "password123" {
		t.Fatal("hash must not equal the password")
	}
	if !CheckPassword(hash, "password123") {
		t.Error("expected password to match")
	}
	if CheckPassword(hash, "password124") {
		t.Error("expected mismatch for wrong password")
	}
}

func TestPassword_LongPasswordTruncated(t *testing.T) {
	long := strings.Repeat("x", 100)
	hash, err := HashPassword(long)
	if err != nil {
		t.Fatalf("HashPassword failed for long password: %v", err)
	}
	if !CheckPassword(hash, long) {
		t.Error("expected long password to match")
	}
}

func TestTokenIssuer_RoundTrip(t *testing.T) {
	issuer := NewTokenIssuer([]byte("secret"), time.Hour)
	user := &models.User{ID: "user-1", Email: "a@example.com"}

	token, err := issuer.Issue(user)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	claims, err := issuer.Verify(token)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if claims.Subject != "user-1" || claims.Email != "a@example.com" {
		t.Errorf("unexpected claims %+v", claims)
	}
	if claims.ExpiresAt.Sub(claims.IssuedAt.Time) != time.Hour {
		t.Errorf("expected 1h lifetime, got %v", claims.ExpiresAt.Sub(claims.IssuedAt.Time))
	}
}

func TestTokenIssuer_Rejects(t *testing.T) {
	issuer := NewTokenIssuer([]byte("secret"), time.Hour)
	user := &models.User{ID: "user-1", Email: "a@example.com"}
	good, _ := issuer.Issue(user)

	other, _ := NewTokenIssuer([]byte("other"), time.Hour).Issue(user)

	expiredIssuer := NewTokenIssuer([]byte("secret"), time.Minute)
	expiredIssuer.now = func() time.Time { return time.Now().Add(-time.Hour) }
	expired, _ := expiredIssuer.Issue(user)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	unsigned, _ := none.SignedString(jwt.UnsafeAllowNoneSignatureType)

	noExp, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1"},
	}).SignedString([]byte("secret"))

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not.a.token"},
		{"wrong secret", other},
		{"expired", expired},
		{"alg none", unsigned},
		{"missing exp", noExp},
		{"tampered", good[:len(good)-2] + "xx"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := issuer.Verify(tt.token)
			if !errors.Is(err, models.ErrAuth) {
				t.Errorf("expected AuthError, got %v", err)
			}
		})
	}
}

func TestTokenIssuer_NoSecretFailsClosed(t *testing.T) {
	issuer := NewTokenIssuer(nil, time.Hour)
	if _, err := issuer.Issue(&models.User{ID: "u"}); err == nil {
		t.Error("expected Issue to fail without a secret")
	}
	if _, err := issuer.Verify("anything"); !errors.Is(err, models.ErrAuth) {
		t.Errorf("expected AuthError, got %v", err)
	}
}

func TestService_RegisterCreatesPortfolio(t *testing.T) {
	svc, mgr := newTestService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "  Trader@Example.com ", "password123")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if user.Email != "trader@example.com" {
		t.Errorf("expected normalised email, got %q", user.Email)
	}
	if user.PasswordHash == "" || user.PasswordHash == "password123" {
		t.Error("expected hashed password")
	}

	p, err := mgr.PortfolioStorage().GetPortfolio(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetPortfolio failed: %v", err)
	}
	if !p.Cash.Equal(decimal.NewFromInt(10000)) || len(p.Positions) != 0 {
		t.Errorf("unexpected starting portfolio %+v", p)
	}
}

func TestService_RegisterDuplicate(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "dup@example.com", "password123"); err != nil {
		t.Fatalf("first Register failed: %v", err)
	}
	_, err := svc.Register(ctx, "DUP@example.com", "password456")
	if !errors.Is(err, models.ErrConflict) {
		t.Errorf("expected Conflict, got %v", err)
	}
}

func TestService_RegisterValidation(t *testing.T) {
	svc, _ := newTestService(t)
	tests := []struct{ email, password string }{
		{"", "password123"},
		{"not-an-email", "password123"},
		{"a@example.com", ""},
		{"a@example.com", "123"},
	}
	for _, tt := range tests {
		_, err := svc.Register(context.Background(), tt.email, tt.password)
		if !errors.Is(err, models.ErrValidation) {
			t.Errorf("Register(%q, %q): expected ValidationError, got %v", tt.email, tt.password, err)
		}
	}
}

func TestService_Login(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "login@example.com", "password123")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	token, err := svc.Login(ctx, "LOGIN@example.com", "password123")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	claims, err := svc.Authenticate(token)
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if claims.Subject != user.ID {
		t.Errorf("expected subject %s, got %s", user.ID, claims.Subject)
	}
}

func TestService_LoginInvalidCredentials(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	svc.Register(ctx, "login@example.com", "password123")

	for _, tc := range []struct{ email, password string }{
		{"login@example.com", "wrong-password"},
		{"nobody@example.com", "password123"},
		{"", ""},
	} {
		_, err := svc.Login(ctx, tc.email, tc.password)
		if !errors.Is(err, models.ErrAuth) {
			t.Errorf("Login(%q): expected AuthError, got %v", tc.email, err)
			continue
		}
		if err.Error() != "invalid credentials" {
			t.Errorf("expected generic message, got %q", err.Error())
		}
	}
}

func TestService_LoginUnknownEmailDoesBcryptWork(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	svc.Register(ctx, "login@example.com", "password123")

	var hashes []string
	orig := checkPassword
	checkPassword = func(hash, password string) bool {
		hashes = append(hashes, hash)
		return orig(hash, password)
	}
	defer func() { checkPassword = orig }()

	for _, email := range []string{"nobody@example.com", "not-an-email", "login@example.com"} {
		if _, err := svc.Login(ctx, email, "wrong-password"); !errors.Is(err, models.ErrAuth) {
			t.Errorf("Login(%q): expected AuthError, got %v", email, err)
		}
	}
	if len(hashes) != 3 {
		t.Fatalf("expected a bcrypt comparison per attempt, got %d", len(hashes))
	}
	cost, err := bcrypt.Cost([]byte(hashes[0]))
	if err != nil {
		t.Fatalf("unknown email compared against an invalid hash: %v", err)
	}
	if cost != bcrypt.DefaultCost {
		t.Errorf("expected dummy hash cost %d, got %d", bcrypt.DefaultCost, cost)
	}
}
