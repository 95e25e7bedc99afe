package crypto

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func testSubject() SessionSubject {
	return SessionSubject{UserID: 42, IsAdmin: true, Name: "Chef", Image: "https://img/x.png", SessionVersion: 3}
}

func TestGenerateSessionToken(t *testing.T) {
	token, err := GenerateSessionToken(testSubject(), "test-secret", time.Hour)
	if err != nil {
		t.Fatalf("GenerateSessionToken() unexpected error: %v", err)
	}
	if token == "" {
		t.Fatal("GenerateSessionToken() returned empty string")
	}
}

func TestValidateSessionTokenValid(t *testing.T) {
	secret := "test-secret"
	sub := testSubject()

	token, err := GenerateSessionToken(sub, secret, time.Hour)
	if err != nil {
		t.Fatalf("GenerateSessionToken() unexpected error: %v", err)
	}

	claims, err := ValidateSessionToken(token, secret)
	if err != nil {
		t.Fatalf("ValidateSessionToken() unexpected error: %v", err)
	}
	if claims.UserID != sub.UserID {
		t.Errorf("UserID = %d, want %d", claims.UserID, sub.UserID)
	}
	if !claims.IsAdmin {
		t.Error("IsAdmin = false, want true")
	}
	if claims.Name != sub.Name || claims.Image != sub.Image {
		t.Errorf("profile claims = (%q, %q), want (%q, %q)", claims.Name, claims.Image, sub.Name, sub.Image)
	}
	if claims.SessionVersion != sub.SessionVersion {
		t.Errorf("SessionVersion = %d, want %d", claims.SessionVersion, sub.SessionVersion)
	}
}

func TestValidateSessionTokenInvalid(t *testing.T) {
	_, err := ValidateSessionToken("not-a-valid-token", "test-secret")
	if err == nil {
		t.Error("ValidateSessionToken() expected error for invalid token")
	}
}

func TestValidateSessionTokenWrongSecret(t *testing.T) {
	token, err := GenerateSessionToken(testSubject(), "correct-secret", time.Hour)
	if err != nil {
		t.Fatalf("GenerateSessionToken() unexpected error: %v", err)
	}

	_, err = ValidateSessionToken(token, "wrong-secret")
	if err == nil {
		t.Error("ValidateSessionToken() expected error for wrong secret")
	}
}

func TestValidateSessionTokenExpired(t *testing.T) {
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Audience:  jwt.ClaimStrings{sessionAudience},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
		UserID: 42,
	}
	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("SignedString() unexpected error: %v", err)
	}

	_, err = ValidateSessionToken(tokenString, "test-secret")
	if err == nil {
		t.Error("ValidateSessionToken() expected error for expired token")
	}
}

func TestValidateSessionTokenWrongIssuer(t *testing.T) {
	secret := "test-secret"

	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "wrong-issuer",
			Audience:  jwt.ClaimStrings{sessionAudience},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		UserID: 42,
	}
	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("SignedString() unexpected error: %v", err)
	}

	_, err = ValidateSessionToken(tokenString, secret)
	if err == nil {
		t.Error("ValidateSessionToken() expected error for wrong issuer")
	}
}

func TestMagicLinkTokenIsNotASession(t *testing.T) {
	secret := "test-secret"

	link, err := GenerateMagicLinkToken("a@x.com", "nonce", secret, time.Hour)
	if err != nil {
		t.Fatalf("GenerateMagicLinkToken() unexpected error: %v", err)
	}

	if _, err := ValidateSessionToken(link, secret); err == nil {
		t.Error("ValidateSessionToken() accepted a magic link token")
	}

	claims, err := ValidateMagicLinkToken(link, secret)
	if err != nil {
		t.Fatalf("ValidateMagicLinkToken() unexpected error: %v", err)
	}
	if claims.Email != "a@x.com" || claims.Nonce != "nonce" {
		t.Errorf("claims = (%q, %q), want (a@x.com, nonce)", claims.Email, claims.Nonce)
	}
}
