package handlers

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/SAP-F-2025/academic-records-service/internal/models"
)

var testSecret = strings.Repeat("s", 32)

func TestJWTAuthenticator_RoundTrip(t *testing.T) {
	a := NewJWTAuthenticator(testSecret, time.Hour)

	tests := []struct {
		name    string
		session *models.SessionSnapshot
	}{
		{"admin without entity", adminSession},
		{"teacher", teacherSession},
		{"student", studentSession},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, expiresAt, err := a.Issue(tt.session)
			if err != nil {
				t.Fatalf("Issue() error = %v", err)
			}
			if time.Until(expiresAt) <= 0 {
				t.Errorf("expiresAt %v is not in the future", expiresAt)
			}

			got, err := a.Authenticate(context.Background(), token)
			if err != nil {
				t.Fatalf("Authenticate() error = %v", err)
			}
			if got.UserID != tt.session.UserID || got.Role != tt.session.Role || !got.Authenticated {
				t.Errorf("session = %+v, want %+v", got, tt.session)
			}
			if (got.EntityID == nil) != (tt.session.EntityID == nil) {
				t.Fatalf("entity id = %v, want %v", got.EntityID, tt.session.EntityID)
			}
			if got.EntityID != nil && *got.EntityID != *tt.session.EntityID {
				t.Errorf("entity id = %d, want %d", *got.EntityID, *tt.session.EntityID)
			}
		})
	}
}

func TestJWTAuthenticator_Rejects(t *testing.T) {
	a := NewJWTAuthenticator(testSecret, time.Hour)
	valid, _, err := a.Issue(teacherSession)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	expired := NewJWTAuthenticator(testSecret, time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expiredToken, _, err := expired.Issue(teacherSession)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	otherKey, _, _ := NewJWTAuthenticator(strings.Repeat("x", 32), time.Hour).Issue(teacherSession)

	noneToken, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"iss": tokenIssuer, "user_id": 1, "role": "admin", "exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}

	teacherNoEntity, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iss": tokenIssuer, "user_id": 2, "role": "teacher", "exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))

	unknownRole, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iss": tokenIssuer, "user_id": 2, "role": "principal", "entity_id": 5, "exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))

	tests := []struct {
		name  string
		token string
	}{
		{"tampered", valid[:len(valid)-2] + "xx"},
		{"expired", expiredToken},
		{"other key", otherKey},
		{"alg none", noneToken},
		{"teacher without entity", teacherNoEntity},
		{"unknown role", unknownRole},
		{"garbage", "not-a-jwt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := a.Authenticate(context.Background(), tt.token); err == nil {
				t.Error("Authenticate() accepted an invalid token")
			}
		})
	}
}

func TestJWTAuthenticator_IssueRequiresSession(t *testing.T) {
	a := NewJWTAuthenticator(testSecret, time.Hour)
	if _, _, err := a.Issue(&models.SessionSnapshot{}); err == nil {
		t.Error("Issue() signed an unauthenticated session")
	}
}

func TestExtractBearerToken(t *testing.T) {
	tests := []struct {
		header  string
		want    string
		wantErr bool
	}{
		{"Bearer abc", "abc", false},
		{"bearer   abc", "abc", false},
		{"", "", true},
		{"Basic abc", "", true},
		{"Bearer", "", true},
		{"Bearer a b", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			got, err := extractBearerToken(tt.header)
			if (err != nil) != tt.wantErr || got != tt.want {
				t.Errorf("extractBearerToken(%q) = %q, %v", tt.header, got, err)
			}
		})
	}
}
