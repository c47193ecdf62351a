package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/ariephoon/aiva/internal/log"
)

func TestSignedUID_RoundTrip(t *testing.T) {
	uid := uuid.New().String()
	signed := signUID(uid, testSecret)

	got, ok := verifySignedUID(signed, testSecret)
	if !ok {
		t.Fatal("valid signature rejected")
	}
	if got != uid {
		t.Errorf("uid = %q, want %q", got, uid)
	}
}

func TestVerifySignedUID_Rejects(t *testing.T) {
	uid := uuid.New().String()
	signed := signUID(uid, testSecret)
	dot := strings.LastIndex(signed, ".")

	tests := []struct {
		name  string
		value string
	}{
		{"empty", ""},
		{"no separator", uid},
		{"leading separator", "." + signed[dot+1:]},
		{"modified uid", "f" + signed[1:]},
		{"modified signature", signed[:len(signed)-2] + "AA"},
		{"signature not base64", signed[:dot] + ".!!!"},
		{"wrong secret", signUID(uid, []byte("another-secret-another-secret-32"))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, ok := verifySignedUID(tt.value, testSecret); ok {
				t.Errorf("accepted %q", tt.value)
			}
		})
	}
}

func TestSessionManager_UserID(t *testing.T) {
	sm := &sessionManager{hmacSecret: testSecret, isDev: true, logger: log.NewNop()}

	t.Run("no cookie", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/", nil)
		if got := sm.UserID(r); got != "" {
			t.Errorf("uid = %q, want empty", got)
		}
	})

	t.Run("valid cookie", func(t *testing.T) {
		uid := uuid.New().String()
		r := httptest.NewRequest("GET", "/", nil)
		r.AddCookie(sessionCookie(uid))
		if got := sm.UserID(r); got != uid {
			t.Errorf("uid = %q, want %q", got, uid)
		}
	})

	t.Run("signed value that is not a uuid", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/", nil)
		r.AddCookie(&http.Cookie{Name: userCookieName, Value: signUID("not-a-uuid", testSecret)})
		if got := sm.UserID(r); got != "" {
			t.Errorf("uid = %q, want empty", got)
		}
	})
}

func TestSetUserCookie_Flags(t *testing.T) {
	uid := uuid.New().String()

	t.Run("production", func(t *testing.T) {
		sm := &sessionManager{hmacSecret: testSecret, logger: log.NewNop()}
		rec := httptest.NewRecorder()
		sm.setUserCookie(rec, uid)

		c := rec.Result().Cookies()[0]
		if !c.Secure || !c.HttpOnly {
			t.Errorf("Secure = %v, HttpOnly = %v", c.Secure, c.HttpOnly)
		}
		if c.SameSite != http.SameSiteLaxMode {
			t.Errorf("SameSite = %v", c.SameSite)
		}
	})

	t.Run("dev allows plain http", func(t *testing.T) {
		sm := &sessionManager{hmacSecret: testSecret, isDev: true, logger: log.NewNop()}
		rec := httptest.NewRecorder()
		sm.setUserCookie(rec, uid)

		if rec.Result().Cookies()[0].Secure {
			t.Error("Secure flag set in dev mode")
		}
	})
}
