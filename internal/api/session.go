package api

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// Cookie configuration.
const (
	userCookieName = "uid"
	cookieMaxAge   = 30 * 24 * 3600 // 30 days in seconds
)

// sessionManager handles the signed uid cookie that stands in for a user
// session. It only verifies identities; issuing one happens through
// provisionSession below, never implicitly on the chat endpoints.
type sessionManager struct {
	hmacSecret []byte
	isDev      bool
	logger     *slog.Logger
}

// UserID extracts the user identity from the uid cookie.
// Returns empty string if the cookie is absent, the HMAC signature is
// invalid, or the value is not a valid UUID.
// SECURITY: HMAC validation keeps the cookie tamper-evident; the UUID
// check keeps malformed IDs out of SQL queries.
func (sm *sessionManager) UserID(r *http.Request) string {
	cookie, err := r.Cookie(userCookieName)
	if err != nil {
		return ""
	}
	uid, ok := verifySignedUID(cookie.Value, sm.hmacSecret)
	if !ok {
		return ""
	}
	if _, err := uuid.Parse(uid); err != nil {
		return ""
	}
	return uid
}

func (sm *sessionManager) setUserCookie(w http.ResponseWriter, userID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     userCookieName,
		Value:    signUID(userID, sm.hmacSecret),
		Path:     "/",
		Secure:   !sm.isDev,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   cookieMaxAge,
	})
}

// provisionSession handles GET /api/session. It returns the caller's
// current identity, minting a fresh uid cookie when none is present.
// The chat endpoints never provision; they only verify.
func (sm *sessionManager) provisionSession(w http.ResponseWriter, r *http.Request) {
	userID := sm.UserID(r)
	if userID == "" {
		userID = uuid.New().String()
		sm.setUserCookie(w, userID)
		sm.logger.Debug("provisioned user identity", "user", userID)
	}
	writeJSON(w, http.StatusOK, map[string]string{"userId": userID}, sm.logger)
}

// signUID creates an HMAC-signed cookie value:
// "uid.base64url(HMAC-SHA256(secret, uid))".
func signUID(uid string, secret []byte) string {
	h := hmac.New(sha256.New, secret)
	h.Write([]byte(uid))
	sig := base64.URLEncoding.EncodeToString(h.Sum(nil))
	return uid + "." + sig
}

// verifySignedUID splits a signed cookie value and verifies the HMAC
// signature. Returns the extracted UID and true on success.
func verifySignedUID(value string, secret []byte) (string, bool) {
	idx := strings.LastIndex(value, ".")
	if idx < 1 {
		return "", false
	}

	uid := value[:idx]
	sig, err := base64.URLEncoding.DecodeString(value[idx+1:])
	if err != nil {
		return "", false
	}

	h := hmac.New(sha256.New, secret)
	h.Write([]byte(uid))
	expected := h.Sum(nil)

	if subtle.ConstantTimeCompare(sig, expected) != 1 {
		return "", false
	}

	return uid, true
}
