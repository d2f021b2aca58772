package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"twelfthman/internal/apperr"
)

func testJWT() JWT {
	return JWT{Secret: []byte("0123456789abcdef0123"), TokenTTL: time.Hour, Issuer: "12thman"}
}

func TestSignVerify(t *testing.T) {
	j := testJWT()
	tok, err := j.Sign("user-1")
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	claims, err := j.Verify(tok)
	if err != nil || claims.Subject != "user-1" || claims.Issuer != "12thman" {
		t.Fatalf("claims=%+v err=%v", claims, err)
	}

	other := JWT{Secret: []byte("another-secret-entirely")}
	if _, err := other.Verify(tok); err == nil {
		t.Fatalf("expected signature failure")
	}
}

func TestVerify_Expired(t *testing.T) {
	j := testJWT()
	past := time.Now().Add(-time.Hour)
	tok, _, err := j.SignClaims(Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "user-1",
		ExpiresAt: jwt.NewNumericDate(past),
	}})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := j.Verify(tok); err == nil {
		t.Fatalf("expected expiry failure")
	}
}

func TestRequire(t *testing.T) {
	gin.SetMode(gin.TestMode)
	j := testJWT()
	r := gin.New()
	r.GET("/me", Require(j), func(c *gin.Context) {
		uid, _ := UserIDFromContext(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"user": UserID(c), "ctx": uid})
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status=%d want=401", w.Code)
	}
	var env apperr.Envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil || env.Error.Code != apperr.CodeUnauthorized {
		t.Fatalf("body=%s err=%v", w.Body.String(), err)
	}

	tok, _ := j.Sign("user-7")
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var body map[string]string
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	if body["user"] != "user-7" || body["ctx"] != "user-7" {
		t.Fatalf("body=%v", body)
	}
}

func TestOptional(t *testing.T) {
	gin.SetMode(gin.TestMode)
	j := testJWT()
	r := gin.New()
	r.Use(Optional(j))
	r.GET("/feed", func(c *gin.Context) {
		c.String(http.StatusOK, UserID(c))
	})

	tok, _ := j.Sign("user-3")
	for header, want := range map[string]string{
		"":               "",
		"Bearer garbage": "",
		"Bearer " + tok:  "user-3",
	} {
		req := httptest.NewRequest(http.MethodGet, "/feed", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusOK || w.Body.String() != want {
			t.Fatalf("header=%q status=%d body=%q want=%q", header, w.Code, w.Body.String(), want)
		}
	}
}

func TestBearerToken(t *testing.T) {
	tests := map[string]string{
		"":             "",
		"Bearer abc":   "abc",
		"bearer  abc ": "abc",
		"Basic abc":    "",
		"Bearer":       "",
	}
	for in, want := range tests {
		if got := bearerToken(in); got != want {
			t.Fatalf("bearerToken(%q)=%q want=%q", in, got, want)
		}
	}
}
