package middleware

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/examprep/mcq-backend/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRateLimiter_AllowAndRefill(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rl := NewRateLimiter(ctx, 2, time.Minute)
	now := time.Unix(1_700_000_000, 0)
	rl.now = func() time.Time { return now }

	if !rl.Allow("k") || !rl.Allow("k") {
		t.Fatal("expected the first two requests to pass")
	}
	if rl.Allow("k") {
		t.Fatal("expected the third request to be limited")
	}
	if !rl.Allow("other") {
		t.Fatal("expected buckets to be independent")
	}

	now = now.Add(time.Minute)
	if !rl.Allow("k") {
		t.Error("expected bucket to refill after one interval")
	}
}

type fakeValidator struct {
	claims *service.Claims
}

func (f fakeValidator) ValidateToken(token string) (*service.Claims, error) {
	if token != "good" {
		return nil, errors.New("bad token")
	}
	return f.claims, nil
}

func TestRequireQuizToken(t *testing.T) {
	id := uuid.New()
	r := gin.New()
	r.GET("/x", RequireQuizToken(fakeValidator{claims: &service.Claims{SessionID: id}}), func(c *gin.Context) {
		c.String(http.StatusOK, GetClaims(c).SessionID.String())
	})

	cases := []struct {
		name   string
		target string
		header string
		status int
	}{
		{"missing", "/x", "", http.StatusUnauthorized},
		{"bad bearer", "/x", "Bearer nope", http.StatusUnauthorized},
		{"bearer", "/x", "Bearer good", http.StatusOK},
		{"query", "/x?token=good", "", http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.target, nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, w.Code)
			}
			if tc.status == http.StatusOK && w.Body.String() != id.String() {
				t.Errorf("expected claims for %s, got %q", id, w.Body.String())
			}
		})
	}
}

func TestBrotli_CompressesLargeBodies(t *testing.T) {
	large := strings.Repeat("quiz ", 1000)
	r := gin.New()
	r.Use(Brotli())
	r.GET("/large", func(c *gin.Context) { c.String(http.StatusOK, large) })
	r.GET("/small", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	req := httptest.NewRequest(http.MethodGet, "/large", nil)
	req.Header.Set("Accept-Encoding", "gzip, br;q=0.9")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Header().Get("Content-Encoding") != "br" {
		t.Fatalf("expected br encoding, got %q", w.Header().Get("Content-Encoding"))
	}
	plain, err := io.ReadAll(brotli.NewReader(bytes.NewReader(w.Body.Bytes())))
	if err != nil {
		t.Fatalf("decompress: %v", err)
	}
	if string(plain) != large {
		t.Error("round-tripped body differs")
	}

	req = httptest.NewRequest(http.MethodGet, "/small", nil)
	req.Header.Set("Accept-Encoding", "br")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Header().Get("Content-Encoding") != "" || w.Body.String() != "ok" {
		t.Errorf("expected small body untouched, got %q (%q)", w.Body.String(), w.Header().Get("Content-Encoding"))
	}
}

func TestNoStore(t *testing.T) {
	r := gin.New()
	r.GET("/x", NoStore(), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	if got := w.Header().Get("Cache-Control"); got != "no-store" {
		t.Errorf("expected no-store, got %q", got)
	}
}
