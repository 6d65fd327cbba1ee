package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func testGinContext(rec *httptest.ResponseRecorder) *gin.Context {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Request.RemoteAddr = "9.9.9.9:1234"
	return c
}

func TestRateLimiterAllowsWithinBurst(t *testing.T) {
	rl := NewRateLimiter(10, 3)
	for i := 0; i < 3; i++ {
		if !rl.get("1.2.3.4").Allow() {
			t.Fatalf("request %d inside burst was limited", i+1)
		}
	}
	if rl.get("1.2.3.4").Allow() {
		t.Error("request beyond burst was not limited")
	}
}

func TestRateLimiterKeysAreIndependent(t *testing.T) {
	rl := NewRateLimiter(10, 1)
	if !rl.get("a").Allow() {
		t.Fatal("first request for key a limited")
	}
	if rl.get("a").Allow() {
		t.Error("second request for key a should be limited")
	}
	if !rl.get("b").Allow() {
		t.Error("key b should have its own bucket")
	}
}

func TestRateLimiterHandlerReturns429(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	h := rl.Handler()

	rec := httptest.NewRecorder()
	c := testGinContext(rec)
	h(c)
	if rec.Code == http.StatusTooManyRequests {
		t.Fatal("first request should pass")
	}

	rec2 := httptest.NewRecorder()
	c2 := testGinContext(rec2)
	h(c2)
	if rec2.Code != http.StatusTooManyRequests {
		t.Errorf("second request: got status %d, want 429", rec2.Code)
	}
}

func TestRateLimiterCleanupEvictsIdleKeys(t *testing.T) {
	rl := NewRateLimiter(10, 1)
	rl.get("stale")
	rl.mu.Lock()
	rl.limiters["stale"].lastSeen = time.Now().Add(-time.Hour)
	rl.mu.Unlock()

	stop := make(chan struct{})
	rl.StartCleanup(stop, 5*time.Millisecond, 30*time.Minute)
	defer close(stop)

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		rl.mu.Lock()
		_, ok := rl.limiters["stale"]
		rl.mu.Unlock()
		if !ok {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Error("idle key was not evicted")
}
