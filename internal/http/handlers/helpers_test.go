package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func testGinContext(target string) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, target, nil)
	return c, rec
}

func TestQueryLimit(t *testing.T) {
	cases := []struct {
		target string
		def    int
		want   int
	}{
		{"/x", 50, 50},
		{"/x?limit=10", 50, 10},
		{"/x?limit=abc", 50, 50},
		{"/x?limit=%20", 50, 50},
	}
	for _, tc := range cases {
		c, _ := testGinContext(tc.target)
		if got := queryLimit(c, tc.def); got != tc.want {
			t.Errorf("queryLimit(%q, %d) = %d, want %d", tc.target, tc.def, got, tc.want)
		}
	}
}

func TestOptionalUUIDQueryAbsent(t *testing.T) {
	c, _ := testGinContext("/x")
	id, ok := optionalUUIDQuery(c, "contractor_id")
	if !ok || id != uuid.Nil {
		t.Fatalf("absent param: got (%v, %v), want (Nil, true)", id, ok)
	}
}

func TestOptionalUUIDQueryValid(t *testing.T) {
	want := uuid.New()
	c, _ := testGinContext("/x?contractor_id=" + want.String())
	id, ok := optionalUUIDQuery(c, "contractor_id")
	if !ok || id != want {
		t.Fatalf("valid param: got (%v, %v), want (%v, true)", id, ok, want)
	}
}

func TestOptionalUUIDQueryMalformed(t *testing.T) {
	c, rec := testGinContext("/x?contractor_id=not-a-uuid")
	_, ok := optionalUUIDQuery(c, "contractor_id")
	if ok {
		t.Fatal("malformed param reported ok")
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}
