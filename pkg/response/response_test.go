package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func perform(t *testing.T, handler gin.HandlerFunc) (*httptest.ResponseRecorder, Response) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	handler(c)

	var body Response
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not valid JSON: %v", err)
	}
	return w, body
}

func TestSuccess(t *testing.T) {
	w, body := perform(t, func(c *gin.Context) {
		Success(c, gin.H{"id": 7})
	})
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
	if body.Code != CodeSuccess {
		t.Errorf("code = %d, want %d", body.Code, CodeSuccess)
	}
	if body.Data == nil {
		t.Error("data missing")
	}
}

func TestErrorStatuses(t *testing.T) {
	tests := []struct {
		name       string
		handler    gin.HandlerFunc
		wantStatus int
		wantCode   int
	}{
		{"param error", func(c *gin.Context) { ParamError(c, "bad") }, 400, CodeParamError},
		{"unauthorized", func(c *gin.Context) { Unauthorized(c, "no session") }, 401, CodeUnauthorized},
		{"forbidden", func(c *gin.Context) { Forbidden(c, "wrong role") }, 403, CodeForbidden},
		{"not found", func(c *gin.Context) { NotFound(c, "missing") }, 404, CodeNotFound},
		{"conflict", func(c *gin.Context) { Conflict(c, "duplicate") }, 409, CodeConflict},
		{"server error", func(c *gin.Context) { ServerError(c, "boom") }, 500, CodeServerError},
		{"business error", func(c *gin.Context) { BusinessError(c, CodeBalanceNotEnough, "broke") }, 400, CodeBalanceNotEnough},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, body := perform(t, tt.handler)
			if w.Code != tt.wantStatus {
				t.Errorf("http status = %d, want %d", w.Code, tt.wantStatus)
			}
			if body.Code != tt.wantCode {
				t.Errorf("envelope code = %d, want %d", body.Code, tt.wantCode)
			}
		})
	}
}
