package requestid

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func serve(header string) (*httptest.ResponseRecorder, string, string) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Middleware())
	var fromGin, fromCtx string
	router.GET("/api/v1/schedule", func(c *gin.Context) {
		fromGin = Value(c)
		fromCtx = FromContext(c.Request.Context())
		c.Status(http.StatusOK)
	})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/schedule", nil)
	if header != "" {
		req.Header.Set(Header, header)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec, fromGin, fromCtx
}

func TestMiddlewareReusesClientID(t *testing.T) {
	rec, fromGin, fromCtx := serve("board-refresh-42")

	assert.Equal(t, "board-refresh-42", rec.Header().Get(Header))
	assert.Equal(t, "board-refresh-42", fromGin)
	assert.Equal(t, "board-refresh-42", fromCtx)
}

func TestMiddlewareReplacesMalformedID(t *testing.T) {
	for _, header := range []string{"has space", strings.Repeat("x", 200), "tab\tid"} {
		rec, fromGin, _ := serve(header)
		assert.NotEqual(t, header, fromGin)
		assert.Len(t, rec.Header().Get(Header), 36)
	}
}

func TestFieldSkipsMissingID(t *testing.T) {
	assert.Equal(t, "", FromContext(context.Background()))
	assert.Equal(t, "request_id", Field(WithID(context.Background(), "abc")).Key)
}
