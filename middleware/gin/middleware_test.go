package ginmw_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	polyjson "github.com/reoring/polyjson"
	ginmw "github.com/reoring/polyjson/middleware/gin"
	"github.com/reoring/polyjson/study"
)

func TestDecodeJSON(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m, err := study.NewMapper("")
	if err != nil {
		t.Fatal(err)
	}
	r := gin.New()
	r.POST("/steps", ginmw.DecodeJSON[study.Step](m, polyjson.DecodeOpt{}), func(c *gin.Context) {
		s, ok := ginmw.GetDecoded[study.Step](c)
		if !ok {
			c.String(http.StatusInternalServerError, "missing")
			return
		}
		c.String(http.StatusOK, s.StepIdentifier())
	})

	cases := []struct {
		body string
		code int
		want string
	}{
		{`{"type":"completion","identifier":"done"}`, http.StatusOK, "done"},
		{`{"type":"section","identifier":"s","steps":[{"identifier":"x"}]}`, http.StatusBadRequest, `"path":"/steps/0"`},
		{`{"type":"form","identifier":"f","identifier":"g"}`, http.StatusBadRequest, `"code":"duplicate_key"`},
	}
	for _, c := range cases {
		req := httptest.NewRequest(http.MethodPost, "/steps", strings.NewReader(c.body))
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		if rec.Code != c.code || !strings.Contains(rec.Body.String(), c.want) {
			t.Fatalf("%s: got %d %s", c.body, rec.Code, rec.Body.String())
		}
	}
}
