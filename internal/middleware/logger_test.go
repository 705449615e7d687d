package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/bigbiz/catalog-api/pkg/logger"
)

func TestLogger(t *testing.T) {
	c := qt.New(t)
	var buf bytes.Buffer
	log := logger.NewWithWriter(&buf, "production", "info")

	h := Logger(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/products", nil))

	var line map[string]interface{}
	c.Assert(json.Unmarshal(buf.Bytes(), &line), qt.IsNil)
	c.Assert(line["message"], qt.Equals, "http request")
	c.Assert(line["method"], qt.Equals, "GET")
	c.Assert(line["path"], qt.Equals, "/api/products")
	c.Assert(line["status"], qt.Equals, float64(http.StatusTeapot))
	c.Assert(line["bytes"], qt.Equals, float64(len("short and stout")))
}
