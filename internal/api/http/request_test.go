package http

import (
	"io"
	nethttp "net/http"
	"net/http/httptest"
)

func newRequest(method, target string, body io.Reader) (*nethttp.Request, error) {
	return httptest.NewRequest(method, target, body), nil
}
