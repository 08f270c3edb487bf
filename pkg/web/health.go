package web

import (
	"io"
	"net/http"
)

func serviceHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, "ok") //nolint:errcheck
}
