package website

import (
	"fmt"
	"net/http"
	"strings"
)

// allowedMethods lists the only HTTP methods the site answers. Everything
// else is rejected with 405 and an Allow header naming these.
var allowedMethods = []string{
	http.MethodGet,
	http.MethodHead,
	http.MethodPost,
}

func methodAllowed(method string) bool {
	for _, m := range allowedMethods {
		if m == method {
			return true
		}
	}
	return false
}

func methodNotAllowed(w http.ResponseWriter) {
	for _, m := range allowedMethods {
		w.Header().Add("Allow", m)
	}
	msg := fmt.Sprintf("Only %s requests are allowed to oxbow.", strings.Join(allowedMethods, ", "))
	http.Error(w, msg, http.StatusMethodNotAllowed)
}
