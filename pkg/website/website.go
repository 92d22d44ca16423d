// Package website serves the invitation page and the RSVP endpoint. It
// sits entirely above the transport layer: handlers see ordinary requests
// and never learn whether the connection was encrypted.
package website

import (
	_ "embed"
	"encoding/json"
	"net/http"

	"oxbowlabs/oxbow/pkg/log"
	"oxbowlabs/oxbow/pkg/rsvp"
)

//go:embed assets/favicon.png
var favicon []byte

//go:embed assets/river-background.png
var riverBackground []byte

// enterRSVPPath is the only POST path the site accepts.
const enterRSVPPath = "/enter-rsvp"

// Website answers HTTP requests for the invitation site.
type Website struct {
	store  *rsvp.Store
	logger *log.Logger
}

// New returns a Website backed by the given guest list.
func New(store *rsvp.Store, logger *log.Logger) *Website {
	return &Website{
		store:  store,
		logger: logger,
	}
}

// Handler returns the request handler the protocol engine serves.
func (ws *Website) Handler() http.Handler {
	return http.HandlerFunc(ws.handle)
}

func (ws *Website) handle(w http.ResponseWriter, r *http.Request) {
	if !methodAllowed(r.Method) {
		methodNotAllowed(w)
		return
	}

	if r.Method == http.MethodPost {
		if r.URL.Path != enterRSVPPath {
			http.Error(w, "Non-existent POST path", http.StatusNotFound)
			return
		}
		ws.enterRSVP(w, r)
		return
	}

	ws.yieldSite(w, r)
}

// yieldSite serves GET and HEAD requests. Requests must carry an empty
// body to conform to the HTTP specification; HEAD answers carry headers
// only.
func (ws *Website) yieldSite(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > 0 {
		ws.logger.VerboseMsg("Request with non-empty body: %s %s\n", r.Method, r.URL.Path)
		http.Error(w, "A request must have an empty body", http.StatusBadRequest)
		return
	}

	var body []byte
	contentType := "text/html; charset=utf-8"

	switch r.URL.Path {
	case "/":
		body = []byte(invitationPage)
	case "/favicon.ico":
		body = favicon
		contentType = "image/png"
	case "/river-background.png":
		body = riverBackground
		contentType = "image/png"
	case "/live":
		ws.live(w, r)
		return
	default:
		ws.logger.VerboseMsg("Not found: %s\n", r.URL.Path)
		http.Error(w, "According to my book-keeping, that page does not exist.", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", contentType)
	if r.Method == http.MethodHead {
		return
	}
	if _, err := w.Write(body); err != nil {
		ws.logger.VerboseMsg("Writing %s: %s\n", r.URL.Path, err)
	}
}

// enterRSVP records a guest's response submitted as JSON.
func (ws *Website) enterRSVP(w http.ResponseWriter, r *http.Request) {
	var submission rsvp.ClientRSVP
	if err := json.NewDecoder(r.Body).Decode(&submission); err != nil {
		ws.logger.VerboseMsg("Bad RSVP payload: %s\n", err)
		http.Error(w, "Unable to parse RSVP json", http.StatusBadRequest)
		return
	}

	answer, err := ws.store.EnterRSVP(submission)
	if err != nil {
		ws.logger.ErrorMsg("Recording RSVP: %s\n", err)
		http.Error(w, "RSVP bookkeeping error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	if err := json.NewEncoder(w).Encode(answer); err != nil {
		ws.logger.VerboseMsg("Writing RSVP response: %s\n", err)
	}
}
