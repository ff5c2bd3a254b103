package httpx

import (
	"net/http"
	"time"
)

// UserAgent wird bei jeder ausgehenden Anfrage gesetzt. Die GitHub-API lehnt Anfragen ohne ab.
const UserAgent = "paper-hub/1.0 (+https://github.com)"

// Transport setzt User-Agent und optional ein Bearer-Token auf jede Anfrage.
type Transport struct {
	Transport http.RoundTripper
	Token     string
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	// RoundTripper dürfen die Originalanfrage nicht verändern.
	r := req.Clone(req.Context())
	r.Header.Set("User-Agent", UserAgent)
	if t.Token != "" && r.Header.Get("Authorization") == "" {
		r.Header.Set("Authorization", "Bearer "+t.Token)
	}
	base := t.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(r)
}

// NewClient erstellt einen HTTP-Client mit Transport und Timeout.
func NewClient(token string, timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &Transport{
			Transport: http.DefaultTransport,
			Token:     token,
		},
	}
}
