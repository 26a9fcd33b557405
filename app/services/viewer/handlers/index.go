package handlers

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/http"
	"net/url"

	"github.com/ardanlabs/tnb/foundation/tnb/nodes"
)

type index struct {
	page []byte
}

// newIndex renders the index page once. The page streams the bank's events
// over a websocket.
func newIndex(build string, bankURL string) (index, error) {
	origin, err := nodes.Origin(bankURL)
	if err != nil {
		return index{}, err
	}

	u, err := url.Parse(origin)
	if err != nil {
		return index{}, err
	}

	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = "/events"

	tmpl, err := template.ParseFS(assets, "assets/index.html")
	if err != nil {
		return index{}, fmt.Errorf("parsing index: %w", err)
	}

	data := struct {
		Build     string
		BankURL   string
		EventsURL string
	}{
		Build:     build,
		BankURL:   origin,
		EventsURL: u.String(),
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return index{}, fmt.Errorf("executing index: %w", err)
	}

	return index{page: buf.Bytes()}, nil
}

func (ig index) handler(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	if _, err := w.Write(ig.page); err != nil {
		return fmt.Errorf("writing index page: %w", err)
	}

	return nil
}
