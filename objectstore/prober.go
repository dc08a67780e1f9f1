package objectstore

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/sagarc03/folio"
)

// Prober checks image URLs with HEAD requests. Deadlines come from the
// caller's context.
type Prober struct {
	httpClient *http.Client
}

// NewProber creates a Prober. A nil client selects a zero http.Client.
func NewProber(client *http.Client) *Prober {
	if client == nil {
		client = &http.Client{}
	}
	return &Prober{httpClient: client}
}

func (p *Prober) Probe(ctx context.Context, rawURL string) (folio.ProbeResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return folio.ProbeResult{}, fmt.Errorf("probe %s: %w", rawURL, err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return folio.ProbeResult{}, fmt.Errorf("probe %s: %w", rawURL, err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	return folio.ProbeResult{
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
	}, nil
}
