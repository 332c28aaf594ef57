// Package labels resolves swap program identifiers to human-readable names.
package labels

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// Well-known swap programs.
const (
	OrcaWhirlpoolsProgramID = "whirLbMiicVdio4qvUfM5KAg6Ct8VwpYzGff3uctyCc"
	OrcaWhirlpoolsLabel     = "Orca Whirlpools"
)

// Default label service settings.
const (
	DefaultJupiterURL = "https://lite-api.jup.ag/swap/v1/program-id-to-label"
	DefaultTimeout    = 30 * time.Second
)

// Static returns the swap programs known without any network lookup.
func Static() map[string]string {
	return map[string]string{OrcaWhirlpoolsProgramID: OrcaWhirlpoolsLabel}
}

// Source fetches a program id to label mapping.
type Source interface {
	Fetch(ctx context.Context) (map[string]string, error)
}

// JupiterSource reads Jupiter's program-id-to-label endpoint.
type JupiterSource struct {
	url    string
	client *http.Client
}

// NewJupiterSource creates a label source. An empty url selects DefaultJupiterURL.
func NewJupiterSource(url string, timeout time.Duration) *JupiterSource {
	if url == "" {
		url = DefaultJupiterURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &JupiterSource{url: url, client: &http.Client{Timeout: timeout}}
}

// Fetch returns the label map served by Jupiter.
func (s *JupiterSource) Fetch(ctx context.Context) (map[string]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch labels: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch labels: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read labels: %w", err)
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode labels: %w", err)
	}

	out := make(map[string]string, len(raw))
	for id, v := range raw {
		switch label := v.(type) {
		case string:
			out[id] = label
		case nil:
			out[id] = ""
		default:
			out[id] = fmt.Sprint(label)
		}
	}
	return out, nil
}

// Load builds the swap program map: the static entries overlaid with whatever
// src returns. A nil src or any fetch failure yields the static entries only.
func Load(ctx context.Context, src Source, logger logrus.FieldLogger) map[string]string {
	programs := Static()
	if src == nil {
		return programs
	}

	dynamic, err := src.Fetch(ctx)
	if err != nil {
		if logger != nil {
			logger.WithError(err).Warn("swap program labels unavailable, using static set")
		}
		return programs
	}

	for id, label := range dynamic {
		programs[id] = label
	}
	return programs
}
