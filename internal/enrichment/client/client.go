// Package client talks to the external drafting service that analyzes
// a lead and proposes the next outreach message.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"prospect_backend/platform/config"
	"prospect_backend/platform/logger"
)

const defaultHTTPTimeout = 30 * time.Second

// DraftRequest carries everything the drafting service needs in a
// single call: who the lead is, where they stand, and the full
// conversation so far. Icebreaker marks a lead with no history, which
// switches the service into first-touch mode.
type DraftRequest struct {
	LeadID       string   `json:"leadId"`
	FullName     string   `json:"fullName"`
	Headline     string   `json:"headline"`
	Company      string   `json:"company"`
	CadenceStage string   `json:"cadenceStage"`
	ICPTier      string   `json:"icpTier"`
	TrustScore   int      `json:"trustScore"`
	History      []string `json:"history"`
	Icebreaker   bool     `json:"icebreaker"`
}

// DraftResponse is the immediate answer: the proposed message and,
// optionally, the service's reasoning. The strategic annotation bundle
// is written to the record store by the service itself and picked up by
// the delayed re-read, not returned here.
type DraftResponse struct {
	Reply     string `json:"reply"`
	Reasoning string `json:"reasoning,omitempty"`
}

// Client is the HTTP client for the drafting service.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	log     *logger.Logger
}

// New creates a drafting client. Returns nil when no URL is configured;
// a nil client reports the service as disabled.
func New(cfg config.EnrichmentConfig, log *logger.Logger) *Client {
	if cfg.GetEnrichmentAPIURL() == "" {
		return nil
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.GetEnrichmentAPIURL(), "/"),
		apiKey:  cfg.GetEnrichmentAPIKey(),
		http:    &http.Client{Timeout: defaultHTTPTimeout},
		log:     log,
	}
}

// Enabled reports whether the drafting service is configured.
func (c *Client) Enabled() bool {
	return c != nil
}

// RequestDraft submits the lead dossier and returns the proposed reply.
func (c *Client) RequestDraft(ctx context.Context, req DraftRequest) (DraftResponse, error) {
	if c == nil {
		return DraftResponse{}, fmt.Errorf("drafting service not configured")
	}

	body, err := json.Marshal(req)
	if err != nil {
		return DraftResponse{}, fmt.Errorf("marshal draft request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/draft", c.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return DraftResponse{}, err
	}

	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return DraftResponse{}, fmt.Errorf("drafting request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(resp.Body)
		return DraftResponse{}, fmt.Errorf("drafting service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var out DraftResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return DraftResponse{}, fmt.Errorf("decode draft response: %w", err)
	}
	if out.Reply == "" {
		return DraftResponse{}, fmt.Errorf("drafting service returned an empty reply")
	}

	c.log.Info("draft received", "leadId", req.LeadID, "icebreaker", req.Icebreaker)
	return out, nil
}
