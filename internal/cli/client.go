package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/KenThuan129/startup-simulation-game/internal/content"
	"github.com/KenThuan129/startup-simulation-game/internal/game"
	"github.com/KenThuan129/startup-simulation-game/internal/sim"
)

// Client talks to the admin API. Every call under /v1 needs the admin token.
type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api status %d: %s", e.Status, e.Message)
}

type SimulateResponse struct {
	RunID  string               `json:"run_id"`
	Result sim.SimulationResult `json:"result"`
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		HTTP: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *Client) Health(ctx context.Context) error {
	return c.jsonRequest(ctx, http.MethodGet, "/healthz", nil, nil)
}

func (c *Client) Content(ctx context.Context) (content.Summary, error) {
	var out content.Summary
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/content", nil, &out)
	return out, err
}

func (c *Client) Company(ctx context.Context, id string) (sim.Company, error) {
	var out sim.Company
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/companies/"+url.PathEscape(id), nil, &out)
	return out, err
}

func (c *Client) OwnerCompany(ctx context.Context, ownerID string) (sim.Company, error) {
	var out sim.Company
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/owners/"+url.PathEscape(ownerID)+"/company", nil, &out)
	return out, err
}

func (c *Client) Level(ctx context.Context, id string) (game.LevelReport, error) {
	var out game.LevelReport
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/companies/"+url.PathEscape(id)+"/level", nil, &out)
	return out, err
}

func (c *Client) Loans(ctx context.Context, id string) ([]sim.Loan, error) {
	var out struct {
		Loans []sim.Loan `json:"loans"`
	}
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/companies/"+url.PathEscape(id)+"/loans", nil, &out)
	return out.Loans, err
}

func (c *Client) Anomalies(ctx context.Context, id string, limit int) ([]sim.AnomalyLogEntry, error) {
	path := "/v1/companies/" + url.PathEscape(id) + "/anomalies"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var out struct {
		Anomalies []sim.AnomalyLogEntry `json:"anomalies"`
	}
	err := c.jsonRequest(ctx, http.MethodGet, path, nil, &out)
	return out.Anomalies, err
}

func (c *Client) Boss(ctx context.Context, id string) (sim.BossBattle, error) {
	var out sim.BossBattle
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/companies/"+url.PathEscape(id)+"/boss", nil, &out)
	return out, err
}

func (c *Client) EndDay(ctx context.Context, id string) (game.DayEndResult, error) {
	var out game.DayEndResult
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/companies/"+url.PathEscape(id)+"/end-day", nil, &out)
	return out, err
}

func (c *Client) Simulate(ctx context.Context, cfg sim.SimulationConfig) (SimulateResponse, error) {
	var out SimulateResponse
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/simulate", cfg, &out)
	return out, err
}

func (c *Client) ExpireBattles(ctx context.Context) (int, error) {
	var out struct {
		Expired int `json:"expired"`
	}
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/boss/expire", nil, &out)
	return out.Expired, err
}

func (c *Client) jsonRequest(ctx context.Context, method, path string, in any, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		msg := strings.TrimSpace(string(raw))
		var payload struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(raw, &payload) == nil && payload.Error != "" {
			msg = payload.Error
		}
		return &APIError{Status: resp.StatusCode, Message: msg}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
