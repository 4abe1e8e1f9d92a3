package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"nursery-sync/feature/events"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/tidwall/gjson"
)

// BridgeClient talks HTTP to an automation bridge: the sidecar process
// that drives the actual browser session for one platform. It implements
// both ScrapeClient and TargetClient; a deployment points one instance at
// the source bridge and one at the target bridge.
type BridgeClient struct {
	cfg  Config
	http *retryablehttp.Client
}

var (
	_ ScrapeClient = (*BridgeClient)(nil)
	_ TargetClient = (*BridgeClient)(nil)
)

// NewBridgeClient creates a bridge client from configuration.
func NewBridgeClient(cfg Config) *BridgeClient {
	rc := retryablehttp.NewClient()
	rc.RetryMax = cfg.RetryMax
	rc.Logger = nil
	timeout := cfg.TimeoutSeconds
	if timeout <= 0 {
		timeout = 120
	}
	rc.HTTPClient.Timeout = time.Duration(timeout) * time.Second
	return &BridgeClient{cfg: cfg, http: rc}
}

// VerifyLogin asks the bridge to authenticate with the stored credentials.
func (c *BridgeClient) VerifyLogin(ctx context.Context) error {
	body, err := c.postJSON(ctx, "/api/login", map[string]string{
		"email":    c.cfg.Email,
		"password": c.cfg.Password,
	})
	if err != nil {
		return err
	}
	if !gjson.GetBytes(body, "ok").Bool() {
		return fmt.Errorf("%w: %s", ErrAuthFailed, gjson.GetBytes(body, "error").Str)
	}
	return nil
}

// Scrape extracts raw records for the requested day range.
func (c *BridgeClient) Scrape(ctx context.Context, req ScrapeRequest) ([]events.RawRecord, error) {
	body, err := c.postJSON(ctx, "/api/scrape", map[string]any{
		"email":        c.cfg.Email,
		"password":     c.cfg.Password,
		"days_back":    req.DaysBack,
		"allowed_days": req.AllowedDays,
	})
	if err != nil {
		return nil, err
	}

	var records []events.RawRecord
	for _, item := range gjson.GetBytes(body, "records").Array() {
		rec := events.RawRecord{
			RecordID:  item.Get("record_id").Str,
			ChildName: item.Get("child_name").Str,
			Label:     item.Get("label").Str,
			DayISO:    item.Get("day_iso").Str,
			TimeText:  item.Get("time_text").Str,
			StartISO:  item.Get("start_iso").Str,
			EndISO:    item.Get("end_iso").Str,
			Note:      item.Get("note").Str,
			Author:    item.Get("author").Str,
			Summary:   item.Get("summary").Str,
		}
		for _, line := range item.Get("detail_lines").Array() {
			rec.DetailLines = append(rec.DetailLines, line.Str)
		}
		records = append(records, rec)
	}
	return records, nil
}

// CreateEntry creates one entry in the target system.
func (c *BridgeClient) CreateEntry(ctx context.Context, entry Entry) error {
	payload := map[string]any{
		"email":    c.cfg.Email,
		"password": c.cfg.Password,
		"entry":    entry,
	}
	body, err := c.postJSON(ctx, "/api/entries", payload)
	if err != nil {
		return err
	}
	if !gjson.GetBytes(body, "ok").Bool() {
		return fmt.Errorf("bridge rejected entry: %s", gjson.GetBytes(body, "error").Str)
	}
	return nil
}

// postJSON sends one JSON request and classifies transport failures into
// the collaborator taxonomy.
func (c *BridgeClient) postJSON(ctx context.Context, path string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyTransportError(err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: %s", ErrAuthFailed, resp.Status)
	case resp.StatusCode == http.StatusGatewayTimeout || resp.StatusCode == http.StatusRequestTimeout:
		return nil, fmt.Errorf("%w: %s", ErrTimeout, resp.Status)
	case resp.StatusCode >= 400:
		return nil, fmt.Errorf("bridge %s returned %s: %s", path, resp.Status, body)
	}
	return body, nil
}

func classifyTransportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return err
}
