package lab

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

// Client issues the HTTP requests described by the forms of a thing description
type Client struct {
	client *http.Client
}

func NewClient(timeout time.Duration) *Client {
	return &Client{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   timeout,
					KeepAlive: timeout,
				}).DialContext,
				TLSHandshakeTimeout:   timeout,
				ResponseHeaderTimeout: timeout,
				ExpectContinueTimeout: 1 * time.Second,
			},
		},
	}
}

// Do sends payload (json encoded, when not nil) and returns the response body.
// Responses outside 2xx are errors.
func (c *Client) Do(ctx context.Context, method, target string, payload interface{}) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		bs, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("error marshalling payload: %s", err)
		}
		body = bytes.NewBuffer(bs)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, target, err)
	}
	defer resp.Body.Close()
	bs, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s %s: error reading response: %w", method, target, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%s %s: unexpected status %d: %s", method, target, resp.StatusCode, bytes.TrimSpace(bs))
	}
	return bs, nil
}

// FetchThingDescription reads the thing description served at url
func (c *Client) FetchThingDescription(ctx context.Context, url string) (*ThingDescription, error) {
	bs, err := c.Do(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	return ParseThingDescription(bs)
}
