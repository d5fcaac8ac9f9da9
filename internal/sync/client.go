package sync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// CloudClient is the remote store contract: two request/response endpoints
// for sync plus an out-of-band wipe used by account deletion. Every call
// must honor the context's deadline.
type CloudClient interface {
	// PushBatch uploads one batch of dirty rows. The cloud applies each
	// record as an upsert by local id with last-write-wins on updatedAt,
	// so resending an already-applied batch is harmless.
	PushBatch(ctx context.Context, batch *Batch) error

	// PullAll fetches the cloud's complete snapshot for the user.
	PullAll(ctx context.Context, userID string) (*Snapshot, error)

	// DeleteUserData irreversibly wipes the user's cloud data.
	DeleteUserData(ctx context.Context, userID string) error
}

// HTTPClient talks to the cloud backend over JSON/HTTP.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

// NewHTTPClient creates a client for the backend at baseURL. Deadlines come
// from the per-call context, not a client-wide timeout.
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		client:  &http.Client{},
	}
}

// PushBatch implements CloudClient.
func (c *HTTPClient) PushBatch(ctx context.Context, batch *Batch) error {
	body, err := json.Marshal(batch)
	if err != nil {
		return fmt.Errorf("failed to encode push batch: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/sync/push", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("push request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("push rejected: %s", readError(resp))
	}
	return nil
}

// PullAll implements CloudClient.
func (c *HTTPClient) PullAll(ctx context.Context, userID string) (*Snapshot, error) {
	u := c.baseURL + "/sync/pull?userId=" + url.QueryEscape(userID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create pull request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pull request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("pull rejected: %s", readError(resp))
	}

	var snapshot Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snapshot); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return &snapshot, nil
}

// DeleteUserData implements CloudClient.
func (c *HTTPClient) DeleteUserData(ctx context.Context, userID string) error {
	body, err := json.Marshal(map[string]string{"userId": userID})
	if err != nil {
		return fmt.Errorf("failed to encode delete request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/sync/delete-user-data", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create delete request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("delete request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("delete rejected: %s", readError(resp))
	}
	return nil
}

// readError extracts a short error description from a non-2xx response.
func readError(resp *http.Response) string {
	data, err := io.ReadAll(io.LimitReader(resp.Body, 512))
	if err != nil || len(data) == 0 {
		return resp.Status
	}
	return fmt.Sprintf("%s: %s", resp.Status, data)
}
