package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// NewRefreshFunc returns a RefreshFunc that exchanges a long-lived
// refresh token for a fresh access token at POST /auth/refresh. The
// call is unauthenticated; the refresh token itself is the credential.
func NewRefreshFunc(baseURL, refreshToken string, h *http.Client) RefreshFunc {
	if h == nil {
		h = &http.Client{Timeout: defaultTimeout}
	}
	return func(ctx context.Context) (string, error) {
		payload, err := json.Marshal(map[string]string{"refresh_token": refreshToken})
		if err != nil {
			return "", fmt.Errorf("encode refresh request: %w", err)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/auth/refresh", bytes.NewReader(payload))
		if err != nil {
			return "", fmt.Errorf("build refresh request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := h.Do(req)
		if err != nil {
			return "", fmt.Errorf("refresh token: %w", err)
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
		if err != nil {
			return "", fmt.Errorf("read refresh response: %w", err)
		}

		var env envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			return "", fmt.Errorf("decode refresh response: %w", err)
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 || !env.Success {
			return "", &APIError{StatusCode: resp.StatusCode, Message: env.Message}
		}

		var data struct {
			Token string `json:"token"`
		}
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return "", fmt.Errorf("decode refresh payload: %w", err)
		}
		if data.Token == "" {
			return "", &APIError{StatusCode: resp.StatusCode, Message: "refresh returned empty token"}
		}
		return data.Token, nil
	}
}
