package cart

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"greencart.dev/storefront/pkg/global"
	"greencart.dev/storefront/pkg/models"
)

// HTTPPusher saves the cart through POST /api/cart/update, authenticated by the token cookie.
type HTTPPusher struct {
	BaseURL string
	Token   string
	Client  *http.Client
}

func NewHTTPPusher(baseURL, token string) *HTTPPusher {
	return &HTTPPusher{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type updateResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Version int64  `json:"version"`
}

func (p *HTTPPusher) Push(ctx context.Context, items models.CartItems, version *int64) (int64, error) {
	body, err := json.Marshal(models.UpdateCartRequest{CartItems: items, Version: version})
	if err != nil {
		return 0, global.Internal("failed to encode cart", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.BaseURL+"/api/cart/update", bytes.NewReader(body))
	if err != nil {
		return 0, global.Internal("failed to build cart request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.AddCookie(&http.Cookie{Name: "token", Value: p.Token})

	resp, err := p.Client.Do(req)
	if err != nil {
		return 0, global.NewError(global.KindUpstream, "failed to reach server", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode >= http.StatusInternalServerError {
		return 0, global.NewError(global.KindUpstream, "server error", fmt.Errorf("status %d: %s", resp.StatusCode, raw))
	}

	var out updateResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return 0, global.NewError(global.KindUpstream, "unreadable cart response", err)
	}
	switch {
	case out.Success:
		return out.Version, nil
	case out.Code == "conflict":
		return 0, &ConflictError{Version: out.Version}
	case out.Message == "Not Authorized":
		return 0, global.NewError(global.KindNotAuthorized, out.Message, nil)
	default:
		return 0, global.Validation("%s", out.Message)
	}
}
