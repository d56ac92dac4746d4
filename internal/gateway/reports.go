package gateway

import (
	"context"
	"net/http"

	"github.com/odyssey-erp/odyssey-pos/internal/auth"
	"github.com/odyssey-erp/odyssey-pos/internal/dashboard"
)

var (
	_ dashboard.Gateway = (*Client)(nil)
	_ auth.Gateway      = (*Client)(nil)
)

// DashboardStats loads today's KPIs.
func (c *Client) DashboardStats(ctx context.Context) (dashboard.Stats, error) {
	var s dashboard.Stats
	err := c.doJSON(ctx, request{op: "dashboard_stats", method: http.MethodGet, path: "/reports/dashboard"}, &s)
	return s, err
}

// Login exchanges operator credentials for a backend token.
func (c *Client) Login(ctx context.Context, req auth.LoginRequest) (auth.LoginResult, error) {
	var res auth.LoginResult
	err := c.doJSON(ctx, request{op: "login", method: http.MethodPost, path: "/auth/login", body: req, anonymous: true}, &res)
	return res, err
}
