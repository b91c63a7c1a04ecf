package api

import (
	"context"

	"github.com/dukerupert/fieldtrack/internal/model"
)

// LogoutHR tells the backend an HR user signed out.
func (c *Client) LogoutHR(ctx context.Context, hrID, username string) error {
	body := struct {
		HRID     string `json:"hrId"`
		Username string `json:"username"`
	}{hrID, username}
	return c.post(ctx, ActionLogoutHR, body, nil)
}

func (c *Client) Overview(ctx context.Context) (model.Overview, error) {
	var resp model.Overview
	err := c.get(ctx, ActionGetDashboardOverview, &resp)
	return resp, err
}

// RegisterShop returns the backend's confirmation message.
func (c *Client) RegisterShop(ctx context.Context, shop model.NewShop) (string, error) {
	var resp envelope
	if err := c.post(ctx, ActionRegisterShop, shop, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// RegisterMarketer returns the backend's confirmation message.
func (c *Client) RegisterMarketer(ctx context.Context, m model.NewMarketer) (string, error) {
	var resp envelope
	if err := c.post(ctx, ActionRegisterMarketer, m, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

func (c *Client) Marketers(ctx context.Context) ([]model.Marketer, error) {
	var resp struct {
		Marketers []model.Marketer `json:"marketers"`
	}
	err := c.get(ctx, ActionGetAllMarketers, &resp)
	return resp.Marketers, err
}

func (c *Client) ActiveMarketers(ctx context.Context) ([]model.ActiveMarketer, error) {
	var resp struct {
		ActiveMarketers []model.ActiveMarketer `json:"activeMarketers"`
	}
	err := c.get(ctx, ActionGetActiveMarketers, &resp)
	return resp.ActiveMarketers, err
}

func (c *Client) AttendanceLogs(ctx context.Context) ([]model.AttendanceLog, error) {
	var resp struct {
		Logs []model.AttendanceLog `json:"logs"`
	}
	err := c.get(ctx, ActionGetAttendanceLogs, &resp)
	return resp.Logs, err
}
