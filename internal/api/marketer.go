package api

import (
	"context"

	"github.com/dukerupert/fieldtrack/internal/model"
)

type LoginRequest struct {
	UserType string `json:"userType"`
	Username string `json:"username"`
	Password string `json:"password"`
	ShopID   string `json:"shopId"`
}

type SignupRequest struct {
	FullName string `json:"fullName"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	UserType     string              `json:"userType"`
	Username     string              `json:"username"`
	FullName     string              `json:"fullName"`
	UserID       opaqueID            `json:"userId"`
	ShopID       opaqueID            `json:"shopId"`
	ShopName     string              `json:"shopName"`
	MarketerData *model.MarketerData `json:"marketerData"`
}

// Login authenticates an HR user or a marketer.
func (c *Client) Login(ctx context.Context, req LoginRequest) (model.Identity, error) {
	var resp loginResponse
	if err := c.post(ctx, ActionLogin, req, &resp); err != nil {
		return model.Identity{}, err
	}
	return model.Identity{
		UserType: resp.UserType,
		Username: resp.Username,
		FullName: resp.FullName,
		UserID:   string(resp.UserID),
		ShopID:   string(resp.ShopID),
		ShopName: resp.ShopName,
		Marketer: resp.MarketerData,
	}, nil
}

// Signup creates an HR account and returns the backend's message.
func (c *Client) Signup(ctx context.Context, req SignupRequest) (string, error) {
	var resp envelope
	if err := c.post(ctx, ActionSignup, req, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

func (c *Client) Shops(ctx context.Context) ([]model.Shop, error) {
	var resp struct {
		Shops []model.Shop `json:"shops"`
	}
	if err := c.get(ctx, ActionGetShops, &resp); err != nil {
		return nil, err
	}
	return resp.Shops, nil
}

// LogAttendance reports a session start and returns the backend record id.
func (c *Client) LogAttendance(ctx context.Context, req model.AttendanceRequest) (string, error) {
	var resp struct {
		RecordID opaqueID `json:"recordId"`
	}
	if err := c.post(ctx, ActionLogAttendance, req, &resp); err != nil {
		return "", err
	}
	return string(resp.RecordID), nil
}

// LogoutMarketer reports a session end and waits for the answer.
func (c *Client) LogoutMarketer(ctx context.Context, req model.LogoutRequest) error {
	return c.post(ctx, ActionLogoutMarketer, req, nil)
}

// LogoutBeacon reports a session end without waiting.
func (c *Client) LogoutBeacon(req model.LogoutRequest) error {
	return c.Beacon(ActionLogoutMarketer, req)
}
