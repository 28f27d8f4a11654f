package api

import (
	"context"
	"net/http"
)

type idRef struct {
	ID string `json:"id"`
}

type franchiseUser struct {
	Franchisee *idRef `json:"franchisee"`
}

// Profile is the subset of /auth/me/full the storefront reads.
type Profile struct {
	ID                    string          `json:"id"`
	Email                 string          `json:"email"`
	CustomerID            string          `json:"customerId"`
	Customer              *idRef          `json:"customer"`
	LegacyFranchiseeID    string          `json:"franchiseeId"`
	LegacyFranchiseeSnake string          `json:"franchisee_id"`
	Franchisee            *idRef          `json:"franchisee"`
	FranchiseUsers        []franchiseUser `json:"franchiseUsers"`
}

// FranchiseeID returns the franchisee the profile is attached to, if any.
func (p *Profile) FranchiseeID() string {
	if p.Franchisee != nil && p.Franchisee.ID != "" {
		return p.Franchisee.ID
	}
	if p.LegacyFranchiseeID != "" {
		return p.LegacyFranchiseeID
	}
	if p.LegacyFranchiseeSnake != "" {
		return p.LegacyFranchiseeSnake
	}
	for _, fu := range p.FranchiseUsers {
		if fu.Franchisee != nil && fu.Franchisee.ID != "" {
			return fu.Franchisee.ID
		}
	}
	return ""
}

// CustomerRef returns the customer record id of the profile, if any.
func (p *Profile) CustomerRef() string {
	if p.Customer != nil && p.Customer.ID != "" {
		return p.Customer.ID
	}
	return p.CustomerID
}

func (c *Client) Me(ctx context.Context) (*Profile, error) {
	var p Profile
	if err := c.do(ctx, "me", http.MethodGet, "/auth/me/full", nil, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}
