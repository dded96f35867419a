package api

import (
	"context"
	"net/http"

	"github.com/MHC32/momentum/internal/models"
)

type AuthResult struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (c *Client) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	result := new(AuthResult)
	err := c.do(ctx, request{method: http.MethodPost, path: "/api/auth/login", body: input, out: result, public: true})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	result := new(AuthResult)
	err := c.do(ctx, request{method: http.MethodPost, path: "/api/auth/register", body: input, out: result, public: true})
	if err != nil {
		return nil, err
	}
	return result, nil
}
