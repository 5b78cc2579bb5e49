package api

import "context"

// TokenData is the login response: the bearer token plus the flat role and
// permission name arrays held by the user.
type TokenData struct {
	AccessToken string   `json:"accessToken"`
	UserID      int64    `json:"id"`
	Roles       []string `json:"regras"`
	Permissions []string `json:"permissoes"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"senha"`
}

type recoverRequest struct {
	RecoveryEmail string `json:"emailRecuperacao"`
}

// Login authenticates against POST /entrar.
func (c *Client) Login(ctx context.Context, email, password string) (*TokenData, error) {
	var out TokenData
	if err := c.PostJSON(ctx, "/entrar", "", loginRequest{Email: email, Password: password}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RecoverPassword requests a password recovery e-mail via POST /recuperar.
func (c *Client) RecoverPassword(ctx context.Context, email string) error {
	return c.PostJSON(ctx, "/recuperar", "", recoverRequest{RecoveryEmail: email}, nil)
}
