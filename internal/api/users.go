package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// User is a managed account as served by the Mural API.
type User struct {
	ID        int64     `json:"id"`
	FirstName string    `json:"nome"`
	LastName  string    `json:"sobrenome"`
	Email     string    `json:"email"`
	Blocked   bool      `json:"bloqueado"`
	CreatedAt time.Time `json:"data_criacao"`
	UpdatedAt time.Time `json:"data_atualizacao"`
	LastLogin time.Time `json:"ultimo_login"`
	CreatedBy string    `json:"usuario_cadastrador"`
	UpdatedBy string    `json:"usuario_atualizador"`
	Photo     *Photo    `json:"foto,omitempty"`
}

// UserPage is one page of users plus the total reported by X-Total-Count.
type UserPage struct {
	Users []User
	Total int
}

// UserInput carries the fields submitted when creating or updating a user.
// Password and Photo are optional on update.
type UserInput struct {
	FirstName string
	LastName  string
	Email     string
	Blocked   bool
	Password  string
	Photo     *FormFile
}

// ListUsers fetches a page of users from GET /usuarios.
func (c *Client) ListUsers(ctx context.Context, token string, page int, filter string, limit int) (*UserPage, error) {
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	if filter != "" {
		query.Set("filter", filter)
	}
	query.Set("limit", strconv.Itoa(limit))

	var users []User
	header, err := c.Get(ctx, "/usuarios", token, query, &users)
	if err != nil {
		return nil, err
	}
	total, err := strconv.Atoi(header.Get("X-Total-Count"))
	if err != nil {
		total = len(users)
	}
	return &UserPage{Users: users, Total: total}, nil
}

// GetUser fetches a single user from GET /usuarios/{id}.
func (c *Client) GetUser(ctx context.Context, token string, id int64) (*User, error) {
	var user User
	if _, err := c.Get(ctx, fmt.Sprintf("/usuarios/%d", id), token, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// CreateUser submits a new account to POST /usuarios.
func (c *Client) CreateUser(ctx context.Context, token string, input UserInput) error {
	fields, files := userForm(input)
	return c.SendForm(ctx, "POST", "/usuarios", token, fields, files, nil)
}

// UpdateUser updates an account via PUT /usuarios/{id}.
func (c *Client) UpdateUser(ctx context.Context, token string, id int64, input UserInput) error {
	fields, files := userForm(input)
	return c.SendForm(ctx, "PUT", fmt.Sprintf("/usuarios/%d", id), token, fields, files, nil)
}

// DeleteUser removes an account via DELETE /usuarios/{id}.
func (c *Client) DeleteUser(ctx context.Context, token string, id int64) error {
	return c.Delete(ctx, fmt.Sprintf("/usuarios/%d", id), token)
}

// UpdatePassword changes the password and/or profile photo of an account
// via PATCH /usuarios/password/{id}.
func (c *Client) UpdatePassword(ctx context.Context, token string, id int64, password string, photo *FormFile) error {
	fields := map[string]string{}
	if password != "" {
		fields["senha"] = password
	}
	var files []FormFile
	if photo != nil {
		p := *photo
		if p.Field == "" {
			p.Field = "foto"
		}
		files = append(files, p)
	}
	return c.SendForm(ctx, "PATCH", fmt.Sprintf("/usuarios/password/%d", id), token, fields, files, nil)
}

// DeleteUserPhoto removes the profile photo via DELETE /usuarios/foto/{id}.
func (c *Client) DeleteUserPhoto(ctx context.Context, token string, id int64) error {
	return c.Delete(ctx, fmt.Sprintf("/usuarios/foto/%d", id), token)
}

func userForm(input UserInput) (map[string]string, []FormFile) {
	fields := map[string]string{
		"nome":      input.FirstName,
		"sobrenome": input.LastName,
		"email":     input.Email,
		"bloqueado": strconv.FormatBool(input.Blocked),
	}
	if input.Password != "" {
		fields["senha"] = input.Password
	}
	var files []FormFile
	if input.Photo != nil {
		p := *input.Photo
		if p.Field == "" {
			p.Field = "foto"
		}
		files = append(files, p)
	}
	return fields, files
}
