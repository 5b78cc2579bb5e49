package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// Photo is the uploaded image metadata attached to posts and users.
type Photo struct {
	ID           int64     `json:"id"`
	Name         string    `json:"nome"`
	OriginalName string    `json:"originalname"`
	Type         string    `json:"tipo"`
	Size         int64     `json:"tamanho"`
	Local        string    `json:"local"`
	URL          string    `json:"url"`
	Width        int       `json:"width"`
	Height       int       `json:"height"`
	CreatedAt    time.Time `json:"data_criacao"`
	UpdatedAt    time.Time `json:"data_atualizacao"`
}

// Post is a blog entry as served by the Mural API.
type Post struct {
	ID        int64     `json:"id"`
	Title     string    `json:"titulo"`
	Content   string    `json:"conteudo"`
	Visible   bool      `json:"visivel"`
	CreatedBy string    `json:"usuario_cadastrador"`
	UpdatedBy string    `json:"usuario_atualizador"`
	CreatedAt time.Time `json:"data_criacao"`
	UpdatedAt time.Time `json:"data_atualizacao"`
	Photo     *Photo    `json:"foto,omitempty"`
}

// PostPage is one page of posts plus the total reported by X-Total-Count.
type PostPage struct {
	Posts []Post
	Total int
}

// PostInput carries the fields submitted when creating or updating a post.
// Cover is optional.
type PostInput struct {
	Title   string
	Content string
	Visible bool
	Cover   *FormFile
}

// ListPosts fetches the public feed from GET /posts.
func (c *Client) ListPosts(ctx context.Context, page int, filter string, limit int) (*PostPage, error) {
	return c.listPosts(ctx, "/posts", "", page, filter, limit)
}

// ListPostsLogged fetches the authenticated feed, hidden posts included,
// from GET /posts/logged.
func (c *Client) ListPostsLogged(ctx context.Context, token string, page int, filter string, limit int) (*PostPage, error) {
	return c.listPosts(ctx, "/posts/logged", token, page, filter, limit)
}

func (c *Client) listPosts(ctx context.Context, path, token string, page int, filter string, limit int) (*PostPage, error) {
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	if filter != "" {
		query.Set("filter", filter)
	}
	query.Set("limit", strconv.Itoa(limit))

	var posts []Post
	header, err := c.Get(ctx, path, token, query, &posts)
	if err != nil {
		return nil, err
	}
	total, err := strconv.Atoi(header.Get("X-Total-Count"))
	if err != nil {
		total = len(posts)
	}
	return &PostPage{Posts: posts, Total: total}, nil
}

// GetPost fetches a single post from GET /posts/{id}.
func (c *Client) GetPost(ctx context.Context, token string, id int64) (*Post, error) {
	var post Post
	if _, err := c.Get(ctx, fmt.Sprintf("/posts/%d", id), token, nil, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// CreatePost submits a new post as multipart form data to POST /posts.
func (c *Client) CreatePost(ctx context.Context, token string, input PostInput) error {
	fields, files := postForm(input)
	return c.SendForm(ctx, "POST", "/posts", token, fields, files, nil)
}

// UpdatePost updates an existing post via PUT /posts/{id}.
func (c *Client) UpdatePost(ctx context.Context, token string, id int64, input PostInput) error {
	fields, files := postForm(input)
	return c.SendForm(ctx, "PUT", fmt.Sprintf("/posts/%d", id), token, fields, files, nil)
}

// DeletePost removes a post via DELETE /posts/{id}.
func (c *Client) DeletePost(ctx context.Context, token string, id int64) error {
	return c.Delete(ctx, fmt.Sprintf("/posts/%d", id), token)
}

// DeletePostCover removes a post's cover photo via DELETE /posts/capa/{id}.
func (c *Client) DeletePostCover(ctx context.Context, token string, id int64) error {
	return c.Delete(ctx, fmt.Sprintf("/posts/capa/%d", id), token)
}

func postForm(input PostInput) (map[string]string, []FormFile) {
	fields := map[string]string{
		"titulo":   input.Title,
		"conteudo": input.Content,
		"visivel":  strconv.FormatBool(input.Visible),
	}
	var files []FormFile
	if input.Cover != nil {
		cover := *input.Cover
		if cover.Field == "" {
			cover.Field = "capa"
		}
		files = append(files, cover)
	}
	return fields, files
}
