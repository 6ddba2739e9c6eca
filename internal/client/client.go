// Package client provides a Go client for the Pulsefeed API.
package client

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pulsefeed/pulsefeed/internal/model"
)

// TokenHeader is the header carrying the signed token on protected requests.
const TokenHeader = "x-auth-token"

// ErrAlreadyRegistered is returned when registering an email that is taken.
var ErrAlreadyRegistered = errors.New("already registered")

// Client is a Pulsefeed API client.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Token      string
}

// New creates a new Pulsefeed client.
func New(baseURL string) *Client {
	return &Client{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Register creates a new account and stores the returned token on the client.
func (c *Client) Register(name, email, password string) error {
	reqBody := map[string]string{
		"name":     name,
		"email":    email,
		"password": password,
	}
	resp, err := c.doRequest(http.MethodPost, "/api/users", reqBody)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode == http.StatusBadRequest && bytes.Contains(respBody, []byte("already exists")) {
		return ErrAlreadyRegistered
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("register failed (%d): %s", resp.StatusCode, string(respBody))
	}

	var result struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return err
	}
	c.Token = result.Token
	return nil
}

// Login exchanges email and password for a token and stores it on the client.
func (c *Client) Login(email, password string) error {
	reqBody := map[string]string{"email": email, "password": password}
	resp, err := c.doRequest(http.MethodPost, "/api/auth", reqBody)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("login failed (%d): %s", resp.StatusCode, string(respBody))
	}

	var result struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return err
	}
	c.Token = result.Token
	return nil
}

// IsAuthenticated returns true if the client holds a token.
func (c *Client) IsAuthenticated() bool {
	return c.Token != ""
}

// CurrentUser fetches the user behind the client's token.
func (c *Client) CurrentUser() (*model.User, error) {
	resp, err := c.doRequest(http.MethodGet, "/api/auth", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("current user failed (%d): %s", resp.StatusCode, string(body))
	}

	var user model.User
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, err
	}
	return &user, nil
}

// CreatePost creates a new post.
func (c *Client) CreatePost(text string) (*model.Post, error) {
	resp, err := c.doRequest(http.MethodPost, "/api/posts", map[string]string{"text": text})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("create post failed (%d): %s", resp.StatusCode, string(body))
	}

	var post model.Post
	if err := json.NewDecoder(resp.Body).Decode(&post); err != nil {
		return nil, err
	}
	return &post, nil
}

// ListPosts fetches all posts, newest first.
func (c *Client) ListPosts() ([]model.Post, error) {
	resp, err := c.doRequest(http.MethodGet, "/api/posts", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("list posts failed (%d): %s", resp.StatusCode, string(body))
	}

	var posts []model.Post
	if err := json.NewDecoder(resp.Body).Decode(&posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// GetPost fetches a single post by id.
func (c *Client) GetPost(id string) (*model.Post, error) {
	resp, err := c.doRequest(http.MethodGet, "/api/posts/"+id, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("get post failed (%d): %s", resp.StatusCode, string(body))
	}

	var post model.Post
	if err := json.NewDecoder(resp.Body).Decode(&post); err != nil {
		return nil, err
	}
	return &post, nil
}

// DeletePost deletes one of the client's own posts.
func (c *Client) DeletePost(id string) error {
	resp, err := c.doRequest(http.MethodDelete, "/api/posts/"+id, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("delete post failed (%d): %s", resp.StatusCode, string(body))
	}
	return nil
}

// Like adds the client's like to a post and returns the updated likes.
func (c *Client) Like(postID string) ([]model.Like, error) {
	resp, err := c.doRequest(http.MethodPut, "/api/posts/"+postID+"/like", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("like failed (%d): %s", resp.StatusCode, string(body))
	}

	var likes []model.Like
	if err := json.NewDecoder(resp.Body).Decode(&likes); err != nil {
		return nil, err
	}
	return likes, nil
}

// Unlike removes the client's like from a post and returns the updated likes.
func (c *Client) Unlike(postID string) ([]model.Like, error) {
	resp, err := c.doRequest(http.MethodDelete, "/api/posts/"+postID+"/like", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("unlike failed (%d): %s", resp.StatusCode, string(body))
	}

	var likes []model.Like
	if err := json.NewDecoder(resp.Body).Decode(&likes); err != nil {
		return nil, err
	}
	return likes, nil
}

// AddComment comments on a post and returns the updated comments.
func (c *Client) AddComment(postID, text string) ([]model.Comment, error) {
	resp, err := c.doRequest(http.MethodPost, "/api/posts/"+postID+"/comments", map[string]string{"text": text})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("add comment failed (%d): %s", resp.StatusCode, string(body))
	}

	var comments []model.Comment
	if err := json.NewDecoder(resp.Body).Decode(&comments); err != nil {
		return nil, err
	}
	return comments, nil
}

// ListComments fetches a post's comments, newest first.
func (c *Client) ListComments(postID string) ([]model.Comment, error) {
	resp, err := c.doRequest(http.MethodGet, "/api/posts/"+postID+"/comments", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("list comments failed (%d): %s", resp.StatusCode, string(body))
	}

	var comments []model.Comment
	if err := json.NewDecoder(resp.Body).Decode(&comments); err != nil {
		return nil, err
	}
	return comments, nil
}

// DeleteComment deletes one of the client's own comments and returns the
// updated comments.
func (c *Client) DeleteComment(postID, commentID string) ([]model.Comment, error) {
	resp, err := c.doRequest(http.MethodDelete, "/api/posts/"+postID+"/comments/"+commentID, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("delete comment failed (%d): %s", resp.StatusCode, string(body))
	}

	var comments []model.Comment
	if err := json.NewDecoder(resp.Body).Decode(&comments); err != nil {
		return nil, err
	}
	return comments, nil
}

// Stats fetches site statistics.
func (c *Client) Stats() (map[string]int64, error) {
	resp, err := c.doRequest(http.MethodGet, "/api/stats", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("stats failed (%d): %s", resp.StatusCode, string(body))
	}

	var stats map[string]int64
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		return nil, err
	}
	return stats, nil
}

// Version fetches server build information.
func (c *Client) Version() (map[string]any, error) {
	resp, err := c.doRequest(http.MethodGet, "/api/version", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("version failed (%d): %s", resp.StatusCode, string(body))
	}

	var info map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, err
	}
	return info, nil
}

// doRequest performs an HTTP request, attaching the token when present.
func (c *Client) doRequest(method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequest(method, c.BaseURL+path, bodyReader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.Token != "" {
		req.Header.Set(TokenHeader, c.Token)
	}
	return c.HTTPClient.Do(req)
}

// TestHelper provides utilities for creating authenticated clients in tests.
type TestHelper struct {
	BaseURL string
}

// NewTestHelper creates a new test helper for the given base URL.
func NewTestHelper(baseURL string) *TestHelper {
	return &TestHelper{BaseURL: baseURL}
}

// CreateAuthenticatedClient registers an account named after name and returns
// an authenticated client. This is a convenience method for tests.
func (h *TestHelper) CreateAuthenticatedClient(name string) (*Client, error) {
	c := New(h.BaseURL)
	email := fmt.Sprintf("%s@example.com", name)
	if err := c.Register(name, email, "password123"); err != nil {
		if !errors.Is(err, ErrAlreadyRegistered) {
			return nil, err
		}
		if err := c.Login(email, "password123"); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// GetToken registers an account (if needed) and returns a token string.
func (h *TestHelper) GetToken(name string) (string, error) {
	c, err := h.CreateAuthenticatedClient(name)
	if err != nil {
		return "", err
	}
	return c.Token, nil
}
