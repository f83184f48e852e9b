// Package vendure is a thin authenticated client for the Vendure admin
// GraphQL API and its sibling asset-upload route. It owns the session
// cookies and channel token captured at login and attaches them to every
// subsequent request.
package vendure

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"strings"
	"time"
)

const defaultTimeout = 60 * time.Second

type Client struct {
	apiURL     string
	uploadURL  string
	username   string
	password   string
	httpClient *http.Client

	sessionCookie string
	channelToken  string
}

func NewClient(apiURL, username, password string) *Client {
	apiURL = strings.TrimSuffix(apiURL, "/")

	// The AssetServerPlugin route lives at the root, not under admin-api.
	base := strings.TrimSuffix(apiURL, "/admin-api")

	return &Client{
		apiURL:    apiURL,
		uploadURL: base + "/assets",
		username:  username,
		password:  password,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}
}

const loginMutation = `
mutation Login($username: String!, $password: String!) {
  login(username: $username, password: $password) {
    ... on CurrentUser {
      id
      identifier
      channels {
        id
        token
      }
    }
  }
}`

type loginData struct {
	Login struct {
		ID         string `json:"id"`
		Identifier string `json:"identifier"`
		Channels   []struct {
			ID    string `json:"id"`
			Token string `json:"token"`
		} `json:"channels"`
	} `json:"login"`
}

// Authenticate performs the login mutation once, retaining every session
// cookie the backend sets and the token of the first channel on the
// authenticated identity. It must run before any other call.
func (c *Client) Authenticate(ctx context.Context) error {
	body, err := json.Marshal(map[string]any{
		"query": loginMutation,
		"variables": map[string]any{
			"username": c.username,
			"password": c.password,
		},
	})
	if err != nil {
		return &AuthError{Reason: "marshal login request", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return &AuthError{Reason: "create login request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &AuthError{Reason: "login request failed", Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &AuthError{Reason: "read login response", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &AuthError{Reason: "login rejected", Err: &TransportError{Status: resp.StatusCode, Body: string(respBody)}}
	}

	// The backend may set several cookies across redirects and middleware;
	// keep all of them, not just the first.
	var cookies []string
	for _, header := range resp.Header.Values("Set-Cookie") {
		for _, raw := range strings.Split(header, ",") {
			cookie := strings.TrimSpace(strings.SplitN(raw, ";", 2)[0])
			if cookie != "" && strings.Contains(cookie, "=") {
				cookies = append(cookies, cookie)
			}
		}
	}
	if len(cookies) > 0 {
		c.sessionCookie = strings.Join(cookies, "; ")
		slog.Debug("session cookies captured", "phase", "auth", "cookies", len(cookies))
	} else {
		slog.Warn("no cookies found in login response", "phase", "auth")
	}

	var envelope struct {
		Data   json.RawMessage    `json:"data"`
		Errors []GraphQLErrorItem `json:"errors"`
	}
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return &AuthError{Reason: "decode login response", Err: err}
	}
	if len(envelope.Errors) > 0 {
		return &AuthError{Reason: "login rejected", Err: &GraphQLError{Errors: envelope.Errors}}
	}

	var data loginData
	if err := json.Unmarshal(envelope.Data, &data); err != nil {
		return &AuthError{Reason: "decode login payload", Err: err}
	}
	if len(data.Login.Channels) == 0 {
		return &AuthError{Reason: "no channel on authenticated user"}
	}

	c.channelToken = data.Login.Channels[0].Token
	slog.Info("authenticated", "phase", "auth", "identifier", data.Login.Identifier)
	return nil
}

// Execute posts a GraphQL operation and decodes the data payload into out
// (which may be nil when the caller only cares about success). Non-2xx
// responses surface as TransportError, GraphQL errors as GraphQLError.
func (c *Client) Execute(ctx context.Context, query string, variables map[string]any, out any) error {
	if variables == nil {
		variables = map[string]any{}
	}

	body, err := json.Marshal(map[string]any{
		"query":     query,
		"variables": variables,
	})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.setSessionHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &TransportError{Status: resp.StatusCode, Body: string(respBody)}
	}

	var envelope struct {
		Data   json.RawMessage    `json:"data"`
		Errors []GraphQLErrorItem `json:"errors"`
	}
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if len(envelope.Errors) > 0 {
		return &GraphQLError{Errors: envelope.Errors}
	}

	if out != nil {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return fmt.Errorf("decode data payload: %w", err)
		}
	}
	return nil
}

// UploadBinary posts a file to the asset route as multipart form data and
// returns the created asset ID. The upload response contract is loose, so
// the decode tries each documented shape in order.
func (c *Client) UploadBinary(ctx context.Context, filePath, filename, contentType string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("open upload file: %w", err)
	}
	defer file.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	if err != nil {
		return "", fmt.Errorf("create form part: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", fmt.Errorf("copy file content: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.uploadURL, &body)
	if err != nil {
		return "", fmt.Errorf("create upload request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	c.setSessionHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read upload response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &TransportError{Status: resp.StatusCode, Body: string(respBody)}
	}

	return decodeAssetID(respBody)
}

// decodeAssetID extracts the asset ID from an upload response. Three shapes
// have been observed in the wild: a bare object with an id, a GraphQL
// createAssets payload, and a bare array of assets.
func decodeAssetID(body []byte) (string, error) {
	var plain struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &plain); err == nil && plain.ID != "" {
		return plain.ID, nil
	}

	var nested struct {
		Data struct {
			CreateAssets []struct {
				ID string `json:"id"`
			} `json:"createAssets"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &nested); err == nil && len(nested.Data.CreateAssets) > 0 && nested.Data.CreateAssets[0].ID != "" {
		return nested.Data.CreateAssets[0].ID, nil
	}

	var list []struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &list); err == nil && len(list) > 0 && list[0].ID != "" {
		return list[0].ID, nil
	}

	return "", &UnexpectedResponseError{Body: string(body)}
}

func (c *Client) setSessionHeaders(req *http.Request) {
	if c.sessionCookie != "" {
		req.Header.Set("Cookie", c.sessionCookie)
	}
	if c.channelToken != "" {
		req.Header.Set("vendure-token", c.channelToken)
	}
}
