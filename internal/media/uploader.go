// Package media talks to the external object-storage provider that hosts
// uploaded images and audio.
package media

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// ErrUpload indicates the provider rejected or failed the upload.
var ErrUpload = errors.New("media upload failed")

// Uploader is the gateway contract the catalog depends on. Upload moves a
// local temporary file to durable storage and returns its URL; the local file
// is removed exactly once whether the upload succeeds or fails.
// DeleteByReference is best-effort: a failure must not block the owning
// entity's deletion.
type Uploader interface {
	Upload(ctx context.Context, localPath, folder string) (string, error)
	DeleteByReference(ctx context.Context, assetURL string) error
}

// Client uploads to an HTTP object-store endpoint.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a Client for the given provider endpoint.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type uploadResponse struct {
	URL string `json:"url"`
}

// Upload sends the file at localPath to the provider under the given logical
// folder and returns the durable URL.
func (c *Client) Upload(ctx context.Context, localPath, folder string) (string, error) {
	defer func() {
		_ = os.Remove(localPath)
	}()

	file, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("open upload file: %w", err)
	}
	defer file.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	key := folder + "/" + uuid.New().String() + filepath.Ext(localPath)
	if err := writer.WriteField("key", key); err != nil {
		return "", fmt.Errorf("write key field: %w", err)
	}
	part, err := writer.CreateFormFile("file", filepath.Base(localPath))
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", fmt.Errorf("copy upload file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("finish multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload", &body)
	if err != nil {
		return "", fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpload, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("%w: provider returned %s", ErrUpload, resp.Status)
	}

	var parsed uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", ErrUpload, err)
	}
	if parsed.URL == "" {
		return "", fmt.Errorf("%w: provider returned no url", ErrUpload)
	}
	return parsed.URL, nil
}

// DeleteByReference asks the provider to remove the asset behind assetURL.
func (c *Client) DeleteByReference(ctx context.Context, assetURL string) error {
	endpoint := c.baseURL + "/assets?url=" + url.QueryEscape(assetURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build delete request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("delete asset: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 && resp.StatusCode != http.StatusNotFound {
		return fmt.Errorf("delete asset: provider returned %s", resp.Status)
	}
	return nil
}
