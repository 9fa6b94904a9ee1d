// Package b2 implements the subset of the Backblaze B2 native API this
// service needs: account authorization, per-file upload URLs, raw uploads,
// download authorizations and downloads by file id.
package b2

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const (
	// DefaultAPIBase is where b2_authorize_account lives; every other call
	// goes to the API or download host returned by the authorization.
	DefaultAPIBase = "https://api.backblazeb2.com"

	apiPrefix = "/b2api/v2"

	// sha1DoNotVerify tells B2 to skip content-hash verification on upload.
	// A deliberate relaxation, matching the service's integrity policy.
	sha1DoNotVerify = "do_not_verify"

	defaultContentType = "application/octet-stream"
)

// Client talks to the B2 API for a single bucket. Authorization is not
// cached; callers obtain a fresh Auth per request via Authorize.
type Client struct {
	AccountID      string
	ApplicationKey string
	BucketID       string
	BucketName     string

	// APIBase overrides the authorization endpoint, used by tests.
	APIBase string

	HTTPClient *http.Client
}

func New(accountID, applicationKey, bucketID, bucketName string) *Client {
	return &Client{
		AccountID:      accountID,
		ApplicationKey: applicationKey,
		BucketID:       bucketID,
		BucketName:     bucketName,
	}
}

// Auth is the per-request authorization context returned by Authorize.
type Auth struct {
	APIURL      string `json:"apiUrl"`
	DownloadURL string `json:"downloadUrl"`
	Token       string `json:"authorizationToken"`
}

// UploadTarget is a dedicated upload URL with its short-lived token.
type UploadTarget struct {
	UploadURL string `json:"uploadUrl"`
	Token     string `json:"authorizationToken"`
}

// apiError is B2's JSON error body.
type apiError struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Authorize obtains a fresh authorization context. It fails when the
// provider response lacks the API or download base URLs.
func (c *Client) Authorize(ctx context.Context) (*Auth, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiBase()+apiPrefix+"/b2_authorize_account", nil)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(c.AccountID, c.ApplicationKey)

	var auth Auth
	if err := c.do(req, &auth); err != nil {
		return nil, fmt.Errorf("authorize failed: %w", err)
	}
	if auth.APIURL == "" || auth.DownloadURL == "" || auth.Token == "" {
		return nil, errors.New("authorize returned incomplete data")
	}
	return &auth, nil
}

// GetUploadURL requests a dedicated upload URL scoped to the bucket.
func (c *Client) GetUploadURL(ctx context.Context, auth *Auth) (*UploadTarget, error) {
	var target UploadTarget
	err := c.post(ctx, auth.APIURL+apiPrefix+"/b2_get_upload_url", auth.Token,
		map[string]any{"bucketId": c.BucketID}, &target)
	if err != nil {
		return nil, fmt.Errorf("failed to get upload url: %w", err)
	}
	if target.UploadURL == "" || target.Token == "" {
		return nil, errors.New("get upload url returned incomplete data")
	}
	return &target, nil
}

// Upload sends raw bytes to a dedicated upload URL and returns the
// provider's file id.
func (c *Client) Upload(ctx context.Context, target *UploadTarget, key, contentType string, data []byte) (string, error) {
	if contentType == "" {
		contentType = defaultContentType
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target.UploadURL, bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", target.Token)
	req.Header.Set("X-Bz-File-Name", url.PathEscape(key))
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("X-Bz-Content-Sha1", sha1DoNotVerify)
	req.ContentLength = int64(len(data))

	var uploaded struct {
		FileID string `json:"fileId"`
	}
	if err := c.do(req, &uploaded); err != nil {
		return "", fmt.Errorf("upload failed: %w", err)
	}
	if uploaded.FileID == "" {
		return "", errors.New("upload failed: unexpected provider response")
	}
	return uploaded.FileID, nil
}

// GetDownloadAuthorization issues a token allowing reads of objects whose
// names start with prefix, valid for the given duration.
func (c *Client) GetDownloadAuthorization(ctx context.Context, auth *Auth, prefix string, validFor time.Duration) (string, error) {
	var res struct {
		Token string `json:"authorizationToken"`
	}
	err := c.post(ctx, auth.APIURL+apiPrefix+"/b2_get_download_authorization", auth.Token,
		map[string]any{
			"bucketId":               c.BucketID,
			"fileNamePrefix":         prefix,
			"validDurationInSeconds": int(validFor.Seconds()),
		}, &res)
	if err != nil {
		return "", fmt.Errorf("failed to get download authorization: %w", err)
	}
	if res.Token == "" {
		return "", errors.New("download authorization returned no token")
	}
	return res.Token, nil
}

// DownloadByID fetches an object by the provider's file id. The caller
// owns the returned body; it streams straight from the provider.
func (c *Client) DownloadByID(ctx context.Context, auth *Auth, fileID string) (io.ReadCloser, string, error) {
	u := auth.DownloadURL + apiPrefix + "/b2_download_file_by_id?fileId=" + url.QueryEscape(fileID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("Authorization", auth.Token)

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("download failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, "", fmt.Errorf("download failed: %w", responseError(resp))
	}
	return resp.Body, resp.Header.Get("Content-Type"), nil
}

// DownloadURL composes the shareable URL for an object key using a
// download authorization token.
func (c *Client) DownloadURL(auth *Auth, key, token string) string {
	return fmt.Sprintf("%s/file/%s/%s?Authorization=%s", auth.DownloadURL, c.BucketName, url.PathEscape(key), token)
}

func (c *Client) post(ctx context.Context, url, token string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", token)
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

// do runs a request and decodes a JSON body into out. Non-2xx responses
// surface the provider's error message, never credentials.
func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient().Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return responseError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode provider response: %w", err)
	}
	return nil
}

func responseError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var apiErr apiError
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Message != "" {
		return fmt.Errorf("provider error (%s): %s", apiErr.Code, apiErr.Message)
	}
	return fmt.Errorf("provider returned status %d", resp.StatusCode)
}

func (c *Client) apiBase() string {
	if c.APIBase != "" {
		return c.APIBase
	}
	return DefaultAPIBase
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}
