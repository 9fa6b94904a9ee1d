package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// ErrUploadFailed is the generic failure surfaced for anything that is
// not a rate limit; raw causes are never shown.
var ErrUploadFailed = errors.New("Something went wrong while uploading. Please try again.")

const (
	defaultRetryAfter       = 3600 * time.Second
	defaultRateLimitMessage = "You’ve hit the upload limit. Please try again later."
)

// RateLimitError is returned on HTTP 429 with the server's message and
// the retry delay it advertised.
type RateLimitError struct {
	Message    string
	RetryAfter time.Duration
}

// Minutes is the retry delay rounded up to whole minutes.
func (e *RateLimitError) Minutes() int {
	minutes := int((e.RetryAfter + time.Minute - 1) / time.Minute)
	if minutes < 1 {
		minutes = 1
	}
	return minutes
}

func (e *RateLimitError) Error() string {
	minutes := e.Minutes()
	plural := ""
	if minutes > 1 {
		plural = "s"
	}
	return fmt.Sprintf("%s Try again in about %d minute%s.", e.Message, minutes, plural)
}

// Uploader posts files to the server's upload endpoint.
type Uploader struct {
	BaseURL    string
	HTTPClient *http.Client
}

// Upload sends exactly one file as the multipart "file" field plus a
// "name" field and returns the shareable location from the response,
// trying the path field, then url, then the raw body.
func (u *Uploader) Upload(ctx context.Context, name string, r io.Reader) (string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	if err := writer.WriteField("name", name); err != nil {
		return "", ErrUploadFailed
	}
	part, err := writer.CreateFormFile("file", name)
	if err != nil {
		return "", ErrUploadFailed
	}
	if _, err := io.Copy(part, r); err != nil {
		return "", ErrUploadFailed
	}
	if err := writer.Close(); err != nil {
		return "", ErrUploadFailed
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.BaseURL+"/upload", &buf)
	if err != nil {
		return "", ErrUploadFailed
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := u.httpClient().Do(req)
	if err != nil {
		return "", ErrUploadFailed
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", ErrUploadFailed
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return "", rateLimitError(resp, body)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", ErrUploadFailed
	}

	return shareLocation(body), nil
}

// shareLocation normalizes the success envelope.
func shareLocation(body []byte) string {
	var envelope struct {
		Path string `json:"path"`
		URL  string `json:"url"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil {
		if envelope.Path != "" {
			return envelope.Path
		}
		if envelope.URL != "" {
			return envelope.URL
		}
	}
	return strings.TrimSpace(string(body))
}

// rateLimitError reads the retry delay from the Retry-After header, then
// the body's retryAfterSeconds field, defaulting to one hour.
func rateLimitError(resp *http.Response, body []byte) *RateLimitError {
	var payload struct {
		Error             string `json:"error"`
		RetryAfterSeconds int    `json:"retryAfterSeconds"`
	}
	_ = json.Unmarshal(body, &payload)

	retryAfter := defaultRetryAfter
	if header := resp.Header.Get("Retry-After"); header != "" {
		if seconds, err := strconv.Atoi(header); err == nil && seconds > 0 {
			retryAfter = time.Duration(seconds) * time.Second
		}
	} else if payload.RetryAfterSeconds > 0 {
		retryAfter = time.Duration(payload.RetryAfterSeconds) * time.Second
	}

	message := payload.Error
	if message == "" {
		message = defaultRateLimitMessage
	}

	return &RateLimitError{Message: message, RetryAfter: retryAfter}
}

func (u *Uploader) httpClient() *http.Client {
	if u.HTTPClient != nil {
		return u.HTTPClient
	}
	return http.DefaultClient
}
