package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
)

func newLimitedApp(max int) *fiber.App {
	app := fiber.New()
	app.Post("/upload", UploadLimiter(max), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"fileId": "x", "url": "y"})
	})
	return app
}

func doPost(t *testing.T, app *fiber.App) *http.Response {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/upload", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}

func TestUploadLimiterCeiling(t *testing.T) {
	const max = 3
	app := newLimitedApp(max)

	for i := 1; i <= max; i++ {
		resp := doPost(t, app)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("request %d: status %d, want 200", i, resp.StatusCode)
		}
	}

	resp := doPost(t, app)
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("request %d: status %d, want 429", max+1, resp.StatusCode)
	}

	if resp.Header.Get(fiber.HeaderRetryAfter) == "" {
		t.Error("429 response missing Retry-After header")
	}
	if got := resp.Header.Get("X-RateLimit-Limit"); got != "3" {
		t.Errorf("429 X-RateLimit-Limit = %q, want 3", got)
	}
	if got := resp.Header.Get("X-RateLimit-Remaining"); got != "0" {
		t.Errorf("429 X-RateLimit-Remaining = %q, want 0", got)
	}

	var body struct {
		Error             string `json:"error"`
		RetryAfterSeconds int    `json:"retryAfterSeconds"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Error == "" {
		t.Error("429 body missing human-readable message")
	}
	if body.RetryAfterSeconds <= 0 || body.RetryAfterSeconds > 3600 {
		t.Errorf("retryAfterSeconds = %d, want within the hour window", body.RetryAfterSeconds)
	}
}

func TestLimiterEmitsStandardHeaders(t *testing.T) {
	app := newLimitedApp(5)

	resp := doPost(t, app)
	if got := resp.Header.Get("X-RateLimit-Limit"); got != "5" {
		t.Errorf("X-RateLimit-Limit = %q, want 5", got)
	}
	if resp.Header.Get("X-RateLimit-Remaining") == "" {
		t.Error("missing X-RateLimit-Remaining header")
	}
}

func TestLimiterKeysByUserWhenAuthenticated(t *testing.T) {
	app := fiber.New()
	// Simulate upstream auth by lifting the user id from a test header.
	app.Use(func(c *fiber.Ctx) error {
		if id := c.Get("X-Test-User"); id != "" {
			c.Locals("user_id", id)
		}
		return c.Next()
	})
	app.Post("/upload", UploadLimiter(1), func(c *fiber.Ctx) error {
		return c.SendStatus(http.StatusOK)
	})

	asUser := func(id string) int {
		req := httptest.NewRequest(http.MethodPost, "/upload", nil)
		if id != "" {
			req.Header.Set("X-Test-User", id)
		}
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		return resp.StatusCode
	}

	if got := asUser("alice"); got != http.StatusOK {
		t.Fatalf("alice first request: %d", got)
	}
	// A different identity from the same address has its own budget.
	if got := asUser("bob"); got != http.StatusOK {
		t.Fatalf("bob first request: %d", got)
	}
	if got := asUser("alice"); got != http.StatusTooManyRequests {
		t.Fatalf("alice second request: %d, want 429", got)
	}
}

func TestUploadAndDownloadLimitersAreIndependent(t *testing.T) {
	app := fiber.New()
	app.Post("/upload", UploadLimiter(1), func(c *fiber.Ctx) error {
		return c.SendStatus(http.StatusOK)
	})
	app.Get("/file/:fileId", DownloadLimiter(2), func(c *fiber.Ctx) error {
		return c.SendStatus(http.StatusOK)
	})

	// Exhaust the upload budget.
	if resp := doPost(t, app); resp.StatusCode != http.StatusOK {
		t.Fatalf("upload: %d", resp.StatusCode)
	}
	if resp := doPost(t, app); resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("upload over budget: %d, want 429", resp.StatusCode)
	}

	// Downloads still have their own budget.
	for i := 0; i < 2; i++ {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/file/abc", nil))
		if err != nil {
			t.Fatalf("download request failed: %v", err)
		}
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("download %d: %d", i, resp.StatusCode)
		}
	}
}

func TestRateLimitErrorRetryHint(t *testing.T) {
	// With a one-hour window the first rejection's hint stays within the
	// window; this only pins the shape, not exact timing.
	app := newLimitedApp(1)
	doPost(t, app)

	start := time.Now()
	resp := doPost(t, app)
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("status %d, want 429", resp.StatusCode)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Logf("limiter response took %v", elapsed)
	}
}
