package middleware

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

const defaultRetryAfterSeconds = 3600

// UploadLimiter caps uploads per key per rolling hour. Uploads are capped
// much lower than downloads.
func UploadLimiter(max int) fiber.Handler {
	return rateLimit(max, time.Hour, "Too many uploads, try again later.")
}

// DownloadLimiter caps downloads per key per rolling hour.
func DownloadLimiter(max int) fiber.Handler {
	return rateLimit(max, time.Hour, "Too many downloads from this IP, slow down.")
}

// rateLimit builds a sliding-window limiter keyed by the authenticated
// user when present, else the client address. Window accounting is in
// memory only; it does not survive restarts.
func rateLimit(max int, window time.Duration, message string) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:               max,
		Expiration:        window,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      limiterKey,
		LimitReached:      limitReached(max, message),
	})
}

func limiterKey(c *fiber.Ctx) string {
	if id, ok := c.Locals("user_id").(string); ok && id != "" {
		return id
	}
	return c.IP()
}

// limitReached responds 429 with a retry hint. The limiter has already set
// the Retry-After header by the time this runs, but only sets the
// X-RateLimit-* pair on allowed requests, so the rejection fills them in
// itself to keep the standard headers on every response.
func limitReached(max int, message string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		retryAfter, err := strconv.Atoi(c.GetRespHeader(fiber.HeaderRetryAfter))
		if err != nil || retryAfter <= 0 {
			retryAfter = defaultRetryAfterSeconds
		}
		c.Set("X-RateLimit-Limit", strconv.Itoa(max))
		c.Set("X-RateLimit-Remaining", "0")
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
			"error":             message,
			"retryAfterSeconds": retryAfter,
		})
	}
}
