package server

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/sadeshahansana5-cloud/G-Create-Bot/config"
	"github.com/sadeshahansana5-cloud/G-Create-Bot/metrics"
	"github.com/sadeshahansana5-cloud/G-Create-Bot/middleware"
	"github.com/sadeshahansana5-cloud/G-Create-Bot/utils"
)

const (
	runtimeRateLimit  = 30
	runtimeRateWindow = time.Minute
)

// CreateFiberApp builds the HTTP application served by the runner. rdb may be
// nil, in which case rate limiting state stays in memory.
func CreateFiberApp(cfg *config.Config, readyState *ReadyState, rdb *redis.Client) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               cfg.ServiceName,
		DisableStartupMessage: true,
		BodyLimit:             64 * 1024,
		IdleTimeout:           2 * time.Minute,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			message := "Internal Server Error"

			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
				message = e.Message
			} else {
				// Log server errors but don't expose details
				metrics.IncrementError("http", "handler")
				utils.LogRequestError(c, cfg.TrustProxyHeaders, "HTTP_ERROR", err)
			}

			return c.Status(code).JSON(fiber.Map{"error": message})
		},
	})

	app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(c *fiber.Ctx, e interface{}) {
			metrics.IncrementError("panic", "handler")
			utils.LogRequestError(c, cfg.TrustProxyHeaders, "PANIC RECOVERED", fmt.Errorf("%v", e),
				"user_agent", c.Get("User-Agent"),
			)
		},
	}))

	app.Use(helmet.New(helmet.Config{
		XSSProtection:  "1; mode=block",
		ReferrerPolicy: "no-referrer",
	}))

	// Request ID middleware for error correlation
	app.Use(func(c *fiber.Ctx) error {
		requestID := uuid.New().String()
		c.Locals("request_id", requestID)
		c.Set("X-Request-ID", requestID)
		return c.Next()
	})

	app.Use(logger.New(logger.Config{
		Output: utils.InfoLogger.Writer(),
		Format: "[${time}] ${locals:request_id} ${status} - ${method} ${path} - ${ip} - ${latency}\n",
	}))

	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	if cfg.MetricsEnabled {
		app.Use(metrics.PrometheusMiddleware())
		app.Get("/metrics", HTTPHandler(promhttp.Handler()))
	}

	// Keepalive for uptime pingers
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString(cfg.KeepaliveMessage)
	})

	api := app.Group("/api/v1")

	api.Get("/health/live", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":    "live",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"uptime":    readyState.Uptime().String(),
		})
	})

	api.Get("/health/ready", func(c *fiber.Ctx) error {
		state := readyState.State()
		health := fiber.Map{
			"timestamp":    time.Now().UTC().Format(time.RFC3339),
			"uptime":       readyState.Uptime().String(),
			"state":        state.String(),
			"dependencies": readyState.Dependencies(),
		}

		switch {
		case state != StateServing:
			health["status"] = state.String()
			return c.Status(fiber.StatusServiceUnavailable).JSON(health)
		case !readyState.DependenciesHealthy():
			health["status"] = "unhealthy"
			return c.Status(fiber.StatusServiceUnavailable).JSON(health)
		default:
			health["status"] = "ready"
			return c.JSON(health)
		}
	})

	if len(cfg.RuntimeJWTSecret) > 0 {
		api.Get("/runtime",
			middleware.RuntimeLimiter(rdb, cfg.TrustProxyHeaders, runtimeRateLimit, runtimeRateWindow),
			middleware.RuntimeTokenMiddleware(cfg.RuntimeJWTSecret),
			func(c *fiber.Ctx) error {
				return c.JSON(fiber.Map{
					"subject":      c.Locals("subject"),
					"state":        readyState.State().String(),
					"uptime":       readyState.Uptime().String(),
					"config":       cfg.Redacted(),
					"dependencies": readyState.Dependencies(),
				})
			},
		)
	}

	return app
}
