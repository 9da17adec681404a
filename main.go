package main

import (
	"context"
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/datasciritwik/ai-interview/capture"
	"github.com/datasciritwik/ai-interview/collector"
	"github.com/datasciritwik/ai-interview/config"
	"github.com/datasciritwik/ai-interview/runner"
	"github.com/datasciritwik/ai-interview/session"
)

type startRequest struct {
	Source string `json:"source"`
}

type executeRequest struct {
	Language string `json:"language"`
	Code     string `json:"code"`
}

func newDevice(cfg config.Config) capture.Device {
	if cfg.CaptureDevice == "ffmpeg" {
		return &capture.FFmpegDevice{}
	}
	return &capture.SyntheticDevice{}
}

func main() {
	cfg := config.Load()

	sess, err := session.New(newDevice(cfg), session.Options{
		CollectorURL: cfg.CollectorURL,
	})
	if err != nil {
		log.Fatalf("session setup failed: %v", err)
	}
	defer sess.Cleanup()

	runnerClient, err := runner.NewClient(cfg.RunnerURL)
	if err != nil {
		log.Fatalf("runner setup failed: %v", err)
	}

	coll, err := collector.New(cfg.RecordingsDir)
	if err != nil {
		log.Fatalf("collector setup failed: %v", err)
	}

	// Fiber app
	app := fiber.New()

	// POST /session/start — acquires the capture stream and begins chunked recording
	app.Post("/session/start", func(c *fiber.Ctx) error {
		var req startRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON"})
		}
		source := capture.Source(req.Source)
		if source == "" {
			source = capture.SourceCamera
		}

		// The recording outlives this request; don't tie its lifetime to
		// the request context.
		if err := sess.Start(context.Background(), source); err != nil {
			log.Printf("Start error: %v", err)
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(sess.Status())
	})

	// POST /session/stop — finalizes the artifact and releases everything
	app.Post("/session/stop", func(c *fiber.Ctx) error {
		artifact, err := sess.Stop()
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}
		if artifact == nil {
			return c.JSON(fiber.Map{"message": "nothing recorded"})
		}
		return c.JSON(fiber.Map{
			"filename": artifact.Filename(),
			"mime":     artifact.MIME,
			"bytes":    artifact.Size(),
		})
	})

	// POST /session/mute — flips the audio tracks of the active session
	app.Post("/session/mute", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"muted": sess.ToggleMute()})
	})

	// POST /session/reset — discards the artifact and returns to idle
	app.Post("/session/reset", func(c *fiber.Ctx) error {
		sess.Reset()
		return c.JSON(sess.Status())
	})

	// GET /session/status
	app.Get("/session/status", func(c *fiber.Ctx) error {
		return c.JSON(sess.Status())
	})

	// GET /artifact — downloads the finished recording
	app.Get("/artifact", func(c *fiber.Ctx) error {
		artifact := sess.Recorder.Artifact()
		if artifact == nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "no artifact available"})
		}
		c.Set(fiber.HeaderContentType, artifact.MIME)
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", artifact.Filename()))
		return c.Send(artifact.Data)
	})

	// POST /execute — proxies to the code-execution backend
	app.Post("/execute", func(c *fiber.Ctx) error {
		var req executeRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON"})
		}
		if req.Language == "" || req.Code == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "`language` and `code` fields are required"})
		}

		result, err := runnerClient.Execute(c.Context(), req.Language, req.Code)
		if err != nil {
			log.Printf("Runner error: %v", err)
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "code execution failed"})
		}
		return c.JSON(result)
	})

	// Middleware to require WebSocket upgrade on /collect
	app.Use("/collect", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	// WebSocket handler receiving forwarded chunks
	app.Get("/collect", websocket.New(coll.Handler()))

	fmt.Printf("Fiber server listening on %s\n", cfg.Addr)
	log.Fatal(app.Listen(cfg.Addr))
}
