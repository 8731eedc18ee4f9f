package api

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/open-teleop/keyboard-teleop/domain/teleop"
	customlog "github.com/open-teleop/keyboard-teleop/pkg/log"
	"github.com/open-teleop/keyboard-teleop/pkg/twist"
)

// StateProvider exposes the controller state to the monitor endpoints.
type StateProvider interface {
	Snapshot() teleop.State
}

// StateResponse is returned by GET /api/v1/teleop/state.
type StateResponse struct {
	Speed       float64          `json:"speed"`
	Turn        float64          `json:"turn"`
	Direction   teleop.Direction `json:"direction"`
	LastCommand twist.Msg        `json:"last_command"`
	Steps       uint64           `json:"steps"`
	Clients     int              `json:"ws_clients"`
}

// Server is the read-only monitor for a running teleop session.
type Server struct {
	app    *fiber.App
	state  StateProvider
	hub    *CommandHub
	logger customlog.Logger
}

// NewServer builds the Fiber app and registers its routes.
func NewServer(state StateProvider, hub *CommandHub, logger customlog.Logger) *Server {
	app := fiber.New(fiber.Config{
		AppName:               "Open-Teleop Keyboard Teleop",
		ErrorHandler:          customErrorHandler,
		DisableStartupMessage: true,
	})

	s := &Server{app: app, state: state, hub: hub, logger: logger}

	app.Use(recover.New())
	app.Use(s.requestLogger)

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "online",
			"service": "open-teleop keyboard teleop",
		})
	})

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "healthy"})
	})

	api := app.Group("/api/v1/teleop")
	api.Get("/state", s.handleGetState)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/cmd_vel", websocket.New(hub.Handler))

	return s
}

// App returns the underlying Fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves on port until Shutdown is called.
func (s *Server) Listen(port int) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return fmt.Errorf("failed to listen on port %d: %w", port, err)
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln until Shutdown is called.
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Infof("Monitor server listening on %s", ln.Addr())
	return s.app.Listener(ln)
}

// Shutdown stops the server, closing websocket streams first.
func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.Close()
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) handleGetState(c *fiber.Ctx) error {
	st := s.state.Snapshot()
	return c.JSON(StateResponse{
		Speed:       st.Speed,
		Turn:        st.Turn,
		Direction:   st.Direction,
		LastCommand: twist.FromCommand(st.LastCommand),
		Steps:       st.Steps,
		Clients:     s.hub.ClientCount(),
	})
}

func (s *Server) requestLogger(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	s.logger.Debugf("%s %s -> %d (%s)", c.Method(), c.Path(), c.Response().StatusCode(), time.Since(start))
	return err
}

// Custom error handler
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
	})
}
