package application

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rocketscienceinc/tictactoe-engine/internal/config"
	"github.com/rocketscienceinc/tictactoe-engine/internal/repository"
	"github.com/rocketscienceinc/tictactoe-engine/internal/repository/storage"
	"github.com/rocketscienceinc/tictactoe-engine/internal/service"
	"github.com/rocketscienceinc/tictactoe-engine/internal/usecase"
	"github.com/rocketscienceinc/tictactoe-engine/transport/rest"
	"github.com/rocketscienceinc/tictactoe-engine/transport/websocket"
)

// RunApp - runs the application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()

	roomRepo := newRoomRepository(ctx, log, conf)

	sched := service.NewScheduler()
	coordinator := service.NewCoordinator(ctx, logger, roomRepo, sched,
		rand.New(rand.NewSource(time.Now().UnixNano())), //nolint: gosec // gameplay randomness, not security
		service.CoordinatorDelays{
			Join:    conf.Game.SimulatedJoinDelay(),
			MoveMin: conf.Game.SimulatedMoveMinDelay(),
			MoveMax: conf.Game.SimulatedMoveMaxDelay(),
		},
	)

	botRnd := rand.New(rand.NewSource(time.Now().UnixNano())) //nolint: gosec // gameplay randomness, not security
	bot := service.NewBotService(botRnd)

	sessionManager := usecase.NewSessionManager(logger, func() *service.GameSession {
		return service.NewGameSession(logger, bot, coordinator, sched, conf.Game.BotMoveDelay(), notificationEvents(logger))
	})

	// run HTTP server
	httpErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "port", conf.HTTPPort)
		restServer := rest.New(logger, sessionManager)
		if httpErr := restServer.Start(conf.HTTPPort); httpErr != nil {
			log.Error("HTTP server error", "error", httpErr)
			httpErrCh <- httpErr
		}
	}()

	// run WebSocket server
	wsErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting WebSocket server", "port", conf.SocketPort)
		wsServer := websocket.New(logger, coordinator)
		if wsErr := wsServer.Start(ctx, conf.SocketPort); wsErr != nil {
			log.Error("WebSocket server error", "error", wsErr)
			wsErrCh <- wsErr
		}
	}()

	select {
	case err := <-httpErrCh:
		return fmt.Errorf("HTTP server error: %w", err)
	case err := <-wsErrCh:
		return fmt.Errorf("WebSocket server error: %w", err)
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")
		return nil
	}
}

// newRoomRepository prefers the shared Redis store when configured but any
// failure degrades to the in-memory registry; the networked room path is a
// best-effort upgrade, never a requirement.
func newRoomRepository(ctx context.Context, log *slog.Logger, conf *config.Config) repository.RoomRepository {
	redisAddr := conf.Redis.GetRedisAddr()
	if redisAddr == "" {
		log.Info("Using in-memory room store")
		return repository.NewMemoryRoomRepository()
	}

	redisStorage, err := storage.New(ctx, redisAddr)
	if err != nil {
		log.Warn("Redis unavailable, falling back to in-memory room store", "addr", redisAddr, "error", err)
		return repository.NewMemoryRoomRepository()
	}

	log.Info("Using Redis room store", "addr", redisAddr)

	return repository.NewRoomRepository(redisStorage.Connection)
}

// notificationEvents routes the fire-and-forget UI notifications to the log
// for headless runs; a UI collaborator replaces these with its own hooks.
func notificationEvents(logger *slog.Logger) service.Events {
	log := logger.With("component", "notifications")

	return service.Events{
		OutcomeDecided: func(winner string) {
			log.Info("outcome decided", "winner", winner)
		},
		InvalidMove: func(reason string) {
			log.Info("invalid move", "reason", reason)
		},
		OpponentConnection: func(connected bool) {
			log.Info("opponent connection changed", "connected", connected)
		},
	}
}
