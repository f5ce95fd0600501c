package websocket

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/rocketscienceinc/tictactoe-engine/internal/entity"
	"github.com/rocketscienceinc/tictactoe-engine/internal/pkg"
	"github.com/rocketscienceinc/tictactoe-engine/internal/service"
)

// roomCoordinator is the slice of the coordinator the networked path needs.
// A real remote joiner goes through the same operations as the simulated
// peer, which is what lets it preempt the simulated join.
type roomCoordinator interface {
	JoinRoom(ctx context.Context, code string) (*entity.Room, error)
	ApplyMove(ctx context.Context, code string, mark string, cell int) (*entity.Room, error)
	ResetRoom(ctx context.Context, code string) (*entity.Room, error)
	Watch(code string, watcher service.RoomWatcher)
}

// Server is the optional real-network transport. Remote players join rooms
// by code; every room mutation is pushed to the room's connections.
type Server struct {
	logger *slog.Logger
	rooms  roomCoordinator

	handlers map[string]func(ctx context.Context, message *Message, bufrw *bufio.ReadWriter) error

	connectionsMutex sync.RWMutex
	connections      map[string]*bufio.ReadWriter
	playerRooms      map[string]string
	playerMarks      map[string]string
	roomMembers      map[string][]string
	watchedRooms     map[string]bool
}

func New(logger *slog.Logger, rooms roomCoordinator) *Server {
	server := &Server{
		logger: logger.With("component", "websocket"),
		rooms:  rooms,

		handlers: make(map[string]func(context.Context, *Message, *bufio.ReadWriter) error),

		connections:  make(map[string]*bufio.ReadWriter),
		playerRooms:  make(map[string]string),
		playerMarks:  make(map[string]string),
		roomMembers:  make(map[string][]string),
		watchedRooms: make(map[string]bool),
	}

	server.handlers[typeJoin] = server.handleJoin
	server.handlers[typeMove] = server.handleMove
	server.handlers[typeResetGame] = server.handleResetGame

	return server
}

// Start - starts the WebSocket server.
func (that *Server) Start(ctx context.Context, port string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		that.upgradeToWebSocket(ctx, w, r)
	})

	srv := &http.Server{
		Addr:        ":" + port,
		Handler:     mux,
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 30 * time.Second,
	}

	if err := srv.ListenAndServe(); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// upgradeToWebSocket - upgrades the connection to WebSocket.
func (that *Server) upgradeToWebSocket(ctx context.Context, writer http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "upgradeToWebSocket")

	if req.Header.Get("Upgrade") != "websocket" {
		http.Error(writer, "not a websocket upgrade", http.StatusBadRequest)
		return
	}

	key := req.Header.Get("Sec-WebSocket-Key")
	acceptKey := pkg.GenerateAcceptKey(key)

	writer.Header().Set("Upgrade", "websocket")
	writer.Header().Set("Connection", "Upgrade")
	writer.Header().Set("Sec-WebSocket-Accept", acceptKey)
	writer.WriteHeader(http.StatusSwitchingProtocols)

	hijacker, ok := writer.(http.Hijacker)
	if !ok {
		log.Error("web server does not support hijacking")
		return
	}

	conn, bufrw, err := hijacker.Hijack()
	if err != nil {
		log.Error("failed to hijack connection", "error", err)
		return
	}

	defer conn.Close()

	log.Info("WebSocket connection established")

	if err = that.handleMessages(ctx, bufrw); err != nil {
		log.Debug("connection closed", "error", err)
	}

	that.handleDisconnect(bufrw)
}

// handleMessages - processes messages from the client.
func (that *Server) handleMessages(ctx context.Context, bufrw *bufio.ReadWriter) error {
	log := that.logger.With("method", "handleMessages")

	for {
		reqBody, err := readRequest(bufrw)
		if err != nil {
			return fmt.Errorf("failed to read request: %w", err)
		}

		var message Message
		if err = json.Unmarshal(reqBody, &message); err != nil {
			log.Error("failed to unmarshal message", "error", err)
			continue
		}

		handler, ok := that.handlers[message.Type]
		if !ok {
			log.Error("unknown message type", "type", message.Type)
			continue
		}

		if err = handler(ctx, &message, bufrw); err != nil {
			log.Error("error processing message", "type", message.Type, "error", err)
		}
	}
}
