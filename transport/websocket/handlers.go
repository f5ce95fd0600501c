package websocket

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"

	"github.com/rocketscienceinc/tictactoe-engine/internal/entity"
	"github.com/rocketscienceinc/tictactoe-engine/internal/pkg"
)

func (that *Server) handleJoin(ctx context.Context, msg *Message, bufrw *bufio.ReadWriter) error {
	log := that.logger.With("method", "handleJoin")

	var payloadReq Payload
	if err := json.Unmarshal(msg.Payload, &payloadReq); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	if payloadReq.RoomCode == "" {
		return that.sendErrorResponse(bufrw, msg.Type, "room code is required")
	}

	playerID := payloadReq.PlayerID
	if playerID == "" {
		playerID = pkg.GenerateNewSessionID()
	}

	room, err := that.rooms.JoinRoom(ctx, payloadReq.RoomCode)
	if err != nil {
		log.Error("failed to join room", "code", payloadReq.RoomCode, "error", err)
		return that.sendErrorResponse(bufrw, msg.Type, "failed to join room")
	}

	// Remote joiners always take the O seat; the host keeps X.
	that.registerPlayer(playerID, room.Code, entity.PlayerO, bufrw)
	that.watchRoom(room.Code)

	payloadResp := Payload{
		PlayerID: playerID,
		RoomCode: room.Code,
		Mark:     entity.PlayerO,
		Room:     room,
	}
	if err = that.sendMessage(bufrw, msg.Type, payloadResp); err != nil {
		return fmt.Errorf("failed to send response: %w", err)
	}

	that.broadcast(room.Code, playerID, typePlayerJoined, Payload{PlayerID: playerID, Room: room})
	if room.Game.IsOngoing() {
		that.broadcast(room.Code, "", typeGameStart, Payload{Room: room})
	}

	log.Info("player joined room", "playerID", playerID, "code", room.Code)

	return nil
}

func (that *Server) handleMove(ctx context.Context, msg *Message, bufrw *bufio.ReadWriter) error {
	log := that.logger.With("method", "handleMove")

	var payloadReq Payload
	if err := json.Unmarshal(msg.Payload, &payloadReq); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	if payloadReq.Cell == nil {
		return that.sendErrorResponse(bufrw, msg.Type, "cell is required")
	}

	code, mark, ok := that.lookupPlayer(payloadReq.PlayerID)
	if !ok {
		return that.sendErrorResponse(bufrw, msg.Type, "player is not in a room")
	}

	// Board updates fan out through the room watcher; rejections are
	// advisory and go only to the mover.
	if _, err := that.rooms.ApplyMove(ctx, code, mark, *payloadReq.Cell); err != nil {
		log.Debug("move rejected", "playerID", payloadReq.PlayerID, "error", err)
		return that.sendErrorResponse(bufrw, msg.Type, err.Error())
	}

	return nil
}

func (that *Server) handleResetGame(ctx context.Context, msg *Message, bufrw *bufio.ReadWriter) error {
	log := that.logger.With("method", "handleResetGame")

	var payloadReq Payload
	if err := json.Unmarshal(msg.Payload, &payloadReq); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	code, _, ok := that.lookupPlayer(payloadReq.PlayerID)
	if !ok {
		return that.sendErrorResponse(bufrw, msg.Type, "player is not in a room")
	}

	room, err := that.rooms.ResetRoom(ctx, code)
	if err != nil {
		log.Error("failed to reset room", "code", code, "error", err)
		return that.sendErrorResponse(bufrw, msg.Type, "failed to reset game")
	}

	that.broadcast(code, "", typeResetGame, Payload{Room: room})

	return nil
}

func (that *Server) handleDisconnect(bufrw *bufio.ReadWriter) {
	log := that.logger.With("method", "handleDisconnect")

	that.connectionsMutex.Lock()
	var disconnectedPlayerID string
	for playerID, connection := range that.connections {
		if connection == bufrw {
			disconnectedPlayerID = playerID
			break
		}
	}

	if disconnectedPlayerID == "" {
		that.connectionsMutex.Unlock()
		return
	}

	code := that.playerRooms[disconnectedPlayerID]
	delete(that.connections, disconnectedPlayerID)
	delete(that.playerRooms, disconnectedPlayerID)
	delete(that.playerMarks, disconnectedPlayerID)

	members := that.roomMembers[code]
	for i, member := range members {
		if member == disconnectedPlayerID {
			that.roomMembers[code] = append(members[:i], members[i+1:]...)
			break
		}
	}
	that.connectionsMutex.Unlock()

	if code != "" {
		that.broadcast(code, disconnectedPlayerID, typePlayerLeft, Payload{PlayerID: disconnectedPlayerID})
	}

	log.Info("player disconnected", "playerID", disconnectedPlayerID)
}

func (that *Server) registerPlayer(playerID, code, mark string, bufrw *bufio.ReadWriter) {
	that.connectionsMutex.Lock()
	defer that.connectionsMutex.Unlock()

	that.connections[playerID] = bufrw
	that.playerRooms[playerID] = code
	that.playerMarks[playerID] = mark
	that.roomMembers[code] = append(that.roomMembers[code], playerID)
}

func (that *Server) lookupPlayer(playerID string) (string, string, bool) {
	that.connectionsMutex.RLock()
	defer that.connectionsMutex.RUnlock()

	code, ok := that.playerRooms[playerID]
	if !ok {
		return "", "", false
	}

	return code, that.playerMarks[playerID], true
}

// watchRoom subscribes the server to a room once; every later mutation is
// pushed to the room's connections as a move update.
func (that *Server) watchRoom(code string) {
	that.connectionsMutex.Lock()
	if that.watchedRooms[code] {
		that.connectionsMutex.Unlock()
		return
	}
	that.watchedRooms[code] = true
	that.connectionsMutex.Unlock()

	that.rooms.Watch(code, func(room entity.Room) {
		that.broadcast(code, "", typeMove, Payload{Room: &room})
	})
}

// broadcast sends a message to every connection in the room except the one
// identified by skipPlayerID (empty means everyone).
func (that *Server) broadcast(code, skipPlayerID, msgType string, payload Payload) {
	log := that.logger.With("method", "broadcast", "code", code)

	that.connectionsMutex.RLock()
	members := make([]string, len(that.roomMembers[code]))
	copy(members, that.roomMembers[code])
	that.connectionsMutex.RUnlock()

	for _, playerID := range members {
		if playerID == skipPlayerID {
			continue
		}

		that.connectionsMutex.RLock()
		conn, ok := that.connections[playerID]
		that.connectionsMutex.RUnlock()

		if !ok {
			continue
		}

		if err := that.sendMessage(conn, msgType, payload); err != nil {
			log.Error("failed to send message", "playerID", playerID, "error", err)
		}
	}
}

func (that *Server) sendErrorResponse(bufrw *bufio.ReadWriter, msgType, errorMsg string) error {
	payload := Payload{Error: errorMsg}
	if err := that.sendMessage(bufrw, msgType, payload); err != nil {
		return fmt.Errorf("failed to send error response: %w", err)
	}

	return nil
}
