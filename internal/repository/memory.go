package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/rocketscienceinc/tictactoe-engine/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-engine/internal/entity"
)

// memoryRoom keeps rooms in a process-local map. This is the default store:
// simulated rooms live only as long as the process.
type memoryRoom struct {
	mu    sync.RWMutex
	rooms map[string]entity.Room
}

func NewMemoryRoomRepository() RoomRepository {
	return &memoryRoom{
		rooms: make(map[string]entity.Room),
	}
}

func (that *memoryRoom) CreateOrUpdate(_ context.Context, room *entity.Room) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.rooms[room.Code] = *room

	return nil
}

func (that *memoryRoom) GetByCode(_ context.Context, code string) (*entity.Room, error) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	room, ok := that.rooms[code]
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperror.ErrRoomNotFound, code)
	}

	return &room, nil
}

func (that *memoryRoom) DeleteByCode(_ context.Context, code string) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	delete(that.rooms, code)

	return nil
}
