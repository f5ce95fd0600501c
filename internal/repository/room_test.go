package repository

import (
	"testing"

	"github.com/rocketscienceinc/tictactoe-engine/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-engine/internal/entity"
	"github.com/rocketscienceinc/tictactoe-engine/testing/suite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoomRepository_CreateOrUpdate(t *testing.T) {
	ctx, st := suite.New(t)

	roomRepo := NewRoomRepository(st.Storage)

	// Given: a fresh room
	room := entity.NewRoom("AB12CD")

	// When: CreateOrUpdate is called
	err := roomRepo.CreateOrUpdate(ctx, room)

	// Then: no error should be returned, and the room is stored
	require.NoError(t, err)
}

func TestRoomRepository_GetByCode(t *testing.T) {
	t.Run("GetByCode_Success", func(t *testing.T) {
		ctx, st := suite.New(t)

		roomRepo := NewRoomRepository(st.Storage)

		// Given: a stored room with one move played
		room := entity.NewRoom("AB12CD")
		room.Game.Board[4] = entity.PlayerX
		room.Game.Turn = entity.PlayerO
		room.OpponentConnected = true

		err := roomRepo.CreateOrUpdate(ctx, room)
		require.NoError(t, err)

		// When: GetByCode is called with the existing code
		retrievedRoom, err := roomRepo.GetByCode(ctx, room.Code)

		// Then: the retrieved room should match the saved room
		require.NoError(t, err)
		require.Equal(t, room.Code, retrievedRoom.Code)
		require.Equal(t, room.Game.Board, retrievedRoom.Game.Board)
		require.Equal(t, entity.PlayerO, retrievedRoom.Game.Turn)
		assert.True(t, retrievedRoom.OpponentConnected)
	})

	t.Run("GetByCode_NotFound", func(t *testing.T) {
		ctx, st := suite.New(t)

		roomRepo := NewRoomRepository(st.Storage)

		// When: GetByCode is called with a non-existent code
		retrievedRoom, err := roomRepo.GetByCode(ctx, "ZZZZZZ")

		// Then: an ErrRoomNotFound error should be returned
		require.Error(t, err)
		assert.ErrorIs(t, err, apperror.ErrRoomNotFound)
		assert.Nil(t, retrievedRoom)
	})
}

func TestRoomRepository_DeleteByCode(t *testing.T) {
	ctx, st := suite.New(t)

	roomRepo := NewRoomRepository(st.Storage)

	// Given: a stored room
	room := entity.NewRoom("AB12CD")
	err := roomRepo.CreateOrUpdate(ctx, room)
	require.NoError(t, err)

	// When: DeleteByCode is called with the existing code
	err = roomRepo.DeleteByCode(ctx, room.Code)

	// Then: the room is gone
	require.NoError(t, err)

	_, err = roomRepo.GetByCode(ctx, room.Code)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperror.ErrRoomNotFound)
}
