package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridclash/gridclash-backend/internal/apperror"
	"github.com/gridclash/gridclash-backend/internal/entity"
	"github.com/gridclash/gridclash-backend/testing/suite"
)

func TestLobbyRepository_CreateOrUpdate(t *testing.T) {
	ctx, st := suite.New(t)

	lobbyRepo := NewLobbyRepository(st.Storage)

	// Given: a lobby record with one player
	record := &LobbyRecord{
		Lobby: entity.NewLobby("123456", entity.NewPlayer("a", "Alice")),
	}

	// When: CreateOrUpdate is called
	err := lobbyRepo.CreateOrUpdate(ctx, record)

	// Then: no error should be returned
	require.NoError(t, err)
}

func TestLobbyRepository_GetByCode(t *testing.T) {
	t.Run("GetByCode_Success", func(t *testing.T) {
		ctx, st := suite.New(t)

		lobbyRepo := NewLobbyRepository(st.Storage)

		// Given: a stored record with a running game
		lobby := entity.NewLobby("123456", entity.NewPlayer("a", "Alice"))
		game := &entity.Game{Version: 3, GameStarted: true, Grid: entity.NewGrid()}
		require.NoError(t, lobbyRepo.CreateOrUpdate(ctx, &LobbyRecord{Lobby: lobby, Game: game}))

		// When: GetByCode is called with the existing code
		retrieved, err := lobbyRepo.GetByCode(ctx, "123456")

		// Then: the retrieved record matches what was saved
		require.NoError(t, err)
		require.Equal(t, lobby.ID, retrieved.Lobby.ID)
		require.Equal(t, "a", retrieved.Lobby.HostID)
		require.NotNil(t, retrieved.Game)
		require.Equal(t, uint64(3), retrieved.Game.Version)
	})

	t.Run("GetByCode_NotFound", func(t *testing.T) {
		ctx, st := suite.New(t)

		lobbyRepo := NewLobbyRepository(st.Storage)

		// When: GetByCode is called with an unknown code
		_, err := lobbyRepo.GetByCode(ctx, "999999")

		// Then: the lobby-not-found error is returned
		require.ErrorIs(t, err, apperror.ErrLobbyNotFound)
	})

	t.Run("Overwrites_Wholesale", func(t *testing.T) {
		ctx, st := suite.New(t)

		lobbyRepo := NewLobbyRepository(st.Storage)

		// Given: a record that is saved, then saved again without its game
		lobby := entity.NewLobby("123456", entity.NewPlayer("a", "Alice"))
		game := &entity.Game{Version: 1, GameStarted: true, Grid: entity.NewGrid()}
		require.NoError(t, lobbyRepo.CreateOrUpdate(ctx, &LobbyRecord{Lobby: lobby, Game: game}))
		require.NoError(t, lobbyRepo.CreateOrUpdate(ctx, &LobbyRecord{Lobby: lobby}))

		// When: the record is read back
		retrieved, err := lobbyRepo.GetByCode(ctx, "123456")

		// Then: the game is gone, as the record is replaced wholesale
		require.NoError(t, err)
		assert.Nil(t, retrieved.Game)
	})
}

func TestLobbyRepository_DeleteByCode(t *testing.T) {
	ctx, st := suite.New(t)

	lobbyRepo := NewLobbyRepository(st.Storage)

	// Given: a stored record
	lobby := entity.NewLobby("123456", entity.NewPlayer("a", "Alice"))
	require.NoError(t, lobbyRepo.CreateOrUpdate(ctx, &LobbyRecord{Lobby: lobby}))

	// When: the record is deleted
	require.NoError(t, lobbyRepo.DeleteByCode(ctx, "123456"))

	// Then: reading it back reports not found
	_, err := lobbyRepo.GetByCode(ctx, "123456")
	require.ErrorIs(t, err, apperror.ErrLobbyNotFound)
}

func TestLobbyRepository_MessageLog(t *testing.T) {
	ctx, st := suite.New(t)

	lobbyRepo := NewLobbyRepository(st.Storage)

	// Given: two appended messages
	require.NoError(t, lobbyRepo.AppendMessage(ctx, "123456", []byte(`{"action":"lobby:join"}`)))
	require.NoError(t, lobbyRepo.AppendMessage(ctx, "123456", []byte(`{"action":"game:claim"}`)))

	// When: the log is read
	raw, err := lobbyRepo.RecentMessages(ctx, "123456")

	// Then: both entries are present, most recent first
	require.NoError(t, err)
	require.Len(t, raw, 2)
	assert.JSONEq(t, `{"action":"game:claim"}`, string(raw[0]))
	assert.JSONEq(t, `{"action":"lobby:join"}`, string(raw[1]))
}
