package rest

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gridclash/gridclash-backend/internal/entity"
	"github.com/gridclash/gridclash-backend/internal/store"
)

// uSession - the action surface a participant process exposes to its
// presentation layer.
type uSession interface {
	PlayerID() string
	Snapshot() store.Snapshot

	CreateLobby(ctx context.Context, name string) (string, error)
	JoinLobby(ctx context.Context, code, name string) error
	ToggleReady(ctx context.Context) bool
	ChangeFaction(ctx context.Context, faction entity.Faction) bool
	StartGame(ctx context.Context) error
	ClaimTile(ctx context.Context, x, y int, goldCost, unitCost float64) bool
	BuildConstruct(ctx context.Context, x, y int, constructType entity.ConstructType) bool
	DemolishConstruct(ctx context.Context, x, y int) bool
	ResetGame(ctx context.Context) error
}

type Server struct {
	logger  *slog.Logger
	session uSession
}

func New(logger *slog.Logger, session uSession) *Server {
	return &Server{
		logger:  logger.With("component", "rest"),
		session: session,
	}
}

// Start - serves the action surface until the listener fails.
func (that *Server) Start(port string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ping", that.handlePing)
	mux.HandleFunc("/state", that.handleState)
	mux.HandleFunc("/lobby/create", that.handleCreateLobby)
	mux.HandleFunc("/lobby/join", that.handleJoinLobby)
	mux.HandleFunc("/lobby/ready", that.handleToggleReady)
	mux.HandleFunc("/lobby/faction", that.handleChangeFaction)
	mux.HandleFunc("/game/start", that.handleStartGame)
	mux.HandleFunc("/game/claim", that.handleClaimTile)
	mux.HandleFunc("/game/build", that.handleBuildConstruct)
	mux.HandleFunc("/game/demolish", that.handleDemolishConstruct)
	mux.HandleFunc("/game/reset", that.handleResetGame)

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	if err := srv.ListenAndServe(); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}
