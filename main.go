package main

import (
	"context"
	"os"
	"strconv"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"impressive-vote/controllers"
	"impressive-vote/db"
	"impressive-vote/models"
	"impressive-vote/routes"
	"impressive-vote/store"
)

func main() {
	godotenv.Load()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	gameStore := selectStore()

	// Start the observer hub
	hub := models.NewHub()
	go hub.Run()

	manager := controllers.NewGameManager(hub, gameStore, clockwork.NewRealClock(), gameDuration())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	manager.LoadPersisted(ctx)
	go manager.Run(ctx)

	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     corsOrigins(),
		AllowMethods:     []string{"GET", "POST"},
		AllowHeaders:     []string{"Content-Type"},
		AllowCredentials: true,
	}))

	routes.GameRoutes(r, controllers.NewGameController(manager))
	routes.WebSocketRoutes(r, controllers.NewWebSocketController(hub, manager))

	port := os.Getenv("PORT")
	if port == "" {
		port = "5000"
	}

	log.Info().Str("port", port).Msg("server running")
	if err := r.Run(":" + port); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

// selectStore picks MongoDB when configured and reachable, otherwise the
// in-memory fallback. The fallback keeps the single-process assumption.
func selectStore() store.GameStore {
	uri := os.Getenv("MONGODB_URI")
	if uri == "" {
		log.Warn().Msg("MONGODB_URI not set, using in-memory store")
		return store.NewMemoryStore()
	}
	client, err := db.Connect(uri)
	if err != nil {
		log.Warn().Err(err).Msg("mongodb unavailable, falling back to in-memory store")
		return store.NewMemoryStore()
	}
	log.Info().Msg("connected to MongoDB")
	return store.NewMongoStore(db.Database(client))
}

func gameDuration() int64 {
	raw := os.Getenv("GAME_DURATION_MS")
	if raw == "" {
		return models.DefaultDurationMs
	}
	parsed, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || parsed <= 0 {
		log.Warn().Str("value", raw).Msg("invalid GAME_DURATION_MS, using default")
		return models.DefaultDurationMs
	}
	return parsed
}

func corsOrigins() []string {
	if raw := os.Getenv("CORS_ORIGINS"); raw != "" {
		return strings.Split(raw, ",")
	}
	return []string{"http://localhost:3000", "http://localhost:3001"}
}
