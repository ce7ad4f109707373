// Package main is the entry point for the Crateview gallery backend.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/crateview/crateview-backend/internal/domain/artwork"
	"github.com/crateview/crateview-backend/internal/domain/catalog"
	"github.com/crateview/crateview-backend/internal/domain/filter"
	"github.com/crateview/crateview-backend/internal/domain/gallery"
	"github.com/crateview/crateview-backend/internal/domain/personalization"
	"github.com/crateview/crateview-backend/internal/domain/preview"
	"github.com/crateview/crateview-backend/internal/infra/catalogfile"
	"github.com/crateview/crateview-backend/internal/infra/deezer"
	"github.com/crateview/crateview-backend/internal/infra/lastfm"
	"github.com/crateview/crateview-backend/internal/infra/store"
	"github.com/crateview/crateview-backend/internal/transport/socketio"
	"github.com/crateview/crateview-backend/internal/version"
)

func main() {
	// Command line flags
	port := flag.String("port", "3001", "HTTP server port")
	catalogSource := flag.String("catalog", "site/output", "Catalog source: directory or http(s) base URL holding collection.json")
	imageRoot := flag.String("images", "site", "Directory holding the catalog's relative cover paths")
	dbPath := flag.String("db", store.DefaultDBPath, "Personalization database path")
	cacheDir := flag.String("cache", "data/cache", "Thumbnail cache directory")
	pollInterval := flag.Duration("poll", lastfm.DefaultPollInterval, "Now-playing poll interval")
	staticDir := flag.String("static", "", "Directory to serve static files from (optional)")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	// Secrets come from the environment; a .env file is optional
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("Could not read .env file")
	}
	lastfmKey := os.Getenv("LASTFM_API_KEY")
	lastfmUser := os.Getenv("LASTFM_USER")

	// Setup logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// Print startup banner
	versionInfo := version.GetInfo()
	log.Info().Msg("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	log.Info().Msgf("  %s", versionInfo.String())
	log.Info().Msg("  Album Gallery Backend")
	log.Info().Msg("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	log.Info().
		Str("port", *port).
		Str("catalog", *catalogSource).
		Str("db", *dbPath).
		Bool("lastfm", lastfmKey != "" && lastfmUser != "").
		Msg("Configuration")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Load the static catalog and its optional lookup tables
	loader := catalogfile.NewLoader(*catalogSource)
	catalogStore := catalog.NewStore(loader)
	if err := catalogStore.Load(ctx); err != nil {
		// Fatal to the album view, but the server still comes up so the
		// UI can render the error banner.
		log.Error().Err(err).Msg("Catalog unavailable")
	}
	nsfwList := loader.LoadNSFWList(ctx)
	countryFallback := loader.LoadCountryFallback(ctx)

	// Open personalization storage
	db := store.NewDB(*dbPath)
	if err := db.Open(); err != nil {
		log.Fatal().Err(err).Msg("Failed to open personalization database")
	}
	defer db.Close()

	personal, err := personalization.NewService(store.NewDAO(db), nsfwList)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load personalization state")
	}

	// Wire the gallery core
	filterState := filter.NewState()
	player := preview.NewController(deezer.NewClient())
	gallerySvc := gallery.NewService(catalogStore, filterState, player)

	// Create Socket.io server
	socketServer, err := socketio.NewServer(gallerySvc, filterState, player, personal)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Socket.io server")
	}
	defer socketServer.Close()

	// Start the now-playing poller when credentials are present. The same
	// client backs the scrobble-history endpoints below.
	var scrobbles *lastfm.Client
	if lastfmKey != "" && lastfmUser != "" {
		scrobbles = lastfm.NewClient(lastfmKey, lastfmUser)
		poller := lastfm.NewPoller(scrobbles, *pollInterval, socketServer.BroadcastNowPlaying)
		poller.Start(ctx)
		defer poller.Stop()
	} else {
		log.Info().Msg("Last.fm credentials not set, now-playing and scrobble history disabled")
	}

	thumbnailer := artwork.NewThumbnailer(*imageRoot, *cacheDir)

	// Setup HTTP server
	mux := http.NewServeMux()

	// Socket.io endpoint
	mux.Handle("/socket.io/", socketServer)

	// Health check
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if catalogStore.Status() == catalog.StatusFailed {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"error","catalog":"failed"}`))
			return
		}
		w.Write([]byte(`{"status":"ok","catalog":"` + string(catalogStore.Status()) + `"}`))
	})

	// Version endpoint
	mux.HandleFunc("/api/v1/version", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(versionInfo)
	})

	// Country fallback table for the map view
	mux.HandleFunc("/api/v1/countries", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(countryFallback)
	})

	// Scrobble history, when Last.fm is configured
	if scrobbles != nil {
		mux.HandleFunc("/api/v1/scrobbles", scrobblesHandler(scrobbles))
		mux.HandleFunc("/api/v1/topalbums", topAlbumsHandler(scrobbles))
	}

	// Cover thumbnails
	mux.HandleFunc("/covers", func(w http.ResponseWriter, r *http.Request) {
		coverPath := r.URL.Query().Get("path")
		if coverPath == "" {
			http.Error(w, "path parameter required", http.StatusBadRequest)
			return
		}
		size := artwork.ParseSize(r.URL.Query().Get("size"))

		data, err := thumbnailer.Thumbnail(coverPath, size)
		if err != nil {
			log.Debug().Err(err).Str("path", coverPath).Msg("Cover thumbnail failed")
			http.Error(w, "cover not found", http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "image/jpeg")
		w.Header().Set("Cache-Control", "public, max-age=86400") // Cache for 1 day
		w.Write(data)
	})

	// Serve static files if directory specified (SPA mode)
	if *staticDir != "" {
		log.Info().Str("dir", *staticDir).Msg("Serving static files")
		fs := http.FileServer(http.Dir(*staticDir))
		mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
			path := *staticDir + r.URL.Path
			if r.URL.Path == "/" {
				path = *staticDir + "/index.html"
			}
			if _, err := os.Stat(path); os.IsNotExist(err) {
				// For SPA routing, serve index.html for non-existing paths
				http.ServeFile(w, r, *staticDir+"/index.html")
				return
			}
			fs.ServeHTTP(w, r)
		})
	}

	// Start HTTP server
	server := &http.Server{
		Addr:         ":" + *port,
		Handler:      corsMiddleware(mux),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		log.Info().Msg("Shutting down...")
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Server shutdown error")
		}
	}()

	log.Info().Str("addr", ":"+*port).Msg("HTTP server listening")
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("HTTP server error")
	}

	log.Info().Msg("Server stopped")
}
