// Package socketio provides the Socket.io server for client communication.
package socketio

import (
	"context"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/zishang520/socket.io/servers/socket/v3"
	"github.com/zishang520/socket.io/v3/pkg/types"

	"github.com/crateview/crateview-backend/internal/domain/gallery"
	"github.com/crateview/crateview-backend/internal/domain/personalization"
	"github.com/crateview/crateview-backend/internal/domain/preview"
	"github.com/crateview/crateview-backend/internal/infra/lastfm"
)

// DebounceWindow collapses filter-change bursts into single broadcasts.
const DebounceWindow = 50 * time.Millisecond

// FilterState is the filter-state surface the server drives. Implemented by
// filter.State.
type FilterState interface {
	ApplyQuery(values url.Values)
	SetCategory(category string)
	SetGenre(genre string)
	SetSearchTerm(term string)
	Reset()
}

// Server handles Socket.io connections and events.
type Server struct {
	io       *socket.Server
	gallery  *gallery.Service
	state    FilterState
	player   *preview.Controller
	personal *personalization.Service

	mu        sync.RWMutex
	clients   map[string]*socket.Socket
	debouncer *BroadcastDebouncer
}

// NewServer creates the Socket.io server and binds it to the domain
// services: gallery views and favorites go out debounced, preview state and
// notices go out immediately.
func NewServer(gallerySvc *gallery.Service, state FilterState, player *preview.Controller, personal *personalization.Service) (*Server, error) {
	opts := socket.DefaultServerOptions()
	opts.SetPingTimeout(20 * time.Second)
	opts.SetPingInterval(25 * time.Second)
	opts.SetCors(&types.Cors{
		Origin:      "*",
		Credentials: true,
	})

	server := socket.NewServer(nil, opts)

	s := &Server{
		io:       server,
		gallery:  gallerySvc,
		state:    state,
		player:   player,
		personal: personal,
		clients:  make(map[string]*socket.Socket),
	}
	s.debouncer = NewBroadcastDebouncer(DebounceWindow, s.BroadcastGallery, s.BroadcastHearts)

	gallerySvc.OnView(func(gallery.View) {
		s.debouncer.Trigger("gallery")
	})
	gallerySvc.OnNotice(func(msg string) {
		s.io.Emit("pushNotice", map[string]interface{}{"message": msg})
	})
	player.OnChange(func() {
		s.BroadcastPreview()
	})

	s.setupHandlers()

	return s, nil
}

// setupHandlers registers all Socket.io event handlers.
func (s *Server) setupHandlers() {
	s.io.On("connection", func(clients ...any) {
		client := clients[0].(*socket.Socket)
		clientID := string(client.Id())

		log.Info().Str("id", clientID).Msg("Client connected")

		s.mu.Lock()
		s.clients[clientID] = client
		s.mu.Unlock()

		// Send initial state after small delay
		go func() {
			time.Sleep(100 * time.Millisecond)
			s.pushGallery(client)
			s.pushPreview(client)
			s.pushHearts(client)
		}()

		client.On("disconnect", func(args ...any) {
			reason := ""
			if len(args) > 0 {
				if r, ok := args[0].(string); ok {
					reason = r
				}
			}
			log.Info().Str("id", clientID).Str("reason", reason).Msg("Client disconnected")

			s.mu.Lock()
			delete(s.clients, clientID)
			s.mu.Unlock()
		})

		// Filter events
		client.On("applyQuery", func(args ...any) {
			raw := argString(args, "value")
			log.Debug().Str("id", clientID).Str("query", raw).Msg("applyQuery")
			values, err := url.ParseQuery(raw)
			if err != nil {
				log.Warn().Err(err).Str("query", raw).Msg("Unparseable query string ignored")
				return
			}
			s.state.ApplyQuery(values)
			s.pushGallery(client)
		})

		client.On("getGallery", func(args ...any) {
			log.Debug().Str("id", clientID).Msg("getGallery")
			s.pushGallery(client)
		})

		client.On("setCategory", func(args ...any) {
			category := argString(args, "value")
			log.Debug().Str("id", clientID).Str("category", category).Msg("setCategory")
			s.state.SetCategory(category)
		})

		client.On("setGenre", func(args ...any) {
			genre := argString(args, "value")
			log.Debug().Str("id", clientID).Str("genre", genre).Msg("setGenre")
			s.state.SetGenre(genre)
		})

		client.On("search", func(args ...any) {
			term := argString(args, "value")
			log.Debug().Str("id", clientID).Str("term", term).Msg("search")
			s.state.SetSearchTerm(term)
		})

		client.On("resetFilters", func(args ...any) {
			log.Debug().Str("id", clientID).Msg("resetFilters")
			s.state.Reset()
		})

		client.On("randomAlbum", func(args ...any) {
			log.Debug().Str("id", clientID).Msg("randomAlbum")
			go s.gallery.Surprise(context.Background())
		})

		// Preview transport events
		client.On("play", func(args ...any) {
			artist := argString(args, "artist")
			album := argString(args, "album")
			year := argInt(args, "year")
			log.Debug().Str("id", clientID).Str("artist", artist).Str("album", album).Msg("play")

			go func() {
				if err := s.player.Play(context.Background(), artist, album, year); err != nil {
					client.Emit("pushNotice", map[string]interface{}{
						"message": gallery.PlayErrorNotice(err),
					})
				}
			}()
		})

		client.On("pause", func(args ...any) {
			log.Debug().Str("id", clientID).Msg("pause")
			s.player.Pause()
		})

		client.On("resume", func(args ...any) {
			log.Debug().Str("id", clientID).Msg("resume")
			s.player.Resume()
		})

		client.On("stopPreview", func(args ...any) {
			log.Debug().Str("id", clientID).Msg("stopPreview")
			s.player.Stop()
		})

		client.On("trackEnded", func(args ...any) {
			log.Debug().Str("id", clientID).Msg("trackEnded")
			s.player.TrackEnded()
		})

		// Personalization events
		client.On("toggleHeart", func(args ...any) {
			artist := argString(args, "artist")
			album := argString(args, "album")
			hearted := s.personal.ToggleHeart(artist, album)
			log.Debug().Str("id", clientID).Str("artist", artist).Str("album", album).Bool("hearted", hearted).Msg("toggleHeart")
			s.debouncer.Trigger("hearts")
		})

		client.On("getHearts", func(args ...any) {
			log.Debug().Str("id", clientID).Msg("getHearts")
			s.pushHearts(client)
		})

		client.On("revealAlbum", func(args ...any) {
			artist := argString(args, "artist")
			album := argString(args, "album")
			log.Debug().Str("id", clientID).Str("artist", artist).Str("album", album).Msg("revealAlbum")
			s.personal.Reveal(artist, album)
		})

		client.On("setNsfwFilter", func(args ...any) {
			enabled := argBool(args, "value")
			log.Debug().Str("id", clientID).Bool("enabled", enabled).Msg("setNsfwFilter")
			s.personal.SetNSFWFilter(enabled)
		})
	})
}

// pushGallery sends the current gallery view to one client.
func (s *Server) pushGallery(client *socket.Socket) {
	client.Emit("pushGallery", s.gallery.View())
}

// pushPreview sends the preview transport state to one client.
func (s *Server) pushPreview(client *socket.Socket) {
	client.Emit("pushPreview", s.previewState())
}

// pushHearts sends the favorites list to one client.
func (s *Server) pushHearts(client *socket.Socket) {
	client.Emit("pushHearts", s.personal.Hearts())
}

func (s *Server) previewState() map[string]interface{} {
	return map[string]interface{}{
		"status": s.player.Status(),
		"active": s.player.Active(),
	}
}

// BroadcastGallery sends the gallery view to all connected clients.
func (s *Server) BroadcastGallery() {
	view := s.gallery.View()
	s.io.Emit("pushGallery", view)

	s.mu.RLock()
	clientCount := len(s.clients)
	s.mu.RUnlock()
	log.Debug().Int("visible", len(view.Albums)).Int("clients", clientCount).Msg("Broadcast gallery")
}

// BroadcastPreview sends the preview transport state to all clients.
func (s *Server) BroadcastPreview() {
	s.io.Emit("pushPreview", s.previewState())
}

// BroadcastHearts sends the favorites list to all clients.
func (s *Server) BroadcastHearts() {
	s.io.Emit("pushHearts", s.personal.Hearts())
}

// BroadcastNowPlaying sends a now-playing update to all clients. A nil
// track means nothing is live.
func (s *Server) BroadcastNowPlaying(track *lastfm.Track) {
	s.io.Emit("pushNowPlaying", map[string]interface{}{"track": track})
}

// ServeHTTP implements http.Handler for the Socket.io server.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.io.ServeHandler(nil).ServeHTTP(w, r)
}

// Close closes the Socket.io server.
func (s *Server) Close() error {
	s.debouncer.Stop()
	s.io.Close(nil)
	return nil
}

// argString extracts a string field from the first event argument.
func argString(args []any, key string) string {
	if m := argMap(args); m != nil {
		if v, ok := m[key].(string); ok {
			return v
		}
	}
	return ""
}

// argInt extracts a numeric field from the first event argument.
func argInt(args []any, key string) int {
	if m := argMap(args); m != nil {
		if v, ok := m[key].(float64); ok {
			return int(v)
		}
	}
	return 0
}

// argBool extracts a boolean field from the first event argument.
func argBool(args []any, key string) bool {
	if m := argMap(args); m != nil {
		if v, ok := m[key].(bool); ok {
			return v
		}
	}
	return false
}

func argMap(args []any) map[string]interface{} {
	if len(args) == 0 {
		return nil
	}
	m, _ := args[0].(map[string]interface{})
	return m
}
