package main

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/crateview/crateview-backend/internal/infra/lastfm"
)

// scrobblesHandler serves the recent scrobble history. The API key lives
// server-side, so clients fetch history through here instead of talking to
// Last.fm directly.
func scrobblesHandler(client *lastfm.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := queryInt(r, "limit", 20, 200)
		page := queryInt(r, "page", 1, 10000)

		tracks, err := client.RecentTracks(r.Context(), limit, page)
		if err != nil {
			log.Warn().Err(err).Msg("Scrobble history fetch failed")
			http.Error(w, "scrobble history unavailable", http.StatusBadGateway)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"tracks": tracks})
	}
}

// topAlbumsHandler serves the most-played-albums chart for a period.
func topAlbumsHandler(client *lastfm.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		period := r.URL.Query().Get("period")
		switch period {
		case "7day", "1month", "3month", "6month", "12month", "overall":
		default:
			period = "1month"
		}
		limit := queryInt(r, "limit", 12, 50)

		albums, err := client.TopAlbums(r.Context(), period, limit)
		if err != nil {
			log.Warn().Err(err).Str("period", period).Msg("Top albums fetch failed")
			http.Error(w, "top albums unavailable", http.StatusBadGateway)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"period": period,
			"albums": albums,
		})
	}
}

// queryInt reads a positive integer query parameter, falling back to def and
// clamping to max.
func queryInt(r *http.Request, key string, def, max int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || v < 1 {
		return def
	}
	if v > max {
		return max
	}
	return v
}
