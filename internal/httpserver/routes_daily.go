// internal/httpserver/routes_daily.go
//
// Public read-only routes:
//   - GET /daily         → topic of the day (deterministic from date + salt)
//   - GET /topics?q=     → topic suggestions, optionally filtered; "known" says q is itself a catalog topic
//   - GET /stats/topics  → per-topic results from round history
//   - GET /stats/recent  → latest finished rounds (?session= narrows to one session)

package httpserver

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/mdonmez/taibu/internal/daily"
	"github.com/mdonmez/taibu/internal/topics"
)

// mountCatalog registers the /daily, /topics and /stats routes.
func (s *Server) mountCatalog(r chi.Router) {
	r.Get("/daily", s.handleDaily)
	r.Get("/topics", s.handleTopics)
	r.Route("/stats", func(r chi.Router) {
		r.Get("/topics", s.handleTopicStats)
		r.Get("/recent", s.handleRecent)
	})
}

// handleDaily returns today's topic. The pick is the same for every player.
func (s *Server) handleDaily(w http.ResponseWriter, r *http.Request) {
	d := daily.Pick(s.now(), s.cfg.DailySalt, topics.List())
	if d.Topic == "" {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "no_topics"})
		return
	}
	writeJSON(w, http.StatusOK, d)
}

type topicsRes struct {
	Topics []string `json:"topics"`
	Count  int      `json:"count"`
	Known  bool     `json:"known"`
}

func (s *Server) handleTopics(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	list := topics.Search(q)
	if list == nil {
		list = []string{}
	}
	writeJSON(w, http.StatusOK, topicsRes{Topics: list, Count: len(list), Known: topics.Contains(q)})
}

func (s *Server) handleTopicStats(w http.ResponseWriter, r *http.Request) {
	if s.hist == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "history_disabled"})
		return
	}
	rows, err := s.hist.Topics(r.Context(), queryInt(r, "limit", 20))
	if err != nil {
		log.Error().Err(err).Msg("topic stats")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "db_error"})
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleRecent(w http.ResponseWriter, r *http.Request) {
	if s.hist == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "history_disabled"})
		return
	}
	rows, err := s.hist.Recent(r.Context(), r.URL.Query().Get("session"), queryInt(r, "limit", 20))
	if err != nil {
		log.Error().Err(err).Msg("recent rounds")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "db_error"})
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// queryInt reads a positive integer query parameter, capped at 100.
func queryInt(r *http.Request, key string, def int) int {
	n, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || n <= 0 {
		return def
	}
	return min(n, 100)
}
