package api

import (
	"encoding/json"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/irlogic/irlogic-core/internal/history"
	"github.com/irlogic/irlogic-core/internal/input"
	"github.com/irlogic/irlogic-core/internal/keymap"
)

// handleDescription returns the subsystem description as plain text.
func (s *Server) handleDescription(w http.ResponseWriter, _ *http.Request) {
	writeText(w, http.StatusOK, s.tree.Description())
}

// handleStats returns tree counters.
func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.tree.Stats())
}

// keycodeEntry pairs a keycode with its kernel name.
type keycodeEntry struct {
	Code int32  `json:"code"`
	Name string `json:"name"`
}

// handleKeycodes returns the known code-to-name table, sorted by code,
// for UI keycode pickers.
func (s *Server) handleKeycodes(w http.ResponseWriter, _ *http.Request) {
	names := input.KeyNames()

	entries := make([]keycodeEntry, 0, len(names))
	for code, name := range names {
		entries = append(entries, keycodeEntry{Code: int32(code), Name: name})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Code < entries[j].Code })

	writeJSON(w, http.StatusOK, map[string]any{
		"keycodes": entries,
		"count":    len(entries),
	})
}

// translateRequest is the request body for POST /translate.
type translateRequest struct {
	Protocol int32 `json:"protocol"`
	Device   int32 `json:"device"`
	Command  int32 `json:"command"`
}

// handleTranslate injects a decoded triple into the translator, as if a
// receiver had reported it. Used to verify keymaps without IR hardware.
func (s *Server) handleTranslate(w http.ResponseWriter, r *http.Request) {
	var req translateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	matches := s.tree.Translate(nil, req.Protocol, req.Device, req.Command)
	if matches == nil {
		matches = []keymap.Match{}
	}

	if s.history != nil {
		s.recordInjectedSignal(r, req, matches)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"matches": matches,
		"count":   len(matches),
	})
}

// resetRequest is the request body for POST /system/reset.
type resetRequest struct {
	Confirm string `json:"confirm"`
}

// handleReset destroys every remote in the tree.
//
// This is a destructive operation — the request must include an exact
// confirmation string as a safety guard.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if req.Confirm != "RESET ALL REMOTES" {
		writeBadRequest(w, `confirm field must be exactly "RESET ALL REMOTES"`)
		return
	}

	remotes := s.tree.ListRemotes()
	deleted := 0
	for _, remote := range remotes {
		if err := s.tree.DeleteRemote(remote.Name); err != nil {
			s.logger.Error("reset: failed to delete remote", "remote", remote.Name, "error", err)
			writeInternalError(w, "failed to delete remote "+remote.Name)
			return
		}
		deleted++
	}

	s.logger.Info("tree reset", "remotes_deleted", deleted)
	s.broadcastTreeEvent("tree.reset", map[string]int{"remotes_deleted": deleted})

	writeJSON(w, http.StatusOK, map[string]any{
		"status":          "ok",
		"remotes_deleted": deleted,
	})
}

// handleEvents returns recent signal history across all remotes.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, http.StatusServiceUnavailable, ErrCodeUnavailable, "history storage not configured")
		return
	}

	events, err := s.history.GetRecent(r.Context(), queryLimit(r))
	if err != nil {
		s.logger.Error("history query failed", "error", err)
		writeInternalError(w, "failed to query history")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"events": events,
		"count":  len(events),
	})
}

// handlePruneEvents deletes history older than the given retention.
// Query parameter: older_than_hours (default 720 = 30 days).
func (s *Server) handlePruneEvents(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, http.StatusServiceUnavailable, ErrCodeUnavailable, "history storage not configured")
		return
	}

	hours := 720
	if raw := r.URL.Query().Get("older_than_hours"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeBadRequest(w, "older_than_hours must be a positive integer")
			return
		}
		hours = parsed
	}

	deleted, err := s.history.Prune(r.Context(), time.Duration(hours)*time.Hour)
	if err != nil {
		s.logger.Error("history prune failed", "error", err)
		writeInternalError(w, "failed to prune history")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"deleted": deleted,
	})
}

// recordInjectedSignal writes a translate-endpoint injection to history.
func (s *Server) recordInjectedSignal(r *http.Request, req translateRequest, matches []keymap.Match) {
	if len(matches) == 0 {
		event := historyEvent(req, "api-inject", nil)
		if err := s.history.Record(r.Context(), event); err != nil {
			s.logger.Debug("history write failed", "error", err)
		}
		return
	}

	for i := range matches {
		event := historyEvent(req, "api-inject", &matches[i])
		if err := s.history.Record(r.Context(), event); err != nil {
			s.logger.Debug("history write failed", "error", err)
		}
	}
}

// historyEvent builds a history record from an injected triple. A nil
// match records the signal as unmatched.
func historyEvent(req translateRequest, receiver string, match *keymap.Match) history.Event {
	event := history.Event{
		Receiver: receiver,
		Protocol: req.Protocol,
		Device:   req.Device,
		Command:  req.Command,
	}
	if match != nil {
		event.Remote = match.Remote
		event.Keymap = match.Keymap
		event.Keycode = match.Keycode
		event.Matched = true
	}
	return event
}

// formatAttr renders an attribute value the way its file representation
// reads: decimal digits plus a trailing newline.
func formatAttr(value int32) string {
	return strconv.FormatInt(int64(value), 10) + "\n"
}

// queryLimit parses the limit query parameter, returning 0 (repository
// default) when absent or malformed.
func queryLimit(r *http.Request) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return 0
	}
	return limit
}
