package api

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/irlogic/irlogic-core/internal/keymap"
)

// createNodeRequest is the request body for creating a remote or keymap.
type createNodeRequest struct {
	Name string `json:"name"`
}

// handleListRemotes returns summaries of all remotes in creation order.
func (s *Server) handleListRemotes(w http.ResponseWriter, _ *http.Request) {
	remotes := s.tree.ListRemotes()
	writeJSON(w, http.StatusOK, map[string]any{
		"remotes": remotes,
		"count":   len(remotes),
	})
}

// handleCreateRemote creates a remote group and registers its input sink.
func (s *Server) handleCreateRemote(w http.ResponseWriter, r *http.Request) {
	var req createNodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if err := s.tree.CreateRemote(req.Name); err != nil {
		writeKeymapError(w, err)
		return
	}

	summary, err := s.tree.GetRemote(req.Name)
	if err != nil {
		writeKeymapError(w, err)
		return
	}

	s.broadcastTreeEvent("remote.created", summary)
	s.publishRemoteState(req.Name)
	writeJSON(w, http.StatusCreated, summary)
}

// handleGetRemote returns a single remote summary.
func (s *Server) handleGetRemote(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "remote")

	summary, err := s.tree.GetRemote(name)
	if err != nil {
		writeKeymapError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

// handleDeleteRemote destroys a remote, its keymaps, and its input sink.
func (s *Server) handleDeleteRemote(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "remote")

	if err := s.tree.DeleteRemote(name); err != nil {
		writeKeymapError(w, err)
		return
	}

	s.broadcastTreeEvent("remote.deleted", map[string]string{"name": name})
	s.publishRemoteState(name)
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "name": name})
}

// handleGetRemoteAttr returns a remote attribute (description, path) as text.
func (s *Server) handleGetRemoteAttr(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "remote")
	attr := chi.URLParam(r, "attr")

	value, err := s.tree.RemoteAttr(name, attr)
	if err != nil {
		writeKeymapError(w, err)
		return
	}

	writeText(w, http.StatusOK, value)
}

// handleListKeymaps returns a remote's keymaps in creation order.
func (s *Server) handleListKeymaps(w http.ResponseWriter, r *http.Request) {
	remoteName := chi.URLParam(r, "remote")

	keymaps, err := s.tree.ListKeymaps(remoteName)
	if err != nil {
		writeKeymapError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"keymaps": keymaps,
		"count":   len(keymaps),
	})
}

// handleCreateKeymap creates a zero-initialised keymap entry under a remote.
func (s *Server) handleCreateKeymap(w http.ResponseWriter, r *http.Request) {
	remoteName := chi.URLParam(r, "remote")

	var req createNodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if err := s.tree.CreateKeymap(remoteName, req.Name); err != nil {
		writeKeymapError(w, err)
		return
	}

	s.broadcastTreeEvent("keymap.created", map[string]string{
		"remote": remoteName,
		"keymap": req.Name,
	})
	s.publishRemoteState(remoteName)
	writeJSON(w, http.StatusCreated, map[string]string{
		"remote": remoteName,
		"name":   req.Name,
	})
}

// handleGetKeymap returns a single keymap with all four attributes.
func (s *Server) handleGetKeymap(w http.ResponseWriter, r *http.Request) {
	remoteName := chi.URLParam(r, "remote")
	keymapName := chi.URLParam(r, "keymap")

	keymaps, err := s.tree.ListKeymaps(remoteName)
	if err != nil {
		writeKeymapError(w, err)
		return
	}

	for _, k := range keymaps {
		if k.Name == keymapName {
			writeJSON(w, http.StatusOK, k)
			return
		}
	}

	writeNotFound(w, "keymap not found")
}

// handleDeleteKeymap removes a keymap and releases its claimed key.
func (s *Server) handleDeleteKeymap(w http.ResponseWriter, r *http.Request) {
	remoteName := chi.URLParam(r, "remote")
	keymapName := chi.URLParam(r, "keymap")

	if err := s.tree.DeleteKeymap(remoteName, keymapName); err != nil {
		writeKeymapError(w, err)
		return
	}

	s.broadcastTreeEvent("keymap.deleted", map[string]string{
		"remote": remoteName,
		"keymap": keymapName,
	})
	s.publishRemoteState(remoteName)
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "name": keymapName})
}

// handleGetKeymapAttr returns one keymap field as decimal text with a
// trailing newline, mirroring the attribute file representation.
func (s *Server) handleGetKeymapAttr(w http.ResponseWriter, r *http.Request) {
	remoteName := chi.URLParam(r, "remote")
	keymapName := chi.URLParam(r, "keymap")
	field := keymap.Field(chi.URLParam(r, "field"))

	value, err := s.tree.ReadAttr(remoteName, keymapName, field)
	if err != nil {
		writeKeymapError(w, err)
		return
	}

	writeText(w, http.StatusOK, formatAttr(value))
}

// handleSetKeymapAttr stores one keymap field from the raw request body.
//
// The body is passed through unparsed: decimal digits with at most one
// trailing newline. A keycode at or above the key range limit is accepted
// and silently ignored, matching WriteAttr.
func (s *Server) handleSetKeymapAttr(w http.ResponseWriter, r *http.Request) {
	remoteName := chi.URLParam(r, "remote")
	keymapName := chi.URLParam(r, "keymap")
	field := keymap.Field(chi.URLParam(r, "field"))

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeBadRequest(w, "failed to read request body")
		return
	}

	if err := s.tree.WriteAttr(remoteName, keymapName, field, string(body)); err != nil {
		writeKeymapError(w, err)
		return
	}

	s.broadcastTreeEvent("keymap.updated", map[string]string{
		"remote": remoteName,
		"keymap": keymapName,
		"field":  string(field),
	})
	s.publishRemoteState(remoteName)
	w.WriteHeader(http.StatusNoContent)
}

// handleRemoteEvents returns recent signal history for one remote.
func (s *Server) handleRemoteEvents(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, http.StatusServiceUnavailable, ErrCodeUnavailable, "history storage not configured")
		return
	}

	name := chi.URLParam(r, "remote")
	if _, err := s.tree.GetRemote(name); err != nil {
		writeKeymapError(w, err)
		return
	}

	events, err := s.history.GetByRemote(r.Context(), name, queryLimit(r))
	if err != nil {
		s.logger.Error("history query failed", "remote", name, "error", err)
		writeInternalError(w, "failed to query history")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"events": events,
		"count":  len(events),
	})
}
