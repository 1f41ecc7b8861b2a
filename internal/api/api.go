// Package api exposes the simulation kernel's control-plane operations
// (load, start, interact, stop, snapshot) as a small JSON HTTP surface.
// It is bookkeeping around the kernel, not part of it: the kernel never
// imports this package.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/relaylogic/relaysim/internal/model"
	"github.com/relaylogic/relaysim/internal/sim"
	"github.com/relaylogic/relaysim/internal/simerr"
	"github.com/relaylogic/relaysim/internal/store"
	"github.com/relaylogic/relaysim/internal/web"
)

// API wires one Engine to HTTP handlers. A single API instance runs one
// circuit at a time, matching the kernel's single-Engine-per-run model.
type API struct {
	engine  *sim.Engine
	history *store.RunHistoryRepository
	hub     *web.Hub
	logger  *zap.Logger

	mu         sync.Mutex
	documentID string
	startedAt  time.Time
}

// New wires an API around an already-configured Engine. history may be
// nil (no run-history recording); hub may be nil (no live observers).
func New(engine *sim.Engine, history *store.RunHistoryRepository, hub *web.Hub, logger *zap.Logger) *API {
	a := &API{engine: engine, history: history, hub: hub, logger: logger}
	engine.OnStable(a.onStable)
	engine.OnUnstable(a.onUnstable)
	return a
}

func (a *API) onStable(snap sim.Snapshot) {
	if a.hub != nil {
		a.hub.BroadcastStable(snap)
	}
}

func (a *API) onUnstable() {
	if a.hub != nil {
		a.hub.BroadcastUnstable()
	}
}

// Health reports liveness.
func (a *API) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(a.logger, w, http.StatusOK, map[string]string{"status": "ok", "state": a.engine.State().String()})
}

type startRequest struct {
	Path string `json:"path"`
}

// Start loads the ".rsim" document at the request's path and runs the
// engine to its first stable state.
func (a *API) Start(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Path == "" {
		writeError(a.logger, w, simerr.New(simerr.IO, "api.Start", errMissingPath))
		return
	}
	doc, err := store.Load(req.Path)
	if err != nil {
		writeError(a.logger, w, err)
		return
	}

	a.mu.Lock()
	a.documentID = documentID(doc)
	a.startedAt = time.Now()
	a.mu.Unlock()

	if err := a.engine.Start(doc); err != nil {
		a.recordRun(r.Context())
		writeError(a.logger, w, err)
		return
	}
	a.recordRun(r.Context())
	snap, _ := a.engine.Snapshot()
	writeJSON(a.logger, w, http.StatusOK, snap)
}

type interactRequest struct {
	ComponentID string            `json:"component_id"`
	Action      string            `json:"action"`
	Params      map[string]string `json:"params"`
}

// Interact applies one stimulus and runs the loop to the next stable
// state.
func (a *API) Interact(w http.ResponseWriter, r *http.Request) {
	var req interactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(a.logger, w, simerr.New(simerr.IO, "api.Interact", err))
		return
	}
	if err := a.engine.Interact(req.ComponentID, req.Action, req.Params); err != nil {
		a.recordRun(r.Context())
		writeError(a.logger, w, err)
		return
	}
	a.recordRun(r.Context())
	snap, err := a.engine.Snapshot()
	if err != nil {
		writeError(a.logger, w, err)
		return
	}
	writeJSON(a.logger, w, http.StatusOK, snap)
}

// Stop tears the engine down and returns the final run statistics.
func (a *API) Stop(w http.ResponseWriter, r *http.Request) {
	stats, err := a.engine.Stop()
	if err != nil {
		writeError(a.logger, w, err)
		return
	}
	a.recordRunWithStats(r.Context(), stats)
	if a.hub != nil {
		a.hub.BroadcastRunComplete(stats)
	}
	writeJSON(a.logger, w, http.StatusOK, stats)
}

// Snapshot returns the engine's current stable view.
func (a *API) Snapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := a.engine.Snapshot()
	if err != nil {
		writeError(a.logger, w, err)
		return
	}
	writeJSON(a.logger, w, http.StatusOK, snap)
}

func (a *API) recordRun(ctx context.Context) {
	a.recordRunWithStats(ctx, sim.Statistics{})
}

func (a *API) recordRunWithStats(ctx context.Context, stats sim.Statistics) {
	if a.history == nil {
		return
	}
	a.mu.Lock()
	documentID, startedAt := a.documentID, a.startedAt
	a.mu.Unlock()
	if documentID == "" {
		return
	}
	rctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := a.history.Record(rctx, documentID, startedAt, stats); err != nil {
		a.logger.Warn("run history record failed", zap.Error(err), zap.String("document_id", documentID))
	}
}

func documentID(doc *model.Document) string {
	if doc.Metadata != nil && doc.Metadata.Title != "" {
		return doc.Metadata.Title
	}
	return "untitled"
}

type errString string

func (e errString) Error() string { return string(e) }

const errMissingPath = errString("path is required")
