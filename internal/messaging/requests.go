package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nzcve71300/zentro-zones/internal/zones"
)

// Request subjects exposed to collaborator subsystems. The chat
// front-end turns user input into these; authorization is its problem,
// not ours.
const (
	SubjectCreateRequest      = "zones.request.create"
	SubjectReconfigureRequest = "zones.request.reconfigure"
	SubjectInvalidateRequest  = "zones.request.invalidate"
)

// ZoneAPI is the slice of the zone manager the request surface needs.
type ZoneAPI interface {
	RequestZoneCreation(ctx context.Context, player, serverID string) (string, error)
	UpdateServerDefaults(ctx context.Context, serverID string, patch zones.DefaultsPatch) (int, error)
	InvalidateTeam(ctx context.Context, serverID, member string) error
}

type createRequest struct {
	ServerID string `json:"server_id"`
	Player   string `json:"player"`
}

type createResponse struct {
	Zone  string `json:"zone,omitempty"`
	Error string `json:"error,omitempty"`
}

type reconfigureRequest struct {
	ServerID            string             `json:"server_id"`
	Radius              *int               `json:"radius,omitempty"`
	CheckRadius         *float64           `json:"check_radius,omitempty"`
	Colors              *zones.StateColors `json:"colors,omitempty"`
	OfflineGraceSeconds *int64             `json:"offline_grace_seconds,omitempty"`
	ExpireSeconds       *int64             `json:"expire_seconds,omitempty"`
}

type reconfigureResponse struct {
	Applied int    `json:"applied"`
	Error   string `json:"error,omitempty"`
}

type invalidateRequest struct {
	ServerID string `json:"server_id"`
	Member   string `json:"member"`
}

type invalidateResponse struct {
	Error string `json:"error,omitempty"`
}

// RequestHandler serves the engine's request subjects over the bus.
type RequestHandler struct {
	server *NatsServer
	api    ZoneAPI
}

func NewRequestHandler(server *NatsServer, api ZoneAPI) *RequestHandler {
	return &RequestHandler{
		server: server,
		api:    api,
	}
}

// Start subscribes the request subjects once the bus is up, then blocks
// until shutdown.
func (h *RequestHandler) Start(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return nil
	case <-h.server.Ready():
	}

	subs := []struct {
		subject string
		handler func(data []byte) []byte
	}{
		{SubjectCreateRequest, func(data []byte) []byte { return h.handleCreate(ctx, data) }},
		{SubjectReconfigureRequest, func(data []byte) []byte { return h.handleReconfigure(ctx, data) }},
		{SubjectInvalidateRequest, func(data []byte) []byte { return h.handleInvalidate(ctx, data) }},
	}

	for _, s := range subs {
		unsub, err := h.server.SubscribeRequest(s.subject, s.handler)
		if err != nil {
			return fmt.Errorf("subscribing %s: %w", s.subject, err)
		}
		defer unsub()
	}

	slog.InfoContext(ctx, "zone request subjects ready")

	<-ctx.Done()
	return nil
}

func (h *RequestHandler) handleCreate(ctx context.Context, data []byte) []byte {
	var req createRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return mustJSON(createResponse{Error: fmt.Sprintf("decoding request: %v", err)})
	}

	name, err := h.api.RequestZoneCreation(ctx, req.Player, req.ServerID)
	if err != nil {
		return mustJSON(createResponse{Error: err.Error()})
	}
	return mustJSON(createResponse{Zone: name})
}

func (h *RequestHandler) handleReconfigure(ctx context.Context, data []byte) []byte {
	var req reconfigureRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return mustJSON(reconfigureResponse{Error: fmt.Sprintf("decoding request: %v", err)})
	}

	patch := zones.DefaultsPatch{
		Radius:      req.Radius,
		CheckRadius: req.CheckRadius,
		Colors:      req.Colors,
	}
	if req.OfflineGraceSeconds != nil {
		d := time.Duration(*req.OfflineGraceSeconds) * time.Second
		patch.OfflineGrace = &d
	}
	if req.ExpireSeconds != nil {
		d := time.Duration(*req.ExpireSeconds) * time.Second
		patch.Expire = &d
	}

	applied, err := h.api.UpdateServerDefaults(ctx, req.ServerID, patch)
	if err != nil {
		return mustJSON(reconfigureResponse{Error: err.Error()})
	}
	return mustJSON(reconfigureResponse{Applied: applied})
}

func (h *RequestHandler) handleInvalidate(ctx context.Context, data []byte) []byte {
	var req invalidateRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return mustJSON(invalidateResponse{Error: fmt.Sprintf("decoding request: %v", err)})
	}

	if err := h.api.InvalidateTeam(ctx, req.ServerID, req.Member); err != nil {
		return mustJSON(invalidateResponse{Error: err.Error()})
	}
	return mustJSON(invalidateResponse{})
}

func mustJSON(v any) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		// Response structs marshal unconditionally; this is unreachable.
		return []byte(`{"error":"internal encoding failure"}`)
	}
	return data
}
