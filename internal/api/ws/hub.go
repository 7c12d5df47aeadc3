package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/valenante/paginaVenta-sub002/internal/domain"
	"github.com/valenante/paginaVenta-sub002/internal/notify"
	"github.com/valenante/paginaVenta-sub002/internal/provisioning"
	redisstore "github.com/valenante/paginaVenta-sub002/internal/store/redis"
)

const writeTimeout = 10 * time.Second

// PubSub is the event fan-out used to mirror provisioning snapshots.
// *redis.Store satisfies this interface.
type PubSub interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, func(), error)
}

// Notifier reports terminal outcomes to ops. *notify.Notifier satisfies
// this interface.
type Notifier interface {
	Notify(ctx context.Context, o notify.Outcome) error
}

// HubConfig wires the collaborators of a Hub.
type HubConfig struct {
	PubSub   PubSub
	Attempts domain.CheckoutAttemptRepository
	Status   provisioning.StatusClient
	Notifier Notifier
	Poller   provisioning.Options
}

// Hub serves the provisioning status streams.
type Hub struct {
	pubsub   PubSub
	attempts domain.CheckoutAttemptRepository
	status   provisioning.StatusClient
	notifier Notifier
	opts     provisioning.Options
}

// NewHub creates a new WebSocket hub.
func NewHub(cfg HubConfig) *Hub {
	return &Hub{
		pubsub:   cfg.PubSub,
		attempts: cfg.Attempts,
		status:   meteredClient{next: cfg.Status},
		notifier: cfg.Notifier,
		opts:     cfg.Poller,
	}
}

// ServeOperatorWatch relays the snapshots of one checkout to a sales
// operator. It subscribes to Redis channel "provisioning:<precheckoutId>"
// and never starts a poller of its own.
func (h *Hub) ServeOperatorWatch(w http.ResponseWriter, r *http.Request) {
	precheckoutID := chi.URLParam(r, "precheckoutID")

	attempt, ok := h.lookupAttempt(w, r, precheckoutID)
	if !ok {
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("websocket accept")
		return
	}
	defer conn.CloseNow()

	ctx := conn.CloseRead(r.Context())

	messages, cleanup, err := h.pubsub.Subscribe(ctx, redisstore.ProvisioningChannel(precheckoutID))
	if err != nil {
		log.Error().Err(err).Msg("websocket subscribe")
		_ = conn.Close(websocket.StatusInternalError, "subscribe failed")
		return
	}
	defer cleanup()

	// The ledger state lets the operator see something before the next tick.
	initial, err := json.Marshal(provisioning.Snapshot{
		State:   attempt.State,
		Message: provisioning.Message(attempt.State),
	})
	if err == nil {
		if writeErr := writeFrame(ctx, conn, initial); writeErr != nil {
			log.Debug().Err(writeErr).Msg("websocket write")
			return
		}
	}

	for {
		select {
		case <-ctx.Done():
			_ = conn.Close(websocket.StatusNormalClosure, "connection closed")
			return
		case msg, msgOK := <-messages:
			if !msgOK {
				_ = conn.Close(websocket.StatusNormalClosure, "channel closed")
				return
			}
			if writeErr := writeFrame(ctx, conn, msg); writeErr != nil {
				log.Debug().Err(writeErr).Msg("websocket write")
				return
			}
		}
	}
}

// lookupAttempt resolves the checkout attempt or writes the HTTP error.
func (h *Hub) lookupAttempt(w http.ResponseWriter, r *http.Request, precheckoutID string) (*domain.CheckoutAttempt, bool) {
	if precheckoutID == "" {
		http.Error(w, "missing precheckout id", http.StatusBadRequest)
		return nil, false
	}

	attempt, err := h.attempts.GetByPrecheckoutID(r.Context(), precheckoutID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.Error(w, "unknown precheckout id", http.StatusNotFound)
			return nil, false
		}
		log.Error().Err(err).Str("precheckout_id", precheckoutID).Msg("checkout attempt lookup")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return nil, false
	}
	return attempt, true
}

// Publish sends a snapshot to the checkout's Redis channel.
func (h *Hub) Publish(ctx context.Context, precheckoutID string, snap provisioning.Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("ws.Hub.Publish: %w", err)
	}
	if err := h.pubsub.Publish(ctx, redisstore.ProvisioningChannel(precheckoutID), payload); err != nil {
		return fmt.Errorf("ws.Hub.Publish: %w", err)
	}
	return nil
}

func writeFrame(ctx context.Context, conn *websocket.Conn, payload []byte) error {
	wctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return conn.Write(wctx, websocket.MessageText, payload)
}
