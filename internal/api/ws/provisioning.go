package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/rs/zerolog/log"

	"github.com/valenante/paginaVenta-sub002/internal/domain"
	"github.com/valenante/paginaVenta-sub002/internal/metrics"
	"github.com/valenante/paginaVenta-sub002/internal/notify"
	"github.com/valenante/paginaVenta-sub002/internal/provisioning"
)

const recordTimeout = 5 * time.Second

// ServeProvisioning streams the provisioning status of one checkout. The
// connection owns exactly one Poller: closing the socket stops it, and the
// socket is closed once the poller reaches a terminal state.
//
// Query: session_id (payment provider session) and precheckout_id.
func (h *Hub) ServeProvisioning(w http.ResponseWriter, r *http.Request) {
	ref := domain.ProvisioningRef{
		SessionID:     r.URL.Query().Get("session_id"),
		PrecheckoutID: r.URL.Query().Get("precheckout_id"),
	}

	attempt, ok := h.lookupAttempt(w, r, ref.PrecheckoutID)
	if !ok {
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("websocket accept")
		return
	}
	defer conn.CloseNow()

	metrics.ProvisioningStreamsActive.Inc()
	defer metrics.ProvisioningStreamsActive.Dec()

	// The client never sends; CloseRead cancels ctx when it goes away.
	ctx := conn.CloseRead(r.Context())

	// A reopened stream for a settled checkout replays the recorded outcome
	// and never polls or notifies again.
	if attempt.State.Settled() {
		replayOutcome(ctx, conn, attempt.State)
		return
	}

	poller := provisioning.New(h.status, ref, h.opts)
	poller.Start(ctx)
	defer poller.Stop()

	st := &stream{hub: h, conn: conn, ref: ref, recorded: attempt.State}

	for {
		select {
		case <-ctx.Done():
			_ = conn.Close(websocket.StatusNormalClosure, "connection closed")
			return
		case snap := <-poller.Updates():
			if err := st.emit(ctx, snap); err != nil {
				log.Debug().Err(err).Msg("websocket write")
				return
			}
			if snap.State.Terminal() {
				_ = conn.Close(websocket.StatusNormalClosure, string(snap.State))
				return
			}
		case <-poller.Done():
			final := poller.Snapshot()
			if final != st.last {
				if err := st.emit(ctx, final); err != nil {
					log.Debug().Err(err).Msg("websocket write")
					return
				}
			}
			_ = conn.Close(websocket.StatusNormalClosure, string(final.State))
			return
		}
	}
}

func replayOutcome(ctx context.Context, conn *websocket.Conn, state domain.ProvisioningState) {
	payload, err := json.Marshal(provisioning.Snapshot{State: state, Message: provisioning.Message(state)})
	if err != nil {
		log.Error().Err(err).Msg("marshal provisioning outcome")
		return
	}
	if err := writeFrame(ctx, conn, payload); err != nil {
		log.Debug().Err(err).Msg("websocket write")
		return
	}
	_ = conn.Close(websocket.StatusNormalClosure, string(state))
}

// stream is the per-connection bookkeeping of ServeProvisioning.
type stream struct {
	hub      *Hub
	conn     *websocket.Conn
	ref      domain.ProvisioningRef
	last     provisioning.Snapshot
	recorded domain.ProvisioningState
}

// emit writes snap to the client, mirrors it to Redis and records state
// changes in the checkout ledger.
func (s *stream) emit(ctx context.Context, snap provisioning.Snapshot) error {
	s.last = snap

	payload, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	if err := writeFrame(ctx, s.conn, payload); err != nil {
		return err
	}

	if err := s.hub.Publish(ctx, s.ref.PrecheckoutID, snap); err != nil {
		log.Warn().Err(err).Str("precheckout_id", s.ref.PrecheckoutID).Msg("provisioning snapshot not published")
	}

	// Settled ledger states are final.
	if snap.State == s.recorded || s.recorded.Settled() {
		return nil
	}
	s.recorded = snap.State
	s.record(ctx, snap)
	return nil
}

// record persists a state change. Terminal states are counted and, when
// they need a human, reported to ops. Both survive a client disconnect.
func (s *stream) record(ctx context.Context, snap provisioning.Snapshot) {
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()

	if err := s.hub.attempts.UpdateState(rctx, s.ref.PrecheckoutID, snap.State); err != nil {
		log.Error().Err(err).
			Str("precheckout_id", s.ref.PrecheckoutID).
			Str("state", string(snap.State)).
			Msg("checkout attempt state not recorded")
	}

	if !snap.State.Terminal() {
		return
	}

	metrics.ProvisioningOutcomes.WithLabelValues(string(snap.State)).Inc()
	log.Info().
		Str("precheckout_id", s.ref.PrecheckoutID).
		Str("state", string(snap.State)).
		Int("polls", snap.Polls).
		Msg("provisioning finished")

	if s.hub.notifier == nil {
		return
	}
	err := s.hub.notifier.Notify(rctx, notify.Outcome{
		PrecheckoutID: s.ref.PrecheckoutID,
		State:         snap.State,
		TenantName:    snap.TenantName,
		ErrorMessage:  snap.ErrorMessage,
	})
	if err != nil {
		log.Warn().Err(err).Str("precheckout_id", s.ref.PrecheckoutID).Msg("ops notification incomplete")
	}
}
