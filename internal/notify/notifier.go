// Package notify tells the ops team about provisioning outcomes that need a
// human.
package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/valenante/paginaVenta-sub002/internal/domain"
)

// Channel delivers one ops notification.
type Channel interface {
	Name() string
	Send(ctx context.Context, o Outcome) error
}

// Outcome is a terminal provisioning result worth reporting.
type Outcome struct {
	PrecheckoutID string
	State         domain.ProvisioningState
	TenantName    string
	ErrorMessage  string
}

// Needed reports whether state should be reported to ops.
func Needed(state domain.ProvisioningState) bool {
	switch state {
	case domain.ProvisioningFailed,
		domain.ProvisioningActiveWithWarnings,
		domain.ProvisioningTransportError:
		return true
	default:
		return false
	}
}

// Text renders the outcome as a single line of Slack mrkdwn.
func (o Outcome) Text() string {
	name := o.TenantName
	if name == "" {
		name = "(sin nombre)"
	}
	text := fmt.Sprintf("*%s* `%s` precheckout `%s`", name, o.State, o.PrecheckoutID)
	if o.ErrorMessage != "" {
		text += ": " + o.ErrorMessage
	}
	return text
}

// Notifier fans an outcome out to every registered channel.
type Notifier struct {
	channels *Registry
}

func New(channels *Registry) *Notifier {
	return &Notifier{channels: channels}
}

// Notify sends o to all channels when its state needs attention. A failing
// channel does not stop the others; the joined error is returned.
func (n *Notifier) Notify(ctx context.Context, o Outcome) error {
	if n == nil || !Needed(o.State) {
		return nil
	}

	var errs []error
	for _, ch := range n.channels.All() {
		if err := ch.Send(ctx, o); err != nil {
			log.Warn().Err(err).Str("channel", ch.Name()).Str("precheckout_id", o.PrecheckoutID).Msg("ops notification failed")
			errs = append(errs, fmt.Errorf("%s: %w", ch.Name(), err))
		}
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("notify.Notifier.Notify: %w", err)
	}
	return nil
}
