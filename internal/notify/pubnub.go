package notify

import (
	"context"
	"fmt"
	"log/slog"

	pubnub "github.com/pubnub/go/v7"

	"github.com/Paulo-CJ-Neto/IngressoHub-sub000/models"
)

type Config struct {
	PublishKey   string
	SubscribeKey string
	SecretKey    string
	UUID         string
}

// PubNubNotifier pushes terminal payment transitions to the buyer's
// channel so waiting checkout screens learn about the payment without
// polling.
type PubNubNotifier struct {
	pn *pubnub.PubNub
}

func NewPubNubNotifier(cfg Config) *PubNubNotifier {
	pnCfg := pubnub.NewConfigWithUserId(pubnub.UserId(cfg.UUID))
	pnCfg.PublishKey = cfg.PublishKey
	pnCfg.SubscribeKey = cfg.SubscribeKey
	pnCfg.SecretKey = cfg.SecretKey

	return &PubNubNotifier{pn: pubnub.NewPubNub(pnCfg)}
}

func (n *PubNubNotifier) PaymentStatusChanged(_ context.Context, p *models.Payment, st models.PaymentStatus) {
	channel := fmt.Sprintf("payments-%s", p.UserID)

	_, _, err := n.pn.Publish().
		Channel(channel).
		Message(map[string]any{
			"type":       "payment_status",
			"payment_id": p.ID,
			"status":     string(st),
		}).
		Execute()
	if err != nil {
		// Push is best effort; the status query endpoint stays correct.
		slog.Warn("pubnub publish failed", "channel", channel, "payment_id", p.ID, "error", err)
	}
}

// NoopNotifier is used when no push credentials are configured.
type NoopNotifier struct{}

func (NoopNotifier) PaymentStatusChanged(context.Context, *models.Payment, models.PaymentStatus) {}
