package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"

	webpush "github.com/SherClockHolmes/webpush-go"

	"github.com/openrec/gympush/internal/subscription"
)

// Pusher delivers one encrypted message to one subscriber's endpoint and
// returns the push service's HTTP status code. A transport-level failure
// (DNS, TLS, timeout) returns a non-nil error with status 0.
type Pusher interface {
	Push(ctx context.Context, sub subscription.Subscriber, message []byte) (int, error)
}

// WebPush sends via the Web Push protocol with VAPID sender identification.
type WebPush struct {
	Subject    string // mailto: or https: VAPID subject
	PublicKey  string
	PrivateKey string
	TTL        int // seconds the push service may queue the message
}

// NewWebPush builds the production pusher from a VAPID key pair.
func NewWebPush(subject, publicKey, privateKey string, ttl int) *WebPush {
	return &WebPush{Subject: subject, PublicKey: publicKey, PrivateKey: privateKey, TTL: ttl}
}

// Push encrypts and delivers the message. The response body is drained so
// the transport can reuse connections across a fan-out page.
func (w *WebPush) Push(ctx context.Context, sub subscription.Subscriber, message []byte) (int, error) {
	resp, err := webpush.SendNotificationWithContext(ctx, message, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.Keys.P256dh,
			Auth:   sub.Keys.Auth,
		},
	}, &webpush.Options{
		Subscriber:      w.Subject,
		VAPIDPublicKey:  w.PublicKey,
		VAPIDPrivateKey: w.PrivateKey,
		TTL:             w.TTL,
	})
	if err != nil {
		return 0, fmt.Errorf("webpush send: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	return resp.StatusCode, nil
}

var _ Pusher = (*WebPush)(nil)

// statusPermanentlyGone reports whether the push service says the endpoint
// will never work again.
func statusPermanentlyGone(status int) bool {
	return status == http.StatusGone || status == http.StatusNotFound
}
