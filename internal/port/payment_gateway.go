package port

import (
	"context"

	"github.com/dmoraru/floraria/internal/core/domain"
)

// RedirectSession is what the gateway hands back when a card payment
// is initiated: where to send the browser and the gateway-side ID to
// verify against later.
type RedirectSession struct {
	RedirectURL string
	PaymentID   string
}

type PaymentGateway interface {
	// CreateRedirect registers the payment with the gateway and
	// returns the hosted payment page URL
	CreateRedirect(ctx context.Context, order domain.Order, returnURL, cancelURL string) (RedirectSession, error)

	// VerifyPayment confirms server-to-server that the gateway
	// collected the payment
	VerifyPayment(ctx context.Context, paymentID string) (bool, error)
}
