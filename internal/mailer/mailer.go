// Package mailer is the outbound mail boundary. The default implementation
// only logs; real delivery is wired in by deployment.
package mailer

import (
	"context"

	"github.com/openshop/storefront/internal/logging"
)

type LogMailer struct{}

func (LogMailer) SendPasswordReset(ctx context.Context, email, token string) error {
	logging.FromContext(ctx).Info("password_reset_mail",
		"email", email,
		"token", token,
	)
	return nil
}
