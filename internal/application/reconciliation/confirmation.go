package reconciliation

import (
	"context"
	"fmt"

	"github.com/opsledger/backend/internal/domain/shared"
)

type confirmationKey struct{}

// WithSensitiveConfirmation marks ctx as carrying a verified password
// re-confirmation. Deleting records and rolling back settled records are
// refused without it.
func WithSensitiveConfirmation(ctx context.Context) context.Context {
	return context.WithValue(ctx, confirmationKey{}, true)
}

// SensitiveConfirmed reports whether ctx carries a verified re-confirmation
func SensitiveConfirmed(ctx context.Context) bool {
	confirmed, _ := ctx.Value(confirmationKey{}).(bool)
	return confirmed
}

func requireConfirmation(ctx context.Context, format string, args ...any) error {
	if SensitiveConfirmed(ctx) {
		return nil
	}
	return shared.NewDomainError(shared.CodeForbidden, fmt.Sprintf(format, args...)+" requires password confirmation")
}
