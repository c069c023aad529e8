package security

import (
	"context"

	"github.com/crackerjack-go/crackerjack/pkg/crkerr"
	"github.com/crackerjack-go/crackerjack/pkg/ratelimit"
)

// GateValidation wraps a path/proposal validation call with the shared
// token-bucket limiter so a misbehaving hook or agent loop can't hammer the
// filesystem-validation path (spec §4.11).
func GateValidation(ctx context.Context) error {
	if err := ratelimit.Wait(ctx, ratelimit.OperationSecurityValidation); err != nil {
		return crkerr.Wrap(crkerr.ClassSecurity, err)
	}
	return nil
}
