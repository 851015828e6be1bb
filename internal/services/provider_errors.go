package services

import (
	"context"
	"errors"
	"fmt"

	"carenest/pkg/utils"
)

// providerError classifies a failed provider call for HandleServiceError.
func providerError(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", utils.ErrProviderTimeout, err)
	}
	return fmt.Errorf("%w: %v", utils.ErrProviderError, err)
}
