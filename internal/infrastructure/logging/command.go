package logging

import (
	"context"

	"github.com/alexisbeaulieu97/mhplugin/internal/ports"
)

// StartCommand returns ctx carrying a fresh correlation ID unless one is
// already present, along with that ID.
func StartCommand(ctx context.Context) (context.Context, string) {
	if id := ports.GetCorrelationID(ctx); id != "" {
		return ctx, id
	}
	id := ports.GenerateCorrelationID()
	return ports.WithCorrelationID(ctx, id), id
}
