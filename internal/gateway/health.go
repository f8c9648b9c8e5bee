package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/hattiebot/conduit/internal/health"
)

// HealthCheck reports the number of open sessions.
func (h *Hub) HealthCheck(context.Context) health.ComponentHealth {
	return health.ComponentHealth{
		Name:    "sessions",
		Status:  health.StatusOK,
		Message: fmt.Sprintf("%d open", h.Len()),
		LastOK:  time.Now(),
	}
}
