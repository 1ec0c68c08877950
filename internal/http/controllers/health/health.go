// Package health expone /readyz.
package health

import (
	"context"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	dto "github.com/dropDatabas3/mailgate/internal/http/dto/health"
	"github.com/dropDatabas3/mailgate/internal/http/helpers"
	"github.com/dropDatabas3/mailgate/internal/observability/logger"
)

// Pinger es cualquier dependencia que sepa responder un ping.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Check es un componente a verificar. Un Pinger nil se reporta "disabled".
type Check struct {
	Name     string
	Pinger   Pinger
	Optional bool // si falla, degrada pero no devuelve 503
}

// Controller responde el estado de las dependencias.
type Controller struct {
	storage string
	version string
	checks  []Check
	timeout time.Duration
}

func NewController(storage, version string, checks ...Check) *Controller {
	return &Controller{storage: storage, version: version, checks: checks, timeout: 2 * time.Second}
}

// Readyz hace ping en paralelo a cada componente.
func (c *Controller) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), c.timeout)
	defer cancel()

	var (
		mu       sync.Mutex
		g        errgroup.Group
		critical bool
		degraded bool
		out      = make(map[string]dto.HealthStatus, len(c.checks))
	)
	for _, chk := range c.checks {
		if chk.Pinger == nil {
			out[chk.Name] = dto.HealthStatus{Status: "disabled"}
			continue
		}
		g.Go(func() error {
			start := time.Now()
			err := chk.Pinger.Ping(ctx)
			st := dto.HealthStatus{Status: "ok", LatencyMs: time.Since(start).Milliseconds()}

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				st.Status, st.Error = "error", err.Error()
				degraded = true
				critical = critical || !chk.Optional
				logger.From(r.Context()).Warn("readiness check failed",
					logger.Component(chk.Name),
					logger.Err(err),
				)
			}
			out[chk.Name] = st
			return nil
		})
	}
	_ = g.Wait()

	resp := dto.HealthResponse{
		Status:     "ready",
		Version:    c.version,
		Storage:    c.storage,
		Components: out,
	}
	status := http.StatusOK
	if degraded {
		resp.Status = "degraded"
	}
	if critical {
		status = http.StatusServiceUnavailable
	}
	helpers.WriteJSON(w, status, resp)
}
