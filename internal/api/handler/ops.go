// Package handler provides HTTP handlers for the VanRoute API.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/vanroute/vanroute/internal/api/models"
	"github.com/vanroute/vanroute/internal/api/response"
	"github.com/vanroute/vanroute/internal/provider/resilience"
)

// readinessTimeout bounds each dependency check.
const readinessTimeout = 2 * time.Second

// Check is a named dependency probe, e.g. a database ping.
type Check struct {
	Name  string
	Check func(ctx context.Context) error
}

// OpsConfig holds configuration for the ops handler.
type OpsConfig struct {
	Version   string
	BuildTime string
	// Registry reports candidate provider circuit states. May be nil.
	Registry *resilience.Registry
	// Checks must all pass for the service to be ready.
	Checks []Check
}

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	cfg OpsConfig
	now func() time.Time
}

// NewOpsHandler creates a new OpsHandler.
func NewOpsHandler(cfg OpsConfig) *OpsHandler {
	return &OpsHandler{cfg: cfg, now: time.Now}
}

// HealthCheck handles GET /v1/ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(h.now()),
		Details: map[string]interface{}{
			"version":   h.cfg.Version,
			"buildTime": h.cfg.BuildTime,
		},
	})
}

// ReadinessCheck handles GET /v1/ops/ready. It answers 503 while any
// dependency check fails.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	subsystems, ok := h.runChecks(r.Context())

	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(h.now()),
	}
	status := http.StatusOK
	if !ok {
		health.Status = models.HealthStatusFail
		status = http.StatusServiceUnavailable
	}
	if len(subsystems) > 0 {
		details := make(map[string]interface{}, len(subsystems))
		for _, s := range subsystems {
			details[s.Name] = s.Status
		}
		health.Details = details
	}
	response.JSON(w, r, status, health)
}

// SystemStatus handles GET /v1/ops/status - subsystem checks and candidate
// provider circuit states. Open circuits degrade the status; the service
// still answers from cache and the remaining sources.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	subsystems, ok := h.runChecks(r.Context())
	providers := h.providers()

	overall := models.HealthStatusOK
	for _, p := range providers {
		if p.Status != models.HealthStatusOK {
			overall = models.HealthStatusDegraded
		}
	}
	if !ok {
		overall = models.HealthStatusFail
	}

	response.JSON(w, r, http.StatusOK, models.SystemStatus{
		Status:     overall,
		Time:       models.Timestamp(h.now()),
		Subsystems: subsystems,
		Providers:  providers,
	})
}

func (h *OpsHandler) runChecks(ctx context.Context) ([]models.SubsystemStatus, bool) {
	out := make([]models.SubsystemStatus, 0, len(h.cfg.Checks))
	ok := true
	for _, c := range h.cfg.Checks {
		checkCtx, cancel := context.WithTimeout(ctx, readinessTimeout)
		err := c.Check(checkCtx)
		cancel()

		s := models.SubsystemStatus{Name: c.Name, Status: models.HealthStatusOK}
		if err != nil {
			ok = false
			detail := err.Error()
			s.Status = models.HealthStatusFail
			s.Detail = &detail
		}
		out = append(out, s)
	}
	return out, ok
}

func (h *OpsHandler) providers() []models.ProviderStatus {
	if h.cfg.Registry == nil {
		return []models.ProviderStatus{}
	}
	all := h.cfg.Registry.All()
	out := make([]models.ProviderStatus, 0, len(all))
	for _, p := range all {
		ps := models.ProviderStatus{
			Provider:            p.Name,
			Status:              providerStatus(p),
			CircuitState:        p.CircuitState.String(),
			ConsecutiveFailures: int(p.Counts.ConsecutiveFailures),
		}
		if p.LastSuccessAt != nil {
			ps.LastSuccessAt = models.TimestampPtr(*p.LastSuccessAt)
		}
		if p.LastFailureAt != nil {
			ps.LastFailureAt = models.TimestampPtr(*p.LastFailureAt)
		}
		if p.LastError != "" {
			msg := p.LastError
			ps.Message = &msg
		}
		out = append(out, ps)
	}
	return out
}

func providerStatus(p *resilience.ProviderHealth) models.HealthStatus {
	switch p.Status() {
	case "healthy":
		return models.HealthStatusOK
	case "degraded":
		return models.HealthStatusDegraded
	default:
		return models.HealthStatusFail
	}
}
