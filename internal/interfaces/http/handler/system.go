package handler

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/opsledger/backend/internal/infrastructure/persistence"
	"github.com/opsledger/backend/internal/interfaces/http/dto"
)

// DatabaseChecker reports database liveness and pool usage
type DatabaseChecker interface {
	Ping() error
	Stats() (persistence.ConnectionStats, error)
}

// SystemHandler handles health and system info endpoints
type SystemHandler struct {
	BaseHandler
	name      string
	version   string
	db        DatabaseChecker
	startTime time.Time
}

// NewSystemHandler creates a new SystemHandler
func NewSystemHandler(name, version string, db DatabaseChecker) *SystemHandler {
	return &SystemHandler{
		name:      name,
		version:   version,
		db:        db,
		startTime: time.Now(),
	}
}

// SystemInfoResponse represents the system information response
type SystemInfoResponse struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	GoVersion string `json:"go_version"`
	Uptime    string `json:"uptime"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status   string          `json:"status"`
	Database DatabaseHealth  `json:"database"`
	Uptime   string          `json:"uptime"`
	Time     time.Time       `json:"time"`
	Pool     *PoolStatistics `json:"pool,omitempty"`
}

// DatabaseHealth reports the database check
type DatabaseHealth struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// PoolStatistics is the connection pool snapshot
type PoolStatistics struct {
	OpenConnections int   `json:"open_connections"`
	InUse           int   `json:"in_use"`
	Idle            int   `json:"idle"`
	WaitCount       int64 `json:"wait_count"`
}

// Health handles GET /health. It answers 503 when the database is down so
// load balancers stop routing writes to this instance.
func (h *SystemHandler) Health(c *gin.Context) {
	resp := HealthResponse{
		Status:   "healthy",
		Database: DatabaseHealth{Status: "up"},
		Uptime:   time.Since(h.startTime).Round(time.Second).String(),
		Time:     time.Now().UTC(),
	}
	if h.db == nil {
		c.JSON(http.StatusOK, dto.NewSuccessResponse(resp))
		return
	}

	if err := h.db.Ping(); err != nil {
		resp.Status = "unhealthy"
		resp.Database = DatabaseHealth{Status: "down", Error: err.Error()}
		c.JSON(http.StatusServiceUnavailable, dto.Response{Success: false, Data: resp})
		return
	}
	if stats, err := h.db.Stats(); err == nil {
		resp.Pool = &PoolStatistics{
			OpenConnections: stats.OpenConnections,
			InUse:           stats.InUse,
			Idle:            stats.Idle,
			WaitCount:       stats.WaitCount,
		}
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(resp))
}

// GetSystemInfo handles GET /system/info
func (h *SystemHandler) GetSystemInfo(c *gin.Context) {
	h.Success(c, SystemInfoResponse{
		Name:      h.name,
		Version:   h.version,
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
	})
}
