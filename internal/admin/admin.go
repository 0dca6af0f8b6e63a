// Package admin exposes operational insight endpoints for the service
// operators.
package admin

import (
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"
)

var (
	dbpool    *pgxpool.Pool
	StartTime = time.Now()
)

// InitAdminPackage is called by the server package to initialize the database connection
func InitAdminPackage(pool *pgxpool.Pool) {
	dbpool = pool
	log.Info().Msg("Admin package initialized.")
}

// formatCPUPercent renders the aggregate CPU sample, tolerating an empty
// reading when sampling fails.
func formatCPUPercent(samples []float64) string {
	if len(samples) == 0 {
		return "unavailable"
	}
	return fmt.Sprintf("%.2f%%", samples[0])
}

// SystemStatusHandler collects and returns system-level metrics
func SystemStatusHandler(c echo.Context) error {
	ctx := c.Request().Context()

	// 1. Memory Stats
	v, _ := mem.VirtualMemory()

	// 2. CPU Usage (Calculated over 1 second)
	cpuPercent, _ := cpu.Percent(time.Second, false)

	// 3. Disk Stats (Root partition)
	d, _ := disk.Usage("/")

	// 4. Host/Runtime Info
	hInfo, _ := host.Info()
	uptime := time.Since(StartTime).String()

	// 5. Measure DB Health & Latency
	start := time.Now()
	dbErr := dbpool.Ping(ctx)
	latency := time.Since(start)

	return c.JSON(http.StatusOK, map[string]interface{}{
		"status": "online",
		"runtime": map[string]interface{}{
			"uptime":     uptime,
			"start_time": StartTime.Format(time.RFC3339),
			"os":         hInfo.OS,
			"platform":   hInfo.Platform,
			"arch":       hInfo.KernelArch,
			"hostname":   hInfo.Hostname,
		},
		"cpu": map[string]interface{}{
			"usage_percent": formatCPUPercent(cpuPercent),
			"cores":         hInfo.Procs,
		},
		"memory": map[string]interface{}{
			"total_gb":     fmt.Sprintf("%.2f GB", float64(v.Total)/1024/1024/1024),
			"used_gb":      fmt.Sprintf("%.2f GB", float64(v.Used)/1024/1024/1024),
			"used_percent": fmt.Sprintf("%.2f%%", v.UsedPercent),
			"free_gb":      fmt.Sprintf("%.2f GB", float64(v.Free)/1024/1024/1024),
		},
		"disk": map[string]interface{}{
			"total_gb":     fmt.Sprintf("%.2f GB", float64(d.Total)/1024/1024/1024),
			"used_gb":      fmt.Sprintf("%.2f GB", float64(d.Used)/1024/1024/1024),
			"used_percent": fmt.Sprintf("%.2f%%", d.UsedPercent),
		},
		"database": map[string]interface{}{
			"healthy":    dbErr == nil,
			"latency_ms": latency.Milliseconds(),
		},
	})
}
