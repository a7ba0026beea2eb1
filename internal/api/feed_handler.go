package api

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"churnlens/adapters/tabular"
	"churnlens/domain/core"
	"churnlens/domain/run"
	"churnlens/internal"

	"github.com/gin-gonic/gin"
)

const (
	manifestFile    = "run_manifest.json"
	dimensionPrefix = "churn_by_"
	defaultLimit    = 100
	maxLimit        = 10000
)

// FeedHandler serves the tables of one finished run as JSON. It only reads
// files listed in the run manifest.
type FeedHandler struct {
	outputDir string
	logger    *internal.Logger
}

// NewFeedHandler creates a handler over an output directory
func NewFeedHandler(outputDir string, logger *internal.Logger) *FeedHandler {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &FeedHandler{outputDir: outputDir, logger: logger.With("Feed")}
}

// Health reports whether a completed run is available
func (h *FeedHandler) Health(c *gin.Context) {
	m, err := h.manifest()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "no run", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "run_id": m.RunID})
}

// GetManifest returns run_manifest.json. When run_id is given it must match,
// so a dashboard can detect that the outputs were replaced under it.
func (h *FeedHandler) GetManifest(c *gin.Context) {
	m, ok := h.requireRun(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, m)
}

// GetKPI returns the single KPI row
func (h *FeedHandler) GetKPI(c *gin.Context) {
	if _, ok := h.requireRun(c); !ok {
		return
	}
	rows, err := h.readTable("kpi_summary")
	if err != nil || len(rows) == 0 {
		h.fail(c, err, "kpi_summary")
		return
	}
	c.JSON(http.StatusOK, rows[0])
}

// ListSummaries returns the names of all dimension summaries
func (h *FeedHandler) ListSummaries(c *gin.Context) {
	m, ok := h.requireRun(c)
	if !ok {
		return
	}
	dims := []string{}
	for _, f := range m.Outputs {
		if strings.HasPrefix(f, dimensionPrefix) && strings.HasSuffix(f, ".csv") {
			dims = append(dims, strings.TrimSuffix(strings.TrimPrefix(f, dimensionPrefix), ".csv"))
		}
	}
	c.JSON(http.StatusOK, gin.H{"run_id": m.RunID, "dimensions": dims})
}

// GetSummary returns one dimension's group rows, highest churn first
func (h *FeedHandler) GetSummary(c *gin.Context) {
	h.serveTable(c, dimensionPrefix+c.Param("dimension"))
}

// GetTable returns any table listed in the manifest, by name without extension
func (h *FeedHandler) GetTable(c *gin.Context) {
	h.serveTable(c, c.Param("name"))
}

// GetCustomers returns scored customers, optionally filtered by risk_tier,
// paged with offset and limit.
func (h *FeedHandler) GetCustomers(c *gin.Context) {
	m, ok := h.requireRun(c)
	if !ok {
		return
	}
	if !listed(m, "customers_scored") {
		c.JSON(http.StatusNotFound, gin.H{"error": "customers_scored not found"})
		return
	}

	limit, err := intQuery(c, "limit", defaultLimit)
	if err != nil || limit < 1 || limit > maxLimit {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and " + strconv.Itoa(maxLimit)})
		return
	}
	offset, err := intQuery(c, "offset", 0)
	if err != nil || offset < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "offset must be a non-negative integer"})
		return
	}

	rows, err := h.readTable("customers_scored")
	if err != nil {
		h.fail(c, err, "customers_scored")
		return
	}

	tier := c.Query("risk_tier")
	filtered := make([]map[string]string, 0, len(rows))
	for _, r := range rows {
		if tier == "" || strings.EqualFold(r["risk_tier"], tier) {
			filtered = append(filtered, r)
		}
	}

	total := len(filtered)
	if offset > total {
		offset = total
	}
	end := min(offset+limit, total)
	c.JSON(http.StatusOK, gin.H{"total": total, "offset": offset, "limit": limit, "customers": filtered[offset:end]})
}

func (h *FeedHandler) serveTable(c *gin.Context, name string) {
	m, ok := h.requireRun(c)
	if !ok {
		return
	}
	if !listed(m, name) {
		c.JSON(http.StatusNotFound, gin.H{"error": name + " not found"})
		return
	}
	rows, err := h.readTable(name)
	if err != nil {
		h.fail(c, err, name)
		return
	}
	c.JSON(http.StatusOK, gin.H{"table": name, "rows": rows})
}

// requireRun loads the manifest and checks the optional run_id query
func (h *FeedHandler) requireRun(c *gin.Context) (*run.Manifest, bool) {
	m, err := h.manifest()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no completed run in output directory"})
		return nil, false
	}
	if want := c.Query("run_id"); want != "" {
		id, err := core.ParseRunID(want)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid run ID"})
			return nil, false
		}
		if id != m.RunID {
			c.JSON(http.StatusConflict, gin.H{"error": "run has changed", "run_id": m.RunID})
			return nil, false
		}
	}
	return m, true
}

func (h *FeedHandler) manifest() (*run.Manifest, error) {
	data, err := os.ReadFile(filepath.Join(h.outputDir, manifestFile))
	if err != nil {
		return nil, err
	}
	var m run.Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// readTable reads <name>.csv into one map per row, keyed by header
func (h *FeedHandler) readTable(name string) ([]map[string]string, error) {
	raw, err := tabular.NewDataReader(filepath.Join(h.outputDir, name+".csv")).ReadData()
	if err != nil {
		return nil, err
	}
	rows := make([]map[string]string, len(raw.Rows))
	for i, r := range raw.Rows {
		row := make(map[string]string, len(raw.Headers))
		for j, col := range raw.Headers {
			row[col] = r[j]
		}
		rows[i] = row
	}
	return rows, nil
}

func (h *FeedHandler) fail(c *gin.Context, err error, name string) {
	if err != nil {
		h.logger.Error("read %s: %v", name, err)
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "could not read " + name})
}

func listed(m *run.Manifest, name string) bool {
	for _, f := range m.Outputs {
		if f == name+".csv" {
			return true
		}
	}
	return false
}

func intQuery(c *gin.Context, key string, def int) (int, error) {
	v := c.Query(key)
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}
