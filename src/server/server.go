package server

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"

	"CrowdInfo/src/config"
	"CrowdInfo/src/datapush"
	"CrowdInfo/src/processor"
	"CrowdInfo/src/report"
	"CrowdInfo/src/storage"
)

// Server exposes the crowding analysis over HTTP. The current table is
// swapped atomically when the data file changes, so handlers always see a
// consistent snapshot.
type Server struct {
	cfg    *config.Config
	dcfg   *config.DataConfig
	logger *storage.Logger
	gen    *report.Generator
	push   *datapush.Notifier

	mu      sync.RWMutex
	tbl     *processor.Table
	loadErr error
}

func New(cfg *config.Config, dcfg *config.DataConfig, logger *storage.Logger, push *datapush.Notifier) *Server {
	return &Server{
		cfg:    cfg,
		dcfg:   dcfg,
		logger: logger,
		gen:    report.NewGenerator(cfg.Report.FontPaths),
		push:   push,
	}
}

// SetTable publishes a new snapshot. A nil table with a non-nil error puts
// the server into a degraded state where data endpoints report the failure
// instead of serving stale results.
func (s *Server) SetTable(tbl *processor.Table, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tbl != nil {
		s.tbl = tbl
		s.loadErr = nil
		return
	}
	s.loadErr = err
}

func (s *Server) table() (*processor.Table, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.tbl == nil {
		if s.loadErr != nil {
			return nil, s.loadErr
		}
		return nil, fmt.Errorf("no data loaded yet")
	}
	return s.tbl, nil
}

func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLog())

	api := r.Group("/api")
	{
		api.GET("/meta", s.handleMeta)
		api.GET("/stats", s.handleStats)
		api.GET("/slots/means", s.handleSlotMeans)
		api.GET("/top", s.handleTop)
		api.GET("/compare", s.handleCompare)
		api.GET("/better", s.handleBetter)
		api.GET("/now", s.handleNow)
		api.GET("/commute", s.handleCommute)
		api.GET("/rush", s.handleRush)
		api.GET("/report", s.handleReport)
		api.GET("/export", s.handleExport)
	}
	r.GET("/logs", s.handleLogs)

	return r
}

func (s *Server) Run() error {
	addr := fmt.Sprintf(":%d", s.cfg.Server.Port)
	s.logger.Info(fmt.Sprintf("http server listening on %s", addr))
	return s.Router().Run(addr)
}

func (s *Server) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		s.logger.Debug(fmt.Sprintf("%s %s -> %d", c.Request.Method, c.Request.URL.Path, c.Writer.Status()))
	}
}

// filtersFromQuery builds row filters from the common query parameters.
// The day parameter accepts both the raw Korean value and the configured
// aliases (weekday, weekend).
func (s *Server) filtersFromQuery(c *gin.Context) processor.Filters {
	day := c.Query("day")
	if alias := s.dcfg.DayAlias(strings.ToLower(day)); alias != "" {
		day = alias
	}
	return processor.Filters{
		Operator:        c.Query("operator"),
		Line:            c.Query("line"),
		DayType:         day,
		Station:         c.Query("station"),
		StationContains: c.Query("q"),
	}
}

func (s *Server) selection(c *gin.Context) (processor.Selection, bool) {
	tbl, err := s.table()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return processor.Selection{}, false
	}
	return tbl.Select(s.filtersFromQuery(c)), true
}

func queryInt(c *gin.Context, name string, def int) int {
	v := c.Query(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return def
	}
	return n
}

func (s *Server) queryThreshold(c *gin.Context, feature string) float64 {
	v := c.Query("threshold")
	if v == "" {
		return s.dcfg.Threshold(feature)
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 {
		return s.dcfg.Threshold(feature)
	}
	return f
}
