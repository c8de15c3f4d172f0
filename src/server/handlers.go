package server

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"CrowdInfo/src/datasource/file"
	"CrowdInfo/src/processor"
)

// numOrNil keeps NaN out of JSON responses; missing values serialize as null.
func numOrNil(f float64) interface{} {
	if math.IsNaN(f) {
		return nil
	}
	return f
}

func rowJSON(info processor.RowInfo) gin.H {
	return gin.H{
		"operator": info.Operator,
		"line":     info.Line,
		"car_info": info.CarInfo,
		"station":  info.Station,
		"day_type": info.DayType,
	}
}

func vectorJSON(vec []float64) []interface{} {
	out := make([]interface{}, len(vec))
	for i, v := range vec {
		out[i] = numOrNil(v)
	}
	return out
}

func alternativesJSON(alts []processor.Alternative) []gin.H {
	out := make([]gin.H, 0, len(alts))
	for _, a := range alts {
		out = append(out, gin.H{
			"slot":       a.Slot,
			"label":      a.Label,
			"offset_min": a.OffsetMin,
			"value":      a.Value,
			"drop":       a.Drop,
		})
	}
	return out
}

func (s *Server) handleMeta(c *gin.Context) {
	tbl, err := s.table()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}

	slots := tbl.Slots()
	labels := make([]string, len(slots))
	for i, sl := range slots {
		labels[i] = processor.CanonicalLabel(sl)
	}

	info := tbl.Info()
	lines := tbl.Distinct(info.Line)
	colors := make(map[string]string, len(lines))
	for _, line := range lines {
		colors[line] = s.dcfg.LineColor(line)
	}
	c.JSON(http.StatusOK, gin.H{
		"records":     tbl.Nrow(),
		"operators":   tbl.Distinct(info.Operator),
		"stations":    tbl.Distinct(info.Station),
		"lines":       lines,
		"line_colors": colors,
		"day_types":   tbl.Distinct(info.DayType),
		"slots":       slots,
		"labels":      labels,
	})
}

func (s *Server) handleStats(c *gin.Context) {
	sel, ok := s.selection(c)
	if !ok {
		return
	}

	resp := gin.H{"records": sel.Len()}
	if mean, ok := sel.OverallMean(); ok {
		resp["overall_mean"] = mean
	}
	if val, slot, ok := sel.MaxValue(); ok {
		resp["max"] = gin.H{"value": val, "slot": slot, "label": processor.CanonicalLabel(slot)}
	}
	if peak, ok := sel.PeakSlot(); ok {
		resp["peak"] = gin.H{"slot": peak.Slot, "label": peak.Label, "mean": numOrNil(peak.Mean)}
	}
	if off, ok := sel.OffPeakSlot(); ok {
		resp["off_peak"] = gin.H{"slot": off.Slot, "label": off.Label, "mean": numOrNil(off.Mean)}
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleSlotMeans(c *gin.Context) {
	sel, ok := s.selection(c)
	if !ok {
		return
	}

	means := sel.MeanBySlot()
	out := make([]gin.H, 0, len(means))
	for _, m := range means {
		out = append(out, gin.H{
			"slot":  m.Slot,
			"label": m.Label,
			"mean":  numOrNil(m.Mean),
			"count": m.Count,
		})
	}
	c.JSON(http.StatusOK, gin.H{"records": sel.Len(), "means": out})
}

func (s *Server) handleTop(c *gin.Context) {
	sel, ok := s.selection(c)
	if !ok {
		return
	}

	n := queryInt(c, "n", 5)
	ranked := sel.TopN(n)
	out := make([]gin.H, 0, len(ranked))
	for i, r := range ranked {
		out = append(out, gin.H{
			"rank":       i + 1,
			"row":        rowJSON(r.Row),
			"peak":       r.Peak,
			"peak_slot":  r.PeakSlot,
			"peak_label": processor.CanonicalLabel(r.PeakSlot),
		})
	}
	c.JSON(http.StatusOK, gin.H{"records": sel.Len(), "top": out})
}

func (s *Server) handleCompare(c *gin.Context) {
	tbl, err := s.table()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}

	var names []string
	for _, part := range strings.Split(c.Query("stations"), ",") {
		if part = strings.TrimSpace(part); part != "" {
			names = append(names, part)
		}
	}
	if len(names) < 2 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "parameter stations needs at least two comma-separated names"})
		return
	}
	day := s.dayParam(c)

	out := make([]gin.H, 0, len(names))
	for _, station := range names {
		entry := gin.H{"station": station, "found": false}
		if row, ok := tbl.StationRow(station, day); ok {
			entry["found"] = true
			entry["row"] = rowJSON(tbl.RowInfo(row))
			if mean, ok := tbl.RowMean(row); ok {
				entry["mean"] = mean
				entry["comfort"] = s.dcfg.Comfort(mean)
			}
			if slot, val, ok := tbl.RowPeak(row); ok {
				entry["peak"] = gin.H{"slot": slot, "label": processor.CanonicalLabel(slot), "value": val}
			}
			if slot, val, ok := tbl.RowMin(row); ok {
				entry["quietest"] = gin.H{"slot": slot, "label": processor.CanonicalLabel(slot), "value": val}
			}
			entry["values"] = vectorJSON(tbl.RowVector(row))
		}
		out = append(out, entry)
	}
	c.JSON(http.StatusOK, gin.H{"day_type": day, "stations": out})
}

func (s *Server) handleBetter(c *gin.Context) {
	tbl, row, ok := s.stationRow(c)
	if !ok {
		return
	}

	ref := c.Query("slot")
	if ref == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "parameter slot is required"})
		return
	}
	if _, ok := tbl.SlotIndex(ref); !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unknown time slot %q", ref)})
		return
	}

	threshold := s.queryThreshold(c, "commute")
	alts := processor.BetterSlots(tbl.RowVector(row), tbl.Slots(), ref, threshold)
	c.JSON(http.StatusOK, gin.H{
		"row":          rowJSON(tbl.RowInfo(row)),
		"slot":         ref,
		"label":        processor.CanonicalLabel(ref),
		"threshold":    threshold,
		"alternatives": alternativesJSON(alts),
	})
}

func (s *Server) handleNow(c *gin.Context) {
	tbl, row, ok := s.stationRow(c)
	if !ok {
		return
	}

	slot, found := processor.NearestSlot(time.Now(), tbl.Slots())
	if !found {
		c.JSON(http.StatusOK, gin.H{"row": rowJSON(tbl.RowInfo(row)), "slot": nil})
		return
	}

	idx, _ := tbl.SlotIndex(slot)
	value := tbl.RowVector(row)[idx]
	threshold := s.queryThreshold(c, "now")
	alts := processor.BetterSlots(tbl.RowVector(row), tbl.Slots(), slot, threshold)
	resp := gin.H{
		"row":          rowJSON(tbl.RowInfo(row)),
		"slot":         slot,
		"label":        processor.CanonicalLabel(slot),
		"value":        numOrNil(value),
		"threshold":    threshold,
		"alternatives": alternativesJSON(alts),
	}
	if !math.IsNaN(value) {
		resp["comfort"] = s.dcfg.Comfort(value)
	}
	c.JSON(http.StatusOK, resp)
}

// handleCommute reports rush-hour crowding for a departure station and,
// optionally, an arrival station, plus better departure slots.
func (s *Server) handleCommute(c *gin.Context) {
	tbl, err := s.table()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}

	from := c.Query("from")
	if from == "" {
		from = c.Query("station")
	}
	if from == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "parameter from is required"})
		return
	}
	day := s.dayParam(c)

	fromRow, ok := tbl.StationRow(from, day)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("no row for station %q on %s", from, day)})
		return
	}

	resp := gin.H{"day_type": day, "from": s.commuteLeg(tbl, fromRow)}
	if to := c.Query("to"); to != "" {
		if toRow, ok := tbl.StationRow(to, day); ok {
			resp["to"] = s.commuteLeg(tbl, toRow)
		} else {
			resp["to"] = gin.H{"station": to, "found": false}
		}
	}

	vec := tbl.RowVector(fromRow)
	ref := c.Query("slot")
	if ref == "" {
		if slot, _, ok := tbl.RowPeak(fromRow); ok {
			ref = slot
		}
	}
	if ref != "" {
		threshold := s.queryThreshold(c, "commute")
		resp["slot"] = ref
		resp["label"] = processor.CanonicalLabel(ref)
		resp["threshold"] = threshold
		resp["alternatives"] = alternativesJSON(processor.BetterSlots(vec, tbl.Slots(), ref, threshold))
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) commuteLeg(tbl *processor.Table, row int) gin.H {
	vec := tbl.RowVector(row)
	morning := rowMeanForHours(tbl, vec, labelsToHours(s.dcfg.RushMorning))
	evening := rowMeanForHours(tbl, vec, labelsToHours(s.dcfg.RushEvening))
	leg := gin.H{
		"found":        true,
		"row":          rowJSON(tbl.RowInfo(row)),
		"morning_mean": numOrNil(morning),
		"evening_mean": numOrNil(evening),
	}
	if !math.IsNaN(morning) {
		leg["morning_comfort"] = s.dcfg.Comfort(morning)
	}
	if !math.IsNaN(evening) {
		leg["evening_comfort"] = s.dcfg.Comfort(evening)
	}
	return leg
}

func (s *Server) handleRush(c *gin.Context) {
	sel, ok := s.selection(c)
	if !ok {
		return
	}

	resp := gin.H{"records": sel.Len()}
	if mean, ok := sel.MeanForHours(labelsToHours(s.dcfg.RushMorning)); ok {
		resp["morning_mean"] = mean
	}
	if mean, ok := sel.MeanForHours(labelsToHours(s.dcfg.RushEvening)); ok {
		resp["evening_mean"] = mean
	}
	if overall, ok := sel.OverallMean(); ok {
		resp["overall_mean"] = overall
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleReport(c *gin.Context) {
	sel, ok := s.selection(c)
	if !ok {
		return
	}

	ins, ok := processor.BuildInsights(sel, queryInt(c, "n", 5))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no numeric data matches the filters"})
		return
	}

	pdf, err := s.gen.Generate(ins, sel.MeanBySlot())
	if err != nil {
		s.logger.Error(fmt.Sprintf("report generation failed: %v", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "report generation failed"})
		return
	}

	if s.push != nil {
		go func() {
			if err := s.push.Notify("report_generated", map[string]interface{}{"records": ins.Records}); err != nil {
				s.logger.Warning(fmt.Sprintf("webhook push failed: %v", err))
			}
		}()
	}

	name := fmt.Sprintf("crowding_report_%s.pdf", time.Now().Format("20060102_150405"))
	if dir := s.cfg.Report.OutputDir; dir != "" {
		if err := os.MkdirAll(dir, 0755); err == nil {
			if err := os.WriteFile(filepath.Join(dir, name), pdf, 0644); err != nil {
				s.logger.Warning(fmt.Sprintf("saving report copy failed: %v", err))
			}
		}
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", name))
	c.Data(http.StatusOK, "application/pdf", pdf)
}

func (s *Server) handleExport(c *gin.Context) {
	sel, ok := s.selection(c)
	if !ok {
		return
	}
	if sel.Len() == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "no rows match the filters"})
		return
	}

	var buf bytes.Buffer
	if err := file.WriteSelectionXLSX(sel, &buf); err != nil {
		s.logger.Error(fmt.Sprintf("xlsx export failed: %v", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "export failed"})
		return
	}

	name := fmt.Sprintf("crowding_export_%s.xlsx", time.Now().Format("20060102_150405"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", name))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

// handleLogs streams log lines to the client until it disconnects.
func (s *Server) handleLogs(c *gin.Context) {
	ch := s.logger.Subscribe()
	c.Stream(func(w io.Writer) bool {
		select {
		case line, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent("log", line)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

func (s *Server) dayParam(c *gin.Context) string {
	day := c.Query("day")
	if day == "" {
		day = "weekday"
	}
	if alias := s.dcfg.DayAlias(strings.ToLower(day)); alias != "" {
		return alias
	}
	return day
}

// stationRow resolves the station/day query parameters to a single row.
func (s *Server) stationRow(c *gin.Context) (*processor.Table, int, bool) {
	tbl, err := s.table()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return nil, 0, false
	}

	station := c.Query("station")
	if station == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "parameter station is required"})
		return nil, 0, false
	}
	day := s.dayParam(c)

	row, ok := tbl.StationRow(station, day)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("no row for station %q on %s", station, day)})
		return nil, 0, false
	}
	return tbl, row, true
}

// labelsToHours turns configured hour labels like "7시" into plain hours.
func labelsToHours(labels []string) []int {
	hours := make([]int, 0, len(labels))
	for _, l := range labels {
		trimmed := strings.TrimSuffix(strings.TrimSpace(l), "시")
		if h, err := strconv.Atoi(trimmed); err == nil && h >= 0 && h <= 23 {
			hours = append(hours, h)
		}
	}
	return hours
}

func rowMeanForHours(tbl *processor.Table, vec []float64, hours []int) float64 {
	var sum float64
	var n int
	for i, slot := range tbl.Slots() {
		min, ok := tbl.Minutes(slot)
		if !ok {
			continue
		}
		h := (min / 60) % 24
		for _, want := range hours {
			if h == want && !math.IsNaN(vec[i]) {
				sum += vec[i]
				n++
				break
			}
		}
	}
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}
