package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigs(t *testing.T, cfgJSON, dataJSON string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), []byte(cfgJSON), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "dataconfig.json"), []byte(dataJSON), 0644))
	return dir
}

func TestLoadConfigs(t *testing.T) {
	dir := writeConfigs(t, `{
		"server": {"port": 9090},
		"data": {"file": "./data/crowding.csv", "encoding": "euc-kr", "check_interval": "10m"},
		"webhook_url": "http://example.com/hook",
		"log_max_size": "10 * 1024 * 1024"
	}`, `{
		"linecolors": {"2호선": "#00A84D"},
		"dayaliases": {"weekday": "평일", "weekend": "주말"},
		"rushmorning": ["7시", "8시", "9시"],
		"thresholds": {"commute": 10, "now": 15}
	}`)

	cfg, dcfg, err := loadConfigs(dir, "config.json", "dataconfig.json")
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "./data/crowding.csv", cfg.Data.File)
	assert.Equal(t, 10*time.Minute, time.Duration(cfg.Data.CheckInterval))
	assert.Equal(t, "http://example.com/hook", cfg.WebhookURL)

	assert.Equal(t, "#00A84D", dcfg.LineColor("2호선"))
	assert.Equal(t, "평일", dcfg.DayAlias("weekday"))
	assert.Equal(t, []string{"7시", "8시", "9시"}, dcfg.RushMorning)
	assert.Equal(t, 15.0, dcfg.Threshold("now"))
}

func TestLoadConfigsDefaults(t *testing.T) {
	dir := writeConfigs(t, `{"data": {"file": "x.csv"}}`, `{}`)

	cfg, dcfg, err := loadConfigs(dir, "config.json", "dataconfig.json")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "euc-kr", cfg.Data.Encoding)
	assert.Equal(t, 5*time.Minute, time.Duration(cfg.Data.CheckInterval))
	assert.Equal(t, "app.log", cfg.LogName)

	assert.Equal(t, 10.0, dcfg.Threshold("anything"))
	assert.Equal(t, "#666666", dcfg.LineColor("99호선"))
	assert.Equal(t, "평일", dcfg.DayAlias("평일"))
}

func TestLoadConfigsMissingFile(t *testing.T) {
	dir := t.TempDir()
	_, _, err := loadConfigs(dir, "config.json", "dataconfig.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading config file failed")
}

func TestLoadConfigsBadJSON(t *testing.T) {
	dir := writeConfigs(t, `{not json`, `{"thresholds": "not a map"}`)

	_, _, err := loadConfigs(dir, "config.json", "dataconfig.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing Config failed")
	assert.Contains(t, err.Error(), "parsing DataConfig failed")
}

func TestDurationRoundTrip(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalJSON([]byte(`"90s"`)))
	assert.Equal(t, 90*time.Second, time.Duration(d))

	out, err := d.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"1m30s"`, string(out))

	assert.Error(t, d.UnmarshalJSON([]byte(`"soon"`)))
	assert.Error(t, d.UnmarshalJSON([]byte(`12`)))
}

func TestComfortBands(t *testing.T) {
	dcfg := &DataConfig{ComfortBands: map[string]float64{"relaxed": 50, "busy": 80}}
	assert.Equal(t, "relaxed", dcfg.Comfort(30))
	assert.Equal(t, "moderate", dcfg.Comfort(50))
	assert.Equal(t, "moderate", dcfg.Comfort(79.9))
	assert.Equal(t, "busy", dcfg.Comfort(80))
	assert.Equal(t, "busy", dcfg.Comfort(141.5))

	// unconfigured bands fall back to the 50/80 defaults
	bare := &DataConfig{}
	assert.Equal(t, "relaxed", bare.Comfort(10))
	assert.Equal(t, "busy", bare.Comfort(95))
}

func TestSetThreshold(t *testing.T) {
	dcfg := &DataConfig{Thresholds: map[string]float64{}}
	dcfg.SetThreshold("report", 20)
	assert.Equal(t, 20.0, dcfg.Threshold("report"))
}
