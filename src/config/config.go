package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Config holds the application level settings loaded from config.json.
type Config struct {
	Server struct {
		Port int `json:"port"` // HTTP listen port
	} `json:"server"`

	Data struct {
		File          string   `json:"file"`           // path of the crowding table (csv or xlsx)
		Encoding      string   `json:"encoding"`       // "euc-kr" or "utf-8"
		Sheet         string   `json:"sheet"`          // sheet name when File is an xlsx
		CheckInterval Duration `json:"check_interval"` // periodic re-check of the source file
	} `json:"data"`

	Report struct {
		OutputDir string   `json:"output_dir"` // where generated PDFs are written
		FontPaths []string `json:"font_paths"` // candidate CJK fonts, first hit wins
	} `json:"report"`

	WebhookURL string `json:"webhook_url"` // optional notification endpoint
	LogName    string `json:"log_name"`
	LogMaxSize string `json:"log_max_size"`
}

// DataConfig holds dataset facts that are configuration rather than code:
// line colors, day-type naming, rush-hour windows and recommendation
// thresholds per feature.
type DataConfig struct {
	LineColors   map[string]string  `json:"linecolors"`
	DayAliases   map[string]string  `json:"dayaliases"` // "weekday"/"weekend" -> value used in the dataset
	RushMorning  []string           `json:"rushmorning"`
	RushEvening  []string           `json:"rushevening"`
	Thresholds   map[string]float64 `json:"thresholds"`   // per-feature better-slot thresholds, in %p
	ComfortBands map[string]float64 `json:"comfortbands"` // "relaxed" / "busy" cut-offs
}

var (
	once               sync.Once
	instance           *Config
	dataConfigInstance *DataConfig
	mu                 sync.RWMutex
)

func LoadConfig(jsonFolder, jsonFile, dataJsonFile string) (*Config, *DataConfig, error) {
	var err error
	once.Do(func() {
		instance, dataConfigInstance, err = loadConfigs(jsonFolder, jsonFile, dataJsonFile)
	})
	return instance, dataConfigInstance, err
}

func loadConfigs(jsonFolder, jsonFile, dataJsonFile string) (*Config, *DataConfig, error) {
	configFile := filepath.Join(jsonFolder, jsonFile)
	dataConfigFile := filepath.Join(jsonFolder, dataJsonFile)

	configData, err := readFile(configFile)
	if err != nil {
		return nil, nil, fmt.Errorf("reading config file failed: %w", err)
	}

	dataConfigData, err := readFile(dataConfigFile)
	if err != nil {
		return nil, nil, fmt.Errorf("reading data config file failed: %w", err)
	}

	cfgChan := make(chan *Config, 1)
	dcfgChan := make(chan *DataConfig, 1)
	errChan := make(chan error, 2)

	go parseConfig(configData, cfgChan, errChan)
	go parseDataConfig(dataConfigData, dcfgChan, errChan)

	cfg, dcfg, err := waitForResults(cfgChan, dcfgChan, errChan)
	if err != nil {
		return nil, nil, err
	}

	applyDefaults(cfg, dcfg)
	return cfg, dcfg, nil
}

func readFile(filePath string) ([]byte, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", filePath, err)
	}
	return data, nil
}

func parseConfig(data []byte, resultChan chan<- *Config, errChan chan<- error) {
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		errChan <- fmt.Errorf("parsing Config failed: %w", err)
		return
	}
	resultChan <- &cfg
}

func parseDataConfig(data []byte, resultChan chan<- *DataConfig, errChan chan<- error) {
	var dcfg DataConfig
	if err := json.Unmarshal(data, &dcfg); err != nil {
		errChan <- fmt.Errorf("parsing DataConfig failed: %w", err)
		return
	}
	resultChan <- &dcfg
}

func waitForResults(
	cfgChan <-chan *Config,
	dcfgChan <-chan *DataConfig,
	errChan <-chan error,
) (*Config, *DataConfig, error) {
	var (
		cfg    *Config
		dcfg   *DataConfig
		errors []error
	)

	for i := 0; i < 2; i++ {
		select {
		case c := <-cfgChan:
			cfg = c
		case d := <-dcfgChan:
			dcfg = d
		case err := <-errChan:
			errors = append(errors, err)
		}
	}

	if len(errors) > 0 {
		return nil, nil, combineErrors(errors)
	}

	if cfg == nil || dcfg == nil {
		return nil, nil, fmt.Errorf("some config was not loaded")
	}

	return cfg, dcfg, nil
}

func combineErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}

	msg := "config loading hit multiple errors:"
	for _, err := range errs {
		msg = fmt.Sprintf("%s\n- %v", msg, err)
	}
	return fmt.Errorf("%s", msg)
}

func applyDefaults(cfg *Config, dcfg *DataConfig) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Data.Encoding == "" {
		cfg.Data.Encoding = "euc-kr"
	}
	if cfg.Data.CheckInterval == 0 {
		cfg.Data.CheckInterval = Duration(5 * time.Minute)
	}
	if cfg.LogName == "" {
		cfg.LogName = "app.log"
	}
	if dcfg.Thresholds == nil {
		dcfg.Thresholds = map[string]float64{}
	}
}

// Duration is a thin wrapper over time.Duration so intervals can be written
// as "5m" in JSON.
type Duration time.Duration

func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// Threshold returns the better-slot threshold for a feature, falling back
// to a 10%p default when the feature is not configured.
func (dc *DataConfig) Threshold(feature string) float64 {
	mu.RLock()
	defer mu.RUnlock()
	if v, ok := dc.Thresholds[feature]; ok {
		return v
	}
	return 10
}

func (dc *DataConfig) SetThreshold(feature string, value float64) {
	mu.Lock()
	defer mu.Unlock()
	dc.Thresholds[feature] = value
}

func (dc *DataConfig) LineColor(line string) string {
	mu.RLock()
	defer mu.RUnlock()
	if c, ok := dc.LineColors[line]; ok {
		return c
	}
	return "#666666"
}

// Comfort classifies a crowding percentage against the configured bands.
func (dc *DataConfig) Comfort(value float64) string {
	mu.RLock()
	defer mu.RUnlock()
	relaxed, ok := dc.ComfortBands["relaxed"]
	if !ok {
		relaxed = 50
	}
	busy, ok := dc.ComfortBands["busy"]
	if !ok {
		busy = 80
	}
	switch {
	case value < relaxed:
		return "relaxed"
	case value < busy:
		return "moderate"
	default:
		return "busy"
	}
}

// DayAlias maps a generic key ("weekday", "weekend") to the value the
// dataset actually uses for its day-type column.
func (dc *DataConfig) DayAlias(key string) string {
	mu.RLock()
	defer mu.RUnlock()
	if v, ok := dc.DayAliases[key]; ok {
		return v
	}
	return key
}
