package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron"

	"CrowdInfo/src/config"
	"CrowdInfo/src/datapush"
	"CrowdInfo/src/datasource/file"
	"CrowdInfo/src/processor"
	"CrowdInfo/src/server"
	"CrowdInfo/src/storage"
	"CrowdInfo/src/utils"
)

func main() {
	jsonFolder := "./config"
	jsonFile := "config.json"
	dataJsonFile := "dataconfig.json"
	cfg, dcfg, err := config.LoadConfig(jsonFolder, jsonFile, dataJsonFile)
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	logger, err := storage.NewLogger(cfg.LogName)
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer logger.Close()

	push := datapush.NewNotifier(cfg.WebhookURL)
	cache := file.NewTableCache()
	srv := server.New(cfg, dcfg, logger, push)

	reload := func(reason string) *processor.Table {
		t1 := time.Now()
		tbl, fresh, err := cache.Load(cfg.Data.File, cfg.Data.Encoding, cfg.Data.Sheet)
		if err != nil {
			logger.Error(fmt.Sprintf("loading %s failed: %v", cfg.Data.File, err))
			srv.SetTable(nil, err)
			return nil
		}
		srv.SetTable(tbl, nil)
		if !fresh {
			return tbl
		}
		logger.Info(fmt.Sprintf("loaded %d rows, %d slots from %s (%s) in %v",
			tbl.Nrow(), len(tbl.Slots()), cfg.Data.File, reason, time.Since(t1)))
		if err := push.Notify("data_reloaded", map[string]interface{}{
			"rows":   tbl.Nrow(),
			"reason": reason,
		}); err != nil {
			logger.Warning(fmt.Sprintf("webhook push failed: %v", err))
		}
		return tbl
	}

	// a bad data file at startup is logged, not fatal; the server comes up
	// degraded and recovers when the file is fixed
	if tbl := reload("startup"); tbl != nil {
		utils.PrintTopSummary(os.Stdout, tbl.All().TopN(5))
		printInsights(logger, tbl)
	}

	monitor, err := file.NewFileMonitor(cfg.Data.File)
	if err != nil {
		logger.Warning(fmt.Sprintf("file watcher unavailable: %v", err))
	} else {
		defer monitor.Close()
		go func() {
			if err := monitor.Watch(func(path string) { reload("file change") }); err != nil {
				logger.Warning(fmt.Sprintf("file watcher failed: %v", err))
			}
		}()
	}

	c := cron.New()
	interval := time.Duration(cfg.Data.CheckInterval).String()
	cronSpec := fmt.Sprintf("@every %s", interval)
	err = c.AddFunc(cronSpec, func() {
		if err := logger.CheckRotate(cfg.LogMaxSize); err != nil {
			logger.Warning(fmt.Sprintf("log rotation failed: %v", err))
		}
		reload("periodic sweep")
	})
	if err != nil {
		logger.Error("creating periodic sweep failed: " + err.Error())
		return
	}
	c.Start()
	defer c.Stop()

	go func() {
		if err := srv.Run(); err != nil {
			logger.Fatal("http server failed: " + err.Error())
			os.Exit(1)
		}
	}()

	logger.Info(fmt.Sprintf("crowding service started (sweep interval: %v), Ctrl+C to exit", interval))
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Info("shutting down")
}

func printInsights(logger *storage.Logger, tbl *processor.Table) {
	ins, ok := processor.BuildInsights(tbl.All(), 5)
	if !ok {
		return
	}
	logger.Info(fmt.Sprintf("dataset: %d rows, %d stations, %d lines, overall mean %.1f%%, peak %s (%.1f%%)",
		ins.Records, ins.StationCount, ins.LineCount, ins.OverallMean,
		processor.CanonicalLabel(ins.PeakSlot), ins.PeakValue))
}
