// Command sensorhubdemo exercises a Hub against simulated sensor
// drivers and a real event loop, adapted from the teacher's
// cmd/ublk-mem demo: flag-parsed config, structured logging, signal-driven
// shutdown.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	eventloop "github.com/joeycumines/go-eventloop"

	"github.com/brodyw/sensorhub"
	"github.com/brodyw/sensorhub/drivers"
	"github.com/brodyw/sensorhub/internal/logging"
	"github.com/brodyw/sensorhub/internal/sched"
)

func main() {
	var (
		verbose     = flag.Bool("v", false, "Verbose output")
		failureRate = flag.Float64("failure-rate", 0.0, "Simulated driver failure rate (0.0-1.0)")
		clientRate  = flag.Uint64("rate", 100, "Requested sampling rate")
	)
	flag.Parse()

	logConfig := logging.DefaultConfig()
	if *verbose {
		logConfig.Level = logging.LevelDebug
	}
	logger := logging.NewLogger(logConfig)
	logging.SetDefault(logger)

	loop, err := eventloop.New()
	if err != nil {
		logger.Error("failed to create event loop", "error", err)
		os.Exit(1)
	}

	metrics := sensorhub.NewMetrics()
	hub := sensorhub.NewHub(sensorhub.HubConfig{
		Scheduler: sched.NewLoopScheduler(loop),
		Observer:  metrics,
		Logger:    logger,
	})

	driver := drivers.NewSimulated(hub)
	driver.FailureRate = *failureRate
	handle := hub.RegisterDriver(sensorhub.SensorInfo{
		SensorType:     1,
		Name:           "demo-accelerometer",
		SupportedRates: []sensorhub.Rate{50, 100, 200, 400},
	}, driver)
	driver.SetHandle(handle)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("shutdown signal received")
		cancel()
	}()

	go func() {
		if err := loop.Run(ctx); err != nil {
			logger.Warn("event loop exited", "error", err)
		}
	}()

	const clientID = uint32(1)
	if !hub.Request(clientID, handle, sensorhub.Rate(*clientRate), sensorhub.LatencyInvalid) {
		logger.Error("initial request rejected")
		os.Exit(1)
	}
	logger.Info("requested sensor sampling", "handle", handle, "rate", *clientRate)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			fmt.Println("shutting down")
			return
		case <-ticker.C:
			snap := metrics.Snapshot()
			logger.Info("status",
				"curRate", hub.GetCurRate(handle).String(),
				"curLatency", hub.GetCurLatency(handle).String(),
				"transitions", snap.StateTransitions,
				"driverFailures", snap.DriverFailures,
			)
		}
	}
}
