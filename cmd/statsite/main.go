// Command statsite runs the metrics aggregation server: UDP/TCP ingest,
// interval folding, and forwarding to a Graphite backend.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/NinthDecimal/statsite/internal/admin"
	"github.com/NinthDecimal/statsite/internal/aggregator"
	"github.com/NinthDecimal/statsite/internal/aliveness"
	"github.com/NinthDecimal/statsite/internal/cfg"
	"github.com/NinthDecimal/statsite/internal/clock"
	"github.com/NinthDecimal/statsite/internal/ingest"
	"github.com/NinthDecimal/statsite/internal/logging"
	"github.com/NinthDecimal/statsite/internal/metric"
	"github.com/NinthDecimal/statsite/internal/selfstats"
	"github.com/NinthDecimal/statsite/internal/sink"
)

func main() {
	configFile := flag.String("c", "", "path to a configuration file")
	logLevel := flag.String("l", "info", "log level")
	adminAddr := flag.String("admin", "", "address to serve /debug/vars on, e.g. 127.0.0.1:8126 (disabled if empty)")
	flag.Parse()

	log := logging.New(*logLevel, os.Stdout)

	if err := run(*configFile, *adminAddr, log); err != nil {
		log.WithError(err).Error("statsite exiting")
		os.Exit(1)
	}
}

func run(configFile, adminAddr string, log *logging.Logger) error {
	conf, err := cfg.Load(configFile)
	if err != nil {
		return fmt.Errorf("statsite: %w", err)
	}

	stats := selfstats.New()

	graphite := sink.New(sink.Config{
		Host:     conf.Store.Host,
		Port:     conf.Store.Port,
		Attempts: conf.Store.Attempts,
	}, log, stats)
	defer graphite.Close()

	foldOpts := metric.FoldOptions{Prefix: conf.Store.Prefix, Percentile: conf.Metrics.MS.Percentile}
	tick := clock.AlignedTick(time.Duration(conf.FlushInterval) * time.Second)
	agg := aggregator.New(tick, graphite, foldOpts, log, stats)
	defer agg.Shutdown()

	collectorAddr := fmt.Sprintf("%s:%d", conf.Collector.Host, conf.Collector.Port)
	udp, err := ingest.ListenUDP(collectorAddr, agg, log, stats)
	if err != nil {
		return fmt.Errorf("statsite: udp listen %s: %w", collectorAddr, err)
	}
	defer udp.Close()

	tcp, err := ingest.ListenTCP(collectorAddr, agg, log, stats)
	if err != nil {
		return fmt.Errorf("statsite: tcp listen %s: %w", collectorAddr, err)
	}
	defer tcp.Close()

	log.WithField("addr", collectorAddr).Info("listening for metrics")

	var alive *aliveness.Server
	if conf.AlivenessCheck.Enabled {
		alivenessAddr := fmt.Sprintf("%s:%d", conf.AlivenessCheck.Host, conf.AlivenessCheck.Port)
		alive, err = aliveness.Listen(alivenessAddr, log)
		if err != nil {
			return fmt.Errorf("statsite: aliveness listen %s: %w", alivenessAddr, err)
		}
		defer alive.Close()
		log.WithField("addr", alivenessAddr).Info("aliveness check enabled")
	}

	var adminSrv *admin.Server
	if adminAddr != "" {
		adminSrv, err = admin.Listen(adminAddr, stats, nil, log)
		if err != nil {
			return fmt.Errorf("statsite: admin listen %s: %w", adminAddr, err)
		}
		defer adminSrv.Close()
		log.WithField("addr", adminAddr).Info("admin endpoint enabled")
	}

	waitForSignal(log)
	log.Info("shutting down")
	return nil
}

// waitForSignal blocks until the process receives SIGINT/SIGTERM, re-pointing
// the logger's writer at os.Stdout on each SIGHUP in between (the teacher's
// carbon-relay-ng signal loop, generalized to this server's shutdown set).
func waitForSignal(log *logging.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM)
	for sig := range sigCh {
		if sig == syscall.SIGHUP {
			log.Reopen(os.Stdout)
			log.Info("reopened log output on SIGHUP")
			continue
		}
		return
	}
}
