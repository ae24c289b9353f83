package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/EscapistArcadia/Illinix391/internal/accnt"
	"github.com/EscapistArcadia/Illinix391/internal/idt"
	"github.com/EscapistArcadia/Illinix391/internal/klog"
	"github.com/EscapistArcadia/Illinix391/internal/limits"
)

func newRunCmd() *cobra.Command {
	var headless bool
	var acctPath string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Boot the simulated machine against a disk image",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMachine(viper.GetString("disk"), viper.GetString("log_level"),
				viper.GetString("metrics_addr"), headless, acctPath)
		},
	}

	cmd.Flags().BoolVar(&headless, "headless", false, "never attach the host terminal, even if one is available")
	cmd.Flags().StringVar(&acctPath, "accounting-out", "", "write scheduler accounting JSON here on exit")
	return cmd
}

func runMachine(diskPath, logLevel, metricsAddr string, headless bool, acctPath string) error {
	log, err := klog.New(logLevel == "debug")
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	defer log.Sync()

	m, err := newMachine(diskPath, log)
	if err != nil {
		return err
	}

	rec := accnt.New()
	m.sched.SetAccounting(rec)

	if metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(m.metrics.Registry(), promhttp.HandlerOpts{}))
		server := &http.Server{Addr: metricsAddr, Handler: mux}
		go func() {
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Warnw("metrics server stopped", "err", err)
			}
		}()
		defer server.Close()
		log.Infow("metrics listening", "addr", metricsAddr)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	var console *hostConsole
	if !headless {
		console, err = newHostConsole(m)
		switch err {
		case nil:
			defer console.restore()
			go console.pump()
			go console.render()
		case errNotATTY:
			log.Infow("stdin is not a terminal, running headless")
		default:
			return fmt.Errorf("attaching host console: %w", err)
		}
	}

	pitTick := time.NewTicker(time.Second / time.Duration(limits.PITFrequencyHz))
	defer pitTick.Stop()
	rtcTick := time.NewTicker(time.Second / time.Duration(limits.RTCMaxFreq))
	defer rtcTick.Stop()

	log.Infow("illinix booted", "disk", diskPath, "terminals", limits.TerminalCount)

	for {
		select {
		case <-sigCh:
			log.Infow("shutting down")
			if acctPath != "" {
				if err := writeAccounting(acctPath, rec); err != nil {
					log.Warnw("writing accounting snapshot", "err", err)
				}
			}
			return nil
		case <-pitTick.C:
			m.dispatch.DispatchIRQ(idt.VectorPIT)
		case <-rtcTick.C:
			m.dispatch.DispatchIRQ(idt.VectorRTC)
		}
	}
}

func writeAccounting(path string, rec *accnt.Recorder) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return rec.WriteJSON(f)
}
