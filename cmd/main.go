package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/crashmon/agent/internal/config"
	"github.com/crashmon/agent/internal/control"
	"github.com/crashmon/agent/internal/logging"
	"github.com/crashmon/agent/internal/reports"
	"github.com/jessevdk/go-flags"
	"go.uber.org/zap"
)

var options struct {
	ConfigFile   string   `short:"c" long:"config" description:"Config file path" default:"crash_monitor_config.yaml"`
	ProcessNames []string `short:"p" long:"process" description:"Target process name (overrides config, repeatable)"`
	AutoStart    bool     `short:"a" long:"auto-start" description:"Start monitoring immediately"`
	Debug        bool     `short:"d" long:"debug" description:"Debug mode"`
}

const exitCodeErr = -1

var (
	logger      *zap.Logger
	plane       *control.Plane
	signalsChan = make(chan os.Signal, 1)
)

func main() {
	_, err := flags.Parse(&options)
	if err != nil {
		fmt.Printf("Failed to parse arguments: %v\n", err)
		os.Exit(exitCodeErr)
	}

	logger, err = logging.NewLogger("crashmon-agent", options.Debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(exitCodeErr)
	}

	cfg := config.Load(options.ConfigFile, logger)
	if len(options.ProcessNames) > 0 {
		cfg.ProcessNames = options.ProcessNames
	}
	if len(cfg.ProcessNames) == 0 {
		fmt.Println("No target process names configured (use --process or the config file)")
		os.Exit(exitCodeErr)
	}

	plane, err = control.NewPlane(logger, cfg)
	if err != nil {
		logger.Fatal("Failed to create control plane", zap.Error(err))
	}

	setupSignalHandling()

	if options.AutoStart {
		if err := plane.Start(); err != nil {
			logger.Fatal("Failed to start monitoring", zap.Error(err))
		}
	}

	commandLoop()
}

func setupSignalHandling() {
	signal.Notify(signalsChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-signalsChan
		logger.Info("Stop agent")
		if err := plane.Stop(); err != nil {
			logger.Fatal("Failed to stop monitoring", zap.Error(err))
		}
		os.Exit(0)
	}()
}

func commandLoop() {
	fmt.Println("Crash monitor. Commands: start, stop, status, report, quit")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}

		switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
		case "":
		case "start":
			if err := plane.Start(); err != nil {
				fmt.Printf("Failed to start: %v\n", err)
				continue
			}
			fmt.Println("Monitoring started")
		case "stop":
			if err := plane.Stop(); err != nil {
				fmt.Printf("Failed to stop: %v\n", err)
				continue
			}
			fmt.Println("Monitoring stopped")
		case "status":
			printAsJson(plane.Status())
		case "report":
			printReport()
		case "quit", "exit", "q":
			if err := plane.Stop(); err != nil {
				logger.Error("Failed to stop monitoring", zap.Error(err))
			}
			return
		default:
			fmt.Println("Unknown command. Available: start, stop, status, report, quit")
		}
	}

	if err := plane.Stop(); err != nil {
		logger.Error("Failed to stop monitoring", zap.Error(err))
	}
}

func printReport() {
	toMerge := []reports.Report{plane.CrashReport()}

	hostReport, err := plane.HostStatusReport()
	if err != nil {
		logger.Warn("Failed to build host status report", zap.Error(err))
	} else {
		toMerge = append(toMerge, hostReport)
	}

	merged, err := reports.MergeReports(toMerge...)
	if err != nil {
		fmt.Printf("Failed to build report: %v\n", err)
		return
	}

	printAsJson(merged)
}

func printAsJson(v interface{}) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Printf("Failed to render output: %v\n", err)
		return
	}
	fmt.Println(string(data))
}
