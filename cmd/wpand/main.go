// Command wpand runs an IEEE 802.15.4 software MAC on one radio.
//
// The radio is a loopback transceiver, a serial-attached transceiver or a
// radio on a shared wpan-air medium. Interfaces are described in a YAML
// file; delivered data frames are printed to stdout. With --capture every
// frame, drop and configuration change is appended to a .wcap file that
// wpan-log reads.
//
// Usage:
//
//	wpand [flags]
//
// Examples:
//
//	# Node on a USB dongle, channel 15, with a shell
//	wpand --driver serial --port /dev/ttyACM0 --channel 15 -i
//
//	# Two nodes on a hub found over mDNS
//	wpan-air &
//	wpand --driver air --discover --config node1.yaml
//	wpand --driver air --discover --config node2.yaml
//
//	# Capture everything to a file
//	wpand --config node.yaml --capture node.wcap
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/wpanstack/wpan-go/internal/cli"
)

// overrides are command-line values applied over the config file.
type overrides struct {
	config      string
	name        string
	driver      string
	port        string
	baud        int
	hub         string
	discover    bool
	hubID       string
	page        uint8
	channel     uint8
	capture     string
	state       string
	logLevel    string
	interactive bool
}

func newFlagSet(o *overrides) *pflag.FlagSet {
	fs := pflag.NewFlagSet("wpand", pflag.ContinueOnError)
	fs.StringVarP(&o.config, "config", "c", "", "Configuration file path")
	fs.StringVar(&o.name, "name", "", "Device name")
	fs.StringVarP(&o.driver, "driver", "d", "", "Radio driver: loopback, serial, air")
	fs.StringVarP(&o.port, "port", "p", "", "Serial port of the transceiver")
	fs.IntVar(&o.baud, "baud", 0, "Serial baud rate")
	fs.StringVar(&o.hub, "hub", "", "Hub address (host:port) for the air driver")
	fs.BoolVar(&o.discover, "discover", false, "Find the hub over mDNS")
	fs.StringVar(&o.hubID, "hub-id", "", "Hub ID to discover (default: first found)")
	fs.Uint8Var(&o.page, "page", 0, "Channel page")
	fs.Uint8Var(&o.channel, "channel", 0, "Radio channel")
	fs.StringVar(&o.capture, "capture", "", "Capture file (.wcap)")
	fs.StringVar(&o.state, "state", "", "State file for interface persistence")
	fs.StringVar(&o.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	fs.BoolVarP(&o.interactive, "interactive", "i", false, "Start the interactive shell")
	return fs
}

// loadConfig reads the config file, if any, and applies the flags that
// were set.
func loadConfig(fs *pflag.FlagSet, o *overrides) (Config, error) {
	cfg := DefaultConfig()
	if o.config != "" {
		var err error
		if cfg, err = LoadConfig(o.config); err != nil {
			return cfg, err
		}
	}

	set := func(name string) bool { return fs.Changed(name) }
	if set("name") {
		cfg.Device.Name = o.name
	}
	if set("driver") {
		cfg.Driver.Type = o.driver
	}
	if set("port") {
		cfg.Driver.Serial.Port = o.port
		if !set("driver") {
			cfg.Driver.Type = DriverSerial
		}
	}
	if set("baud") {
		cfg.Driver.Serial.BaudRate = o.baud
	}
	if set("hub") {
		cfg.Driver.Air.Address = o.hub
		if !set("driver") {
			cfg.Driver.Type = DriverAir
		}
	}
	if set("discover") {
		cfg.Driver.Air.Discover = o.discover
	}
	if set("hub-id") {
		cfg.Driver.Air.HubID = o.hubID
	}
	if set("page") {
		cfg.Page = o.page
	}
	if set("channel") {
		ch := o.channel
		cfg.Channel = &ch
	}
	if set("capture") {
		cfg.Capture = o.capture
	}
	if set("state") {
		cfg.State = o.state
	}
	if set("log-level") {
		cfg.LogLevel = o.logLevel
	}
	return cfg, cfg.Validate()
}

func main() {
	var o overrides
	fs := newFlagSet(&o)
	if err := fs.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return
		}
		os.Exit(2)
	}

	cfg, err := loadConfig(fs, &o)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}
	logger, err := cli.NewLogger(os.Stderr, cfg.LogLevel, "wpand")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := run(cfg, o.interactive, logger); err != nil {
		logger.Error("exiting", "error", err)
		os.Exit(1)
	}
}

func run(cfg Config, interactive bool, logger *slog.Logger) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	dm, err := newDaemon(ctx, cfg, deps{}, os.Stdout, logger)
	if err != nil {
		return err
	}
	if err := dm.Start(ctx); err != nil {
		_ = dm.closeCapture()
		return err
	}

	if interactive {
		if err := runShell(ctx, cancel, dm); err != nil {
			logger.Warn("shell unavailable", "error", err)
		}
	}
	<-ctx.Done()

	logger.Info("shutting down")
	return dm.Stop()
}
