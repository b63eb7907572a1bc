// Command wpan-air runs a shared virtual radio medium.
//
// Radios started by wpand with the air driver connect to the hub over TCP.
// The hub relays every frame to the other radios tuned to the same page
// and channel, and advertises itself over mDNS so radios can find it
// without an address.
//
// Usage:
//
//	wpan-air [flags]
//
// Examples:
//
//	# Listen on the default port and advertise on all interfaces
//	wpan-air
//
//	# Named hub on a custom port, limited to 8 radios
//	wpan-air --listen :9000 --name lab --max-clients 8
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/wpanstack/wpan-go/internal/cli"
	"github.com/wpanstack/wpan-go/pkg/discovery"
	"github.com/wpanstack/wpan-go/pkg/medium"
)

func main() {
	opts := defaultOptions()
	pflag.StringVarP(&opts.Listen, "listen", "l", opts.Listen, "Listen address")
	pflag.StringVar(&opts.ID, "id", "", "Hub ID (default: random)")
	pflag.StringVarP(&opts.Name, "name", "n", "", "Friendly hub name")
	pflag.IntVar(&opts.MaxClients, "max-clients", 0, "Maximum attached radios (0: unlimited)")
	pflag.DurationVar(&opts.IdleTimeout, "idle-timeout", opts.IdleTimeout, "Drop radios silent for this long (0: never)")
	pflag.BoolVar(&opts.NoMDNS, "no-mdns", false, "Do not advertise over mDNS")
	pflag.StringVar(&opts.MDNSInterface, "mdns-interface", "", "Network interface to advertise on (default: all)")
	logLevel := pflag.String("log-level", "info", "Log level: debug, info, warn, error")
	pflag.Parse()

	logger, err := cli.NewLogger(os.Stderr, *logLevel, "wpan-air")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	var adv discovery.Advertiser
	if !opts.NoMDNS {
		cfg := discovery.DefaultAdvertiserConfig()
		cfg.Interface = opts.MDNSInterface
		adv = discovery.NewMDNSAdvertiser(cfg)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := startAir(ctx, opts, adv, logger)
	if err != nil {
		logger.Error("failed to start", "error", err)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("shutting down")
	svc.Stop()
}

// defaultOptions returns the hub defaults.
func defaultOptions() options {
	def := medium.DefaultHubConfig()
	return options{
		Listen:      def.Address,
		IdleTimeout: def.IdleTimeout,
	}
}
