package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/wpanstack/wpan-go/pkg/connection"
	"github.com/wpanstack/wpan-go/pkg/discovery"
	"github.com/wpanstack/wpan-go/pkg/frame"
	"github.com/wpanstack/wpan-go/pkg/llsec"
	"github.com/wpanstack/wpan-go/pkg/log"
	"github.com/wpanstack/wpan-go/pkg/mac"
	"github.com/wpanstack/wpan-go/pkg/medium"
	"github.com/wpanstack/wpan-go/pkg/persistence"
	"github.com/wpanstack/wpan-go/pkg/radio/loopback"
	"github.com/wpanstack/wpan-go/pkg/radio/serial"
)

// stopTimeout bounds the drain of in-flight frames at shutdown.
const stopTimeout = 5 * time.Second

// radio is a driver that describes its own hardware.
type radio interface {
	mac.Driver
	Hardware() mac.Hardware
}

// deps are the environment a daemon is built in. Zero fields take the
// real implementations.
type deps struct {
	// Air is the medium loopback radios attach to. Nil creates a private
	// one.
	Air *loopback.Air
	// Browser finds hubs for the air driver. Nil browses over mDNS.
	Browser discovery.Browser
	// Serial opens the serial port. Nil opens a real port.
	Serial serial.Opener
}

// daemon owns one MAC device and its interfaces.
type daemon struct {
	cfg    Config
	logger *slog.Logger

	outMu sync.Mutex
	out   io.Writer

	dev     *mac.Device
	client  *medium.Client
	capture *log.FileLogger
	store   *persistence.StateStore
}

// newDaemon builds the driver and the device. Delivered data frames are
// printed to out.
func newDaemon(ctx context.Context, cfg Config, d deps, out io.Writer, logger *slog.Logger) (*daemon, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	dm := &daemon{cfg: cfg, logger: logger, out: out}

	drv, err := dm.buildDriver(ctx, d)
	if err != nil {
		return nil, err
	}
	hw := drv.Hardware()
	if cfg.Device.ExtendedAddr != "" {
		hw.ExtendedAddr, _ = frame.ParseExtendedAddr(cfg.Device.ExtendedAddr)
	}

	dm.dev, err = mac.NewDevice(drv, hw, mac.Config{
		Name:       cfg.Device.Name,
		RxQueueLen: cfg.Device.RxQueueLen,
		TxQueueLen: cfg.Device.TxQueueLen,
		Stack:      mac.StackFunc(dm.deliver),
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}

	if cfg.Capture != "" {
		dm.capture, err = log.NewFileLogger(cfg.Capture)
		if err != nil {
			return nil, fmt.Errorf("open capture: %w", err)
		}
		dm.dev.SetCaptureLogger(dm.capture)
	}
	if cfg.State != "" {
		dm.store = persistence.NewStateStore(cfg.State)
	}
	return dm, nil
}

func (dm *daemon) buildDriver(ctx context.Context, d deps) (radio, error) {
	switch dm.cfg.Driver.Type {
	case DriverSerial:
		sc := dm.cfg.Driver.Serial
		def := serial.DefaultConfig()
		if sc.BaudRate == 0 {
			sc.BaudRate = def.BaudRate
		}
		if sc.RequestTimeout == 0 {
			sc.RequestTimeout = def.RequestTimeout
		}
		if sc.Flags == 0 {
			sc.Flags = def.Flags
		}
		sc.Logger = dm.logger
		if d.Serial != nil {
			return serial.NewWithOpener(sc, d.Serial), nil
		}
		return serial.New(sc), nil

	case DriverAir:
		cc := dm.cfg.Driver.Air.ClientConfig
		if dm.cfg.Driver.Air.Discover {
			addr, err := dm.findHub(ctx, d.Browser)
			if err != nil {
				return nil, err
			}
			cc.Address = addr
		}
		cc.Logger = dm.logger
		cc.OnStateChange = func(old, next connection.State) {
			dm.logger.Info("hub link", "from", old.String(), "to", next.String())
		}
		dm.client = medium.NewClient(cc)
		return dm.client, nil

	default:
		air := d.Air
		if air == nil {
			air = loopback.NewAir()
		}
		return air.NewRadio(), nil
	}
}

// findHub browses for the configured hub and returns its address.
func (dm *daemon) findHub(ctx context.Context, b discovery.Browser) (string, error) {
	if b == nil {
		mb := discovery.NewMDNSBrowser(discovery.DefaultBrowserConfig())
		defer mb.Stop()
		b = mb
	}
	svc, err := b.FindHub(ctx, dm.cfg.Driver.Air.HubID)
	if err != nil {
		return "", fmt.Errorf("discover hub: %w", err)
	}
	dm.logger.Info("hub discovered", "id", svc.ID, "name", svc.Name, "addr", svc.Address())
	return svc.Address(), nil
}

// Start starts the device, creates the configured interfaces, tunes the
// radio and applies saved state over the configuration.
func (dm *daemon) Start(ctx context.Context) error {
	if err := dm.dev.Start(ctx); err != nil {
		return err
	}
	if err := dm.setup(); err != nil {
		dm.stopDevice()
		return err
	}
	dm.logger.Info("device ready", "device", dm.dev.Name(), "session", dm.dev.SessionID(),
		"interfaces", len(dm.dev.Interfaces()))
	return nil
}

func (dm *daemon) setup() error {
	for _, ic := range dm.cfg.Interfaces {
		if err := dm.addInterface(ic); err != nil {
			return fmt.Errorf("interface %s: %w", ic.Name, err)
		}
	}
	if err := dm.tune(); err != nil {
		return err
	}

	if dm.store != nil {
		st, err := dm.store.Load()
		if err != nil {
			return fmt.Errorf("load state: %w", err)
		}
		if st != nil {
			if err := persistence.Restore(dm.dev, st); err != nil {
				return fmt.Errorf("restore state: %w", err)
			}
			dm.logger.Info("state restored", "file", dm.store.Path(), "saved", st.SavedAt)
		}
	}

	// Security binds to the final addresses, so it goes last.
	for _, ic := range dm.cfg.Interfaces {
		if ic.Security == nil {
			continue
		}
		iface, _ := dm.dev.Interface(ic.Name)
		table, err := buildSecurity(iface, ic.Security)
		if err != nil {
			return fmt.Errorf("interface %s: %w", ic.Name, err)
		}
		iface.SetSecurity(table)
	}
	return nil
}

func (dm *daemon) addInterface(ic InterfaceConfig) error {
	kind, err := mac.ParseKind(ic.Kind)
	if err != nil {
		return err
	}
	iface, err := dm.dev.AddInterface(ic.Name, kind)
	if err != nil {
		return err
	}
	if kind == mac.KindWPAN {
		if ic.Channel == nil && dm.cfg.Channel != nil {
			ic.Page, ic.Channel = dm.cfg.Page, dm.cfg.Channel
		}
		if err := configureWPAN(iface, ic); err != nil {
			return err
		}
	}
	if !ic.Down {
		iface.Open()
	}
	return nil
}

// configureWPAN applies addressing, parameters and the PAN role. Without
// a channel of its own the interface sends on the device channel.
func configureWPAN(iface *mac.Interface, ic InterfaceConfig) error {
	if ic.ExtendedAddr != "" {
		ext, _ := frame.ParseExtendedAddr(ic.ExtendedAddr)
		if err := iface.SetExtendedAddr(ext); err != nil {
			return err
		}
	}
	if ic.Params != nil {
		if err := iface.SetMACParams(*ic.Params); err != nil && !errors.Is(err, mac.ErrNotSupported) {
			return err
		}
	}

	pan, _ := parsePANID(ic.PANID)
	short, _ := parseShortAddr(ic.ShortAddr)
	if ic.Coordinator {
		return iface.StartRequest(frame.NewShortAddr(pan, short), ic.Page, *ic.Channel)
	}
	if ic.PANID != "" {
		if err := iface.SetPANID(pan); err != nil {
			return err
		}
	}
	if ic.ShortAddr != "" {
		if err := iface.SetShortAddr(short); err != nil {
			return err
		}
	}
	if ic.Channel != nil {
		return iface.SetPageChannel(ic.Page, *ic.Channel)
	}
	return nil
}

// tune sets the configured channel, or the first interface channel when
// none is configured.
func (dm *daemon) tune() error {
	if dm.cfg.Channel != nil {
		return dm.dev.SetChannel(dm.cfg.Page, *dm.cfg.Channel)
	}
	for _, ic := range dm.cfg.Interfaces {
		if ic.Channel != nil {
			return dm.dev.SetChannel(ic.Page, *ic.Channel)
		}
	}
	return nil
}

// buildSecurity derives the link key and fills a security table for iface.
func buildSecurity(iface *mac.Interface, sc *SecurityConfig) (*llsec.Table, error) {
	key, err := llsec.DeriveKey([]byte(sc.Secret), nil, []byte("ieee802154 link key "+strconv.Itoa(int(sc.KeyIndex))))
	if err != nil {
		return nil, err
	}
	id := llsec.KeyID{Mode: frame.KeyIDIndex, Index: sc.KeyIndex}
	table := llsec.NewTable()
	if err := table.AddKey(llsec.Key{ID: id, Key: key}); err != nil {
		return nil, err
	}

	level := sc.Level
	if level == frame.SecLevelNone {
		level = frame.SecLevelEncMIC32
	}
	table.SetParams(llsec.Params{
		Enabled:        true,
		OutLevel:       level,
		OutKey:         id,
		PANID:          iface.PANID(),
		HWAddr:         iface.ExtendedAddr(),
		CoordShortAddr: frame.UnassignedShortAddr,
	})

	for _, p := range sc.Peers {
		ext, err := frame.ParseExtendedAddr(p.ExtendedAddr)
		if err != nil {
			return nil, err
		}
		short := frame.UnassignedShortAddr
		if p.ShortAddr != "" {
			if short, err = parseShortAddr(p.ShortAddr); err != nil {
				return nil, err
			}
		}
		table.AddDevice(llsec.Device{PANID: iface.PANID(), ShortAddr: short, HWAddr: ext})
	}
	return table, nil
}

// deliver prints a data frame handed up by the MAC.
func (dm *daemon) deliver(iface *mac.Interface, f *frame.Frame) {
	dm.outMu.Lock()
	defer dm.outMu.Unlock()
	fmt.Fprintf(dm.out, "%s: %v -> %v lqi %d: %q\n", iface.Name(), f.Header.Source, f.Header.Dest, f.LQI, f.Payload())
}

// SetOutput redirects delivered frames.
func (dm *daemon) SetOutput(w io.Writer) {
	dm.outMu.Lock()
	defer dm.outMu.Unlock()
	dm.out = w
}

// Device returns the MAC device.
func (dm *daemon) Device() *mac.Device { return dm.dev }

// Stop saves state, stops the device and closes the capture file.
func (dm *daemon) Stop() error {
	var errs []error
	if dm.store != nil {
		if err := dm.store.Save(persistence.Snapshot(dm.dev)); err != nil {
			errs = append(errs, fmt.Errorf("save state: %w", err))
		} else {
			dm.logger.Info("state saved", "file", dm.store.Path())
		}
	}
	if err := dm.stopDevice(); err != nil {
		errs = append(errs, err)
	}
	if err := dm.closeCapture(); err != nil {
		errs = append(errs, fmt.Errorf("close capture: %w", err))
	}
	return errors.Join(errs...)
}

func (dm *daemon) stopDevice() error {
	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	return dm.dev.Stop(ctx)
}

func (dm *daemon) closeCapture() error {
	if dm.capture == nil {
		return nil
	}
	dm.dev.SetCaptureLogger(nil)
	err := dm.capture.Close()
	dm.capture = nil
	return err
}
