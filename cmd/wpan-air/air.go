package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wpanstack/wpan-go/pkg/discovery"
	"github.com/wpanstack/wpan-go/pkg/medium"
)

type options struct {
	Listen        string
	ID            string
	Name          string
	MaxClients    int
	IdleTimeout   time.Duration
	NoMDNS        bool
	MDNSInterface string
}

// airService is a running hub and its announcement.
type airService struct {
	hub    *medium.Hub
	adv    discovery.Advertiser
	logger *slog.Logger

	mu   sync.Mutex
	info discovery.HubInfo
}

// startAir starts the hub and, when adv is not nil, advertises it. The
// advertised client count follows joins and leaves.
func startAir(ctx context.Context, opts options, adv discovery.Advertiser, logger *slog.Logger) (*airService, error) {
	if opts.ID == "" {
		opts.ID = uuid.NewString()
	}
	s := &airService{
		adv:    adv,
		logger: logger,
		info:   discovery.HubInfo{ID: opts.ID, Name: opts.Name},
	}

	s.hub = medium.NewHub(medium.HubConfig{
		Address:     opts.Listen,
		MaxClients:  opts.MaxClients,
		IdleTimeout: opts.IdleTimeout,
		OnJoin:      s.membershipChanged,
		OnLeave:     s.membershipChanged,
		Logger:      logger,
	})
	if err := s.hub.Start(ctx); err != nil {
		return nil, err
	}

	if tcp, ok := s.hub.Addr().(*net.TCPAddr); ok {
		s.info.Port = uint16(tcp.Port)
	}
	logger.Info("hub started", "id", opts.ID, "addr", s.hub.Addr().String())

	if adv != nil {
		info := s.snapshot()
		if err := adv.Advertise(ctx, &info); err != nil {
			_ = s.hub.Stop()
			return nil, fmt.Errorf("advertise: %w", err)
		}
		logger.Info("advertising", "instance", info.InstanceName(), "service", discovery.ServiceType)
	}
	return s, nil
}

func (s *airService) snapshot() discovery.HubInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.info
}

// membershipChanged refreshes the advertised client count.
func (s *airService) membershipChanged(medium.ClientInfo) {
	if s.adv == nil {
		return
	}
	s.mu.Lock()
	s.info.Clients = len(s.hub.Clients())
	info := s.info
	err := s.adv.Update(&info)
	s.mu.Unlock()
	if err != nil {
		s.logger.Debug("advertisement update failed", "error", err)
	}
}

// Stop withdraws the announcement and stops the hub.
func (s *airService) Stop() {
	if s.adv != nil {
		s.adv.Stop()
	}
	_ = s.hub.Stop()
	st := s.hub.Stats()
	s.logger.Info("hub stopped", "accepted", st.Accepted, "rejected", st.Rejected,
		"relayed", st.Relayed, "delivered", st.Delivered)
}
