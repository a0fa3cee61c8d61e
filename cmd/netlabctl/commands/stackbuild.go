package commands

import (
	"github.com/nilab/netlab/internal/config"
	"github.com/nilab/netlab/stack"
)

// loadConfig reads the config at cfgPath, or returns an all-defaults
// Config if cfgPath is empty, so every command works out of the box with
// no flags.
func loadConfig() (*config.Config, error) {
	if cfgPath == "" {
		return config.Default(), nil
	}
	return config.Load(cfgPath)
}

// buildStack constructs a Stack and its loopback harness driver from cfg.
func buildStack(cfg *config.Config) (*stack.Stack, *loopbackDriver, error) {
	localIP, err := cfg.LocalIP()
	if err != nil {
		return nil, nil, err
	}
	localMAC, err := cfg.LocalMAC()
	if err != nil {
		return nil, nil, err
	}
	cacheTTL, err := cfg.ARPCacheTTL()
	if err != nil {
		return nil, nil, err
	}
	pendingTTL, err := cfg.ARPPendingTTL()
	if err != nil {
		return nil, nil, err
	}

	drv := newLoopbackDriver(localMAC)
	s, err := stack.New(stack.Config{
		LocalIP:        localIP,
		LocalMAC:       localMAC,
		ARPCacheSize:   cfg.ARP.CacheSize,
		ARPCacheTTL:    cacheTTL,
		ARPPendingSize: cfg.ARP.PendingSize,
		ARPPendingTTL:  pendingTTL,
	}, drv, nil)
	if err != nil {
		return nil, nil, err
	}
	drv.stk = s

	for _, port := range cfg.UDP.EchoPorts {
		p := uint16(port)
		err := s.UDPOpen(p, func(payload []byte, srcIP [4]byte, srcPort uint16) {
			_ = s.UDPSend(payload, p, srcIP, srcPort)
		})
		if err != nil {
			return nil, nil, err
		}
	}
	return s, drv, nil
}
