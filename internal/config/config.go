// Package config handles TOML configuration parsing for netlabctl: the
// interface identity, cache sizing/TTLs and the UDP ports opened at
// startup, loaded the way github.com/JoshFinlayAU/athena-dhcpd's
// internal/config package loads its daemon configuration.
package config

import (
	"fmt"
	"net"
	"net/netip"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the top-level netlabctl configuration.
type Config struct {
	Interface InterfaceConfig `toml:"interface"`
	ARP       ARPConfig       `toml:"arp"`
	UDP       UDPConfig       `toml:"udp"`
}

// InterfaceConfig holds the local identity of the simulated network
// interface: its IPv4 address and hardware address.
type InterfaceConfig struct {
	IP  string `toml:"ip"`
	MAC string `toml:"mac"`
}

// ARPConfig bounds the peer-MAC cache and the pending-send queue.
type ARPConfig struct {
	CacheSize   int    `toml:"cache_size"`
	CacheTTL    string `toml:"cache_ttl"`
	PendingSize int    `toml:"pending_size"`
	PendingTTL  string `toml:"pending_ttl"`
}

// UDPConfig lists the ports opened at startup, each echoing received
// datagrams back to their sender (the harness has no application layer of
// its own; echoing is enough to exercise the full send/receive path).
type UDPConfig struct {
	EchoPorts []int `toml:"echo_ports"`
}

// Load reads and parses a TOML config file, applying defaults for any
// field left zero.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}
	cfg := &Config{}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	applyDefaults(cfg)
	return cfg, nil
}

// Default returns a Config with every field at its default value, for
// callers that want to construct a Stack without a config file on disk.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Interface.IP == "" {
		cfg.Interface.IP = "192.168.1.1"
	}
	if cfg.Interface.MAC == "" {
		cfg.Interface.MAC = "00:11:22:33:44:55"
	}
	if cfg.ARP.CacheSize == 0 {
		cfg.ARP.CacheSize = 64
	}
	if cfg.ARP.CacheTTL == "" {
		cfg.ARP.CacheTTL = "60s"
	}
	if cfg.ARP.PendingSize == 0 {
		cfg.ARP.PendingSize = 64
	}
	if cfg.ARP.PendingTTL == "" {
		cfg.ARP.PendingTTL = "1s"
	}
}

// LocalIP parses Interface.IP into a 4-byte IPv4 address.
func (c *Config) LocalIP() ([4]byte, error) {
	addr, err := netip.ParseAddr(c.Interface.IP)
	if err != nil || !addr.Is4() {
		return [4]byte{}, fmt.Errorf("config: interface.ip %q is not a valid IPv4 address", c.Interface.IP)
	}
	return addr.As4(), nil
}

// LocalMAC parses Interface.MAC into a 6-byte hardware address.
func (c *Config) LocalMAC() ([6]byte, error) {
	hw, err := net.ParseMAC(c.Interface.MAC)
	if err != nil || len(hw) != 6 {
		return [6]byte{}, fmt.Errorf("config: interface.mac %q is not a valid hardware address", c.Interface.MAC)
	}
	return [6]byte(hw), nil
}

// ARPCacheTTL parses ARP.CacheTTL as a duration.
func (c *Config) ARPCacheTTL() (time.Duration, error) {
	return time.ParseDuration(c.ARP.CacheTTL)
}

// ARPPendingTTL parses ARP.PendingTTL as a duration.
func (c *Config) ARPPendingTTL() (time.Duration, error) {
	return time.ParseDuration(c.ARP.PendingTTL)
}
