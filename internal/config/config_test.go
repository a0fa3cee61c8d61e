package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "netlabctl.toml")
	if err := os.WriteFile(path, []byte(""), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	ip, err := cfg.LocalIP()
	if err != nil {
		t.Fatal(err)
	}
	if ip != [4]byte{192, 168, 1, 1} {
		t.Fatalf("got default IP %v", ip)
	}
	ttl, err := cfg.ARPCacheTTL()
	if err != nil || ttl.Seconds() != 60 {
		t.Fatalf("got cache ttl %v, err %v", ttl, err)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "netlabctl.toml")
	content := `
[interface]
ip = "10.0.0.5"
mac = "aa:bb:cc:dd:ee:ff"

[arp]
cache_size = 128
cache_ttl = "30s"
pending_size = 16
pending_ttl = "500ms"

[udp]
echo_ports = [7, 9]
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	ip, err := cfg.LocalIP()
	if err != nil {
		t.Fatal(err)
	}
	if ip != [4]byte{10, 0, 0, 5} {
		t.Fatalf("got IP %v", ip)
	}
	mac, err := cfg.LocalMAC()
	if err != nil {
		t.Fatal(err)
	}
	if mac != [6]byte{0xaa, 0xbb, 0xcc, 0xdd, 0xee, 0xff} {
		t.Fatalf("got MAC %v", mac)
	}
	if cfg.ARP.CacheSize != 128 {
		t.Fatalf("got cache size %d", cfg.ARP.CacheSize)
	}
	if len(cfg.UDP.EchoPorts) != 2 || cfg.UDP.EchoPorts[0] != 7 {
		t.Fatalf("got echo ports %v", cfg.UDP.EchoPorts)
	}
}

func TestLocalIPRejectsInvalid(t *testing.T) {
	cfg := &Config{Interface: InterfaceConfig{IP: "not-an-ip"}}
	if _, err := cfg.LocalIP(); err == nil {
		t.Fatal("expected error for invalid IP")
	}
}

func TestLocalMACRejectsInvalid(t *testing.T) {
	cfg := &Config{Interface: InterfaceConfig{MAC: "not-a-mac"}}
	if _, err := cfg.LocalMAC(); err == nil {
		t.Fatal("expected error for invalid MAC")
	}
}
