package commands

import (
	"fmt"
	"net"
	"net/netip"

	"github.com/spf13/cobra"

	"github.com/nilab/netlab/ethernet"
)

func arpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "arp",
		Short: "Drive the ARP layer of a freshly constructed stack",
	}
	cmd.AddCommand(arpRequestCmd())
	cmd.AddCommand(arpReplyCmd())
	return cmd
}

// arpRequestCmd constructs a Stack, drops its startup announcement, and
// injects an ARP request from a synthetic peer targeting the local
// address — printing the resulting cache entry and any reply emitted.
// This exercises the request/reply resolution path interactively.
func arpRequestCmd() *cobra.Command {
	var peerIPStr, peerMACStr string
	cmd := &cobra.Command{
		Use:   "request",
		Short: "Inject an ARP request from a peer and report the stack's response",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			peerIP, err := netip.ParseAddr(peerIPStr)
			if err != nil || !peerIP.Is4() {
				return fmt.Errorf("--peer-ip %q is not a valid IPv4 address", peerIPStr)
			}
			peerMAC, err := net.ParseMAC(peerMACStr)
			if err != nil || len(peerMAC) != 6 {
				return fmt.Errorf("--peer-mac %q is not a valid hardware address", peerMACStr)
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			s, drv, err := buildStack(cfg)
			if err != nil {
				return err
			}
			localIP, _ := cfg.LocalIP()
			drv.Reset()

			var peerMAC6, dummy [6]byte
			copy(peerMAC6[:], peerMAC)
			pkt := buildARPPacket(1, peerMAC6, peerIP.As4(), dummy, localIP)
			drv.Inject(ethernet.TypeARP, pkt, peerMAC6)

			if mac, ok := s.LookupARP(peerIP.As4()); ok {
				fmt.Printf("cache: %s -> %s\n", peerIP, ethernet.AppendAddr(nil, mac))
			} else {
				fmt.Println("cache: no entry learned")
			}
			for _, f := range drv.sent {
				fmt.Printf("sent: ethertype=%s dst=%s\n", f.EtherType, ethernet.AppendAddr(nil, f.Dst))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&peerIPStr, "peer-ip", "192.168.1.2", "peer IPv4 address to request from")
	cmd.Flags().StringVar(&peerMACStr, "peer-mac", "aa:bb:cc:dd:ee:ff", "peer hardware address")
	return cmd
}

func arpReplyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "announce",
		Short: "Construct a stack and report its startup ARP announcement",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			_, drv, err := buildStack(cfg)
			if err != nil {
				return err
			}
			if len(drv.sent) != 1 {
				return fmt.Errorf("expected exactly one startup announcement, got %d frames", len(drv.sent))
			}
			f := drv.sent[0]
			fmt.Printf("announcement: ethertype=%s dst=%s\n", f.EtherType, ethernet.AppendAddr(nil, f.Dst))
			return nil
		},
	}
}
