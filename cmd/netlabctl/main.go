// Command netlabctl is the CLI test harness for the netlab ARP/IPv4/UDP
// stack. See the commands package for the subcommands it exposes.
package main

import "github.com/nilab/netlab/cmd/netlabctl/commands"

func main() {
	commands.Execute()
}
