// Command pihole-exporter polls a Pi-hole instance and exposes its statistics
// as Prometheus metrics.
package main

import "github.com/AdguardTeam/PiholeExporter/internal/cmd"

func main() {
	cmd.Main()
}
