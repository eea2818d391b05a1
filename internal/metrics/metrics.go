// Package metrics contains the Prometheus metric store of the exported Pi-hole
// statistics and the metrics of the exporter itself.
package metrics

import (
	"fmt"
	"runtime"

	"github.com/AdguardTeam/golibs/container"
	"github.com/AdguardTeam/golibs/errors"
	"github.com/prometheus/client_golang/prometheus"
)

// Namespaces of the metrics.
const (
	// NamespacePihole is the namespace of the exported Pi-hole statistics.
	NamespacePihole = "pihole"

	// NamespaceExporter is the namespace of the metrics of the exporter
	// itself.
	NamespaceExporter = "pihole_exporter"
)

// subsystemApplication is the subsystem of the application metrics.
const subsystemApplication = "app"

// SetUpGauge registers a gauge signaling that the exporter has been started in
// reg and sets it.
func SetUpGauge(
	reg prometheus.Registerer,
	namespace string,
	version string,
	revision string,
	branch string,
) (err error) {
	upGauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Name:      "up",
		Namespace: namespace,
		Subsystem: subsystemApplication,
		Help: `A metric with a constant '1' value labeled by ` +
			`version and goversion from which the program was built.`,
		ConstLabels: prometheus.Labels{
			"version":   version,
			"revision":  revision,
			"branch":    branch,
			"goversion": runtime.Version(),
		},
	})

	err = reg.Register(upGauge)
	if err != nil {
		return fmt.Errorf("registering up gauge: %w", err)
	}

	upGauge.Set(1)

	return nil
}

// register registers all collectors in reg.
func register(reg prometheus.Registerer, collectors container.KeyValues[string, prometheus.Collector]) (err error) {
	var errs []error
	for _, c := range collectors {
		err = reg.Register(c.Value)
		if err != nil {
			errs = append(errs, fmt.Errorf("registering metrics %q: %w", c.Key, err))
		}
	}

	return errors.Join(errs...)
}
