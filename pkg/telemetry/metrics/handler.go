package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler serves the collector's registry. Scrapes of the endpoint itself
// are counted in promhttp_metric_handler_requests_total. Collection errors
// are logged by promhttp and the remaining metrics are still served.
func (c *Collector) Handler() http.Handler {
	h := promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{
		Registry:          c.registry,
		EnableOpenMetrics: true,
		ErrorHandling:     promhttp.ContinueOnError,
	})
	return promhttp.InstrumentMetricHandler(c.registry, h)
}
