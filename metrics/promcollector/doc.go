// Package promcollector exports lexseg metrics to Prometheus.
//
//	reg := prometheus.NewRegistry()
//	mc, err := promcollector.New(reg)
//	stats, err := lexseg.Merge(ctx, store, inputs, out, lexseg.WithMetricsCollector(mc))
package promcollector
