// Package metrics exports reconciliation and live stream metrics to
// Prometheus.
//
// A Collector observes every Mount and Patch of a vdom.Reconciler:
//
//	reg := prometheus.NewRegistry()
//	c := metrics.New(metrics.WithRegistry(reg))
//	r := vdom.NewReconciler(doc, vdom.WithObserver(c))
//
//	http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
package metrics
