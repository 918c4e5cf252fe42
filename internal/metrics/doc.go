// Package metrics provides per-tick observers that summarize a membrane run.
//
// Each metric satisfies sim.Metric: it observes every published generation
// and reports a single number at the end of the run.
package metrics
