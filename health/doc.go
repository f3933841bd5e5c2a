// Package health reports whether the cached resources of a process are
// serving fresh data.
//
// A Checker reports a Result with a Status of Healthy, Degraded or
// Unhealthy. Resources expose their own checkers; an Aggregator runs a set
// of them concurrently and folds the results into one Report, which
// Handler serves over HTTP:
//
//	agg := health.NewAggregator()
//	agg.Register(users.HealthChecker())
//	agg.Register(teams.HealthChecker())
//
//	mux := http.NewServeMux()
//	health.RegisterHandlers(mux, agg)
package health
