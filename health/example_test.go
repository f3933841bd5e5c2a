package health_test

import (
	"context"
	"fmt"

	"github.com/jonwraymond/resourcecache/health"
)

func ExampleAggregator() {
	agg := health.NewAggregator()
	agg.Register(
		health.NewCheckerFunc("resource.users", func(context.Context) health.Result {
			return health.Healthy("serving cached data")
		}),
		health.NewCheckerFunc("resource.teams", func(context.Context) health.Result {
			return health.Degraded("last refresh failed")
		}),
	)

	report := agg.CheckAll(context.Background())
	for _, c := range report.Checks {
		fmt.Println(c.Name, c.Status)
	}
	fmt.Println("overall:", report.Status)
	// Output:
	// resource.users healthy
	// resource.teams degraded
	// overall: degraded
}
