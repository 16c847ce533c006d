// Package admission gates attach calls with
// github.com/alibaba/sentinel-golang flow rules. It sits in front of
// internal/router, not inside internal/route's mutation path: attach
// attempts on a route beyond its pool_size per statistic interval are
// rejected via a flow rule, whether or not the route has an idle server.
package admission

import (
	"fmt"

	sentinel "github.com/alibaba/sentinel-golang/api"
	"github.com/alibaba/sentinel-golang/core/config"
	"github.com/alibaba/sentinel-golang/core/flow"

	"github.com/sbgrid/pgpool/internal/poolerr"
)

// Init brings up the sentinel runtime under the given application name.
// It must be called once before Gate is used.
func Init(appName string) error {
	conf := config.NewDefaultConfig()
	conf.Sentinel.App.Name = appName
	if err := sentinel.InitWithConfig(conf); err != nil {
		return fmt.Errorf("admission: init sentinel: %w", err)
	}
	return nil
}

// LoadRoutePoolSize installs a flow rule capping the rate of attach()
// entries for a route at poolSize per statistic interval, keyed by the
// route's resource name. It limits a rate, not the number of attaches in
// progress at once.
// Calling it again for the same resource replaces the prior rule.
func LoadRoutePoolSize(resource string, poolSize int) error {
	if poolSize <= 0 {
		return nil
	}
	_, err := flow.LoadRules([]*flow.Rule{
		{
			Resource:               resource,
			TokenCalculateStrategy: flow.Direct,
			ControlBehavior:        flow.Reject,
			Threshold:              float64(poolSize),
		},
	})
	if err != nil {
		return fmt.Errorf("admission: load flow rule for %s: %w", resource, err)
	}
	return nil
}

// Gate runs fn only if sentinel admits the request for resource,
// returning poolerr.ErrPoolFull immediately otherwise.
func Gate(resource string, fn func() error) error {
	e, blocked := sentinel.Entry(resource)
	if blocked != nil {
		return poolerr.ErrPoolFull
	}
	defer e.Exit()

	if err := fn(); err != nil {
		sentinel.TraceError(e, err)
		return err
	}
	return nil
}
