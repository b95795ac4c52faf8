package valuation

import (
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/meenmo/mvl/curve"
)

type buildFunc func(economy string, scen int, month string) (*curve.MonthlyCurve, error)

// curveCache builds each (economy, scenario, month) curve once per run.
// Concurrent requests for a curve being built wait for that build. Failed
// builds are not cached.
type curveCache struct {
	build  buildFunc
	group  singleflight.Group
	mu     sync.Mutex
	curves map[string]*curve.MonthlyCurve
}

func newCurveCache(build buildFunc) *curveCache {
	return &curveCache{
		build:  build,
		curves: make(map[string]*curve.MonthlyCurve),
	}
}

func (c *curveCache) lookup(key string) (*curve.MonthlyCurve, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	crv, ok := c.curves[key]
	return crv, ok
}

func (c *curveCache) get(economy string, scen int, month string) (*curve.MonthlyCurve, error) {
	key := fmt.Sprintf("%s/%d/%s", economy, scen, month)
	if crv, ok := c.lookup(key); ok {
		return crv, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		// A build for key may have finished between lookup and Do.
		if crv, ok := c.lookup(key); ok {
			return crv, nil
		}
		crv, err := c.build(economy, scen, month)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.curves[key] = crv
		c.mu.Unlock()
		return crv, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*curve.MonthlyCurve), nil
}

// len reports the number of cached curves.
func (c *curveCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.curves)
}
