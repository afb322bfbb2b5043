// Package cache provides an in-process key-value store whose entries expire.
//
// Entries are evicted lazily when read after their TTL elapses, and a
// background sweep removes expired entries that are never read again. The
// sweep is owned by the caller: Start launches it and Stop cancels it and
// waits for it to exit, so no goroutine outlives the cache's owner.
//
//	c := cache.New[string](cache.WithSweepInterval(time.Minute))
//	if err := c.Start(ctx); err != nil {
//	    return err
//	}
//	defer c.Stop()
//
//	c.Set("proxy:10.0.0.1", "healthy", 30*time.Second)
//	v, ok := c.Get("proxy:10.0.0.1")
package cache
