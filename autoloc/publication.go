package autoloc

import "time"

// publicationInterval returns the minimum time that must elapse
// between two publications of the same origin, growing linearly with
// the origin's age since creation. Grounded on spec.md §4.11's
// PublicationIntervalTimeSlope/Intercept knobs, and structured like
// the teacher's backoff state machine (ptp/sptp/client/backoff.go) in
// that it is a pure function of elapsed time rather than a goroutine
// timer.
func (c *Core) publicationInterval(o *Origin) time.Duration {
	age := time.Since(o.CreationTime).Seconds()
	seconds := c.cfg.PublicationIntervalTimeIntercept + c.cfg.PublicationIntervalTimeSlope*age
	if seconds < 0 {
		seconds = 0
	}
	return time.Duration(seconds * float64(time.Second))
}

// shouldPublish enforces the publication throttling invariant: a fresh
// origin always publishes once; thereafter it only republishes after
// its interval has elapsed, and only if its arrival count has grown by
// at least PublicationIntervalPickCount since the last publication or
// its status is Confirmed. This keeps publication monotonic in time (never
// publishes the same origin twice within its interval) without
// silently dropping genuinely improved solutions.
func (c *Core) shouldPublish(o *Origin) bool {
	if o.PublicationTime.IsZero() {
		return true
	}
	if time.Since(o.PublicationTime) < c.publicationInterval(o) {
		return false
	}
	lastCount, ok := c.publishedArrivalCount[o.ID]
	if !ok {
		return true
	}
	if len(o.Arrivals)-lastCount >= c.cfg.PublicationIntervalPickCount {
		return true
	}
	return o.Status == Confirmed
}
