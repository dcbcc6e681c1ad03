package aggregate

import (
	"math"
	"time"

	"github.com/albapepper/eventclock/internal/event"
)

// Bucket is an urgency display category derived from days until expiry.
type Bucket string

const (
	BucketExpireToday    Bucket = "expire_today"
	BucketExpireIn3Days  Bucket = "expire_in_3_days"
	BucketExpireInWeek   Bucket = "expire_in_week"
	BucketExpireIn2Weeks Bucket = "expire_in_2_weeks"
	BucketExpireInMonth  Bucket = "expire_in_month"
	BucketExpireLater    Bucket = "expire_later"
	BucketFuture         Bucket = "future"
	BucketExpired        Bucket = "expired"
)

// Order is the fixed display order of non-expired buckets.
var Order = []Bucket{
	BucketExpireToday,
	BucketExpireIn3Days,
	BucketExpireInWeek,
	BucketExpireIn2Weeks,
	BucketExpireInMonth,
	BucketExpireLater,
	BucketFuture,
}

// DaysUntil returns whole days until expiry, rounded up. Anything at or
// before now is zero or negative.
func DaysUntil(expiry, now time.Time) int {
	return int(math.Ceil(expiry.Sub(now).Hours() / 24))
}

// Classify returns the bucket of e at now. Events that have not started yet
// are Future regardless of how soon they expire.
func Classify(e event.Resolved, now time.Time) Bucket {
	if !e.Expiry.After(now) {
		return BucketExpired
	}
	if e.Start.After(now) {
		return BucketFuture
	}
	switch days := DaysUntil(e.Expiry, now); {
	case days <= 1:
		return BucketExpireToday
	case days <= 3:
		return BucketExpireIn3Days
	case days <= 7:
		return BucketExpireInWeek
	case days <= 14:
		return BucketExpireIn2Weeks
	case days <= 30:
		return BucketExpireInMonth
	default:
		return BucketExpireLater
	}
}
