package transaction

import (
	"time"
)

// CanonicalDate converts the heterogeneous date shapes a document store can
// hand back (native time, a wrapped timestamp exposing a conversion method,
// an RFC 3339 or YYYY-MM-DD string, or raw unix milliseconds) into a
// time.Time. It never panics; anything unparsable comes back as the zero
// time, which matches no month/year predicate and sorts last in the
// descending view.
func CanonicalDate(raw any) time.Time {
	switch v := raw.(type) {
	case time.Time:
		return v
	case *time.Time:
		if v != nil {
			return *v
		}
	case interface{ AsTime() time.Time }: // protobuf timestamp wrapper
		return v.AsTime()
	case interface{ ToTime() time.Time }:
		return v.ToTime()
	case string:
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			return t
		}
		if t, err := time.Parse("2006-01-02", v); err == nil {
			return t
		}
	case int64:
		return time.UnixMilli(v)
	case int:
		return time.UnixMilli(int64(v))
	case float64:
		return time.UnixMilli(int64(v))
	}
	return time.Time{}
}
