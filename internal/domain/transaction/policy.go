package transaction

import "time"

// DeleteWindow is how long after its creation instant a transaction may
// still be deleted. Fixed policy value.
const DeleteWindow = 10 * time.Minute

// CanDelete reports whether t may be deleted at the given instant.
// Callers must re-check at delete time: a transaction can cross the
// threshold between rendering a delete affordance and the actual request.
func CanDelete(t Transaction, now time.Time) bool {
	return now.Sub(t.CreatedAt) <= DeleteWindow
}
