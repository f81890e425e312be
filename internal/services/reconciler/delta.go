package reconciler

import "github.com/BearBump/TrackRelay/internal/models"

// ResolveDelta deduplicates the fetched status list by code (first
// occurrence wins, carrier order preserved) and drops every status whose
// code is already in the history ledger. The result is the set of
// genuinely new statuses for this pass.
func ResolveDelta(fetched []models.DeliveryStatus, historyCodes []string) []models.DeliveryStatus {
	known := make(map[string]struct{}, len(historyCodes))
	for _, c := range historyCodes {
		known[c] = struct{}{}
	}

	seen := make(map[string]struct{}, len(fetched))
	out := make([]models.DeliveryStatus, 0, len(fetched))
	for _, st := range fetched {
		if st.Code == "" {
			continue
		}
		if _, dup := seen[st.Code]; dup {
			continue
		}
		seen[st.Code] = struct{}{}
		if _, ok := known[st.Code]; ok {
			continue
		}
		out = append(out, st)
	}
	return out
}
