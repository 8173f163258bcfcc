package authority

import "time"

// epochWindow is the (nbf, exp) pair shared by both key families; the
// allocation math in planEpochWindows is identical whether the caller then
// mints Ed25519 or BLS key material for each window.
type epochWindow struct {
	Nbf time.Time
	Exp time.Time
}

// planEpochWindows computes the epoch windows add_epochs must mint to
// extend coverage to horizon, given the last existing epoch (if any). It
// returns nil if the last epoch already covers horizon.
//
// lastNbf/lastExp are nil when no epoch exists yet, in which case the
// anchor is now quantized down to a multiple of interval. Otherwise the
// anchor is lastNbf + interval, continuing the rotation without a gap.
func planEpochWindows(lastNbf, lastExp *time.Time, now time.Time, interval, buffer time.Duration) func(horizon time.Time) []epochWindow {
	return func(horizon time.Time) []epochWindow {
		if lastExp != nil && !lastExp.Before(horizon) {
			return nil
		}

		var anchor time.Time
		if lastNbf == nil {
			anchor = now.Truncate(interval)
		} else {
			anchor = lastNbf.Add(interval)
		}

		diff := horizon.Sub(anchor)
		count := diff / interval
		if diff%interval != 0 {
			count++
		}
		count++ // ⌈(horizon − anchor)/KEY_INTERVAL⌉ + 1
		if count < 1 {
			count = 1
		}

		windows := make([]epochWindow, 0, count)
		for i := time.Duration(0); i < count; i++ {
			nbf := anchor.Add(i * interval)
			exp := nbf.Add(interval + buffer)
			windows = append(windows, epochWindow{Nbf: nbf, Exp: exp})
		}
		return windows
	}
}

// selectCoverage returns the index range of epochs (assumed sorted
// ascending by nbf) with exp > start and nbf < end, strict on both ends.
// It reports !ok when no epoch qualifies or the last qualifying epoch's
// exp falls short of end; the caller maps that to the right per-family
// coverage sentinel.
func selectCoverage(nbfs, exps []time.Time, start, end time.Time) (firstOK, lastOK int, ok bool) {
	firstOK, lastOK = -1, -1
	for i := range nbfs {
		if exps[i].After(start) && nbfs[i].Before(end) {
			if firstOK == -1 {
				firstOK = i
			}
			lastOK = i
		}
	}
	if firstOK == -1 {
		return -1, -1, false
	}
	if exps[lastOK].Before(end) {
		return -1, -1, false
	}
	return firstOK, lastOK, true
}
