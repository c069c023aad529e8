package hookengine

import "sort"

// schedule groups hooks into sequential waves: all hooks within one wave may
// run concurrently, and every hook in wave N+1 conflicts with at least one
// hook in wave N (spec §4.2 "dependency graph" / "mutation-group invariant").
// Ordering within and across waves is deterministic for identical input:
// filesystem-mutating hooks (formatters) are considered first, so they land
// in an earlier wave than the readers they conflict with, and ties are
// broken by hook ID (spec §4.2, §8.6).
func schedule(hooks []Hook) [][]Hook {
	if len(hooks) == 0 {
		return nil
	}

	byID := make(map[string]Hook, len(hooks))
	ids := make([]string, 0, len(hooks))
	for _, h := range hooks {
		byID[h.ID] = h
		ids = append(ids, h.ID)
	}
	sort.Slice(ids, func(i, j int) bool {
		mi, mj := byID[ids[i]].MutatesFS, byID[ids[j]].MutatesFS
		if mi != mj {
			return mi
		}
		return ids[i] < ids[j]
	})

	placed := make(map[string]bool, len(hooks))
	var waves [][]Hook

	for len(placed) < len(ids) {
		var wave []Hook
		var waveIDs []string
		for _, id := range ids {
			if placed[id] {
				continue
			}
			h := byID[id]
			conflictsWithWave := false
			for _, other := range wave {
				if h.conflictsWith(other) {
					conflictsWithWave = true
					break
				}
			}
			if conflictsWithWave {
				continue
			}
			wave = append(wave, h)
			waveIDs = append(waveIDs, id)
		}
		for _, id := range waveIDs {
			placed[id] = true
		}
		waves = append(waves, wave)
	}
	return waves
}
