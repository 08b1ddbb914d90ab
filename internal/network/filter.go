package network

import (
	"sort"
	"strings"

	"golang.org/x/mod/semver"
)

// filterResult is the outcome of the pre-probe filter.
type filterResult struct {
	Candidates []Candidate // ranked, best first
	Reference  uint64      // reference height
	Rejected   map[string]int
}

// filterCandidates applies structural rejection, the height consensus
// check and ranking. Probing comes afterwards and only drops entries, so
// the relative order established here is the final order.
func filterCandidates(raws []rawPeer, tolerance uint64) filterResult {
	res := filterResult{Rejected: make(map[string]int)}

	seen := make(map[string]struct{}, len(raws))
	valid := make([]Candidate, 0, len(raws))
	for _, r := range raws {
		c, reason := r.candidate()
		if reason != "" {
			res.Rejected[reason]++
			continue
		}
		if _, dup := seen[c.Addr()]; dup {
			res.Rejected[rejectDuplicate]++
			continue
		}
		seen[c.Addr()] = struct{}{}
		valid = append(valid, c)
	}
	if len(valid) == 0 {
		return res
	}

	res.Reference = referenceHeight(valid)
	kept := valid[:0]
	for _, c := range valid {
		if heightDistance(c.Height, res.Reference) > tolerance {
			res.Rejected[rejectDeviation]++
			continue
		}
		kept = append(kept, c)
	}

	rankCandidates(kept)
	res.Candidates = kept
	return res
}

// referenceHeight returns the most common height. Ties go to the highest
// of the tied heights.
func referenceHeight(cands []Candidate) uint64 {
	counts := make(map[uint64]int, len(cands))
	for _, c := range cands {
		counts[c.Height]++
	}
	var ref uint64
	best := 0
	for h, n := range counts {
		if n > best || (n == best && h > ref) {
			ref, best = h, n
		}
	}
	return ref
}

func heightDistance(a, b uint64) uint64 {
	if a > b {
		return a - b
	}
	return b - a
}

// rankCandidates orders candidates best first: newest version, then
// highest height, then lowest latency. The address breaks remaining ties
// so the order is total.
func rankCandidates(cands []Candidate) {
	sort.SliceStable(cands, func(i, j int) bool {
		return candidateLess(cands[i], cands[j])
	})
}

func candidateLess(a, b Candidate) bool {
	if c := compareVersions(a.Version, b.Version); c != 0 {
		return c > 0
	}
	if a.Height != b.Height {
		return a.Height > b.Height
	}
	if a.Latency != b.Latency {
		return a.Latency < b.Latency
	}
	return a.Addr() < b.Addr()
}

// compareVersions compares node versions as semver. Unparsable versions
// sort below every valid one.
func compareVersions(a, b string) int {
	return semver.Compare(canonicalVersion(a), canonicalVersion(b))
}

func canonicalVersion(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return ""
	}
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return v
}
