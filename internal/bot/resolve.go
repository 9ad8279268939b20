package bot

import (
	"sort"
	"strings"
	"sync"

	"github.com/agnivade/levenshtein"
	"golang.org/x/time/rate"
)

// normalizeID folds what players type ("Viral Loops", "viral-loops") onto
// content ids ("viral_loops").
func normalizeID(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer(" ", "_", "-", "_").Replace(s)
	return s
}

func levenshteinLimit(n int) int {
	switch {
	case n <= 4:
		return 1
	case n <= 8:
		return 2
	default:
		return 3
	}
}

// resolveID maps input onto one of known. Exact matches win, then a unique
// prefix, then the closest id within the edit-distance limit. When nothing
// fits, up to three suggestions are returned instead.
func resolveID(input string, known []string) (string, []string, bool) {
	in := normalizeID(input)
	if in == "" || len(known) == 0 {
		return "", nil, false
	}
	for _, k := range known {
		if normalizeID(k) == in {
			return k, nil, true
		}
	}

	var prefixed []string
	for _, k := range known {
		if strings.HasPrefix(normalizeID(k), in) {
			prefixed = append(prefixed, k)
		}
	}
	if len(prefixed) == 1 && len(in) >= 2 {
		return prefixed[0], nil, true
	}

	type scored struct {
		id   string
		dist int
	}
	var cands []scored
	for _, k := range known {
		cands = append(cands, scored{id: k, dist: levenshtein.ComputeDistance(in, normalizeID(k))})
	}
	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].dist == cands[j].dist {
			return cands[i].id < cands[j].id
		}
		return cands[i].dist < cands[j].dist
	})
	best := cands[0]
	if len(in) >= 3 && best.dist <= levenshteinLimit(len(best.id)) {
		if len(cands) == 1 || cands[1].dist > best.dist {
			return best.id, nil, true
		}
	}

	sugg := prefixed
	if len(sugg) == 0 {
		for _, c := range cands {
			sugg = append(sugg, c.id)
		}
	}
	if len(sugg) > 3 {
		sugg = sugg[:3]
	}
	return "", sugg, false
}

type limiterSet struct {
	mu    sync.Mutex
	rate  rate.Limit
	burst int
	m     map[string]*rate.Limiter
}

func newLimiterSet(perSecond float64, burst int) *limiterSet {
	if burst < 1 {
		burst = 1
	}
	return &limiterSet{rate: rate.Limit(perSecond), burst: burst, m: make(map[string]*rate.Limiter)}
}

func (l *limiterSet) Allow(userID string) bool {
	l.mu.Lock()
	lim, ok := l.m[userID]
	if !ok {
		lim = rate.NewLimiter(l.rate, l.burst)
		l.m[userID] = lim
	}
	l.mu.Unlock()
	return lim.Allow()
}
