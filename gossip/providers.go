package gossip

import "sort"

const (
	defaultLatencyWorstMS = 1000
	neutralScore          = 0.5
)

// ProviderRecord is one peer's advertised capability profile for serving
// content-addressed blobs. Fields are pointers so "unknown" (never
// reported) is distinguishable from zero.
type ProviderRecord struct {
	ProviderID               string
	LastSeenMS               int64
	StorageTotalBytes        *uint64
	StorageAvailableBytes    *uint64
	UptimeRatioPerMille      *uint16
	ChallengePassRatioPerMille *uint16
	LoadRatioPerMille        *uint16
	P50ReadLatencyMS         *uint32
}

// ProviderSelectionPolicy scores and ranks providers by a weighted blend of
// freshness, reliability, capacity, load, and latency. Translated from
// original_source's provider_selection.rs scoring model into the package's
// own idiom (plain structs and methods, not a 1:1 port).
type ProviderSelectionPolicy struct {
	FreshnessTTLMS  int64
	WeightFreshness float64
	WeightUptime    float64
	WeightChallenge float64
	WeightCapacity  float64
	WeightLoad      float64
	WeightLatency   float64
	MaxCandidates   int
}

// DefaultProviderSelectionPolicy mirrors the reference implementation's
// default weights.
func DefaultProviderSelectionPolicy() ProviderSelectionPolicy {
	return ProviderSelectionPolicy{
		FreshnessTTLMS:  10 * 60 * 1000,
		WeightFreshness: 0.20,
		WeightUptime:    0.20,
		WeightChallenge: 0.20,
		WeightCapacity:  0.20,
		WeightLoad:      0.10,
		WeightLatency:   0.10,
		MaxCandidates:   8,
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func normalizeRatioPerMille(ratio uint16) float64 {
	if ratio > 1000 {
		ratio = 1000
	}
	return clamp01(float64(ratio) / 1000.0)
}

func capacityScore(total, available *uint64) float64 {
	if total == nil || available == nil {
		return neutralScore
	}
	if *total == 0 {
		return 0
	}
	avail := *available
	if avail > *total {
		avail = *total
	}
	return clamp01(float64(avail) / float64(*total))
}

func latencyScore(latencyMS uint32) float64 {
	bounded := latencyMS
	if bounded > defaultLatencyWorstMS {
		bounded = defaultLatencyWorstMS
	}
	return clamp01(1.0 - float64(bounded)/float64(defaultLatencyWorstMS))
}

func (p ProviderSelectionPolicy) freshnessScore(lastSeenMS, nowMS int64) float64 {
	if p.FreshnessTTLMS <= 0 {
		return neutralScore
	}
	age := nowMS - lastSeenMS
	if age < 0 {
		age = 0
	}
	if age >= p.FreshnessTTLMS {
		return 0
	}
	return clamp01(1.0 - float64(age)/float64(p.FreshnessTTLMS))
}

// ScoreProvider computes a single provider's weighted [0,1] score.
func (p ProviderSelectionPolicy) ScoreProvider(provider ProviderRecord, nowMS int64) float64 {
	freshness := p.freshnessScore(provider.LastSeenMS, nowMS)

	uptime := neutralScore
	if provider.UptimeRatioPerMille != nil {
		uptime = normalizeRatioPerMille(*provider.UptimeRatioPerMille)
	}
	challenge := neutralScore
	if provider.ChallengePassRatioPerMille != nil {
		challenge = normalizeRatioPerMille(*provider.ChallengePassRatioPerMille)
	}
	capacity := capacityScore(provider.StorageTotalBytes, provider.StorageAvailableBytes)
	load := neutralScore
	if provider.LoadRatioPerMille != nil {
		load = clamp01(1.0 - normalizeRatioPerMille(*provider.LoadRatioPerMille))
	}
	latency := neutralScore
	if provider.P50ReadLatencyMS != nil {
		latency = latencyScore(*provider.P50ReadLatencyMS)
	}

	totalWeight := p.WeightFreshness + p.WeightUptime + p.WeightChallenge + p.WeightCapacity + p.WeightLoad + p.WeightLatency
	if totalWeight <= 1e-9 {
		return freshness
	}
	score := p.WeightFreshness*freshness + p.WeightUptime*uptime + p.WeightChallenge*challenge +
		p.WeightCapacity*capacity + p.WeightLoad*load + p.WeightLatency*latency
	return clamp01(score / totalWeight)
}

// RankProviders scores, deduplicates by provider_id, and sorts providers
// best-first; ties broken by most-recently-seen then provider_id
// ascending, capped at MaxCandidates.
func (p ProviderSelectionPolicy) RankProviders(providers []ProviderRecord, nowMS int64) []ProviderRecord {
	type scored struct {
		provider ProviderRecord
		score    float64
	}
	ranked := make([]scored, 0, len(providers))
	for _, pr := range providers {
		ranked = append(ranked, scored{provider: pr, score: p.ScoreProvider(pr, nowMS)})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		if ranked[i].provider.LastSeenMS != ranked[j].provider.LastSeenMS {
			return ranked[i].provider.LastSeenMS > ranked[j].provider.LastSeenMS
		}
		return ranked[i].provider.ProviderID < ranked[j].provider.ProviderID
	})

	out := make([]ProviderRecord, 0, len(ranked))
	seen := make(map[string]bool)
	for _, r := range ranked {
		if seen[r.provider.ProviderID] {
			continue
		}
		seen[r.provider.ProviderID] = true
		out = append(out, r.provider)
		if p.MaxCandidates > 0 && len(out) >= p.MaxCandidates {
			break
		}
	}
	return out
}
