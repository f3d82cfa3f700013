package service

import (
	"math"
	"sort"

	"gavel/internal/analytics/models"
	docketmodels "gavel/internal/docket/models"
)

// z-score for a 95% two-sided interval, shared by the significance test
// (alpha = 0.05) and the Wilson interval.
const z95 = 1.959964

type cell struct {
	caseType string
	outcome  string
}

type tally struct {
	counts map[cell]int
	totals map[string]int
}

func tallyCases(cases []*docketmodels.Case) tally {
	t := tally{counts: make(map[cell]int), totals: make(map[string]int)}
	for _, c := range cases {
		t.counts[cell{c.CaseType, c.Outcome}]++
		t.totals[c.CaseType]++
	}
	return t
}

// computeBuckets builds one bucket per (case type, outcome) cell observed in
// the judge's cases, each compared against the jurisdiction-wide baseline.
// Cells absent from the judge's sample contribute nothing.
func computeBuckets(judgeCases, baselineCases []*docketmodels.Case) []models.Bucket {
	judge := tallyCases(judgeCases)
	baseline := tallyCases(baselineCases)

	buckets := make([]models.Bucket, 0, len(judge.counts))
	for cl, count := range judge.counts {
		total := judge.totals[cl.caseType]
		baseCount := baseline.counts[cl]
		baseTotal := baseline.totals[cl.caseType]

		b := models.Bucket{
			CaseType:      cl.caseType,
			Outcome:       cl.outcome,
			Count:         count,
			Total:         total,
			BaselineCount: baseCount,
			BaselineTotal: baseTotal,
			Rate:          proportion(count, total),
			BaselineRate:  proportion(baseCount, baseTotal),
		}
		b.Deviation = b.Rate - b.BaselineRate
		b.Significant = twoProportionSignificant(count, total, baseCount, baseTotal)
		b.CILow, b.CIHigh = wilsonInterval(count, total)
		buckets = append(buckets, b)
	}

	sort.Slice(buckets, func(i, j int) bool {
		if buckets[i].CaseType != buckets[j].CaseType {
			return buckets[i].CaseType < buckets[j].CaseType
		}
		return buckets[i].Outcome < buckets[j].Outcome
	})
	return buckets
}

// patternScore is the sample-weighted mean absolute deviation over
// significant buckets. Nil when nothing is significant, so "no detectable
// pattern" never reads as "pattern of exactly zero".
func patternScore(buckets []models.Bucket) *float64 {
	var weighted float64
	var weight int
	for _, b := range buckets {
		if !b.Significant {
			continue
		}
		weighted += math.Abs(b.Deviation) * float64(b.Total)
		weight += b.Total
	}
	if weight == 0 {
		return nil
	}
	score := weighted / float64(weight)
	return &score
}

// widestInterval returns the largest CI width across buckets.
func widestInterval(buckets []models.Bucket) float64 {
	var widest float64
	for _, b := range buckets {
		if w := b.CIHigh - b.CILow; w > widest {
			widest = w
		}
	}
	return widest
}

func proportion(count, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(count) / float64(total)
}

// twoProportionSignificant runs a pooled two-proportion z-test at
// alpha = 0.05. Degenerate inputs (empty samples, pooled rate of 0 or 1)
// are never significant.
func twoProportionSignificant(c1, n1, c2, n2 int) bool {
	if n1 == 0 || n2 == 0 {
		return false
	}
	p1 := float64(c1) / float64(n1)
	p2 := float64(c2) / float64(n2)
	pooled := float64(c1+c2) / float64(n1+n2)
	se := math.Sqrt(pooled * (1 - pooled) * (1/float64(n1) + 1/float64(n2)))
	if se == 0 {
		return false
	}
	return math.Abs(p1-p2)/se > z95
}

// wilsonInterval returns the 95% Wilson score interval for count/total.
// Unlike the normal approximation it stays inside [0, 1] and behaves at the
// extremes, which matters for small outcome cells.
func wilsonInterval(count, total int) (low, high float64) {
	if total == 0 {
		return 0, 0
	}
	n := float64(total)
	p := float64(count) / n
	z2 := z95 * z95

	denom := 1 + z2/n
	center := (p + z2/(2*n)) / denom
	margin := z95 * math.Sqrt(p*(1-p)/n+z2/(4*n*n)) / denom
	return math.Max(0, center-margin), math.Min(1, center+margin)
}
