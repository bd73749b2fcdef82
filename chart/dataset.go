package chart

import (
	"math"
	"math/rand/v2"
	"sort"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/SamuelLeutner/fetch-canvas-grades/config"
	"github.com/SamuelLeutner/fetch-canvas-grades/models"
)

const (
	PercentRounded = "FSC Rounded"
	PercentExact   = "Exact Percent"

	StatusPosted   = "Posted Grade"
	StatusUnposted = "Unposted Grade"
)

// Point is one student grade in one (status, percent type) combination.
// Field names are the column names the chart encodes.
type Point struct {
	UserID        int     `json:"User ID"`
	Name          string  `json:"Name"`
	PreferredName string  `json:"Preferred Name"`
	Surname       string  `json:"Surname"`
	StudentNumber string  `json:"Student Number"`
	Section       string  `json:"Section"`
	Percentile    float64 `json:"Percentile"`
	PercentType   string  `json:"Percent Type"`
	GradeStatus   string  `json:"Grade Status"`
	PercentGrade  float64 `json:"Percent Grade"`
	ViolinCloud   float64 `json:"violin_cloud"`
}

// series identifies one of the four grade columns that get melted.
type series struct {
	status, percentType string
	value               func(models.PreparedGradeRow) float64
}

var gradeSeries = []series{
	{StatusPosted, PercentExact, func(r models.PreparedGradeRow) float64 { return r.ExactPercentGrade }},
	{StatusPosted, PercentRounded, func(r models.PreparedGradeRow) float64 { return float64(r.PercentGrade) }},
	{StatusUnposted, PercentExact, func(r models.PreparedGradeRow) float64 { return r.UnpostedExactPercentGrade }},
	{StatusUnposted, PercentRounded, func(r models.PreparedGradeRow) float64 { return float64(r.UnpostedPercentGrade) }},
}

// Points melts the prepared rows into four points per student. The
// percentile is computed on the rounded unposted grade and the violin cloud
// offset is jittered with rng.
func Points(rows []models.PreparedGradeRow, rng *rand.Rand) []Point {
	unposted := make([]float64, len(rows))
	for i, r := range rows {
		unposted[i] = float64(r.UnpostedPercentGrade)
	}
	percentiles := PercentileRanks(unposted)

	points := make([]Point, 0, len(rows)*len(gradeSeries))
	for _, s := range gradeSeries {
		values := make([]float64, len(rows))
		for i, r := range rows {
			values[i] = s.value(r)
		}
		cloud := ViolinCloud(values, rng)
		for i, r := range rows {
			points = append(points, Point{
				UserID:        r.UserID,
				Name:          strings.TrimSpace(r.PreferredName + " " + r.Surname),
				PreferredName: r.PreferredName,
				Surname:       r.Surname,
				StudentNumber: r.StudentNumber,
				Section:       r.Section,
				Percentile:    percentiles[i],
				PercentType:   s.percentType,
				GradeStatus:   s.status,
				PercentGrade:  values[i],
				ViolinCloud:   cloud[i],
			})
		}
	}
	return points
}

// PercentileRanks ranks each value as the share of values less than or equal
// to it, rounded to two decimals and scaled to 0-100. Ties share the highest
// rank.
func PercentileRanks(values []float64) []float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	n := float64(len(values))

	ranks := make([]float64, len(values))
	for i, v := range values {
		atOrBelow := sort.Search(len(sorted), func(j int) bool { return sorted[j] > v })
		ranks[i] = math.Round(float64(atOrBelow) / n * 100)
	}
	return ranks
}

// ViolinCloud places each value at a random vertical offset bounded by the
// normalized kernel density at that value, mirrored so the cloud takes a
// violin shape. Fewer than three distinct values yield all zeros.
func ViolinCloud(values []float64, rng *rand.Rand) []float64 {
	cloud := make([]float64, len(values))
	if distinct(values) < 3 {
		return cloud
	}

	density := make([]float64, len(values))
	bw := scottBandwidth(values)
	for i, x := range values {
		density[i] = gaussianKDE(values, bw, x)
	}
	lo, hi := minMax(density)
	for i := range density {
		if hi > lo {
			density[i] = (density[i] - lo) / (hi - lo)
		} else {
			density[i] = 0
		}
	}

	// Alternate sides in ascending value order so both halves follow the
	// same density.
	order := make([]int, len(values))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return values[order[a]] < values[order[b]] })
	for rank, i := range order {
		offset := rng.Float64() * density[i]
		if rank%2 == 0 {
			offset = -offset
		}
		cloud[i] = offset
	}
	return cloud
}

func distinct(values []float64) int {
	seen := make(map[float64]struct{}, len(values))
	for _, v := range values {
		seen[v] = struct{}{}
	}
	return len(seen)
}

// scottBandwidth is the kernel standard deviation under Scott's rule.
func scottBandwidth(values []float64) float64 {
	return stat.StdDev(values, nil) * math.Pow(float64(len(values)), -1.0/5)
}

func gaussianKDE(values []float64, bw, x float64) float64 {
	var sum float64
	for _, v := range values {
		z := (x - v) / bw
		sum += math.Exp(-z * z / 2)
	}
	return sum / (float64(len(values)) * bw * math.Sqrt(2*math.Pi))
}

func minMax(values []float64) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}

// BinExtent is the shared x domain of histograms and box plots: 50 to 100
// unless a grade falls lower, then from that grade floored to a multiple of 5.
func BinExtent(values []float64) [2]float64 {
	low := 50.0
	for _, v := range values {
		low = math.Min(low, math.Floor(v/5)*5)
	}
	return [2]float64{low, 100}
}

// GroupOrder orders groups by ascending median.
func GroupOrder(groups map[string][]float64) []string {
	medians := make(map[string]float64, len(groups))
	names := make([]string, 0, len(groups))
	for name, values := range groups {
		if name == "" || len(values) == 0 {
			continue
		}
		sorted := append([]float64(nil), values...)
		sort.Float64s(sorted)
		medians[name] = median(sorted)
		names = append(names, name)
	}
	sort.SliceStable(names, func(i, j int) bool {
		if medians[names[i]] != medians[names[j]] {
			return medians[names[i]] < medians[names[j]]
		}
		return names[i] < names[j]
	})
	return names
}

// median of sorted values, averaging the two middle values like the chart's
// own box plot aggregate.
func median(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return stat.Mean(sorted[n/2-1:n/2+1], nil)
}

// SectionOrder orders sections by the median exact unposted grade.
func SectionOrder(points []Point) []string {
	groups := map[string][]float64{}
	for _, p := range points {
		if p.GradeStatus == StatusUnposted && p.PercentType == PercentExact {
			groups[p.Section] = append(groups[p.Section], p.PercentGrade)
		}
	}
	return GroupOrder(groups)
}

// GraderOrder orders graders by their median assignment score.
func GraderOrder(scores []models.AssignmentScoreRecord) []string {
	groups := map[string][]float64{}
	for _, s := range scores {
		if s.Score != nil {
			groups[s.Grader] = append(groups[s.Grader], *s.Score)
		}
	}
	return GroupOrder(groups)
}

// ResolveGroupBy returns the configured grouping, or picks Section when
// there is more than one section and Grader when assignment scores come
// from more than one grader. Empty means no grouping.
func ResolveGroupBy(configured string, points []Point, scores []models.AssignmentScoreRecord) string {
	if configured != "" {
		return configured
	}
	sections := map[string]struct{}{}
	for _, p := range points {
		sections[p.Section] = struct{}{}
	}
	if len(sections) > 1 {
		return config.GroupBySection
	}
	graders := map[string]struct{}{}
	for _, s := range scores {
		if s.Grader != "" {
			graders[s.Grader] = struct{}{}
		}
	}
	if len(graders) > 1 {
		return config.GroupByGrader
	}
	return ""
}
