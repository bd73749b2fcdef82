package pipeline

import (
	"github.com/SamuelLeutner/fetch-canvas-grades/models"
)

type FilterOptions struct {
	// Threshold drops rows whose unposted grade is at or below it.
	Threshold      float64
	DropIncomplete bool
	Exclude        []string
}

// FilterResult holds the survivors of the entry filter. Removed lists every
// dropped row once, in stage order. Duplicates holds all rows of users that
// were enrolled more than once, as they were before deduplication.
type FilterResult struct {
	Kept       []models.EnrollmentRecord `json:"kept"`
	Removed    []models.RemovedRecord    `json:"removed"`
	Duplicates []models.EnrollmentRecord `json:"duplicates"`
}

// RemovedAt returns the rows dropped by one stage.
func (r FilterResult) RemovedAt(stage models.RemovalStage) []models.EnrollmentRecord {
	var out []models.EnrollmentRecord
	for _, rm := range r.Removed {
		if rm.Stage == stage {
			out = append(out, rm.Record)
		}
	}
	return out
}

// Filter runs threshold, incomplete, exclusion and deduplication in that
// order. Each stage only sees the survivors of the previous one.
func Filter(records []models.EnrollmentRecord, opts FilterOptions) FilterResult {
	var result FilterResult

	kept, removed := partition(records, func(r models.EnrollmentRecord) bool {
		return r.UnpostedPercentGrade != nil && *r.UnpostedPercentGrade > opts.Threshold
	})
	result.Removed = appendRemoved(result.Removed, removed, models.StageThreshold)

	if opts.DropIncomplete {
		kept, removed = partition(kept, isComplete)
		result.Removed = appendRemoved(result.Removed, removed, models.StageIncomplete)
	}

	if len(opts.Exclude) > 0 {
		excluded := make(map[string]struct{}, len(opts.Exclude))
		for _, sn := range opts.Exclude {
			excluded[sn] = struct{}{}
		}
		kept, removed = partition(kept, func(r models.EnrollmentRecord) bool {
			_, drop := excluded[r.StudentNumber]
			return !drop
		})
		result.Removed = appendRemoved(result.Removed, removed, models.StageExcluded)
	}

	kept, removed, result.Duplicates = dedupe(kept)
	result.Removed = appendRemoved(result.Removed, removed, models.StageDuplicate)
	result.Kept = kept

	return result
}

func isComplete(r models.EnrollmentRecord) bool {
	return r.HasStudentNumber() &&
		r.Surname != "" &&
		r.PreferredName != "" &&
		r.Section != "" &&
		r.PercentGrade != nil &&
		r.UnpostedPercentGrade != nil
}

// dedupe keeps the first row per user id in input order.
func dedupe(records []models.EnrollmentRecord) (kept, removed, duplicates []models.EnrollmentRecord) {
	counts := make(map[int]int, len(records))
	for _, r := range records {
		counts[r.UserID]++
	}

	seen := make(map[int]bool, len(records))
	kept = make([]models.EnrollmentRecord, 0, len(records))
	for _, r := range records {
		if counts[r.UserID] > 1 {
			duplicates = append(duplicates, r)
		}
		if seen[r.UserID] {
			removed = append(removed, r)
			continue
		}
		seen[r.UserID] = true
		kept = append(kept, r)
	}
	return kept, removed, duplicates
}

func partition(records []models.EnrollmentRecord, keep func(models.EnrollmentRecord) bool) (kept, removed []models.EnrollmentRecord) {
	kept = make([]models.EnrollmentRecord, 0, len(records))
	for _, r := range records {
		if keep(r) {
			kept = append(kept, r)
		} else {
			removed = append(removed, r)
		}
	}
	return kept, removed
}

func appendRemoved(dst []models.RemovedRecord, records []models.EnrollmentRecord, stage models.RemovalStage) []models.RemovedRecord {
	for _, r := range records {
		dst = append(dst, models.RemovedRecord{Record: r, Stage: stage})
	}
	return dst
}
