package models

// GwaResult aggregates a set of grade records into a weighted average.
type GwaResult struct {
	// WeightedAverage is nil when no record qualifies.
	WeightedAverage       *Decimal `json:"weighted_average"`
	TotalUnits            Decimal  `json:"total_units"`
	IncludedSubjectCount  int      `json:"included_subject_count"`
	FailedCount           int      `json:"failed_count"`
	ExcludedOngoingCount  int      `json:"excluded_ongoing_count"`
	ExcludedPolicyCount   int      `json:"excluded_policy_count"`
	ExcludedZeroUnitCount int      `json:"excluded_zero_unit_count"`
}

// HasGWA reports whether a weighted average could be computed.
func (r GwaResult) HasGWA() bool {
	return r.WeightedAverage != nil
}

// SemesterGwa is a GwaResult for one semester partition.
type SemesterGwa struct {
	Semester string    `json:"semester"`
	Result   GwaResult `json:"result"`
}

// HonorTier is an honor eligibility classification.
type HonorTier string

const (
	HonorNone          HonorTier = "None"
	HonorDeansList     HonorTier = "DeansList"
	HonorCumLaude      HonorTier = "CumLaude"
	HonorMagnaCumLaude HonorTier = "MagnaCumLaude"
	HonorSummaCumLaude HonorTier = "SummaCumLaude"
)
