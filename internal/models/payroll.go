package models

import "time"

// FeeCategory selects which configured rate a record snapshots.
type FeeCategory string

const (
	FeeSubstitution  FeeCategory = "substitution"
	FeeDuty          FeeCategory = "duty"
	FeeEveningStudy  FeeCategory = "evening_study"
	FeeSaturdayStudy FeeCategory = "saturday_study"
)

// Default rates in minor currency units, used until a school saves its own.
const (
	DefaultSubstitutionFee  int64 = 17000
	DefaultDutyFee          int64 = 20000
	DefaultEveningStudyFee  int64 = 40000
	DefaultSaturdayStudyFee int64 = 100000
)

// PayrollSettings is the per-school fee schedule.
type PayrollSettings struct {
	SchoolID         string    `db:"school_id" json:"school_id"`
	SubstitutionFee  int64     `db:"substitution_fee" json:"substitution_fee" validate:"min=0"`
	DutyFee          int64     `db:"duty_fee" json:"duty_fee" validate:"min=0"`
	EveningStudyFee  int64     `db:"evening_study_fee" json:"evening_study_fee" validate:"min=0"`
	SaturdayStudyFee int64     `db:"saturday_study_fee" json:"saturday_study_fee" validate:"min=0"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// DefaultPayrollSettings returns the fallback schedule for a school.
func DefaultPayrollSettings(schoolID string) PayrollSettings {
	return PayrollSettings{
		SchoolID:         schoolID,
		SubstitutionFee:  DefaultSubstitutionFee,
		DutyFee:          DefaultDutyFee,
		EveningStudyFee:  DefaultEveningStudyFee,
		SaturdayStudyFee: DefaultSaturdayStudyFee,
	}
}

// FeeFor returns the rate for a category.
func (p PayrollSettings) FeeFor(category FeeCategory) (int64, bool) {
	switch category {
	case FeeSubstitution:
		return p.SubstitutionFee, true
	case FeeDuty:
		return p.DutyFee, true
	case FeeEveningStudy:
		return p.EveningStudyFee, true
	case FeeSaturdayStudy:
		return p.SaturdayStudyFee, true
	default:
		return 0, false
	}
}
