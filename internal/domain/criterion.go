package domain

// CriterionType names a rule for sampling a single probability value from a
// market's timeline.
type CriterionType string

// Criterion catalogue. BeforeClose* criteria sample the probability a fixed
// offset before the market's close; they are skipped when the offset exceeds
// the market's actual duration.
const (
	CriterionMidpoint           CriterionType = "midpoint"
	CriterionTimeAverage        CriterionType = "time-average"
	CriterionDurationPercent25  CriterionType = "duration-percent-25"
	CriterionDurationPercent75  CriterionType = "duration-percent-75"
	CriterionBeforeCloseHours12 CriterionType = "before-close-hours-12"
	CriterionBeforeCloseHours24 CriterionType = "before-close-hours-24"
	CriterionBeforeCloseDays7   CriterionType = "before-close-days-7"
	CriterionBeforeCloseDays30  CriterionType = "before-close-days-30"
	CriterionBeforeCloseDays60  CriterionType = "before-close-days-60"
	CriterionBeforeCloseDays90  CriterionType = "before-close-days-90"
	CriterionBeforeCloseDays180 CriterionType = "before-close-days-180"
	CriterionBeforeCloseDays365 CriterionType = "before-close-days-365"
)

// AllCriteria lists the full catalogue in evaluation order.
var AllCriteria = []CriterionType{
	CriterionMidpoint,
	CriterionTimeAverage,
	CriterionDurationPercent25,
	CriterionDurationPercent75,
	CriterionBeforeCloseHours12,
	CriterionBeforeCloseHours24,
	CriterionBeforeCloseDays7,
	CriterionBeforeCloseDays30,
	CriterionBeforeCloseDays60,
	CriterionBeforeCloseDays90,
	CriterionBeforeCloseDays180,
	CriterionBeforeCloseDays365,
}
