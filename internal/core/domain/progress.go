package domain

import (
	"fmt"
	"math"
)

// Stage is one of the four phases attributed to a processing job.
type Stage int

const (
	// StageNone means no stage applies (terminal or not yet submitted).
	StageNone Stage = iota
	StageSlideProcessing
	StageGeneratingObservations
	StageGeneratingHeadlines
	StageUpdatingPresentation
)

// StageCount is the number of estimated stages.
const StageCount = 4

// Name returns the stage label.
func (s Stage) Name() string {
	switch s {
	case StageSlideProcessing:
		return "Slide processing"
	case StageGeneratingObservations:
		return "Generating observations"
	case StageGeneratingHeadlines:
		return "Generating headlines"
	case StageUpdatingPresentation:
		return "Updating presentation"
	default:
		return ""
	}
}

// Detail returns a short description of the work done in the stage.
func (s Stage) Detail() string {
	switch s {
	case StageSlideProcessing:
		return "Preparing slides for analysis..."
	case StageGeneratingObservations:
		return "Analyzing slide content..."
	case StageGeneratingHeadlines:
		return "Creating impactful headlines..."
	case StageUpdatingPresentation:
		return "Inserting headlines into slides..."
	default:
		return ""
	}
}

// String returns e.g. "Stage 2/4: Generating observations".
func (s Stage) String() string {
	if s == StageNone {
		return "none"
	}
	return fmt.Sprintf("Stage %d/%d: %s", int(s), StageCount, s.Name())
}

// Progress is an estimated stage and percentage.
type Progress struct {
	Stage   Stage
	Percent int
}

// MaxEstimatedPercent is the ceiling of the estimate. 100 is reserved for
// a confirmed completion.
const MaxEstimatedPercent = 99

// InitialProgress is reported right after a successful submission.
var InitialProgress = Progress{Stage: StageSlideProcessing, Percent: 5}

// progressSegment is one row of the estimate schedule. A segment applies
// while elapsed <= until; its percent grows linearly from fromPct at start
// to toPct after span seconds and is capped at toPct.
type progressSegment struct {
	stage   Stage
	start   float64
	until   float64
	span    float64
	fromPct float64
	toPct   float64
}

var progressSchedule = []progressSegment{
	{stage: StageSlideProcessing, start: 0, until: 5, span: 5, fromPct: 5, toPct: 20},
	{stage: StageGeneratingObservations, start: 5, until: 30, span: 25, fromPct: 20, toPct: 80},
	{stage: StageGeneratingHeadlines, start: 30, until: 45, span: 15, fromPct: 80, toPct: 95},
	{stage: StageUpdatingPresentation, start: 45, until: math.Inf(1), span: 15, fromPct: 95, toPct: MaxEstimatedPercent},
}

// EstimateProgress maps elapsed seconds since submission to a stage and a
// percentage. It is pure and non-decreasing in elapsed time, and never
// returns more than MaxEstimatedPercent.
func EstimateProgress(elapsedSeconds float64) (Progress, error) {
	if elapsedSeconds < 0 || math.IsNaN(elapsedSeconds) {
		return Progress{}, fmt.Errorf("%w: elapsed seconds must be non-negative, got %v",
			ErrInvalidInput, elapsedSeconds)
	}

	seg := progressSchedule[len(progressSchedule)-1]
	for _, s := range progressSchedule {
		if elapsedSeconds <= s.until {
			seg = s
			break
		}
	}

	pct := seg.fromPct + (elapsedSeconds-seg.start)*(seg.toPct-seg.fromPct)/seg.span
	if pct > seg.toPct || math.IsInf(pct, 1) {
		pct = seg.toPct
	}

	return Progress{Stage: seg.stage, Percent: int(math.Floor(pct))}, nil
}
