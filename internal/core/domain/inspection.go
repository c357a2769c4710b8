package domain

// SlideGroup counts slides of one kind and lists their 1-based numbers.
type SlideGroup struct {
	Count        int   `json:"count"`
	SlideNumbers []int `json:"slide_numbers,omitempty"`
}

// SlideStats summarises the structure of the primary document.
type SlideStats struct {
	TotalSlides         int        `json:"total_slides"`
	HeaderSlides        SlideGroup `json:"header_slides"`
	ContentSlides       SlideGroup `json:"content_slides"`
	MissingPlaceholders SlideGroup `json:"missing_placeholders"`
}

// InspectionResult is the server's validation verdict for a pair of files.
// Each inspection call produces a new result; results are never merged.
type InspectionResult struct {
	// IsValid reports whether a job may be submitted for these files.
	IsValid bool `json:"is_valid"`

	// Warnings are server messages in server order.
	Warnings []string `json:"warnings"`

	// SlideStats is nil when the server did not report statistics.
	SlideStats *SlideStats `json:"slide_stats,omitempty"`
}

// Clone returns a deep copy of the result.
func (r *InspectionResult) Clone() *InspectionResult {
	if r == nil {
		return nil
	}
	out := &InspectionResult{
		IsValid:  r.IsValid,
		Warnings: cloneStrings(r.Warnings),
	}
	if r.SlideStats != nil {
		stats := *r.SlideStats
		stats.HeaderSlides.SlideNumbers = cloneInts(r.SlideStats.HeaderSlides.SlideNumbers)
		stats.ContentSlides.SlideNumbers = cloneInts(r.SlideStats.ContentSlides.SlideNumbers)
		stats.MissingPlaceholders.SlideNumbers = cloneInts(r.SlideStats.MissingPlaceholders.SlideNumbers)
		out.SlideStats = &stats
	}
	return out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func cloneInts(in []int) []int {
	if in == nil {
		return nil
	}
	out := make([]int, len(in))
	copy(out, in)
	return out
}
