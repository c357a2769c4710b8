package driving

import "github.com/custodia-labs/insightgen-cli/internal/core/domain"

// FileIntake holds the two user-selected files until submission.
type FileIntake interface {
	// SetPrimary selects the primary (PPTX) document, replacing any previous one.
	SetPrimary(file domain.SourceFile) error

	// SetReference selects the reference (PDF) document, replacing any previous one.
	SetReference(file domain.SourceFile) error

	// IsReady reports whether both files are selected.
	IsReady() bool

	// Snapshot returns the current selection.
	Snapshot() IntakeSnapshot

	// Clear drops both files.
	Clear()
}

// IntakeSnapshot is a point-in-time view of the selected files.
// Revision increases with every change, so results computed for an older
// revision can be recognised as stale.
type IntakeSnapshot struct {
	Primary   *domain.SourceFile
	Reference *domain.SourceFile
	Revision  uint64
}

// Ready reports whether both files are present.
func (s IntakeSnapshot) Ready() bool {
	return s.Primary != nil && s.Reference != nil
}
