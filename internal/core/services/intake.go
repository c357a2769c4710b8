package services

import (
	"fmt"
	"sync"

	"github.com/custodia-labs/insightgen-cli/internal/core/domain"
	"github.com/custodia-labs/insightgen-cli/internal/core/ports/driving"
	"github.com/custodia-labs/insightgen-cli/internal/logger"
)

// Ensure FileIntake implements the interface.
var _ driving.FileIntake = (*FileIntake)(nil)

// FileIntake holds the user-selected primary and reference documents.
type FileIntake struct {
	mu        sync.RWMutex
	primary   *domain.SourceFile
	reference *domain.SourceFile
	revision  uint64
}

// NewFileIntake creates an empty intake.
func NewFileIntake() *FileIntake {
	return &FileIntake{}
}

// SetPrimary selects the primary presentation.
func (f *FileIntake) SetPrimary(file domain.SourceFile) error {
	return f.set(domain.FileRolePrimary, file)
}

// SetReference selects the reference PDF.
func (f *FileIntake) SetReference(file domain.SourceFile) error {
	return f.set(domain.FileRoleReference, file)
}

func (f *FileIntake) set(role domain.FileRole, file domain.SourceFile) error {
	// Re-run the constructor so a hand-built SourceFile gets the same checks.
	checked, err := domain.NewSourceFile(role, file.Name, file.Data)
	if err != nil {
		return err
	}
	if file.MIMEType != "" && file.MIMEType != checked.MIMEType {
		return fmt.Errorf("%w: %s file has content type %q, want %q",
			domain.ErrInvalidInput, role, file.MIMEType, checked.MIMEType)
	}

	f.mu.Lock()
	if role == domain.FileRolePrimary {
		f.primary = &checked
	} else {
		f.reference = &checked
	}
	f.revision++
	f.mu.Unlock()

	logger.Debug("selected %s file %s (%d bytes)", role, checked.Name, checked.Size())
	return nil
}

// IsReady reports whether both files are selected.
func (f *FileIntake) IsReady() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.primary != nil && f.reference != nil
}

// Snapshot returns the current selection. Files are immutable once
// selected, so the pointers can be shared.
func (f *FileIntake) Snapshot() driving.IntakeSnapshot {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return driving.IntakeSnapshot{
		Primary:   f.primary,
		Reference: f.reference,
		Revision:  f.revision,
	}
}

// Clear drops both files.
func (f *FileIntake) Clear() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.primary = nil
	f.reference = nil
	f.revision++
}
