package domain

import (
	"fmt"
	"path/filepath"
	"strings"
)

// MIME types sent for each document role.
const (
	MIMETypePPTX = "application/vnd.openxmlformats-officedocument.presentationml.presentation"
	MIMETypePDF  = "application/pdf"
)

// FileRole distinguishes the two documents a job needs.
type FileRole string

const (
	// FileRolePrimary is the presentation that receives generated headlines.
	FileRolePrimary FileRole = "primary"
	// FileRoleReference is the PDF rendering of the same presentation.
	FileRoleReference FileRole = "reference"
)

// Extension returns the file extension expected for the role.
func (r FileRole) Extension() string {
	if r == FileRoleReference {
		return ".pdf"
	}
	return ".pptx"
}

// MIMEType returns the content type sent for the role.
func (r FileRole) MIMEType() string {
	if r == FileRoleReference {
		return MIMETypePDF
	}
	return MIMETypePPTX
}

// FormField returns the multipart field name the API expects for the role.
func (r FileRole) FormField() string {
	if r == FileRoleReference {
		return "pdf_file"
	}
	return "pptx_file"
}

// SourceFile is a user-selected document. It is immutable once selected;
// re-selection replaces it wholesale.
type SourceFile struct {
	// Name is the file name sent to the server.
	Name string
	// Data is the raw file content.
	Data []byte
	// MIMEType is the content type of Data.
	MIMEType string
}

// NewSourceFile builds a SourceFile for a role, checking the extension and
// copying data so later changes to the caller's buffer have no effect.
func NewSourceFile(role FileRole, name string, data []byte) (SourceFile, error) {
	base := filepath.Base(name)
	if base == "" || base == "." || base == string(filepath.Separator) {
		return SourceFile{}, fmt.Errorf("%w: %s file name is required", ErrInvalidInput, role)
	}
	if !strings.EqualFold(filepath.Ext(base), role.Extension()) {
		return SourceFile{}, fmt.Errorf("%w: %s file must be a %s file, got %q",
			ErrInvalidInput, role, role.Extension(), base)
	}
	if len(data) == 0 {
		return SourceFile{}, fmt.Errorf("%w: %s file %q is empty", ErrInvalidInput, role, base)
	}

	buf := make([]byte, len(data))
	copy(buf, data)

	return SourceFile{
		Name:     base,
		Data:     buf,
		MIMEType: role.MIMEType(),
	}, nil
}

// Size returns the content length in bytes.
func (f SourceFile) Size() int {
	return len(f.Data)
}
