package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/custodia-labs/insightgen-cli/internal/core/domain"
)

// unknownDetail is reported when an error response carries no detail.
const unknownDetail = "Unknown error"

// flexString accepts a JSON string or number. Server IDs are opaque and
// have been seen as both.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", data)
	}
	*f = flexString(n.String())
	return nil
}

// --- Auth ---

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type userPayload struct {
	ID          flexString `json:"id"`
	Username    string     `json:"username"`
	FullName    string     `json:"full_name"`
	DisplayName string     `json:"display_name"`
}

func (u *userPayload) toDomain() domain.User {
	name := u.DisplayName
	if name == "" {
		name = u.FullName
	}
	if name == "" {
		name = u.Username
	}
	return domain.User{ID: string(u.ID), DisplayName: name}
}

type loginResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresIn   *int64       `json:"expires_in"`
	User        *userPayload `json:"user"`
}

type registerRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	FullName    string `json:"full_name"`
	Email       string `json:"email"`
	Company     string `json:"company,omitempty"`
	Designation string `json:"designation,omitempty"`
}

type verifyResponse struct {
	Authenticated *bool        `json:"authenticated"`
	User          *userPayload `json:"user"`
}

// --- Inspection ---

type slideGroupPayload struct {
	Count        int   `json:"count"`
	SlideNumbers []int `json:"slide_numbers"`
}

type slideStatsPayload struct {
	TotalSlides         int               `json:"total_slides"`
	HeaderSlides        slideGroupPayload `json:"header_slides"`
	ContentSlides       slideGroupPayload `json:"content_slides"`
	MissingPlaceholders slideGroupPayload `json:"missing_placeholders"`
}

type inspectResponse struct {
	IsValid    *bool              `json:"is_valid"`
	Warnings   []string           `json:"warnings"`
	SlideStats *slideStatsPayload `json:"slide_stats"`
}

func (r *inspectResponse) toDomain() (*domain.InspectionResult, error) {
	if r.IsValid == nil {
		return nil, fmt.Errorf("%w: inspection response has no is_valid", domain.ErrUnexpectedResponse)
	}
	result := &domain.InspectionResult{
		IsValid:  *r.IsValid,
		Warnings: r.Warnings,
	}
	if r.SlideStats != nil {
		result.SlideStats = &domain.SlideStats{
			TotalSlides:         r.SlideStats.TotalSlides,
			HeaderSlides:        domain.SlideGroup(r.SlideStats.HeaderSlides),
			ContentSlides:       domain.SlideGroup(r.SlideStats.ContentSlides),
			MissingPlaceholders: domain.SlideGroup(r.SlideStats.MissingPlaceholders),
		}
	}
	return result, nil
}

// --- Generators ---

type generatorPayload struct {
	ID            flexString `json:"id"`
	Name          string     `json:"name"`
	ExamplePrompt string     `json:"example_prompt"`
}

// generatorsResponse accepts {"generators": [...]} or a bare array.
type generatorsResponse struct {
	Generators []generatorPayload
}

func (g *generatorsResponse) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		return json.Unmarshal(trimmed, &g.Generators)
	}
	var wrapped struct {
		Generators []generatorPayload `json:"generators"`
	}
	if err := json.Unmarshal(trimmed, &wrapped); err != nil {
		return err
	}
	g.Generators = wrapped.Generators
	return nil
}

// --- Jobs ---

type submitResponse struct {
	JobID    flexString `json:"job_id"`
	Warnings []string   `json:"warnings"`
}

type jobStatusResponse struct {
	Status         string             `json:"status"`
	Message        *string            `json:"message"`
	Metrics        *domain.JobMetrics `json:"metrics"`
	OutputFilename *string            `json:"output_filename"`
	Warnings       []string           `json:"warnings"`
}

type healthResponse struct {
	Version string `json:"version"`
}

// --- Errors ---

// validationItem is one entry of a FastAPI 422 detail array.
type validationItem struct {
	Loc []any  `json:"loc"`
	Msg string `json:"msg"`
}

// decodeAPIError builds an APIError from a non-2xx response. The detail may
// be a string, a list of field errors, or missing.
func decodeAPIError(resp *http.Response) *domain.APIError {
	apiErr := &domain.APIError{StatusCode: resp.StatusCode, Detail: unknownDetail}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(bytes.TrimSpace(body)) == 0 {
		return apiErr
	}

	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Detail) == 0 {
		return apiErr
	}

	var detail string
	if err := json.Unmarshal(envelope.Detail, &detail); err == nil {
		if detail != "" {
			apiErr.Detail = detail
		}
		return apiErr
	}

	var items []validationItem
	if err := json.Unmarshal(envelope.Detail, &items); err == nil && len(items) > 0 {
		parts := make([]string, 0, len(items))
		for _, item := range items {
			field := fieldName(item.Loc)
			apiErr.Fields = append(apiErr.Fields, domain.FieldError{Field: field, Message: item.Msg})
			if field == "" {
				parts = append(parts, item.Msg)
			} else {
				parts = append(parts, field+": "+item.Msg)
			}
		}
		apiErr.Detail = strings.Join(parts, "; ")
		return apiErr
	}

	apiErr.Detail = string(envelope.Detail)
	return apiErr
}

// fieldName picks the field from a FastAPI location such as
// ["body", "email"].
func fieldName(loc []any) string {
	for i := len(loc) - 1; i >= 0; i-- {
		switch v := loc[i].(type) {
		case string:
			if v != "body" && v != "query" && v != "path" {
				return v
			}
		case float64:
			continue
		}
	}
	return ""
}

// formatInt renders an int for a multipart form field.
func formatInt(n int) string {
	return strconv.Itoa(n)
}
