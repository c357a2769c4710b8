package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/insightgen-cli/internal/core/domain"
)

// newTestClient starts a server with handler and returns a client for it.
func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(Config{
		BaseURL:           server.URL,
		Timeout:           5 * time.Second,
		RequestsPerSecond: 1000,
		UserAgent:         "insightgen-cli/test",
	})
	require.NoError(t, err)
	return client
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func testFiles() (domain.SourceFile, domain.SourceFile) {
	primary, _ := domain.NewSourceFile(domain.FileRolePrimary, "deck.pptx", []byte("pptx-data"))
	reference, _ := domain.NewSourceFile(domain.FileRoleReference, "deck.pdf", []byte("pdf-data"))
	return primary, reference
}

func TestNewClient_Validation(t *testing.T) {
	_, err := NewClient(Config{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = NewClient(Config{BaseURL: "ftp://example.com"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	client, err := NewClient(Config{BaseURL: "https://insightgen.example.com/"})
	require.NoError(t, err)
	assert.Equal(t, "https://insightgen.example.com", client.BaseURL())
	assert.Equal(t, DefaultTimeout, client.timeout)
	assert.Equal(t, DefaultUserAgent, client.userAgent)
}

func TestClient_CommonHeaders(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/generators/", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "insightgen-cli/test", r.Header.Get("User-Agent"))
		assert.Len(t, r.Header.Get(HeaderRequestID), 36)
		writeJSON(t, w, http.StatusOK, map[string]any{"generators": []any{}})
	})

	_, err := client.ListGenerators(context.Background(), domain.Credentials{Token: "tok"})
	require.NoError(t, err)
}

func TestClient_NoTokenNoAuthorization(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		writeJSON(t, w, http.StatusOK, []any{})
	})

	_, err := client.ListGenerators(context.Background(), domain.Credentials{})
	require.NoError(t, err)
}

func TestClient_Login(t *testing.T) {
	exp := time.Now().Add(2 * time.Hour).Truncate(time.Second)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "alice",
		"exp": exp.Unix(),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, pathLogin, r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body loginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, loginRequest{Username: "alice", Password: "pw"}, body)

		writeJSON(t, w, http.StatusOK, map[string]any{
			"access_token": token,
			"token_type":   "bearer",
			"user":         map[string]any{"id": 42, "username": "alice", "full_name": "Alice Doe"},
		})
	})

	result, err := client.Login(context.Background(), "alice", "pw")

	require.NoError(t, err)
	assert.Equal(t, token, result.AccessToken)
	assert.Equal(t, domain.User{ID: "42", DisplayName: "Alice Doe"}, result.User)
	assert.True(t, exp.Equal(result.ExpiresAt))
}

func TestClient_Login_OpaqueToken(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]any{"access_token": "opaque"})
	})

	result, err := client.Login(context.Background(), "alice", "pw")

	require.NoError(t, err)
	assert.True(t, result.ExpiresAt.IsZero())
	assert.Empty(t, result.User.ID)
}

func TestClient_Login_ExpiresIn(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]any{"access_token": "opaque", "expires_in": 60})
	})

	result, err := client.Login(context.Background(), "alice", "pw")

	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Minute), result.ExpiresAt, 5*time.Second)
}

func TestClient_Login_Rejected(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, http.StatusUnauthorized, map[string]any{"detail": "Incorrect username or password"})
	})

	_, err := client.Login(context.Background(), "alice", "bad")

	var apiErr *domain.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "Incorrect username or password", apiErr.Detail)
	assert.True(t, domain.IsUnauthorized(err))
}

func TestClient_Login_MissingToken(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]any{"user": map[string]any{"id": "1"}})
	})

	_, err := client.Login(context.Background(), "alice", "pw")

	assert.ErrorIs(t, err, domain.ErrUnexpectedResponse)
}

func TestClient_Register_FieldErrors(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "bob@example.com", body["email"])
		assert.NotContains(t, body, "company")

		writeJSON(t, w, http.StatusUnprocessableEntity, map[string]any{
			"detail": []any{
				map[string]any{"loc": []any{"body", "email"}, "msg": "already registered", "type": "value_error"},
				map[string]any{"loc": []any{"body", "password"}, "msg": "too weak", "type": "value_error"},
			},
		})
	})

	err := client.Register(context.Background(), domain.RegistrationProfile{
		Username: "bob", Password: "long-enough", FullName: "Bob", Email: "bob@example.com",
	})

	var apiErr *domain.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, []domain.FieldError{
		{Field: "email", Message: "already registered"},
		{Field: "password", Message: "too weak"},
	}, apiErr.Fields)
	assert.Equal(t, "email: already registered; password: too weak", apiErr.Detail)
}

func TestClient_Verify(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, pathVerify, r.URL.Path)
		writeJSON(t, w, http.StatusOK, map[string]any{
			"authenticated": true,
			"user":          map[string]any{"id": "u1", "display_name": "Alice"},
		})
	})

	result, err := client.Verify(context.Background(), domain.Credentials{Token: "tok"})

	require.NoError(t, err)
	assert.True(t, result.Authenticated)
	require.NotNil(t, result.User)
	assert.Equal(t, "Alice", result.User.DisplayName)
}

func TestClient_Verify_MissingFlag(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]any{})
	})

	_, err := client.Verify(context.Background(), domain.Credentials{Token: "tok"})

	assert.ErrorIs(t, err, domain.ErrUnexpectedResponse)
}

func TestClient_Logout(t *testing.T) {
	called := false
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, pathLogout, r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, client.Logout(context.Background(), domain.Credentials{Token: "tok"}))
	assert.True(t, called)
}

func TestClient_InspectFiles(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, pathInspect, r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))

		pptx, header, err := r.FormFile("pptx_file")
		require.NoError(t, err)
		data, _ := io.ReadAll(pptx)
		assert.Equal(t, "pptx-data", string(data))
		assert.Equal(t, "deck.pptx", header.Filename)
		assert.Equal(t, domain.MIMETypePPTX, header.Header.Get("Content-Type"))

		_, header, err = r.FormFile("pdf_file")
		require.NoError(t, err)
		assert.Equal(t, domain.MIMETypePDF, header.Header.Get("Content-Type"))

		writeJSON(t, w, http.StatusOK, map[string]any{
			"is_valid": false,
			"warnings": []string{"0 header slides"},
			"slide_stats": map[string]any{
				"total_slides":         10,
				"header_slides":        map[string]any{"count": 0, "slide_numbers": []int{}},
				"content_slides":       map[string]any{"count": 8, "slide_numbers": []int{2, 3}},
				"missing_placeholders": map[string]any{"count": 2, "slide_numbers": []int{4, 5}},
			},
		})
	})
	primary, reference := testFiles()

	result, err := client.InspectFiles(context.Background(), domain.Credentials{}, primary, reference)

	require.NoError(t, err)
	assert.False(t, result.IsValid)
	assert.Equal(t, []string{"0 header slides"}, result.Warnings)
	require.NotNil(t, result.SlideStats)
	assert.Equal(t, 10, result.SlideStats.TotalSlides)
	assert.Equal(t, domain.SlideGroup{Count: 2, SlideNumbers: []int{4, 5}}, result.SlideStats.MissingPlaceholders)
}

func TestClient_InspectFiles_NoStats(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]any{"is_valid": true})
	})
	primary, reference := testFiles()

	result, err := client.InspectFiles(context.Background(), domain.Credentials{}, primary, reference)

	require.NoError(t, err)
	assert.True(t, result.IsValid)
	assert.Nil(t, result.SlideStats)
}

func TestClient_InspectFiles_Errors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantErr  error
		category domain.DetailCategory
		detail   string
	}{
		{
			name:     "mismatch detail",
			status:   http.StatusBadRequest,
			body:     `{"detail":"Slide count mismatch: 12 vs 10"}`,
			category: domain.DetailMismatch,
			detail:   "Slide count mismatch: 12 vs 10",
		},
		{
			name:     "corrupt detail",
			status:   http.StatusBadRequest,
			body:     `{"detail":"Invalid or corrupt PDF"}`,
			category: domain.DetailCorruptFormat,
			detail:   "Invalid or corrupt PDF",
		},
		{
			name:     "html body",
			status:   http.StatusBadGateway,
			body:     `<html>bad gateway</html>`,
			category: domain.DetailGeneric,
			detail:   "Unknown error",
		},
		{
			name:    "missing is_valid",
			status:  http.StatusOK,
			body:    `{"warnings":[]}`,
			wantErr: domain.ErrUnexpectedResponse,
		},
		{
			name:    "malformed json",
			status:  http.StatusOK,
			body:    `{"is_valid":`,
			wantErr: domain.ErrUnexpectedResponse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})
			primary, reference := testFiles()

			_, err := client.InspectFiles(context.Background(), domain.Credentials{}, primary, reference)

			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			var apiErr *domain.APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.detail, apiErr.Detail)
			assert.Equal(t, tt.category, apiErr.Category())
		})
	}
}

func TestClient_ListGenerators(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]any{
			"generators": []any{
				map[string]any{"id": "bgs", "name": "Brand Growth Study", "example_prompt": "Market: UK"},
				map[string]any{"id": 7},
				map[string]any{"name": "no id"},
			},
		})
	})

	generators, err := client.ListGenerators(context.Background(), domain.Credentials{})

	require.NoError(t, err)
	assert.Equal(t, []domain.GeneratorDescriptor{
		{ID: "bgs", Name: "Brand Growth Study", ExamplePrompt: "Market: UK"},
		{ID: "7", Name: "7"},
	}, generators)
}

func TestClient_SubmitJob(t *testing.T) {
	examples := "Example headline"
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, pathSubmit, r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "UK market", r.FormValue("user_prompt"))
		assert.Equal(t, "20", r.FormValue("context_window_size"))
		assert.Equal(t, "bgs_default", r.FormValue("generator_id"))
		assert.Equal(t, "Example headline", r.FormValue("few_shot_examples"))
		_, _, err := r.FormFile("pptx_file")
		assert.NoError(t, err)

		writeJSON(t, w, http.StatusOK, map[string]any{
			"job_id":   "abc-123",
			"warnings": []string{"Filename mismatch: a.pptx vs b.pdf"},
		})
	})
	primary, reference := testFiles()

	result, err := client.SubmitJob(context.Background(), domain.Credentials{Token: "tok"}, primary, reference, domain.JobRequest{
		GeneratorID:       "bgs_default",
		UserPrompt:        "UK market",
		ContextWindowSize: 20,
		FewShotExamples:   &examples,
	})

	require.NoError(t, err)
	assert.Equal(t, "abc-123", result.JobID)
	assert.Equal(t, []string{"Filename mismatch: a.pptx vs b.pdf"}, result.Warnings)
}

func TestClient_SubmitJob_OmitsFewShotWhenNil(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		_, present := r.MultipartForm.Value["few_shot_examples"]
		assert.False(t, present)
		writeJSON(t, w, http.StatusOK, map[string]any{"job_id": 99})
	})
	primary, reference := testFiles()

	result, err := client.SubmitJob(context.Background(), domain.Credentials{}, primary, reference,
		domain.JobRequest{GeneratorID: "g", ContextWindowSize: 0})

	require.NoError(t, err)
	assert.Equal(t, "99", result.JobID)
}

func TestClient_SubmitJob_MissingJobID(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]any{"warnings": []string{}})
	})
	primary, reference := testFiles()

	_, err := client.SubmitJob(context.Background(), domain.Credentials{}, primary, reference,
		domain.JobRequest{GeneratorID: "g"})

	assert.ErrorIs(t, err, domain.ErrUnexpectedResponse)
}

func TestClient_JobStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/job-status/job-1", r.URL.Path)
		writeJSON(t, w, http.StatusOK, map[string]any{
			"status":          "completed",
			"output_filename": "processed_deck.pptx",
			"metrics": map[string]any{
				"total_slides":             10,
				"content_slides_processed": 8,
				"total_time_seconds":       12.5,
			},
		})
	})

	report, err := client.JobStatus(context.Background(), domain.Credentials{}, "job-1")

	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusCompleted, report.Status)
	require.NotNil(t, report.OutputFilename)
	assert.Equal(t, "processed_deck.pptx", *report.OutputFilename)
	require.NotNil(t, report.Metrics)
	assert.Equal(t, 8, report.Metrics.ContentSlidesProcessed)
	assert.InDelta(t, 12.5, report.Metrics.TotalTimeSeconds, 0.001)
	assert.Nil(t, report.Message)
}

func TestClient_JobStatus_EscapesID(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/job-status/a%2Fb", r.URL.EscapedPath())
		writeJSON(t, w, http.StatusOK, map[string]any{"status": "processing"})
	})

	_, err := client.JobStatus(context.Background(), domain.Credentials{}, "a/b")
	require.NoError(t, err)
}

func TestClient_JobStatus_UnknownStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]any{"status": "queued"})
	})

	_, err := client.JobStatus(context.Background(), domain.Credentials{}, "job-1")

	assert.ErrorIs(t, err, domain.ErrUnexpectedResponse)
}

func TestClient_DownloadResult(t *testing.T) {
	payload := bytes.Repeat([]byte("x"), 4096)
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/download/job-1", r.URL.Path)
		w.Header().Set("Content-Type", domain.MIMETypePPTX)
		_, _ = w.Write(payload)
	})

	var buf bytes.Buffer
	n, err := client.DownloadResult(context.Background(), domain.Credentials{}, "job-1", &buf)

	require.NoError(t, err)
	assert.Equal(t, int64(len(payload)), n)
	assert.Equal(t, payload, buf.Bytes())
}

func TestClient_DownloadResult_NotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, http.StatusNotFound, map[string]any{"detail": "Job not found"})
	})

	var buf bytes.Buffer
	_, err := client.DownloadResult(context.Background(), domain.Credentials{}, "job-1", &buf)

	var apiErr *domain.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Job not found", apiErr.Detail)
	assert.Zero(t, buf.Len())
}

func TestClient_Health(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/", r.URL.Path)
		writeJSON(t, w, http.StatusOK, map[string]any{"version": "1.4.0"})
	})

	info, err := client.Health(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "1.4.0", info.Version)
}

func TestClient_ConnectionError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client, err := NewClient(Config{BaseURL: url, RequestsPerSecond: 1000})
	require.NoError(t, err)

	_, err = client.Health(context.Background())

	assert.ErrorIs(t, err, domain.ErrConnection)
	assert.True(t, domain.IsConnection(err))
}

func TestClient_CancelledBeforeSend(t *testing.T) {
	client := newTestClient(t, func(_ http.ResponseWriter, _ *http.Request) {
		t.Error("request should not reach the server")
	})
	primary, reference := testFiles()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.SubmitJob(ctx, domain.Credentials{Token: "tok"}, primary, reference, domain.JobRequest{
		GeneratorID: "bgs_default",
		UserPrompt:  "UK market",
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConnection)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, domain.SubmitConnectionError, domain.NewSubmitError(err).Kind)
}

func TestClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	client, err := NewClient(Config{BaseURL: server.URL, Timeout: 50 * time.Millisecond, RequestsPerSecond: 1000})
	require.NoError(t, err)

	_, err = client.JobStatus(context.Background(), domain.Credentials{}, "job-1")

	assert.ErrorIs(t, err, domain.ErrConnection)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDecodeAPIError_Variants(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"empty body", "", "Unknown error"},
		{"empty detail", `{"detail":""}`, "Unknown error"},
		{"no detail", `{"error":"x"}`, "Unknown error"},
		{"object detail", `{"detail":{"code":1}}`, `{"code":1}`},
		{"loc without field", `{"detail":[{"loc":["body"],"msg":"bad body"}]}`, "bad body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := &http.Response{StatusCode: http.StatusBadRequest, Body: io.NopCloser(strings.NewReader(tt.body))}
			assert.Equal(t, tt.want, decodeAPIError(resp).Detail)
		})
	}
}

func TestTokenExpiry(t *testing.T) {
	assert.True(t, tokenExpiry("not-a-jwt").IsZero())

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "a"}).SignedString([]byte("k"))
	require.NoError(t, err)
	assert.True(t, tokenExpiry(noExp).IsZero())
}
