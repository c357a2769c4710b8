package mcp

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/insightgen-cli/internal/core/domain"
	"github.com/custodia-labs/insightgen-cli/internal/core/ports/driven"
	"github.com/custodia-labs/insightgen-cli/internal/core/services"
)

// fakeAPI implements driven.RemoteAPI. Status reports are served in order;
// the last one repeats.
type fakeAPI struct {
	mu         sync.Mutex
	inspect    *domain.InspectionResult
	generators []domain.GeneratorDescriptor
	submitErr  error
	statuses   []*driven.JobStatusReport
	statusErr  error
	submitted  []domain.JobRequest
}

var _ driven.RemoteAPI = (*fakeAPI)(nil)

func (f *fakeAPI) Login(_ context.Context, username, password string) (*driven.LoginResult, error) {
	if password != "secret-password" {
		return nil, &domain.APIError{StatusCode: 401, Detail: "Incorrect username or password"}
	}
	return &driven.LoginResult{AccessToken: "token", User: domain.User{ID: "u-1", DisplayName: username}}, nil
}

func (f *fakeAPI) Register(context.Context, domain.RegistrationProfile) error { return nil }

func (f *fakeAPI) Verify(context.Context, domain.Credentials) (*driven.VerifyResult, error) {
	return &driven.VerifyResult{Authenticated: true}, nil
}

func (f *fakeAPI) Logout(context.Context, domain.Credentials) error { return nil }

func (f *fakeAPI) InspectFiles(
	_ context.Context, _ domain.Credentials, _, _ domain.SourceFile,
) (*domain.InspectionResult, error) {
	if f.inspect != nil {
		return f.inspect.Clone(), nil
	}
	return &domain.InspectionResult{IsValid: true}, nil
}

func (f *fakeAPI) ListGenerators(context.Context, domain.Credentials) ([]domain.GeneratorDescriptor, error) {
	return f.generators, nil
}

func (f *fakeAPI) SubmitJob(
	_ context.Context, _ domain.Credentials, _, _ domain.SourceFile, req domain.JobRequest,
) (*driven.SubmitResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitted = append(f.submitted, req)
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	return &driven.SubmitResult{JobID: "job-1"}, nil
}

func (f *fakeAPI) JobStatus(context.Context, domain.Credentials, string) (*driven.JobStatusReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.statusErr != nil {
		return nil, f.statusErr
	}
	if len(f.statuses) == 0 {
		return &driven.JobStatusReport{Status: domain.JobStatusProcessing}, nil
	}
	report := f.statuses[0]
	if len(f.statuses) > 1 {
		f.statuses = f.statuses[1:]
	}
	return report, nil
}

func (f *fakeAPI) DownloadResult(_ context.Context, _ domain.Credentials, _ string, w io.Writer) (int64, error) {
	n, err := w.Write([]byte("pptx-bytes"))
	return int64(n), err
}

func (f *fakeAPI) Health(context.Context) (*driven.ServiceInfo, error) {
	return &driven.ServiceInfo{Version: "1.0.0"}, nil
}

func strPtr(s string) *string { return &s }

// newTestServer wires real services around api.
func newTestServer(t *testing.T, api *fakeAPI) *Server {
	t.Helper()
	sessions := services.NewSessionManager(api)
	intake := services.NewFileIntake()
	inspection := services.NewInspectionService(api, sessions, intake)
	ports := &Ports{
		Sessions:   sessions,
		Intake:     intake,
		Inspection: inspection,
		Catalog:    services.NewGeneratorCatalog(api, sessions),
		Jobs: services.NewJobOrchestrator(api, sessions, intake, inspection,
			services.OrchestratorConfig{JobTimeout: time.Hour}),
		PollInterval: time.Millisecond,
		Username:     "alice",
	}
	server, err := NewServer(ports, "test")
	require.NoError(t, err)
	return server
}

// writeDeck writes a presentation and its PDF rendering into a temp dir.
func writeDeck(t *testing.T) (pptx, pdf string) {
	t.Helper()
	dir := t.TempDir()
	pptx = filepath.Join(dir, "deck.pptx")
	pdf = filepath.Join(dir, "deck.pdf")
	require.NoError(t, os.WriteFile(pptx, []byte("pptx"), 0o600))
	require.NoError(t, os.WriteFile(pdf, []byte("pdf"), 0o600))
	return pptx, pdf
}
