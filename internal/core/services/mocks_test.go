package services

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/custodia-labs/insightgen-cli/internal/core/domain"
	"github.com/custodia-labs/insightgen-cli/internal/core/ports/driven"
)

// --- Mock implementations of the remote API ---

// mockRemoteAPI implements driven.RemoteAPI for testing. Each method
// delegates to its func field when set.
type mockRemoteAPI struct {
	mu sync.Mutex

	loginFn      func(username, password string) (*driven.LoginResult, error)
	registerFn   func(profile domain.RegistrationProfile) error
	verifyFn     func(creds domain.Credentials) (*driven.VerifyResult, error)
	logoutErr    error
	inspectFn    func(primary, reference domain.SourceFile) (*domain.InspectionResult, error)
	generatorsFn func() ([]domain.GeneratorDescriptor, error)
	submitFn     func(req domain.JobRequest) (*driven.SubmitResult, error)
	statusFn     func(jobID string) (*driven.JobStatusReport, error)
	downloadFn   func(jobID string, w io.Writer) (int64, error)
	healthFn     func() (*driven.ServiceInfo, error)

	logoutCalls  int
	statusCalls  int
	inspectCalls int
	submitCreds  []domain.Credentials
	statusCreds  []domain.Credentials
}

var _ driven.RemoteAPI = (*mockRemoteAPI)(nil)

func (m *mockRemoteAPI) Login(_ context.Context, username, password string) (*driven.LoginResult, error) {
	if m.loginFn != nil {
		return m.loginFn(username, password)
	}
	return &driven.LoginResult{AccessToken: "token-" + username, User: domain.User{ID: "u-1", DisplayName: username}}, nil
}

func (m *mockRemoteAPI) Register(_ context.Context, profile domain.RegistrationProfile) error {
	if m.registerFn != nil {
		return m.registerFn(profile)
	}
	return nil
}

func (m *mockRemoteAPI) Verify(_ context.Context, creds domain.Credentials) (*driven.VerifyResult, error) {
	if m.verifyFn != nil {
		return m.verifyFn(creds)
	}
	return &driven.VerifyResult{Authenticated: true}, nil
}

func (m *mockRemoteAPI) Logout(_ context.Context, _ domain.Credentials) error {
	m.mu.Lock()
	m.logoutCalls++
	m.mu.Unlock()
	return m.logoutErr
}

func (m *mockRemoteAPI) InspectFiles(
	_ context.Context,
	_ domain.Credentials,
	primary, reference domain.SourceFile,
) (*domain.InspectionResult, error) {
	m.mu.Lock()
	m.inspectCalls++
	m.mu.Unlock()
	if m.inspectFn != nil {
		return m.inspectFn(primary, reference)
	}
	return &domain.InspectionResult{IsValid: true}, nil
}

func (m *mockRemoteAPI) ListGenerators(_ context.Context, _ domain.Credentials) ([]domain.GeneratorDescriptor, error) {
	if m.generatorsFn != nil {
		return m.generatorsFn()
	}
	return nil, nil
}

func (m *mockRemoteAPI) SubmitJob(
	_ context.Context,
	creds domain.Credentials,
	_, _ domain.SourceFile,
	req domain.JobRequest,
) (*driven.SubmitResult, error) {
	m.mu.Lock()
	m.submitCreds = append(m.submitCreds, creds)
	m.mu.Unlock()
	if m.submitFn != nil {
		return m.submitFn(req)
	}
	return &driven.SubmitResult{JobID: "job-1"}, nil
}

func (m *mockRemoteAPI) JobStatus(_ context.Context, creds domain.Credentials, jobID string) (*driven.JobStatusReport, error) {
	m.mu.Lock()
	m.statusCalls++
	m.statusCreds = append(m.statusCreds, creds)
	m.mu.Unlock()
	if m.statusFn != nil {
		return m.statusFn(jobID)
	}
	return &driven.JobStatusReport{Status: domain.JobStatusProcessing}, nil
}

func (m *mockRemoteAPI) DownloadResult(_ context.Context, _ domain.Credentials, jobID string, w io.Writer) (int64, error) {
	if m.downloadFn != nil {
		return m.downloadFn(jobID, w)
	}
	n, err := w.Write([]byte("pptx-bytes"))
	return int64(n), err
}

func (m *mockRemoteAPI) Health(_ context.Context) (*driven.ServiceInfo, error) {
	if m.healthFn != nil {
		return m.healthFn()
	}
	return &driven.ServiceInfo{Version: "1.0.0"}, nil
}

func (m *mockRemoteAPI) statusCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.statusCalls
}

// --- Fixtures ---

// fakeClock is a manually advanced clock.
type fakeClock struct {
	mu  sync.Mutex
	now int64
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return time.Unix(c.now, 0)
}

func (c *fakeClock) Advance(seconds int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now += seconds
}

func testPrimary() domain.SourceFile {
	return domain.SourceFile{Name: "deck.pptx", Data: []byte("pptx"), MIMEType: domain.MIMETypePPTX}
}

func testReference() domain.SourceFile {
	return domain.SourceFile{Name: "deck.pdf", Data: []byte("pdf"), MIMEType: domain.MIMETypePDF}
}

func testRequest() domain.JobRequest {
	return domain.JobRequest{
		GeneratorID:       domain.DefaultGeneratorID,
		UserPrompt:        "UK market, brand X",
		ContextWindowSize: domain.DefaultContextWindowSize,
	}
}

// workflow bundles the services the way the application wires them.
type workflow struct {
	api        *mockRemoteAPI
	clock      *fakeClock
	sessions   *SessionManager
	intake     *FileIntake
	inspection *InspectionService
	orch       *JobOrchestrator
}

func newWorkflow(api *mockRemoteAPI) *workflow {
	clock := &fakeClock{now: 1_700_000_000}
	sessions := NewSessionManager(api)
	intake := NewFileIntake()
	inspection := NewInspectionService(api, sessions, intake)
	orch := NewJobOrchestrator(api, sessions, intake, inspection, OrchestratorConfig{
		JobTimeout: domain.DefaultJobTimeout,
		Now:        clock.Now,
	})
	return &workflow{
		api:        api,
		clock:      clock,
		sessions:   sessions,
		intake:     intake,
		inspection: inspection,
		orch:       orch,
	}
}

// ready logs in, selects both files and inspects them.
func (w *workflow) ready(ctx context.Context) error {
	if _, err := w.sessions.Login(ctx, "alice", "secret-password"); err != nil {
		return err
	}
	if err := w.intake.SetPrimary(testPrimary()); err != nil {
		return err
	}
	if err := w.intake.SetReference(testReference()); err != nil {
		return err
	}
	_, err := w.inspection.Inspect(ctx)
	return err
}
