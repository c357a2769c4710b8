package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/insightgen-cli/internal/core/domain"
	"github.com/custodia-labs/insightgen-cli/internal/core/ports/driven"
	"github.com/custodia-labs/insightgen-cli/internal/core/services"
)

const testPassword = "secret-password"

// fakeAPI implements driven.RemoteAPI. Status reports are served in order;
// the last one repeats.
type fakeAPI struct {
	mu          sync.Mutex
	inspect     *domain.InspectionResult
	generators  []domain.GeneratorDescriptor
	registerErr error
	submitErr   error
	submitWarns []string
	statuses    []*driven.JobStatusReport
	healthErr   error
	logins      int
	logouts     int
	submitted   []domain.JobRequest
}

var _ driven.RemoteAPI = (*fakeAPI)(nil)

func (f *fakeAPI) Login(_ context.Context, username, password string) (*driven.LoginResult, error) {
	f.mu.Lock()
	f.logins++
	f.mu.Unlock()
	if password != testPassword {
		return nil, &domain.APIError{StatusCode: 401, Detail: "Incorrect username or password"}
	}
	return &driven.LoginResult{
		AccessToken: "token-" + username,
		User:        domain.User{ID: "u-1", DisplayName: username},
		ExpiresAt:   time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
	}, nil
}

func (f *fakeAPI) Register(context.Context, domain.RegistrationProfile) error { return f.registerErr }

func (f *fakeAPI) Verify(_ context.Context, creds domain.Credentials) (*driven.VerifyResult, error) {
	return &driven.VerifyResult{Authenticated: !creds.IsZero()}, nil
}

func (f *fakeAPI) Logout(context.Context, domain.Credentials) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logouts++
	return nil
}

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
	return &driven.SubmitResult{JobID: "job-1", Warnings: f.submitWarns}, nil
}

func (f *fakeAPI) JobStatus(context.Context, domain.Credentials, string) (*driven.JobStatusReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
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
	if f.healthErr != nil {
		return nil, f.healthErr
	}
	return &driven.ServiceInfo{Version: "1.0.0"}, nil
}

func strPtr(s string) *string { return &s }

func completedReport() *driven.JobStatusReport {
	return &driven.JobStatusReport{
		Status:         domain.JobStatusCompleted,
		OutputFilename: strPtr("processed_deck.pptx"),
		Metrics:        &domain.JobMetrics{TotalSlides: 12, ContentSlidesProcessed: 10, HeadlinesGenerated: 10},
	}
}

// stubSettings is a fixed driving.SettingsService with a fast poll interval.
type stubSettings struct {
	settings domain.ClientSettings
	stored   map[string]string
}

func newStubSettings() *stubSettings {
	s := domain.DefaultClientSettings()
	s.PollInterval = time.Millisecond
	return &stubSettings{settings: s, stored: map[string]string{}}
}

func (s *stubSettings) Get() (*domain.ClientSettings, error) {
	out := s.settings
	return &out, nil
}

func (s *stubSettings) Set(key, value string) error {
	s.stored[key] = value
	if key == services.KeyUsername {
		s.settings.Username = value
	}
	return nil
}

func (s *stubSettings) Keys() []string { return services.SettingKeys() }

func (s *stubSettings) ConfigPath() string { return "/tmp/insightgen/config.toml" }

// setupTestServices wires real core services around api and resets every
// flag so tests do not leak into each other.
func setupTestServices(t *testing.T, api *fakeAPI) *stubSettings {
	t.Helper()
	resetFlags(rootCmd)
	t.Setenv(EnvPassword, testPassword)

	sessions := services.NewSessionManager(api)
	intake := services.NewFileIntake()
	inspection := services.NewInspectionService(api, sessions, intake)
	settings := newStubSettings()

	prevBootstrap := bootstrap
	bootstrap = nil
	SetServices(&Services{
		Sessions:   sessions,
		Intake:     intake,
		Inspection: inspection,
		Catalog:    services.NewGeneratorCatalog(api, sessions),
		Jobs: services.NewJobOrchestrator(api, sessions, intake, inspection,
			services.OrchestratorConfig{JobTimeout: time.Hour}),
		Settings: settings,
		Status:   services.NewStatusService(api, "http://api.test"),
	})

	t.Cleanup(func() {
		bootstrap = prevBootstrap
		SetServices(&Services{})
		resetFlags(rootCmd)
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})
	return settings
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// execute runs the root command with args and returns stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	stdout, stderr := new(bytes.Buffer), new(bytes.Buffer)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	rootCmd.SetIn(new(bytes.Buffer))
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
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
