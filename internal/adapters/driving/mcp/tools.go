package mcp

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/insightgen-cli/internal/core/domain"
	"github.com/custodia-labs/insightgen-cli/internal/core/services"
)

// EnvPassword is read by the login tool when no password is passed.
const EnvPassword = "INSIGHTGEN_PASSWORD"

// LoginInput is the input schema for the login tool.
type LoginInput struct {
	Username string `json:"username,omitempty" jsonschema:"account username (defaults to the configured account)"`
	Password string `json:"password,omitempty" jsonschema:"account password (defaults to INSIGHTGEN_PASSWORD)"`
}

// LoginOutput is the output schema for the login tool.
type LoginOutput struct {
	DisplayName string     `json:"display_name"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

// EmptyInput is the input schema for tools without arguments.
type EmptyInput struct{}

// GeneratorsOutput is the output schema for the list_generators tool.
type GeneratorsOutput struct {
	Generators []domain.GeneratorDescriptor `json:"generators"`
}

// InspectInput is the input schema for the inspect_files tool.
type InspectInput struct {
	PresentationPath string `json:"presentation_path" jsonschema:"path to the .pptx presentation"`
	ReferencePath    string `json:"reference_path" jsonschema:"path to the .pdf rendering of the presentation"`
}

// SubmitInput is the input schema for the submit_job tool.
type SubmitInput struct {
	PresentationPath  string  `json:"presentation_path,omitempty" jsonschema:"path to the .pptx; omit to reuse the inspected files"`
	ReferencePath     string  `json:"reference_path,omitempty" jsonschema:"path to the .pdf; omit to reuse the inspected files"`
	GeneratorID       string  `json:"generator_id,omitempty" jsonschema:"generator id (default bgs_default)"`
	Prompt            string  `json:"prompt,omitempty" jsonschema:"market, brand context and instructions"`
	ContextWindowSize *int    `json:"context_window_size,omitempty" jsonschema:"previous slides kept in context, 0-50 (default from config)"`
	FewShotExamples   *string `json:"few_shot_examples,omitempty" jsonschema:"example observations and headlines"`
	DefaultFewShot    bool    `json:"use_default_few_shot,omitempty" jsonschema:"send the built-in few-shot examples"`
}

// SubmitOutput is the output schema for the submit_job tool.
type SubmitOutput struct {
	JobID    string   `json:"job_id"`
	Warnings []string `json:"warnings,omitempty"`
}

// JobOutput is the output schema for the job tools.
type JobOutput struct {
	Job   *domain.Job `json:"job"`
	State string      `json:"state"`
	Stage string      `json:"stage,omitempty"`
	Error string      `json:"error,omitempty"`
}

// DownloadInput is the input schema for the download_result tool.
type DownloadInput struct {
	OutputDir string `json:"output_dir" jsonschema:"directory to save the processed presentation in"`
}

// DownloadOutput is the output schema for the download_result tool.
type DownloadOutput struct {
	Path string `json:"path"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "login",
		Description: "Log in to the analysis service",
	}, s.handleLogin)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_generators",
		Description: "List generation profiles with their example prompts",
	}, s.handleListGenerators)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "inspect_files",
		Description: "Validate a presentation and its PDF rendering and report slide statistics",
	}, s.handleInspect)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "submit_job",
		Description: "Submit inspected files for headline generation",
	}, s.handleSubmit)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "job_status",
		Description: "Check the status of the current job once",
	}, s.handleJobStatus)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "wait_for_job",
		Description: "Wait until the current job completes, fails or times out",
	}, s.handleWaitForJob)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "cancel_job",
		Description: "Stop tracking the current job",
	}, s.handleCancelJob)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "download_result",
		Description: "Save the processed presentation of the completed job",
	}, s.handleDownload)
}

func (s *Server) handleLogin(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input LoginInput,
) (*mcp.CallToolResult, LoginOutput, error) {
	username := input.Username
	if username == "" {
		username = s.ports.Username
	}
	password := input.Password
	if password == "" {
		password = os.Getenv(EnvPassword)
	}

	session, err := s.ports.Sessions.Login(ctx, username, password)
	if err != nil {
		return nil, LoginOutput{}, err
	}

	out := LoginOutput{DisplayName: session.User.DisplayName}
	if session.ExpiresKnown {
		expires := session.ExpiresAt
		out.ExpiresAt = &expires
	}
	return nil, out, nil
}

func (s *Server) handleListGenerators(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ EmptyInput,
) (*mcp.CallToolResult, GeneratorsOutput, error) {
	return nil, GeneratorsOutput{Generators: s.ports.Catalog.List(ctx)}, nil
}

func (s *Server) handleInspect(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input InspectInput,
) (*mcp.CallToolResult, domain.InspectionResult, error) {
	if err := s.selectFiles(input.PresentationPath, input.ReferencePath); err != nil {
		return nil, domain.InspectionResult{}, err
	}
	result, err := s.ports.Inspection.Inspect(ctx)
	if err != nil {
		return nil, domain.InspectionResult{}, err
	}
	return nil, *result, nil
}

func (s *Server) handleSubmit(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SubmitInput,
) (*mcp.CallToolResult, SubmitOutput, error) {
	if input.PresentationPath != "" || input.ReferencePath != "" {
		if err := s.selectFiles(input.PresentationPath, input.ReferencePath); err != nil {
			return nil, SubmitOutput{}, err
		}
		if _, err := s.ports.Inspection.Inspect(ctx); err != nil {
			return nil, SubmitOutput{}, err
		}
	}

	req, err := s.jobRequest(ctx, input)
	if err != nil {
		return nil, SubmitOutput{}, err
	}

	job, err := s.ports.Jobs.Submit(ctx, req)
	if err != nil {
		var serr *domain.SubmitError
		if errors.As(err, &serr) && serr.Kind.Hint() != "" {
			return nil, SubmitOutput{}, fmt.Errorf("%w. %s", err, serr.Kind.Hint())
		}
		return nil, SubmitOutput{}, err
	}
	return nil, SubmitOutput{JobID: job.ID, Warnings: job.Warnings}, nil
}

func (s *Server) jobRequest(ctx context.Context, input SubmitInput) (domain.JobRequest, error) {
	generatorID := input.GeneratorID
	if generatorID == "" {
		generatorID = domain.DefaultGeneratorID
	}
	s.ports.Catalog.List(ctx)
	generator, ok := s.ports.Catalog.Get(generatorID)
	if !ok {
		return domain.JobRequest{}, fmt.Errorf("%w: unknown generator %q", domain.ErrInvalidInput, generatorID)
	}

	prompt := strings.TrimSpace(input.Prompt)
	if prompt == "" {
		prompt = generator.ExamplePrompt
	}
	window := domain.DefaultContextWindowSize
	if s.ports.ContextWindowSize != nil {
		window = *s.ports.ContextWindowSize
	}
	if input.ContextWindowSize != nil {
		window = *input.ContextWindowSize
	}

	req := domain.JobRequest{
		GeneratorID:       generator.ID,
		UserPrompt:        prompt,
		ContextWindowSize: window,
		FewShotExamples:   input.FewShotExamples,
	}
	if input.DefaultFewShot && req.FewShotExamples == nil {
		examples := domain.DefaultFewShotExamples
		req.FewShotExamples = &examples
	}
	return req, req.Validate()
}

func (s *Server) handleJobStatus(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ EmptyInput,
) (*mcp.CallToolResult, JobOutput, error) {
	job, err := s.ports.Jobs.PollOnce(ctx)
	var pe *domain.PollError
	if err != nil && !errors.As(err, &pe) {
		return nil, JobOutput{}, err
	}
	if job == nil {
		job, _ = s.ports.Jobs.Snapshot()
	}
	return nil, s.jobOutput(job, err), nil
}

func (s *Server) handleWaitForJob(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ EmptyInput,
) (*mcp.CallToolResult, JobOutput, error) {
	if _, ok := s.ports.Jobs.Snapshot(); !ok {
		return nil, JobOutput{}, domain.ErrNoActiveJob
	}
	job, err := services.NewPoller(s.ports.Jobs, s.ports.PollInterval, nil).Run(ctx)
	if err != nil {
		return nil, JobOutput{}, err
	}
	return nil, s.jobOutput(job, nil), nil
}

func (s *Server) handleCancelJob(
	_ context.Context,
	_ *mcp.CallToolRequest,
	_ EmptyInput,
) (*mcp.CallToolResult, JobOutput, error) {
	if err := s.ports.Jobs.Cancel(); err != nil {
		return nil, JobOutput{}, err
	}
	job, _ := s.ports.Jobs.Snapshot()
	return nil, s.jobOutput(job, nil), nil
}

func (s *Server) handleDownload(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input DownloadInput,
) (*mcp.CallToolResult, DownloadOutput, error) {
	dir := input.OutputDir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, DownloadOutput{}, fmt.Errorf("creating output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".insightgen-*.part")
	if err != nil {
		return nil, DownloadOutput{}, fmt.Errorf("creating output file: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // no-op after the rename

	name, err := s.ports.Jobs.Download(ctx, tmp)
	if closeErr := tmp.Close(); err == nil && closeErr != nil {
		err = closeErr
	}
	if err != nil {
		return nil, DownloadOutput{}, err
	}

	path := filepath.Join(dir, filepath.Base(name))
	if err := os.Rename(tmp.Name(), path); err != nil {
		return nil, DownloadOutput{}, fmt.Errorf("saving output file: %w", err)
	}
	return nil, DownloadOutput{Path: path}, nil
}

func (s *Server) jobOutput(job *domain.Job, pollErr error) JobOutput {
	out := JobOutput{Job: job, State: string(s.ports.Jobs.State())}
	if job != nil && job.Stage != domain.StageNone && !job.IsTerminal() {
		out.Stage = job.Stage.String()
	}
	switch {
	case pollErr != nil:
		out.Error = pollErr.Error()
	case s.ports.Jobs.LastError() != nil:
		out.Error = s.ports.Jobs.LastError().Error()
	}
	return out
}

func (s *Server) selectFiles(primaryPath, referencePath string) error {
	primary, err := readSourceFile(domain.FileRolePrimary, primaryPath)
	if err != nil {
		return err
	}
	reference, err := readSourceFile(domain.FileRoleReference, referencePath)
	if err != nil {
		return err
	}
	if err := s.ports.Intake.SetPrimary(primary); err != nil {
		return err
	}
	return s.ports.Intake.SetReference(reference)
}

func readSourceFile(role domain.FileRole, path string) (domain.SourceFile, error) {
	if path == "" {
		return domain.SourceFile{}, fmt.Errorf("%w: %s file path is required", domain.ErrInvalidInput, role)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.SourceFile{}, fmt.Errorf("reading %s file: %w", role, err)
	}
	return domain.NewSourceFile(role, filepath.Base(path), data)
}
