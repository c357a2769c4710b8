package mcp

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/insightgen-cli/internal/core/domain"
	"github.com/custodia-labs/insightgen-cli/internal/core/ports/driven"
	"github.com/custodia-labs/insightgen-cli/internal/core/ports/driving"
)

func TestServer_handleLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("uses configured username and env password", func(t *testing.T) {
		t.Setenv(EnvPassword, "secret-password")
		server := newTestServer(t, &fakeAPI{})

		_, out, err := server.handleLogin(ctx, nil, LoginInput{})

		require.NoError(t, err)
		assert.Equal(t, "alice", out.DisplayName)
		assert.Nil(t, out.ExpiresAt)
		assert.True(t, server.ports.Sessions.IsAuthenticated())
	})

	t.Run("bad password is an auth error", func(t *testing.T) {
		t.Setenv(EnvPassword, "")
		server := newTestServer(t, &fakeAPI{})

		_, _, err := server.handleLogin(ctx, nil, LoginInput{Username: "bob", Password: "wrong-password"})

		var authErr *domain.AuthError
		require.ErrorAs(t, err, &authErr)
		assert.Equal(t, domain.AuthInvalidCredentials, authErr.Kind)
	})
}

func TestServer_handleListGenerators(t *testing.T) {
	ctx := context.Background()

	t.Run("returns server catalog", func(t *testing.T) {
		api := &fakeAPI{generators: []domain.GeneratorDescriptor{{ID: "g1", Name: "One"}}}
		server := newTestServer(t, api)

		_, out, err := server.handleListGenerators(ctx, nil, EmptyInput{})

		require.NoError(t, err)
		require.Len(t, out.Generators, 1)
		assert.Equal(t, "g1", out.Generators[0].ID)
	})
}

func TestServer_handleInspect(t *testing.T) {
	ctx := context.Background()

	t.Run("reports the inspection", func(t *testing.T) {
		api := &fakeAPI{inspect: &domain.InspectionResult{
			IsValid:    true,
			Warnings:   []string{"slide 2 has no title"},
			SlideStats: &domain.SlideStats{TotalSlides: 3},
		}}
		server := newTestServer(t, api)
		pptx, pdf := writeDeck(t)

		_, out, err := server.handleInspect(ctx, nil, InspectInput{PresentationPath: pptx, ReferencePath: pdf})

		require.NoError(t, err)
		assert.True(t, out.IsValid)
		assert.Equal(t, []string{"slide 2 has no title"}, out.Warnings)
		require.NotNil(t, out.SlideStats)
		assert.Equal(t, 3, out.SlideStats.TotalSlides)
	})

	t.Run("wrong extension is rejected before any request", func(t *testing.T) {
		server := newTestServer(t, &fakeAPI{})
		pptx, pdf := writeDeck(t)

		_, _, err := server.handleInspect(ctx, nil, InspectInput{PresentationPath: pdf, ReferencePath: pptx})

		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("missing path", func(t *testing.T) {
		server := newTestServer(t, &fakeAPI{})

		_, _, err := server.handleInspect(ctx, nil, InspectInput{})

		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestServer_SubmitWaitDownload(t *testing.T) {
	ctx := context.Background()
	api := &fakeAPI{
		generators: []domain.GeneratorDescriptor{{ID: "bgs_default", Name: "Default", ExamplePrompt: "UK market"}},
		statuses: []*driven.JobStatusReport{
			{Status: domain.JobStatusProcessing},
			{
				Status:         domain.JobStatusCompleted,
				OutputFilename: strPtr("processed_deck.pptx"),
				Metrics:        &domain.JobMetrics{TotalSlides: 3},
			},
		},
	}
	server := newTestServer(t, api)
	pptx, pdf := writeDeck(t)

	_, submitted, err := server.handleSubmit(ctx, nil, SubmitInput{
		PresentationPath: pptx,
		ReferencePath:    pdf,
		DefaultFewShot:   true,
	})
	require.NoError(t, err)
	assert.Equal(t, "job-1", submitted.JobID)

	require.Len(t, api.submitted, 1)
	req := api.submitted[0]
	assert.Equal(t, "UK market", req.UserPrompt)
	assert.Equal(t, domain.DefaultContextWindowSize, req.ContextWindowSize)
	require.NotNil(t, req.FewShotExamples)
	assert.Equal(t, domain.DefaultFewShotExamples, *req.FewShotExamples)

	_, waited, err := server.handleWaitForJob(ctx, nil, EmptyInput{})
	require.NoError(t, err)
	assert.Equal(t, string(driving.StateCompleted), waited.State)
	assert.Equal(t, 100, waited.Job.ProgressPercent)
	assert.Empty(t, waited.Stage)

	dir := t.TempDir()
	_, saved, err := server.handleDownload(ctx, nil, DownloadInput{OutputDir: dir})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "processed_deck.pptx"), saved.Path)
	data, err := os.ReadFile(saved.Path)
	require.NoError(t, err)
	assert.Equal(t, "pptx-bytes", string(data))
}

func TestServer_handleSubmit(t *testing.T) {
	ctx := context.Background()

	t.Run("without files or inspection", func(t *testing.T) {
		server := newTestServer(t, &fakeAPI{})

		_, _, err := server.handleSubmit(ctx, nil, SubmitInput{Prompt: "UK"})

		assert.ErrorIs(t, err, domain.ErrFilesNotReady)
	})

	t.Run("unknown generator", func(t *testing.T) {
		server := newTestServer(t, &fakeAPI{generators: []domain.GeneratorDescriptor{{ID: "g1"}}})
		pptx, pdf := writeDeck(t)

		_, _, err := server.handleSubmit(ctx, nil, SubmitInput{
			PresentationPath: pptx, ReferencePath: pdf, GeneratorID: "missing",
		})

		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("context window out of range", func(t *testing.T) {
		server := newTestServer(t, &fakeAPI{})
		pptx, pdf := writeDeck(t)
		window := 51

		_, _, err := server.handleSubmit(ctx, nil, SubmitInput{
			PresentationPath: pptx, ReferencePath: pdf, ContextWindowSize: &window,
		})

		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("configured context window is the default", func(t *testing.T) {
		api := &fakeAPI{}
		server := newTestServer(t, api)
		configured := 7
		server.ports.ContextWindowSize = &configured
		pptx, pdf := writeDeck(t)

		_, _, err := server.handleSubmit(ctx, nil, SubmitInput{PresentationPath: pptx, ReferencePath: pdf})
		require.NoError(t, err)

		require.Len(t, api.submitted, 1)
		assert.Equal(t, 7, api.submitted[0].ContextWindowSize)
	})

	t.Run("explicit context window wins over config", func(t *testing.T) {
		api := &fakeAPI{}
		server := newTestServer(t, api)
		configured, explicit := 7, 0
		server.ports.ContextWindowSize = &configured
		pptx, pdf := writeDeck(t)

		_, _, err := server.handleSubmit(ctx, nil, SubmitInput{
			PresentationPath: pptx, ReferencePath: pdf, ContextWindowSize: &explicit,
		})
		require.NoError(t, err)

		require.Len(t, api.submitted, 1)
		assert.Equal(t, 0, api.submitted[0].ContextWindowSize)
	})

	t.Run("slide count mismatch carries the hint", func(t *testing.T) {
		api := &fakeAPI{submitErr: &domain.APIError{StatusCode: 400, Detail: "Slide count mismatch: 10 vs 12"}}
		server := newTestServer(t, api)
		pptx, pdf := writeDeck(t)

		_, _, err := server.handleSubmit(ctx, nil, SubmitInput{PresentationPath: pptx, ReferencePath: pdf})

		var serr *domain.SubmitError
		require.ErrorAs(t, err, &serr)
		assert.Equal(t, domain.SubmitSlideCountMismatch, serr.Kind)
		assert.Contains(t, err.Error(), "same number of slides")
	})

	t.Run("invalid inspection blocks submission", func(t *testing.T) {
		api := &fakeAPI{inspect: &domain.InspectionResult{IsValid: false, Warnings: []string{"PDF has 11 pages"}}}
		server := newTestServer(t, api)
		pptx, pdf := writeDeck(t)

		_, _, err := server.handleSubmit(ctx, nil, SubmitInput{PresentationPath: pptx, ReferencePath: pdf})

		assert.ErrorIs(t, err, domain.ErrInspectionInvalid)
		assert.Empty(t, api.submitted)
	})
}

func TestServer_handleJobStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("no job", func(t *testing.T) {
		server := newTestServer(t, &fakeAPI{})

		_, _, err := server.handleJobStatus(ctx, nil, EmptyInput{})

		assert.ErrorIs(t, err, domain.ErrNoActiveJob)
	})

	t.Run("transient error is reported, not failed", func(t *testing.T) {
		api := &fakeAPI{}
		server := newTestServer(t, api)
		pptx, pdf := writeDeck(t)
		_, _, err := server.handleSubmit(ctx, nil, SubmitInput{PresentationPath: pptx, ReferencePath: pdf})
		require.NoError(t, err)
		api.statusErr = errors.Join(domain.ErrConnection, errors.New("dial tcp: refused"))

		_, out, err := server.handleJobStatus(ctx, nil, EmptyInput{})

		require.NoError(t, err)
		assert.Equal(t, string(driving.StatePolling), out.State)
		assert.Contains(t, out.Error, "connection error")
		require.NotNil(t, out.Job)
		assert.Equal(t, "job-1", out.Job.ID)
	})

	t.Run("processing reports the stage", func(t *testing.T) {
		server := newTestServer(t, &fakeAPI{})
		pptx, pdf := writeDeck(t)
		_, _, err := server.handleSubmit(ctx, nil, SubmitInput{PresentationPath: pptx, ReferencePath: pdf})
		require.NoError(t, err)

		_, out, err := server.handleJobStatus(ctx, nil, EmptyInput{})

		require.NoError(t, err)
		assert.Equal(t, "Stage 1/4: Slide processing", out.Stage)
	})
}

func TestServer_handleCancelJob(t *testing.T) {
	ctx := context.Background()
	server := newTestServer(t, &fakeAPI{})

	_, _, err := server.handleCancelJob(ctx, nil, EmptyInput{})
	assert.ErrorIs(t, err, domain.ErrNoActiveJob)

	pptx, pdf := writeDeck(t)
	_, _, err = server.handleSubmit(ctx, nil, SubmitInput{PresentationPath: pptx, ReferencePath: pdf})
	require.NoError(t, err)

	_, out, err := server.handleCancelJob(ctx, nil, EmptyInput{})
	require.NoError(t, err)
	assert.Equal(t, string(driving.StateCancelled), out.State)
	assert.Equal(t, domain.JobStatusCancelled, out.Job.Status)

	_, _, err = server.handleWaitForJob(ctx, nil, EmptyInput{})
	assert.NoError(t, err)
}

func TestServer_handleDownload_NotCompleted(t *testing.T) {
	server := newTestServer(t, &fakeAPI{})

	_, _, err := server.handleDownload(context.Background(), nil, DownloadInput{OutputDir: t.TempDir()})

	assert.ErrorIs(t, err, domain.ErrJobNotCompleted)
}
