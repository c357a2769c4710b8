package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"

	"github.com/custodia-labs/insightgen-cli/internal/core/domain"
	"github.com/custodia-labs/insightgen-cli/internal/core/ports/driven"
	"github.com/custodia-labs/insightgen-cli/internal/logger"
)

// Workflow endpoints. The trailing slashes are significant to the server.
const (
	pathInspect    = "/inspect-files/"
	pathGenerators = "/generators/"
	pathSubmit     = "/upload-and-process/"
	pathJobStatus  = "/job-status"
	pathDownload   = "/download"
)

// Multipart form fields of a submission.
const (
	fieldUserPrompt        = "user_prompt"
	fieldContextWindowSize = "context_window_size"
	fieldGeneratorID       = "generator_id"
	fieldFewShotExamples   = "few_shot_examples"
)

// InspectFiles sends both files for validation.
func (c *Client) InspectFiles(
	ctx context.Context,
	creds domain.Credentials,
	primary, reference domain.SourceFile,
) (*domain.InspectionResult, error) {
	body, contentType, err := multipartBody(primary, reference, nil)
	if err != nil {
		return nil, err
	}

	var resp inspectResponse
	req := request{method: http.MethodPost, path: pathInspect, creds: creds, body: body, contentType: contentType}
	if err := c.doJSON(ctx, req, &resp); err != nil {
		return nil, err
	}
	return resp.toDomain()
}

// ListGenerators returns the generator catalog.
func (c *Client) ListGenerators(ctx context.Context, creds domain.Credentials) ([]domain.GeneratorDescriptor, error) {
	var resp generatorsResponse
	if err := c.doJSON(ctx, request{method: http.MethodGet, path: pathGenerators, creds: creds}, &resp); err != nil {
		return nil, err
	}

	generators := make([]domain.GeneratorDescriptor, 0, len(resp.Generators))
	for _, g := range resp.Generators {
		if g.ID == "" {
			logger.Debug("skipping generator without id: %q", g.Name)
			continue
		}
		name := g.Name
		if name == "" {
			name = string(g.ID)
		}
		generators = append(generators, domain.GeneratorDescriptor{
			ID:            string(g.ID),
			Name:          name,
			ExamplePrompt: g.ExamplePrompt,
		})
	}
	return generators, nil
}

// SubmitJob uploads the files and job parameters.
func (c *Client) SubmitJob(
	ctx context.Context,
	creds domain.Credentials,
	primary, reference domain.SourceFile,
	jobReq domain.JobRequest,
) (*driven.SubmitResult, error) {
	fields := [][2]string{
		{fieldUserPrompt, jobReq.UserPrompt},
		{fieldContextWindowSize, formatInt(jobReq.ContextWindowSize)},
		{fieldGeneratorID, jobReq.GeneratorID},
	}
	if jobReq.FewShotExamples != nil {
		fields = append(fields, [2]string{fieldFewShotExamples, *jobReq.FewShotExamples})
	}

	body, contentType, err := multipartBody(primary, reference, fields)
	if err != nil {
		return nil, err
	}

	var resp submitResponse
	req := request{method: http.MethodPost, path: pathSubmit, creds: creds, body: body, contentType: contentType}
	if err := c.doJSON(ctx, req, &resp); err != nil {
		return nil, err
	}
	if resp.JobID == "" {
		return nil, fmt.Errorf("%w: submit response has no job_id", domain.ErrUnexpectedResponse)
	}
	return &driven.SubmitResult{JobID: string(resp.JobID), Warnings: resp.Warnings}, nil
}

// JobStatus fetches the status of a job.
func (c *Client) JobStatus(ctx context.Context, creds domain.Credentials, jobID string) (*driven.JobStatusReport, error) {
	var resp jobStatusResponse
	req := request{method: http.MethodGet, path: pathJobStatus + "/" + url.PathEscape(jobID), creds: creds}
	if err := c.doJSON(ctx, req, &resp); err != nil {
		return nil, err
	}

	status, err := domain.ParseRemoteJobStatus(resp.Status)
	if err != nil {
		return nil, err
	}
	return &driven.JobStatusReport{
		Status:         status,
		Message:        resp.Message,
		Metrics:        resp.Metrics,
		OutputFilename: resp.OutputFilename,
		Warnings:       resp.Warnings,
	}, nil
}

// DownloadResult streams the processed file of a completed job to w.
func (c *Client) DownloadResult(ctx context.Context, creds domain.Credentials, jobID string, w io.Writer) (int64, error) {
	req := request{
		method: http.MethodGet,
		path:   pathDownload + "/" + url.PathEscape(jobID),
		creds:  creds,
		stream: true,
	}
	resp, cancel, err := c.do(ctx, req)
	if err != nil {
		return 0, err
	}
	defer cancel()
	defer resp.Body.Close()

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, fmt.Errorf("%w: download %s: %w", domain.ErrConnection, jobID, err)
	}
	return n, nil
}

// multipartBody encodes both files and any extra form fields. Each file
// part carries the content type of its role.
func multipartBody(primary, reference domain.SourceFile, fields [][2]string) (io.Reader, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	for _, f := range fields {
		if err := mw.WriteField(f[0], f[1]); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", f[0], err)
		}
	}
	if err := writeFilePart(mw, domain.FileRolePrimary, primary); err != nil {
		return nil, "", err
	}
	if err := writeFilePart(mw, domain.FileRoleReference, reference); err != nil {
		return nil, "", err
	}
	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart: %w", err)
	}
	return &buf, mw.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func writeFilePart(mw *multipart.Writer, role domain.FileRole, file domain.SourceFile) error {
	contentType := file.MIMEType
	if contentType == "" {
		contentType = role.MIMEType()
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		role.FormField(), quoteEscaper.Replace(file.Name)))
	header.Set("Content-Type", contentType)

	part, err := mw.CreatePart(header)
	if err != nil {
		return fmt.Errorf("create %s part: %w", role, err)
	}
	if _, err := part.Write(file.Data); err != nil {
		return fmt.Errorf("write %s part: %w", role, err)
	}
	return nil
}
