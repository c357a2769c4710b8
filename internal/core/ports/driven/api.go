package driven

import (
	"context"
	"io"
	"time"

	"github.com/custodia-labs/insightgen-cli/internal/core/domain"
)

// Error contract for every method below:
//   - transport failures wrap domain.ErrConnection
//   - non-2xx responses are returned as *domain.APIError
//   - payloads that violate the response schema wrap domain.ErrUnexpectedResponse

// AuthAPI talks to the authentication endpoints.
type AuthAPI interface {
	// Login exchanges a username and password for an access token.
	Login(ctx context.Context, username, password string) (*LoginResult, error)

	// Register creates an account. It does not authenticate.
	Register(ctx context.Context, profile domain.RegistrationProfile) error

	// Verify checks whether the token in creds is still accepted.
	Verify(ctx context.Context, creds domain.Credentials) (*VerifyResult, error)

	// Logout tells the server to end the session for creds.
	Logout(ctx context.Context, creds domain.Credentials) error
}

// LoginResult is a successful login response.
type LoginResult struct {
	// AccessToken is the bearer token.
	AccessToken string

	// User is the authenticated account.
	User domain.User

	// ExpiresAt is the token expiry; zero when the token does not say.
	ExpiresAt time.Time
}

// VerifyResult is the token verification response.
type VerifyResult struct {
	Authenticated bool

	// User is nil when the server did not include it.
	User *domain.User
}

// InspectionAPI validates a pair of source files.
type InspectionAPI interface {
	// InspectFiles sends both files in a single multipart request.
	InspectFiles(
		ctx context.Context,
		creds domain.Credentials,
		primary, reference domain.SourceFile,
	) (*domain.InspectionResult, error)
}

// GeneratorAPI lists generation profiles.
type GeneratorAPI interface {
	// ListGenerators returns the server's generator catalog.
	ListGenerators(ctx context.Context, creds domain.Credentials) ([]domain.GeneratorDescriptor, error)
}

// JobAPI submits and tracks generation jobs.
type JobAPI interface {
	// SubmitJob uploads the files with the request's form fields.
	SubmitJob(
		ctx context.Context,
		creds domain.Credentials,
		primary, reference domain.SourceFile,
		req domain.JobRequest,
	) (*SubmitResult, error)

	// JobStatus fetches the current server status. It is idempotent.
	JobStatus(ctx context.Context, creds domain.Credentials, jobID string) (*JobStatusReport, error)

	// DownloadResult streams the processed file to w and returns the
	// number of bytes written.
	DownloadResult(ctx context.Context, creds domain.Credentials, jobID string, w io.Writer) (int64, error)
}

// SubmitResult is a successful submission response.
type SubmitResult struct {
	JobID    string
	Warnings []string
}

// JobStatusReport is a parsed job status response. Optional fields the
// server omitted are nil.
type JobStatusReport struct {
	Status         domain.JobStatus
	Message        *string
	Metrics        *domain.JobMetrics
	OutputFilename *string
	Warnings       []string
}

// HealthAPI reports remote service status.
type HealthAPI interface {
	// Health calls the service root endpoint.
	Health(ctx context.Context) (*ServiceInfo, error)
}

// ServiceInfo describes the remote service.
type ServiceInfo struct {
	// Version is empty when the server did not report one.
	Version string
}

// RemoteAPI aggregates every remote endpoint group.
type RemoteAPI interface {
	AuthAPI
	InspectionAPI
	GeneratorAPI
	JobAPI
	HealthAPI
}
