package driving

import "context"

// StatusService reports on the remote analysis service.
type StatusService interface {
	// Check calls the service and reports whether it answered.
	// Connection failures are reported in the status, not as an error.
	Check(ctx context.Context) ServiceStatus
}

// ServiceStatus is the outcome of a status check.
type ServiceStatus struct {
	// APIURL is the base URL that was checked.
	APIURL string
	// Reachable is true when the service answered.
	Reachable bool
	// Version is empty when the service did not report one.
	Version string
	// Err is the failure when Reachable is false.
	Err error
}
