// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// Each user session gets its own set of service instances; there is no
// package-level state. Network calls are never made while holding a lock.
package services
