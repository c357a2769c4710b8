// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - AuthAPI: Login, registration, token verification and logout
//   - InspectionAPI: Server-side validation of the two source files
//   - GeneratorAPI: The catalog of generation profiles
//   - JobAPI: Job submission, status polling and result download
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
//   - HealthAPI: Remote service status. Only used by the status command.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
