// Package toolset groups the capabilities bound to the campaign agents. Each
// sub-package exposes tool constructors named after the tools they build;
// external collaborators are reached through internal/httpx clients so every
// call shares the configured rate limit and timeout.
package toolset
