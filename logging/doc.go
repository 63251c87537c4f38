// Package logging wraps slog behind the minimal Logger interface the rest of
// campaignmesh accepts. New builds the process logger; WithComponent scopes
// it per subsystem, and LogToolCall and LogModelCall keep the recurring call
// records uniform.
package logging
