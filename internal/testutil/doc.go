// Package testutil contains helper builders used across tests to reduce
// boilerplate when constructing execution contexts, tool contexts and
// scripted engines. Not intended for production usage.
package testutil
