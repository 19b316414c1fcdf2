// Package suites names the repository's test runs.
//
// Each Suite is a set of Go packages plus the build tags and environment
// they need. The txspec run command turns a Suite into a `go test`
// invocation with Args and Env.
package suites
