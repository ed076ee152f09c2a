// Package log provides the logging surface shared by every pipeline
// component.
//
// Components accept a Logger and fall back to the package-level default,
// so callers that do not care about logging never have to construct one:
//
//	pipe := ingest.NewPipeline(deps)           // uses log.GetDefaultLogger()
//	pipe = ingest.NewPipeline(deps,
//		ingest.WithLogger(log.NewGologLogger(golog.Default)))
//
// The default logger writes to stderr at info level. Use SetDefaultLogger
// or SetLogLevel to change it process-wide, or a NoOpLogger to silence a
// single component in tests.
package log
