// Package logx wraps zerolog behind a small structured-logging API.
//
// Components receive a Logger value and log through Field helpers
// (logx.String, logx.Int, ...). Loggers created from a Service stay live
// across Service.Apply() calls, so the log level and sinks can change at
// runtime (config hot reload) without re-plumbing loggers through the app.
package logx
