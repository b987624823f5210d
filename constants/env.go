// Package constants holds the small set of names shared across main.go,
// cmd, config and otelinit that would otherwise have to be kept in sync by
// hand: the binary's name and the ambient env vars its CLI reads. The
// worker process ABI env vars (TRAOJUDGE_EXEC_SCRIPT and friends) live next
// to the code that defines their meaning instead (schema/registered,
// judgeservice), not here.
package constants

// AppName names the binary and, by convention, the on-disk config file
// (AppName + "." + ConfigFileExtension).
const AppName = "traojudge"

// ConfigFileExtension is the extension of the config file config.Load
// searches for.
const ConfigFileExtension = "toml"

const (
	EnvLogLevel           = "TRAOJUDGE_LOG_LEVEL"
	EnvDebug              = "TRAOJUDGE_DEBUG"
	EnvOtelEnabled        = "TRAOJUDGE_OTEL_ENABLED"
	EnvOtelEndpoint       = "TRAOJUDGE_OTEL_ENDPOINT"
	EnvOtelProtocol       = "TRAOJUDGE_OTEL_PROTOCOL"
	EnvOtelTraceExecution = "TRAOJUDGE_OTEL_TRACE_EXECUTION"
)
