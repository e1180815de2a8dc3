package application

import "log/slog"

// ModuleName is the "module" attribute on every engine log line.
const ModuleName = "campaign-orchestration/orchestration-engine"

// ResolveLogger falls back to the process logger when none was wired.
func ResolveLogger(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}

// LayerLogger pre-binds the module and layer attributes.
func LayerLogger(logger *slog.Logger, layer string) *slog.Logger {
	return ResolveLogger(logger).With("module", ModuleName, "layer", layer)
}
