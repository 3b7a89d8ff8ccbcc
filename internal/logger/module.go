package logger

import "go.uber.org/fx"

// Module wires the slog logger into fx graphs.
var Module = fx.Provide(New)
