package obs

import (
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
)

// NewLogger configures an slog logger: JSON in production, tinted
// human-readable output in dev.
func NewLogger(env string) *slog.Logger {
	level := slog.LevelInfo
	var handler slog.Handler
	handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	if env == "dev" {
		handler = tint.NewHandler(os.Stdout, &tint.Options{Level: slog.LevelDebug})
	}
	return slog.New(handler)
}
