package logger

import (
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
)

// Console writes human-readable logs through charmbracelet/log
type Console struct {
	logger *log.Logger
}

// ConsoleParams configures a Console backend
type ConsoleParams struct {
	Level  string // debug, info, warn, error; default info
	Output io.Writer
}

// NewConsole creates a console backend writing to stderr unless
// params.Output is set
func NewConsole(params ConsoleParams) *Console {
	out := params.Output
	if out == nil {
		out = os.Stderr
	}
	return &Console{
		logger: log.NewWithOptions(out, log.Options{
			ReportTimestamp: true,
			Level:           ParseLevel(params.Level),
		}),
	}
}

// ParseLevel maps a level name to a log level, defaulting to info
func ParseLevel(s string) log.Level {
	level, err := log.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		return log.InfoLevel
	}
	return level
}

func (c *Console) Debug(message string, keyvals ...any) { c.logger.Debug(message, keyvals...) }
func (c *Console) Info(message string, keyvals ...any)  { c.logger.Info(message, keyvals...) }
func (c *Console) Warn(message string, keyvals ...any)  { c.logger.Warn(message, keyvals...) }
func (c *Console) Error(message string, keyvals ...any) { c.logger.Error(message, keyvals...) }
func (c *Console) Fatal(message string, keyvals ...any) { c.logger.Fatal(message, keyvals...) }
