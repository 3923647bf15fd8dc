package logsvc

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/trezcool/portal/core"
)

// ZeroLogger writes structured lines through zerolog.
type ZeroLogger struct {
	zl zerolog.Logger
}

var _ core.Logger = (*ZeroLogger)(nil)

func NewZeroLogger(zl zerolog.Logger) *ZeroLogger {
	return &ZeroLogger{zl: zl}
}

// Discard drops everything; used by tests and tools that do not log.
func Discard() *ZeroLogger {
	return NewZeroLogger(zerolog.Nop())
}

// NewOutput builds the zerolog logger described by conf: stdout (json or console) plus,
// when conf.File is set, a size-rotated file. The returned closer releases the file.
func NewOutput(conf core.LogConfig, appName string) (zerolog.Logger, io.Closer, error) {
	level, err := zerolog.ParseLevel(strings.ToLower(conf.Level))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	var stdout io.Writer = os.Stdout
	if conf.Format == "console" {
		stdout = zerolog.ConsoleWriter{Out: os.Stdout}
	}

	var closer io.Closer = nopCloser{}
	out := stdout
	if conf.File != "" {
		if err := os.MkdirAll(filepath.Dir(conf.File), 0755); err != nil {
			return zerolog.Nop(), closer, errors.Wrapf(err, "logsvc.MkdirAll(%s)", conf.File)
		}
		file := &lumberjack.Logger{
			Filename:   conf.File,
			MaxSize:    conf.MaxSizeMB,
			MaxBackups: conf.MaxBackups,
			MaxAge:     conf.MaxAgeDays,
			Compress:   true,
		}
		out = zerolog.MultiLevelWriter(stdout, file)
		closer = file
	}

	zl := zerolog.New(out).Level(level).With().Timestamp().Str("app", appName).Logger()
	return zl, closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// expected args: error, map[string]interface{}, core.Identity; anything else is logged with %+v
func (l *ZeroLogger) write(evt *zerolog.Event, msg string, args []interface{}) {
	if evt == nil {
		return
	}
	var extra []string
	for _, arg := range args {
		switch a := arg.(type) {
		case error:
			evt = evt.Err(a)
		case map[string]interface{}:
			evt = evt.Fields(a)
		case core.Identity:
			evt = evt.Str("user_id", a.ID).Str("user_role", a.Role)
		case nil:
		default:
			extra = append(extra, fmt.Sprintf("%+v", a))
		}
	}
	if len(extra) > 0 {
		evt = evt.Strs("extra", extra)
	}
	evt.Msg(msg)
}

func (l *ZeroLogger) Debug(msg string, args ...interface{}) { l.write(l.zl.Debug(), msg, args) }
func (l *ZeroLogger) Info(msg string, args ...interface{})  { l.write(l.zl.Info(), msg, args) }
func (l *ZeroLogger) Warn(msg string, args ...interface{})  { l.write(l.zl.Warn(), msg, args) }
func (l *ZeroLogger) Error(msg string, args ...interface{}) { l.write(l.zl.Error(), msg, args) }

// Fatal logs and exits the process.
func (l *ZeroLogger) Fatal(msg string, args ...interface{}) {
	l.write(l.zl.WithLevel(zerolog.FatalLevel), msg, args)
	os.Exit(1)
}
