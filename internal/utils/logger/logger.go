package logger

import (
	"io"
	"os"

	"planner/internal/app/server/config"

	"golang.org/x/exp/slog"
	"gopkg.in/natefinch/lumberjack.v2"
)

type options struct {
	file  string
	level string
}

// Option дополнительная настройка логгера
type Option func(*options)

// WithFile дублирует вывод в файл с ротацией
func WithFile(path string) Option {
	return func(o *options) {
		o.file = path
	}
}

// WithLevel переопределяет уровень по умолчанию для окружения
func WithLevel(level string) Option {
	return func(o *options) {
		o.level = level
	}
}

// New создает логгер в зависимости от окружения:
// local - цветной вывод, dev - JSON с debug, prod - JSON с info
func New(env string, opts ...Option) *slog.Logger {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	var out io.Writer = os.Stdout
	if o.file != "" {
		out = io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   o.file,
			MaxSize:    50,
			MaxBackups: 5,
			MaxAge:     14,
			Compress:   true,
		})
	}

	var log *slog.Logger
	switch env {
	case config.EnvLocal:
		log = slog.New(newPrettyHandler(out, parseLevel(o.level, slog.LevelDebug)))
	case config.EnvDev:
		log = slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: parseLevel(o.level, slog.LevelDebug)}))
	default:
		log = slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: parseLevel(o.level, slog.LevelInfo)}))
	}

	return log
}

func setupPrettySlog() *slog.Logger {
	return slog.New(newPrettyHandler(os.Stdout, slog.LevelDebug))
}

func parseLevel(level string, fallback slog.Level) slog.Level {
	if level == "" {
		return fallback
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return fallback
	}
	return l
}
