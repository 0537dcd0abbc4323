package httpapi

import (
	"log"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// zlog is an optional structured logger. If unset, falls back to log.Printf.
var zlog *zerolog.Logger

// SetLogger installs a structured logger used by the HTTP layer.
func SetLogger(l zerolog.Logger) { zlog = &l }

// LogLevel controls per-request logging behavior.
type LogLevel int

const (
	LevelOff LogLevel = iota
	LevelError
	LevelWarn
	LevelInfo
	LevelDebug
)

func parseLevel(s string) LogLevel {
	switch s {
	case "off", "":
		return LevelOff
	case "error":
		return LevelError
	case "warn", "warning":
		return LevelWarn
	case "info":
		return LevelInfo
	case "debug":
		return LevelDebug
	default:
		return LevelInfo
	}
}

// global default, read once
var defaultLogLevel = parseLevel(os.Getenv("HISTOSCAN_LOG_LEVEL"))

// SetDefaultLogLevel overrides the level used when a request carries none.
func SetDefaultLogLevel(s string) { defaultLogLevel = parseLevel(s) }

func requestLogLevel(r *http.Request) LogLevel {
	// Per-request overrides
	if v := r.URL.Query().Get("log"); v != "" {
		if v == "1" {
			return LevelDebug
		}
		return parseLevel(v)
	}
	if v := r.Header.Get("X-Log-Level"); v != "" {
		return parseLevel(v)
	}
	return defaultLogLevel
}

// logPredictEnd records the outcome of one /predict request.
func logPredictEnd(r *http.Request, lvl LogLevel, status int, start time.Time, err error) {
	if lvl == LevelOff || (lvl < LevelInfo && err == nil) {
		return
	}
	if zlog == nil {
		log.Printf("predict end status=%d dur=%s err=%v", status, time.Since(start), err)
		return
	}
	ev := zlog.Info()
	if err != nil && status >= 500 {
		ev = zlog.Error()
	}
	ev = ev.Int("status", status).Dur("dur", time.Since(start))
	if rid := middleware.GetReqID(r.Context()); rid != "" {
		ev = ev.Str("request_id", rid)
	}
	if err != nil {
		ev = ev.Err(err)
	}
	ev.Msg("predict end")
}

// logf writes an unstructured line at lvl when the default level allows it.
func logf(lvl LogLevel, format string, args ...any) {
	if defaultLogLevel < lvl {
		return
	}
	if zlog != nil {
		zlog.WithLevel(lvl.zerologLevel()).Msgf(format, args...)
		return
	}
	log.Printf(format, args...)
}

func (l LogLevel) zerologLevel() zerolog.Level {
	switch l {
	case LevelError:
		return zerolog.ErrorLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelDebug:
		return zerolog.DebugLevel
	default:
		return zerolog.InfoLevel
	}
}
