// Package logging points the standard logger at stderr and, optionally, a rotating file.
package logging

import (
	"io"
	"log"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"

	"server-kidnap/internal/config"
)

// Setup configures the global logger. The returned closer flushes the log file, if any.
func Setup(cfg *config.Config) io.Closer {
	log.SetFlags(log.LstdFlags)

	if cfg.LogFile == "" {
		log.SetOutput(os.Stderr)
		return nopCloser{}
	}

	file := &lumberjack.Logger{
		Filename:   cfg.LogFile,
		MaxSize:    cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		Compress:   true,
	}
	log.SetOutput(io.MultiWriter(os.Stderr, file))
	log.Printf("[INFO] Logging to %s (max %dMB, %d backups)", cfg.LogFile, cfg.LogMaxSizeMB, cfg.LogMaxBackups)
	return file
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
