package infra

import (
	"context"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
)

const checkExecInterval = 5 * time.Second

// WatchExecutable fires once when the running binary is replaced on disk, so a
// deploy that swaps the file triggers a clean shutdown.
func WatchExecutable(ctx context.Context) <-chan struct{} {
	exeFilename, err := os.Executable()
	if err != nil {
		log.WithField("error", err.Error()).Warn("cant resolve executable path for monitor")
		return make(chan struct{})
	}
	return watchFile(ctx, exeFilename, checkExecInterval)
}

func watchFile(ctx context.Context, path string, interval time.Duration) <-chan struct{} {
	ch := make(chan struct{}, 1)
	stat, err := os.Stat(path)
	if err != nil {
		log.WithField("error", err.Error()).Warn("cant stat file for monitor")
		return ch
	}
	originalTime := stat.ModTime()

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				stat, err := os.Stat(path)
				if err != nil {
					continue
				}
				if !originalTime.Equal(stat.ModTime()) {
					ch <- struct{}{}
					return
				}
			}
		}
	}()
	return ch
}
