// /internal/storage/history_trimmer.go
package storage

import (
	"context"
	"log"
	"time"
)

// RunHistoryTrimmer runs a background goroutine that re-bounds every room's
// command history every hour until ctx is done. Call from main or app
// lifecycle.
func RunHistoryTrimmer(ctx context.Context, store *Storage) {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := store.TrimHistories(); err != nil {
				log.Println("[ERR] Error trimming command histories:", err)
			}
		}
	}
}
