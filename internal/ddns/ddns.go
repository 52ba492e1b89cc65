// Package ddns implements the periodic DDNS updater (C8): every 60
// seconds, if a URL is configured, issue an idempotent GET and log the
// outcome without ever blocking other components on it. Grounded on the
// pack's spotify-playlist-dataset project, the one example retrieved that
// issues a bare GET via go-resty.
package ddns

import (
	"context"
	"log"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/agersant/polaris/internal/config"
)

const (
	tickInterval  = 60 * time.Second
	requestTimeout = 30 * time.Second
)

// Loop runs the DDNS update ticker until ctx is canceled. It re-reads the
// configured URL from cfg on every tick, so a config reload that changes
// or clears ddns_url takes effect without restarting the loop.
func Loop(ctx context.Context, cfg *config.Manager) {
	client := resty.New().SetTimeout(requestTimeout)
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runOnce(ctx, client, cfg)
		}
	}
}

func runOnce(ctx context.Context, client *resty.Client, cfg *config.Manager) {
	file, _ := cfg.Current()
	if file == nil || file.DDNSURL == "" {
		return
	}
	resp, err := client.R().SetContext(ctx).Get(file.DDNSURL)
	if err != nil {
		log.Printf("ddns: update request failed: %v", err)
		return
	}
	log.Printf("ddns: update request to %s returned status %d", file.DDNSURL, resp.StatusCode())
}
