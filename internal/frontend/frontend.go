// Package frontend launches the companion React dev server as a child
// process.
package frontend

import (
	"fmt"
	"log"
	"os"
	"os/exec"
	"time"

	"github.com/authhub-io/authhub/internal/config"
)

// Start runs `npm run dev` in the configured front-end directory, retrying
// up to MaxRetries times. The API address is handed to the front-end via
// REACT_APP_API_URL. An attempt counts as failed if the process exits
// before CommandTimeout elapses; a process still running at the timeout is
// considered started.
func Start(cfg *config.Config) error {
	env := append(os.Environ(), "REACT_APP_API_URL="+cfg.APIURL())
	timeout := time.Duration(cfg.Frontend.CommandTimeout) * time.Second
	retryDelay := time.Duration(cfg.Frontend.RetryDelay) * time.Second

	for attempt := 1; attempt <= cfg.Frontend.MaxRetries; attempt++ {
		cmd := exec.Command("npm", "run", "dev")
		cmd.Dir = cfg.Frontend.Dir
		cmd.Env = env

		if err := cmd.Start(); err != nil {
			log.Printf("Failed to start frontend (attempt %d/%d): %v", attempt, cfg.Frontend.MaxRetries, err)
			if attempt < cfg.Frontend.MaxRetries {
				time.Sleep(retryDelay)
			}
			continue
		}

		done := make(chan error, 1)
		go func() { done <- cmd.Wait() }()

		select {
		case err := <-done:
			log.Printf("Frontend exited early (attempt %d/%d): %v", attempt, cfg.Frontend.MaxRetries, err)
			if attempt < cfg.Frontend.MaxRetries {
				time.Sleep(retryDelay)
			}
		case <-time.After(timeout):
			log.Printf("Frontend started successfully at %s", cfg.FrontendURL())
			return nil
		}
	}

	return fmt.Errorf("failed to start frontend after %d attempts", cfg.Frontend.MaxRetries)
}
