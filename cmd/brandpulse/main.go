package main

import (
	"context"
	"flag"
	"log"
	"strings"
	"time"

	"brandpulse/cmd/internal/bootstrap"
)

func main() {
	brandsFlag := flag.String("brands", "", "comma-separated brand names (empty = all configured)")
	everyFlag := flag.Duration("every", 0, "rerun interval (0 = run once and exit)")
	flag.Parse()

	ctx := context.Background()
	app, err := bootstrap.New(ctx)
	if err != nil {
		log.Fatal("failed to initialize:", err)
	}

	var brands []string
	if *brandsFlag != "" {
		for _, name := range strings.Split(*brandsFlag, ",") {
			if name = strings.TrimSpace(name); name != "" {
				brands = append(brands, name)
			}
		}
	}

	runOnce := func() {
		result := app.Orchestrator.Run(ctx, brands)
		if result.IsEmpty() {
			app.Log.Warn("run produced no snapshot")
			return
		}
		app.Log.Infof("results saved to: %s", result.SnapshotLocator)
	}

	runOnce()
	if *everyFlag <= 0 {
		return
	}

	ticker := time.NewTicker(*everyFlag)
	defer ticker.Stop()
	for range ticker.C {
		runOnce()
	}
}
