// Command pkmgradegap runs the catalog/marketplace/pricing pipeline once,
// or on a recurring schedule with --cron.
package main

import (
	"flag"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/pkmgraad/pipeline/internal/config"
	"github.com/pkmgraad/pipeline/internal/pipeline"
)

func main() {
	cronExpr := flag.String("cron", "", "run on this cron schedule instead of once and exiting (overrides CRON_SCHEDULE)")
	flag.Parse()

	cfg := config.Load()
	if *cronExpr != "" {
		cfg.CronSchedule = *cronExpr
	}

	driver, err := pipeline.New(cfg)
	if err != nil {
		log.Fatalf("pkmgradegap: init driver: %v", err)
	}

	if cfg.CronSchedule == "" {
		if err := driver.Run(time.Now()); err != nil {
			log.Fatalf("pkmgradegap: run: %v", err)
		}
		return
	}

	runSchedule(driver, cfg.CronSchedule)
}

func runSchedule(driver *pipeline.Driver, schedule string) {
	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		if err := driver.Run(time.Now()); err != nil {
			log.Printf("pkmgradegap: scheduled run failed: %v", err)
		}
	})
	if err != nil {
		log.Fatalf("pkmgradegap: invalid cron schedule %q: %v", schedule, err)
	}

	log.Printf("pkmgradegap: running on schedule %q", schedule)
	c.Run()
}
