package main

import (
	"context"
	"log"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	"github.com/samirrijal/isstrack/internal/bootstrap"
	"github.com/samirrijal/isstrack/internal/pkg/config"
	"github.com/samirrijal/isstrack/internal/pkg/logging"
	"github.com/samirrijal/isstrack/internal/pkg/telemetry"
	"github.com/samirrijal/isstrack/internal/workflows"
)

func main() {
	cfg, err := config.Load("isstrack-refresher")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.Setup(cfg.Telemetry.ServiceName, cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.OTLPAddr)
		if err != nil {
			logger.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// The now check only needs the epoch, so the worker never calls the geocoder.
	rt, err := bootstrap.Build(ctx, cfg, logger, bootstrap.Options{NoGeocoder: true})
	if err != nil {
		log.Fatalf("bootstrap: %v", err)
	}
	defer rt.Close()

	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
		Logger:    logger,
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})
	w.RegisterWorkflow(workflows.RefreshFeedWorkflow)
	w.RegisterActivity(&workflows.RefreshActivities{Service: rt.Service})

	if cfg.Temporal.Schedule != "" {
		run, err := c.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
			ID:           workflows.ScheduledWorkflowID,
			TaskQueue:    cfg.Temporal.TaskQueue,
			CronSchedule: cfg.Temporal.Schedule,
		}, workflows.RefreshFeedWorkflow, workflows.RefreshInput{Reason: "cron"})
		if err != nil {
			logger.Warn("schedule refresh workflow", "error", err)
		} else {
			logger.Info("refresh scheduled", "cron", cfg.Temporal.Schedule, "workflowID", run.GetID(), "runID", run.GetRunID())
		}
	}

	logger.Info("refresh worker started", "taskQueue", cfg.Temporal.TaskQueue)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}
