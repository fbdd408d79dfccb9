package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"text/tabwriter"
	"time"

	"ewintr.nl/ytsum/handler"
	"ewintr.nl/ytsum/history"
	"ewintr.nl/ytsum/ingest"
	"ewintr.nl/ytsum/model"
	"github.com/gorilla/handlers"
	"github.com/robfig/cron/v3"
	"golang.org/x/exp/slog"
)

func cmdServe(ctx context.Context, a *app) error {
	proc, err := a.processor(ctx)
	if err != nil {
		return err
	}
	orch, err := a.orchestrator(ctx, proc)
	if err != nil {
		return err
	}
	view, err := history.NewView(ctx, a.store)
	if err != nil {
		return fmt.Errorf("unable to load history: %w", err)
	}
	var searcher handler.Searcher
	if a.mirror != nil {
		searcher = a.mirror
	}

	recovery := handlers.RecoveryHandler(handlers.PrintRecoveryStack(true))
	srv := &http.Server{
		Addr:        fmt.Sprintf(":%d", a.cfg.Port),
		Handler:     recovery(handler.NewServer(view, proc, searcher, orch, a.logger)),
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 60 * time.Second,
		// no write timeout, ingesting a playlist is answered synchronously
	}

	errc := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()
	a.logger.Info("http server started", slog.Int("port", a.cfg.Port))

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	a.logger.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	a.logger.Info("service stopped")

	return nil
}

func cmdSummarize(ctx context.Context, a *app, args []string, w io.Writer) error {
	if len(args) != 1 {
		return errors.New("expected exactly one link")
	}
	proc, err := a.processor(ctx)
	if err != nil {
		return err
	}

	video, err := proc.ProcessLink(ctx, args[0])
	if err != nil {
		return err
	}
	if err := a.store.Upsert(ctx, video); err != nil {
		return fmt.Errorf("could not save video: %w", err)
	}

	fmt.Fprintf(w, "%s\nby %s\n%s\n\n%s\n", video.Title, video.Author, video.URL, video.Summary)
	return nil
}

func cmdIngest(ctx context.Context, a *app, args []string, w io.Writer) error {
	flags := flag.NewFlagSet("ingest", flag.ContinueOnError)
	concurrency := flags.Int("c", a.cfg.Concurrency, "number of videos processed at the same time")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() != 1 {
		return errors.New("expected exactly one playlist")
	}
	if *concurrency <= 0 {
		return fmt.Errorf("%w: -c must be a positive number", ErrInvalidConfig)
	}

	proc, err := a.processor(ctx)
	if err != nil {
		return err
	}
	orch, err := a.orchestrator(ctx, proc)
	if err != nil {
		return err
	}

	start := time.Now()
	report, err := orch.Run(ctx, flags.Arg(0), *concurrency)
	if err != nil {
		return err
	}
	if err := ingest.WriteReport(w, report); err != nil {
		return err
	}
	fmt.Fprintf(w, "total time: %.2f seconds\n", time.Since(start).Seconds())

	return nil
}

func cmdList(ctx context.Context, a *app, w io.Writer) error {
	videos, err := a.store.List(ctx)
	if err != nil {
		return err
	}
	if len(videos) == 0 {
		fmt.Fprintln(w, "history is empty")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, v := range videos {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", v.CreatedAt.Local().Format(time.DateTime), v.ID, v.Title, v.Author)
	}

	return tw.Flush()
}

func cmdDelete(ctx context.Context, a *app, args []string, w io.Writer) error {
	if len(args) != 1 {
		return errors.New("expected exactly one video id")
	}
	deleted, err := a.store.Delete(ctx, model.YoutubeVideoID(args[0]))
	if err != nil {
		return err
	}
	if !deleted {
		fmt.Fprintf(w, "video %s is not in the history\n", args[0])
		return nil
	}

	fmt.Fprintf(w, "video %s deleted\n", args[0])
	return nil
}

func cmdClear(ctx context.Context, a *app, w io.Writer) error {
	if err := a.store.Clear(ctx); err != nil {
		return err
	}

	fmt.Fprintln(w, "history cleared")
	return nil
}

func cmdSchedule(ctx context.Context, a *app, args []string, w io.Writer) error {
	if len(args) != 1 {
		return errors.New("expected exactly one playlist")
	}
	proc, err := a.processor(ctx)
	if err != nil {
		return err
	}
	orch, err := a.orchestrator(ctx, proc)
	if err != nil {
		return err
	}

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(a.cfg.Schedule, func() {
		report, err := orch.Run(ctx, args[0], a.cfg.Concurrency)
		if err != nil {
			a.logger.Error("scheduled ingestion failed", slog.String("playlist", args[0]), slog.String("error", err.Error()))
			return
		}
		if err := ingest.WriteReport(w, report); err != nil {
			a.logger.Warn("could not write report", slog.String("error", err.Error()))
		}
	}); err != nil {
		return fmt.Errorf("%w: invalid SCHEDULE %q: %w", ErrInvalidConfig, a.cfg.Schedule, err)
	}

	c.Start()
	a.logger.Info("scheduler started", slog.String("schedule", a.cfg.Schedule), slog.String("playlist", args[0]))
	<-ctx.Done()
	<-c.Stop().Done()
	a.logger.Info("scheduler stopped")

	return nil
}
