package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ds124wfegd/mri-uploader/config"
	"github.com/ds124wfegd/mri-uploader/internal/appServer"
	"github.com/ds124wfegd/mri-uploader/internal/controller"
	"github.com/ds124wfegd/mri-uploader/internal/database"
	"github.com/ds124wfegd/mri-uploader/internal/entity"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
)

func main() {
	flags := pflag.NewFlagSet("uploader", pflag.ExitOnError)
	configPath := flags.String("config", "", "path to config.yaml (default $UPLOADER_CONFIG, then ./config/config.yaml)")
	file := flags.StringP("file", "f", "", "image to select on start")
	submit := flags.Bool("submit", false, "submit the selected image once it validates")
	flags.String("predict-url", "", "prediction service base URL")
	flags.String("session", "", "session storage backend: memory, file or redis")
	flags.String("navigation", "", "navigation mode: log or kafka")
	flags.String("watch", "", "folder to treat as a drop surface")
	flags.Bool("serve", false, "start the HTTP control surface")
	flags.String("port", "", "control surface port")
	flags.String("log-level", "", "log level")
	flags.Parse(os.Args[1:])

	logrus.SetFormatter(new(logrus.JSONFormatter))

	v, err := config.LoadConfigFile(*configPath)
	if err != nil {
		logrus.Fatalf("error loading config: %s", err.Error())
	}
	if err := config.BindFlags(v, flags); err != nil {
		logrus.Fatalf("error binding flags: %s", err.Error())
	}
	cfg, err := config.ParseConfig(v)
	if err != nil {
		logrus.Fatalf("error parsing config: %s", err.Error())
	}
	appServer.SetupLogging(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	app, err := appServer.NewApp(ctx, cfg)
	if err != nil {
		logrus.Fatalf("error starting uploader: %s", err.Error())
	}
	defer app.Close()

	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()
	logrus.WithFields(logrus.Fields{"tab_id": app.TabID, "version": cfg.Server.AppVersion}).Print("App Started")

	if *file != "" {
		if err := selectAndSubmit(ctx, app, *file, *submit); err != nil {
			logrus.WithError(err).Error("upload did not complete")
		}
		// one-shot run: nothing else can drive the tab
		if !cfg.Server.Enabled && cfg.Watch.Dir == "" {
			stop()
		}
	}

	err = <-done
	if err != nil && !errors.Is(err, context.Canceled) {
		logrus.WithError(err).Error("uploader stopped")
	}
	if err == nil {
		printResults(app)
	}
	logrus.Print("App Shutting Down")
}

// selectAndSubmit drives one pass of the flow from the command line.
func selectAndSubmit(ctx context.Context, app *appServer.App, path string, submit bool) error {
	if err := app.Service.PickPaths(path); err != nil {
		return err
	}
	st, err := app.Service.Wait(ctx, controller.Settled)
	if err != nil {
		return err
	}
	if st.State != entity.StateValid {
		return errors.New(st.Reason)
	}
	if !submit {
		return nil
	}

	if err := app.Service.Submit(); err != nil {
		return err
	}
	st, err = app.Service.Wait(ctx, controller.Settled)
	if errors.Is(err, entity.ErrNavigatedAway) {
		return nil
	}
	if err != nil {
		return err
	}
	if st.State == entity.StateSubmissionFailed {
		return errors.New(st.Reason)
	}
	return nil
}

func printResults(app *appServer.App) {
	payload, err := database.TakeResults(context.Background(), app.Session)
	if err != nil {
		logrus.WithError(err).Warn("no results handed off")
		return
	}
	fmt.Println(payload)
}
