// launching the controller, drop folder, control surface, session backend
package appServer

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/ds124wfegd/mri-uploader/config"
	"github.com/ds124wfegd/mri-uploader/internal/controller"
	"github.com/ds124wfegd/mri-uploader/internal/database"
	"github.com/ds124wfegd/mri-uploader/internal/filesource"
	"github.com/ds124wfegd/mri-uploader/internal/navigation"
	"github.com/ds124wfegd/mri-uploader/internal/pkg/kafka"
	"github.com/ds124wfegd/mri-uploader/internal/pkg/predict"
	"github.com/ds124wfegd/mri-uploader/internal/pkg/probe"
	"github.com/ds124wfegd/mri-uploader/internal/pkg/redis"
	"github.com/ds124wfegd/mri-uploader/internal/pkg/storage"
	"github.com/ds124wfegd/mri-uploader/internal/service"
	"github.com/ds124wfegd/mri-uploader/internal/transport"
	"github.com/ds124wfegd/mri-uploader/internal/uistate"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type Server struct {
	httpServer *http.Server
}

func (s *Server) Run(cfg *config.Config, handler http.Handler) error {
	s.httpServer = &http.Server{
		Addr:              cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:           handler,
		MaxHeaderBytes:    1 << 20,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       cfg.Server.Idle_timeout,
		ReadHeaderTimeout: 3 * time.Second,
		TLSConfig:         &tls.Config{MinVersion: tls.VersionTLS12},
		ErrorLog:          log.New(os.Stderr, "SERVER ERROR: ", log.LstdFlags),
	}
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// App is one uploader tab with everything it talks to.
type App struct {
	cfg        *config.Config
	TabID      string
	Session    database.SessionStorage
	Controller *controller.Controller
	View       *uistate.View
	Service    service.UploadService

	closers []func() error
}

// NewApp builds the tab from cfg. Close releases the backends it opened.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{cfg: cfg, TabID: database.NewTabID()}
	entry := logrus.WithField("tab_id", a.TabID)

	session, err := a.newSession(ctx)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("session storage: %w", err)
	}
	a.Session = session

	a.View = uistate.NewView()
	a.Controller = controller.New(controller.Deps{
		Prober: probe.NewImageProbe(probe.Options{
			ThumbnailSize:  cfg.Probe.ThumbnailSize,
			MaxPreviewSide: cfg.Probe.MaxPreviewSide,
		}),
		Predictor: predict.NewClient(predict.Options{
			BaseURL:   cfg.Predict.BaseURL,
			Path:      cfg.Predict.Path,
			FieldName: cfg.Predict.FieldName,
			Timeout:   cfg.Predict.Timeout,
		}),
		Session:    session,
		Navigator:  a.newNavigator(),
		Renderer:   uistate.Tee(a.View, uistate.NewLogRenderer(entry)),
		Log:        entry,
		ResultPath: cfg.Navigation.ResultPath,
	})
	a.Service = service.NewUploadService(a.Controller, a.View)
	return a, nil
}

func (a *App) newSession(ctx context.Context) (database.SessionStorage, error) {
	switch a.cfg.Session.Backend {
	case "", "memory":
		return database.NewMemorySession(), nil
	case "file":
		return database.NewFileSession(storage.NewFileStorage(a.cfg.Session.Dir), a.TabID), nil
	case "redis":
		client, err := redis.NewRedisClient(ctx, &a.cfg.Redis)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, client.Close)
		return database.NewRedisSession(client, a.TabID, a.cfg.Session.TTL), nil
	}
	return nil, fmt.Errorf("unknown session backend %q", a.cfg.Session.Backend)
}

func (a *App) newNavigator() navigation.Navigator {
	if a.cfg.Navigation.Mode != "kafka" {
		return navigation.NewLogNavigator(a.cfg.Navigation.BaseURL)
	}
	producer := kafka.NewProducer(a.cfg.Navigation.Brokers, a.cfg.Navigation.Topic)
	a.closers = append(a.closers, producer.Close)
	return navigation.NewPublishNavigator(producer, a.TabID, a.cfg.Navigation.BaseURL)
}

// Run drives the tab until it navigates away or ctx ends. The drop folder and
// the control surface run alongside when configured.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if a.cfg.Watch.Dir != "" {
		folder := filesource.NewDropFolder(a.cfg.Watch.Dir, a.Service.DropZone(), a.cfg.Watch.Settle)
		go func() {
			if err := folder.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logrus.WithError(err).Error("drop folder stopped")
			}
		}()
	}

	if a.cfg.Server.Enabled {
		if a.cfg.Server.Mode == "release" {
			gin.SetMode(gin.ReleaseMode)
		}
		srv := new(Server)
		go func() {
			if err := srv.Run(a.cfg, transport.InitRoutes(transport.NewUploadHandler(a.Service))); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logrus.Errorf("error occured while running http server: %s", err.Error())
			}
		}()
		defer func() {
			shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
			defer stop()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logrus.Errorf("error occured on server shutting down: %s", err.Error())
			}
		}()
		logrus.WithField("port", a.cfg.Server.Port).Print("Control surface started")
	}

	return a.Controller.Run(ctx)
}

func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			logrus.WithError(err).Warn("close failed")
		}
	}
	a.closers = nil
}

// SetupLogging switches logrus to JSON at the configured level.
func SetupLogging(cfg *config.Config) {
	logrus.SetFormatter(new(logrus.JSONFormatter))
	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		logrus.WithError(err).Warn("unknown log level, using info")
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
}
