package api

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/hbomb79/vidinfo/internal/api/components"
	"github.com/hbomb79/vidinfo/internal/autohook"
	"github.com/hbomb79/vidinfo/internal/http/websocket"
	"github.com/hbomb79/vidinfo/pkg/logger"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/mitchellh/go-homedir"
)

var log = logger.Get("API")

type (
	RestConfig struct {
		HostAddr string `yaml:"host_address" env:"VIDINFO_API_HOST_ADDR" env-default:"127.0.0.1:8080" validate:"hostname_port"`

		// Directory uploaded files are written to. Defaults to a
		// directory inside the system temp dir.
		UploadDir string `yaml:"upload_dir" env:"VIDINFO_API_UPLOAD_DIR"`
	}

	controller interface {
		SetRoutes(*echo.Group)
	}

	// summarySource is satisfied by the autohook, which publishes a
	// summary for every upload it probes.
	summarySource interface {
		Subscribe(func(autohook.Summary))
	}

	// The RestGateway is a thin-wrapper around the Echo HTTP router. It exposes the
	// components of a UI host so files can be uploaded to them over HTTP, and streams
	// the resulting video summaries to websocket clients.
	RestGateway struct {
		*broadcaster
		config              *RestConfig
		ec                  *echo.Echo
		socket              *websocket.SocketHub
		componentController controller
	}
)

// NewRestGateway constructs the Echo router and populates it with the routes
// for the host provided. Summaries published by the source are broadcast to
// the activity feed.
func NewRestGateway(config *RestConfig, host components.Host, source summarySource) *RestGateway {
	ec := echo.New()
	ec.OnAddRouteHandler = func(host string, route echo.Route, handler echo.HandlerFunc, middleware []echo.MiddlewareFunc) {
		log.Emit(logger.DEBUG, "Registered new route %s %s\n", route.Method, route.Path)
	}
	ec.HidePort = true
	ec.HideBanner = true

	socket := websocket.New()
	gateway := &RestGateway{
		broadcaster:         newBroadcaster(socket, host),
		config:              config,
		ec:                  ec,
		socket:              socket,
		componentController: components.New(host, uploadDir(config.UploadDir)),
	}
	socket.WithConnectionCallback(gateway.connectionPayload)
	if source != nil {
		source.Subscribe(gateway.BroadcastSummary)
	}

	ec.Use(middleware.Logger())
	ec.Use(middleware.Recover())
	ec.Pre(middleware.AddTrailingSlash())

	ec.GET("/api/vidinfo/v1/activity/ws/", func(ec echo.Context) error {
		gateway.socket.UpgradeToSocket(ec.Response(), ec.Request())
		return nil
	})

	comps := ec.Group("/api/vidinfo/v1/components")
	gateway.componentController.SetRoutes(comps)

	return gateway
}

// Handler exposes the router, allowing the gateway to be served by
// something other than Run (such as an httptest server).
func (gateway *RestGateway) Handler() *echo.Echo {
	return gateway.ec
}

func (gateway *RestGateway) Run(parentCtx context.Context) error {
	ctx, ctxCancel := context.WithCancelCause(parentCtx)
	wg := &sync.WaitGroup{}

	// Start echo router
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Emit(logger.SUCCESS, "Listening on %s\n", gateway.config.HostAddr)
		if err := gateway.ec.Start(gateway.config.HostAddr); err != nil {
			ctxCancel(err)
		}
	}()

	// Start thread to listen for context cancellation
	go func(ec *echo.Echo) {
		<-ctx.Done()
		ec.Close()
	}(gateway.ec)

	// Start websocket
	wg.Add(1)
	go func() {
		defer wg.Done()
		gateway.socket.Start(ctx)
	}()

	wg.Wait()

	// Return cancellation cause if any, otherwise nil as parent context
	// cancellation is not an error case we should report.
	if cause := context.Cause(ctx); cause != ctx.Err() {
		return cause
	}

	return nil
}

func uploadDir(configured string) string {
	if configured == "" {
		return filepath.Join(os.TempDir(), "vidinfo-uploads")
	}

	if expanded, err := homedir.Expand(configured); err == nil {
		return expanded
	}

	return configured
}
