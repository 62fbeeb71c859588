package components

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/hbomb79/vidinfo/internal/api/util"
	"github.com/hbomb79/vidinfo/internal/ui"
	"github.com/hbomb79/vidinfo/pkg/logger"
	"github.com/labstack/echo/v4"
)

type (
	// Dto is the response used by endpoints that return
	// the components of the host.
	Dto struct {
		Id       uuid.UUID    `json:"id"`
		Kind     ui.Kind      `json:"kind"`
		Label    string       `json:"label"`
		Triggers []ui.Trigger `json:"triggers"`
	}

	UploadResponse struct {
		Component *Dto   `json:"component"`
		Path      string `json:"path"`
	}

	Host interface {
		Components() []*ui.Component
		Component(uuid.UUID) (*ui.Component, bool)
	}

	// Controller defines the routes which let HTTP clients act as the
	// user of the host: listing its components and uploading files to them.
	Controller struct {
		host      Host
		uploadDir string
	}
)

var controllerLogger = logger.Get("ComponentsController")

// FormField is the multipart field carrying the uploaded file.
const FormField = "file"

// New creates the controller. Uploaded files are stored inside uploadDir,
// which is created on demand.
func New(host Host, uploadDir string) *Controller {
	return &Controller{host: host, uploadDir: uploadDir}
}

func (controller *Controller) SetRoutes(eg *echo.Group) {
	eg.GET("/", controller.list)
	eg.GET("/:id/", controller.get)
	eg.POST("/:id/upload/", controller.upload)
}

func (controller *Controller) list(ec echo.Context) error {
	return ec.JSON(http.StatusOK, util.ApplyConversion(controller.host.Components(), NewDto))
}

func (controller *Controller) get(ec echo.Context) error {
	comp, err := controller.component(ec)
	if err != nil {
		return err
	}

	return ec.JSON(http.StatusOK, NewDto(comp))
}

// upload stores the multipart file and delivers it to the component in the
// same shape the host would for a user upload. Handlers bound to the
// component run before the response is written.
func (controller *Controller) upload(ec echo.Context) error {
	comp, err := controller.component(ec)
	if err != nil {
		return err
	}

	if !acceptsFiles(comp.Kind()) {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, fmt.Sprintf("Component of kind %s does not accept files", comp.Kind()))
	}

	header, err := ec.FormFile(FormField)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Multipart field '%s' is required", FormField))
	}

	path, err := controller.store(header.Filename, func() (io.ReadCloser, error) { return header.Open() })
	if err != nil {
		controllerLogger.Emit(logger.ERROR, "Failed to store upload %s for %s: %v\n", header.Filename, comp, err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to store uploaded file")
	}

	controllerLogger.Emit(logger.NEW, "Received %s for %s, stored at %s\n", header.Filename, comp, path)
	record := ui.FileRecord(header.Filename, path)
	if comp.Supports(ui.UploadTrigger) {
		comp.ReceiveUpload(record)
	} else {
		comp.SetValue(ui.Sequence{record})
	}

	return ec.JSON(http.StatusOK, UploadResponse{Component: NewDto(comp), Path: path})
}

func (controller *Controller) component(ec echo.Context) (*ui.Component, error) {
	id, err := uuid.Parse(ec.Param("id"))
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "Component ID is not a valid UUID")
	}

	comp, ok := controller.host.Component(id)
	if !ok {
		return nil, echo.NewHTTPError(http.StatusNotFound)
	}

	return comp, nil
}

// store copies the upload into a fresh directory inside the upload dir,
// keeping the base of the original file name so the extension survives.
func (controller *Controller) store(name string, open func() (io.ReadCloser, error)) (path string, err error) {
	if err := os.MkdirAll(controller.uploadDir, 0o755); err != nil {
		return "", err
	}

	dir, err := os.MkdirTemp(controller.uploadDir, "upload-")
	if err != nil {
		return "", err
	}
	defer func() {
		if err != nil {
			os.RemoveAll(dir)
		}
	}()

	base := filepath.Base(filepath.Clean("/" + name))
	if base == "/" || base == "." {
		base = "upload"
	}

	src, err := open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	path = filepath.Join(dir, base)
	dst, err := os.Create(path)
	if err != nil {
		return "", err
	}

	if _, err = io.Copy(dst, src); err != nil {
		dst.Close()
		return "", err
	}

	if err = dst.Close(); err != nil {
		return "", err
	}

	return path, nil
}
