package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"
	"github.com/vincent-vinf/go-jsend"
	"go.uber.org/zap"

	"github.com/fs-bullard/sl-wb-pi-api/pkg/archive"
	"github.com/fs-bullard/sl-wb-pi-api/pkg/camera"
	"github.com/fs-bullard/sl-wb-pi-api/pkg/clock"
	"github.com/fs-bullard/sl-wb-pi-api/pkg/ov"
	"github.com/fs-bullard/sl-wb-pi-api/pkg/utils"
	"github.com/fs-bullard/sl-wb-pi-api/pkg/utils/ps"
	"github.com/fs-bullard/sl-wb-pi-api/pkg/webdav"
	"github.com/fs-bullard/sl-wb-pi-api/pkg/xdtusb"
)

const (
	apiVersion  = "1.0.0"
	cameraModel = "SL-1510"
)

var (
	port       = flag.Int("port", 5000, "api port")
	webdavPort = flag.Int("webdav-port", 5001, "webdav port for the frame archive")
	archiveDir = flag.String("dir", "./frames", "frame archive directory, empty to disable")
	ntpServer  = flag.String("ntp", clock.DefaultServer, "ntp server for capture timestamps")
	simulate   = flag.Bool("sim", false, "use the simulated camera instead of the xdtusb hardware")

	logger *zap.SugaredLogger

	sess     *camera.Session
	coord    *camera.Coordinator
	settings *camera.Settings
	clk      *clock.Clock
	arch     *archive.Archive
	dav      *webdav.Webdav

	startTime = time.Now()
)

func init() {
	logger = utils.GetLogger()
	flag.Parse()
}

func main() {
	defer logger.Sync()
	var err error

	sdk, err := newSDK()
	if err != nil {
		logger.Fatal(err)
	}
	sess, err = camera.Open(sdk)
	if err != nil {
		logger.Fatal(err)
	}
	coord = camera.NewCoordinator(sess)
	defer func() {
		if err := coord.Shutdown(); err != nil {
			logger.Warnf("close camera: %s", err)
		}
	}()

	settings = camera.NewSettings()

	clk = clock.New(*ntpServer)
	go func() {
		if err := clk.Sync(); err != nil {
			logger.Warnf("ntp sync: %s", err)
		}
	}()

	if *archiveDir != "" {
		arch, err = archive.New(*archiveDir)
		if err != nil {
			logger.Fatal(err)
		}
		dav = webdav.New(context.Background(), *webdavPort, *archiveDir)
		defer dav.Stop()
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(utils.Cors())
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, jsend.SimpleErr("endpoint not found"))
	})

	apiRouter := r.Group("/api")

	cameraRouter := apiRouter.Group("/camera")
	cameraRouter.POST("/capture", capture)
	cameraRouter.GET("/health", health)
	cameraRouter.GET("/info", cameraInfo)
	cameraRouter.GET("/settings", getSettings)
	cameraRouter.PUT("/settings", updateSettings)
	cameraRouter.POST("/shutdown", shutdownCamera)

	apiRouter.GET("/system/status", systemStatus)
	apiRouter.PUT("/device/webdav", ctlWebdav)

	if arch != nil {
		archiveRouter := apiRouter.Group("/archive")
		archiveRouter.GET("/frames", listFrames)
		archiveRouter.GET("/frames/latest", latestFrame)
		archiveRouter.GET("/frames/:name", getFrame)
	}

	logger.Infof("%s capture api %s serving on :%d", cameraModel, apiVersion, *port)
	utils.ListenAndServe(r, *port)
}

func newSDK() (xdtusb.SDK, error) {
	if *simulate {
		logger.Info("using simulated camera")
		return xdtusb.NewSim(), nil
	}
	return xdtusb.NewHardwareSDK()
}

// capture acquires one frame and streams it back as raw little-endian
// uint16 samples, with the frame geometry in response headers.
func capture(c *gin.Context) {
	var req ov.CaptureRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, jsend.SimpleErr("invalid request body"))
			return
		}
	}
	exposureMS := settings.ExposureMS()
	if req.ExposureMS != nil {
		exposureMS = *req.ExposureMS
	}

	view, err := coord.Capture(exposureMS)
	if err != nil {
		captureErr(c, err)
		return
	}
	capturedAt := clk.Now()

	// The view borrows the capture buffer and only stays valid until the
	// next capture; copy before anything can overlap with the response
	// write.
	payload := make([]byte, view.ValidLength)
	copy(payload, view.Bytes)

	if arch != nil {
		saved := view
		saved.Bytes = payload
		if _, err := arch.Save(saved, exposureMS, capturedAt); err != nil {
			logger.Warnf("archive frame: %s", err)
		}
	}

	c.Header("X-Frame-Width", strconv.Itoa(view.Width))
	c.Header("X-Frame-Height", strconv.Itoa(view.Height))
	c.Header("X-Pixel-Size", strconv.Itoa(view.PixelSize))
	c.Header("X-Exposure-Ms", strconv.Itoa(exposureMS))
	c.Header("X-Camera-Timestamp", capturedAt.Format(time.RFC3339))
	c.Data(http.StatusOK, "application/octet-stream", payload)
}

func captureErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, camera.ErrInvalidExposure):
		c.JSON(http.StatusBadRequest, jsend.SimpleErr(err.Error()))
	case errors.Is(err, camera.ErrBusy), errors.Is(err, camera.ErrTimeout):
		// Transient: the client may retry.
		c.JSON(http.StatusServiceUnavailable, jsend.SimpleErr(err.Error()))
	default:
		c.JSON(http.StatusInternalServerError, jsend.SimpleErr(err.Error()))
	}
}

func health(c *gin.Context) {
	if sess.IsReady() {
		c.JSON(http.StatusOK, jsend.Success(ov.Health{Status: "ready", Device: "connected"}))
		return
	}
	c.JSON(http.StatusServiceUnavailable, jsend.SimpleErr("device not initialized"))
}

func cameraInfo(c *gin.Context) {
	width, height := sess.MaxSize()
	c.JSON(http.StatusOK, jsend.Success(ov.CameraInfo{
		Model:         cameraModel,
		SensorType:    "CMOS",
		Interface:     "USB 2.0",
		MaxWidth:      width,
		MaxHeight:     height,
		PixelSize:     xdtusb.PixelSize,
		ExposureMinMS: camera.MinExposureMS,
		ExposureMaxMS: camera.MaxExposureMS,
		BufferBytes:   sess.BufferCapacity(),
	}))
}

func getSettings(c *gin.Context) {
	c.JSON(http.StatusOK, jsend.Success(ov.Settings{ExposureMS: settings.ExposureMS()}))
}

func updateSettings(c *gin.Context) {
	var s ov.Settings
	if err := c.Bind(&s); err != nil {
		return
	}
	if err := settings.SetExposureMS(s.ExposureMS); err != nil {
		c.JSON(http.StatusBadRequest, jsend.SimpleErr(err.Error()))
		return
	}
	c.JSON(http.StatusOK, jsend.Success(ov.Settings{ExposureMS: settings.ExposureMS()}))
}

func shutdownCamera(c *gin.Context) {
	if err := coord.Shutdown(); err != nil {
		internalErr(c, err)
		return
	}
	c.JSON(http.StatusOK, jsend.Success("device shutdown complete"))
}

func systemStatus(c *gin.Context) {
	cpu, err := ps.CPUStatus()
	if err != nil {
		internalErr(c, err)
		return
	}
	memory, err := ps.MemoryStatus()
	if err != nil {
		internalErr(c, err)
		return
	}
	disk, err := ps.DiskStatus("/")
	if err != nil {
		internalErr(c, err)
		return
	}

	offset, synced := clk.Offset()
	status := ov.SystemStatus{
		APIVersion:    apiVersion,
		UptimeSeconds: int64(time.Since(startTime).Seconds()),
		CPU:           cpu,
		Memory:        memory,
		Disk:          disk,
		ClockSynced:   synced,
		ClockOffsetMS: offset.Milliseconds(),
	}
	if arch != nil {
		if size, err := arch.TotalSize(); err == nil {
			status.ArchiveSize = humanize.Bytes(uint64(size))
		}
	}

	c.JSON(http.StatusOK, jsend.Success(status))
}

func ctlWebdav(c *gin.Context) {
	if dav == nil {
		c.JSON(http.StatusBadRequest, jsend.SimpleErr("archive disabled, webdav unavailable"))
		return
	}
	switch c.Query("op") {
	case "start":
		dav.Start()
		c.JSON(http.StatusOK, jsend.Success(c.Request.Host))
	case "shutdown":
		dav.Stop()
		c.JSON(http.StatusOK, jsend.Success(nil))
	default:
		c.JSON(http.StatusBadRequest, jsend.SimpleErr("unknown operation"))
	}
}

func listFrames(c *gin.Context) {
	entries, err := arch.List()
	if err != nil {
		internalErr(c, err)
		return
	}
	c.JSON(http.StatusOK, jsend.Success(entries))
}

func latestFrame(c *gin.Context) {
	meta, data, err := arch.Latest()
	if err != nil {
		c.JSON(http.StatusNotFound, jsend.SimpleErr(err.Error()))
		return
	}
	serveFrame(c, meta, data)
}

func getFrame(c *gin.Context) {
	meta, data, err := arch.Frame(c.Param("name"))
	if err != nil {
		c.JSON(http.StatusNotFound, jsend.SimpleErr(err.Error()))
		return
	}
	serveFrame(c, meta, data)
}

func serveFrame(c *gin.Context, meta archive.Meta, data []byte) {
	c.Header("X-Frame-Width", strconv.Itoa(meta.Width))
	c.Header("X-Frame-Height", strconv.Itoa(meta.Height))
	c.Header("X-Pixel-Size", strconv.Itoa(meta.PixelSize))
	c.Header("X-Exposure-Ms", strconv.Itoa(meta.ExposureMS))
	c.Header("X-Camera-Timestamp", meta.CapturedAt.Format(time.RFC3339))
	c.Data(http.StatusOK, "application/octet-stream", data)
}

func internalErr(c *gin.Context, err error) {
	c.JSON(http.StatusInternalServerError, jsend.SimpleErr(err.Error()))
}
