// Package ov holds the object views exchanged with API clients.
package ov

import (
	"github.com/fs-bullard/sl-wb-pi-api/pkg/utils/ps"
)

type CaptureRequest struct {
	// Optional; the current default exposure is used when omitted.
	ExposureMS *int `json:"exposure_ms"`
}

type Settings struct {
	ExposureMS int `json:"exposure_ms" binding:"required"`
}

type Health struct {
	Status string `json:"status"`
	Device string `json:"device"`
}

type CameraInfo struct {
	Model         string `json:"model"`
	SensorType    string `json:"sensorType"`
	Interface     string `json:"interface"`
	MaxWidth      int    `json:"maxWidth"`
	MaxHeight     int    `json:"maxHeight"`
	PixelSize     int    `json:"pixelSize"`
	ExposureMinMS int    `json:"exposureMinMs"`
	ExposureMaxMS int    `json:"exposureMaxMs"`
	BufferBytes   int    `json:"bufferBytes"`
}

type SystemStatus struct {
	APIVersion    string    `json:"apiVersion"`
	UptimeSeconds int64     `json:"uptimeSeconds"`
	CPU           ps.CPU    `json:"cpu"`
	Memory        ps.Memory `json:"memory"`
	Disk          ps.Disk   `json:"disk"`
	ClockSynced   bool      `json:"clockSynced"`
	ClockOffsetMS int64     `json:"clockOffsetMs"`
	ArchiveSize   string    `json:"archiveSize,omitempty"`
}
