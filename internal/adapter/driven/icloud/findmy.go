package icloud

import (
	"context"
	"encoding/json"
	"time"

	"icloudctl/internal/domain/model"
)

// wireDevice is the Find My service's device record. Location timestamps are
// epoch milliseconds; battery level is a 0..1 fraction.
type wireDevice struct {
	ID                string  `json:"id"`
	Name              string  `json:"name"`
	DeviceDisplayName string  `json:"deviceDisplayName"`
	DeviceStatus      string  `json:"deviceStatus"`
	BatteryLevel      float64 `json:"batteryLevel"`
	Location          *struct {
		Latitude           float64 `json:"latitude"`
		Longitude          float64 `json:"longitude"`
		HorizontalAccuracy float64 `json:"horizontalAccuracy"`
		TimeStamp          int64   `json:"timeStamp"`
	} `json:"location"`
}

type refreshClientResponse struct {
	Content []wireDevice `json:"content"`
}

// ListDevices returns all devices on the account with their last reported
// state and location.
func (c *Client) ListDevices(ctx context.Context, sess *model.Session) ([]model.Device, error) {
	base, err := serviceURL(sess, "findme")
	if err != nil {
		return nil, err
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetCookies(restyCookies(sess)).
		SetBody(map[string]any{
			"clientContext": map[string]any{"fmly": true, "shouldLocate": true},
		}).
		Post(base + "/fmipservice/client/web/refreshClient")
	if err := mapRemoteStatus(resp, err); err != nil {
		return nil, err
	}

	var out refreshClientResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return nil, malformed("device list", err)
	}

	devices := make([]model.Device, 0, len(out.Content))
	for _, wd := range out.Content {
		devices = append(devices, deviceFromWire(wd))
	}
	return devices, nil
}

// PlaySound plays the locate sound on a device.
func (c *Client) PlaySound(ctx context.Context, sess *model.Session, deviceID string) error {
	base, err := serviceURL(sess, "findme")
	if err != nil {
		return err
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetCookies(restyCookies(sess)).
		SetBody(map[string]any{
			"device":  deviceID,
			"subject": "Find My iPhone Alert",
		}).
		Post(base + "/fmipservice/client/web/playSound")
	return mapRemoteStatus(resp, err)
}

// LostMode locks a device in lost mode with a contact number and message.
func (c *Client) LostMode(ctx context.Context, sess *model.Session, deviceID, phone, message string) error {
	base, err := serviceURL(sess, "findme")
	if err != nil {
		return err
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetCookies(restyCookies(sess)).
		SetBody(map[string]any{
			"device":       deviceID,
			"ownerNbr":     phone,
			"text":         message,
			"lostModeType": "enable",
		}).
		Post(base + "/fmipservice/client/web/lostDevice")
	return mapRemoteStatus(resp, err)
}

func deviceFromWire(wd wireDevice) model.Device {
	dev := model.Device{
		ID:           wd.ID,
		Name:         wd.Name,
		Model:        wd.DeviceDisplayName,
		Status:       wd.DeviceStatus,
		BatteryLevel: wd.BatteryLevel,
	}
	if wd.Location != nil {
		dev.HasLocation = true
		dev.Latitude = wd.Location.Latitude
		dev.Longitude = wd.Location.Longitude
		dev.Accuracy = wd.Location.HorizontalAccuracy
		if wd.Location.TimeStamp > 0 {
			dev.LocatedAt = time.UnixMilli(wd.Location.TimeStamp).UTC()
		}
	}
	return dev
}
