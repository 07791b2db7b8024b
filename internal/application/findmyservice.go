package application

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"icloudctl/internal/domain/model"
	"icloudctl/internal/domain/port/driven"
)

// FindMyService locates devices on the account. Location data goes stale
// quickly, so Locate and the action methods always hit the remote account;
// only the plain device list is served from cache.
type FindMyService struct {
	gw        *Gateway
	cache     driven.CacheStore
	states    driven.SyncStateStore
	accountID string
}

// NewFindMyService creates a FindMyService for the given account.
func NewFindMyService(gw *Gateway, cache driven.CacheStore, states driven.SyncStateStore, accountID string) *FindMyService {
	return &FindMyService{gw: gw, cache: cache, states: states, accountID: accountID}
}

// Devices returns the account's devices sorted by name. With live set, or
// when the domain has never synced, the list is fetched from the remote
// account; a synced-but-empty snapshot is served as-is.
func (s *FindMyService) Devices(ctx context.Context, live bool) ([]model.Device, error) {
	var devices []model.Device
	var err error

	if live {
		devices, err = s.gw.ListDevices(ctx, s.accountID)
	} else {
		devices, err = readCached[model.Device](ctx, s.cache, model.DomainFindMy)
		if err == nil && len(devices) == 0 && !hasSynced(ctx, s.states, model.DomainFindMy) {
			devices, err = s.gw.ListDevices(ctx, s.accountID)
		}
	}
	if err != nil {
		return nil, err
	}

	sort.Slice(devices, func(i, j int) bool { return devices[i].Name < devices[j].Name })
	return devices, nil
}

// Locate fetches a fresh location for the named device. The name matches
// a device exactly first, then falls back to a unique case-insensitive
// substring match.
func (s *FindMyService) Locate(ctx context.Context, name string) (*model.Device, error) {
	devices, err := s.gw.ListDevices(ctx, s.accountID)
	if err != nil {
		return nil, err
	}
	return resolveDevice(devices, name)
}

// PlaySound plays a sound on the named device.
func (s *FindMyService) PlaySound(ctx context.Context, name string) (*model.Device, error) {
	device, err := s.Locate(ctx, name)
	if err != nil {
		return nil, err
	}
	if err := s.gw.PlaySound(ctx, s.accountID, device.ID); err != nil {
		return nil, err
	}
	return device, nil
}

// LostMode puts the named device into lost mode with a contact number and
// a message to display on its lock screen.
func (s *FindMyService) LostMode(ctx context.Context, name, phone, message string) (*model.Device, error) {
	if phone == "" {
		return nil, fmt.Errorf("contact phone number is required")
	}

	device, err := s.Locate(ctx, name)
	if err != nil {
		return nil, err
	}
	if err := s.gw.LostMode(ctx, s.accountID, device.ID, phone, message); err != nil {
		return nil, err
	}
	return device, nil
}

// MapsURL returns a maps link for a located device, or "" when the device
// has no location fix.
func MapsURL(device *model.Device) string {
	if !device.HasLocation {
		return ""
	}
	return fmt.Sprintf("https://maps.apple.com/?ll=%f,%f", device.Latitude, device.Longitude)
}

func resolveDevice(devices []model.Device, name string) (*model.Device, error) {
	for _, dev := range devices {
		if dev.Name == name {
			return &dev, nil
		}
	}

	needle := strings.ToLower(name)
	var matches []model.Device
	for _, dev := range devices {
		if strings.Contains(strings.ToLower(dev.Name), needle) {
			matches = append(matches, dev)
		}
	}

	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("no device matching %q", name)
	case 1:
		return &matches[0], nil
	default:
		names := make([]string, len(matches))
		for i, dev := range matches {
			names[i] = dev.Name
		}
		return nil, fmt.Errorf("ambiguous device name %q matches: %s", name, strings.Join(names, ", "))
	}
}
