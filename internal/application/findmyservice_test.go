package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"icloudctl/internal/domain/model"
)

func newTestFindMyService(t *testing.T, client *mockCloudClient) (*FindMyService, *mockCacheStore, *mockSyncStateStore) {
	t.Helper()
	sm, creds, sessions := newTestSessionManager(client)
	seedRenewableAccount(t, creds, sessions)
	cache := newMockCacheStore()
	states := newMockSyncStateStore()
	return NewFindMyService(NewGateway(client, sm), cache, states, "user@example.com"), cache, states
}

func testDevices() []model.Device {
	return []model.Device{
		{ID: "d1", Name: "Work iPhone", HasLocation: true, Latitude: 37.33, Longitude: -122.01},
		{ID: "d2", Name: "Personal iPhone"},
		{ID: "d3", Name: "iPad"},
	}
}

func TestDevices_CachedAndSorted(t *testing.T) {
	svc, cache, _ := newTestFindMyService(t, &mockCloudClient{})
	seedCache(t, cache, model.DomainFindMy, testDevices(), func(d model.Device) string { return d.ID })

	devices, err := svc.Devices(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, devices, 3)
	assert.Equal(t, "Personal iPhone", devices[0].Name)
	assert.Equal(t, "Work iPhone", devices[1].Name)
	assert.Equal(t, "iPad", devices[2].Name)
}

func TestDevices_SyncedEmptyDomainSkipsRemote(t *testing.T) {
	client := &mockCloudClient{
		listDevices: func(_ context.Context, _ *model.Session) ([]model.Device, error) {
			t.Fatal("a synced-but-empty snapshot must be served without a network call")
			return nil, nil
		},
	}
	svc, _, states := newTestFindMyService(t, client)
	require.NoError(t, states.RecordSuccess(context.Background(), model.DomainFindMy, 0))

	devices, err := svc.Devices(context.Background(), false)
	require.NoError(t, err)
	assert.Empty(t, devices)
}

func TestLocate_ExactMatchBeatsPartial(t *testing.T) {
	devices := append(testDevices(), model.Device{ID: "d4", Name: "iPhone"})
	client := &mockCloudClient{
		listDevices: func(_ context.Context, _ *model.Session) ([]model.Device, error) {
			return devices, nil
		},
	}
	svc, _, _ := newTestFindMyService(t, client)

	device, err := svc.Locate(context.Background(), "iPhone")
	require.NoError(t, err)
	assert.Equal(t, "d4", device.ID, "exact name wins over substring matches")
}

func TestLocate_UniquePartialMatch(t *testing.T) {
	client := &mockCloudClient{
		listDevices: func(_ context.Context, _ *model.Session) ([]model.Device, error) {
			return testDevices(), nil
		},
	}
	svc, _, _ := newTestFindMyService(t, client)

	device, err := svc.Locate(context.Background(), "work")
	require.NoError(t, err)
	assert.Equal(t, "d1", device.ID)
}

func TestLocate_AmbiguousAndMissing(t *testing.T) {
	client := &mockCloudClient{
		listDevices: func(_ context.Context, _ *model.Session) ([]model.Device, error) {
			return testDevices(), nil
		},
	}
	svc, _, _ := newTestFindMyService(t, client)

	_, err := svc.Locate(context.Background(), "iphone")
	assert.ErrorContains(t, err, "ambiguous")

	_, err = svc.Locate(context.Background(), "watch")
	assert.ErrorContains(t, err, "no device matching")
}

func TestPlaySound_ResolvesByName(t *testing.T) {
	played := ""
	client := &mockCloudClient{
		listDevices: func(_ context.Context, _ *model.Session) ([]model.Device, error) {
			return testDevices(), nil
		},
		playSound: func(_ context.Context, _ *model.Session, deviceID string) error {
			played = deviceID
			return nil
		},
	}
	svc, _, _ := newTestFindMyService(t, client)

	device, err := svc.PlaySound(context.Background(), "iPad")
	require.NoError(t, err)
	assert.Equal(t, "d3", device.ID)
	assert.Equal(t, "d3", played)
}

func TestLostMode_RequiresPhone(t *testing.T) {
	svc, _, _ := newTestFindMyService(t, &mockCloudClient{})

	_, err := svc.LostMode(context.Background(), "iPad", "", "please call")
	assert.ErrorContains(t, err, "phone number is required")
}

func TestMapsURL(t *testing.T) {
	located := &model.Device{HasLocation: true, Latitude: 37.33, Longitude: -122.01}
	assert.Contains(t, MapsURL(located), "maps.apple.com")

	unlocated := &model.Device{}
	assert.Empty(t, MapsURL(unlocated))
}
