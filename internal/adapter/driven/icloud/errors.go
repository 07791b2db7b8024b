package icloud

import (
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"

	"icloudctl/internal/domain/model"
)

// mapRemoteStatus translates a resty response (or transport error) into the
// RemoteError taxonomy. Returns nil for 2xx responses.
//
// 421 is the provider's "authentication refresh required" status and maps to
// Unauthorized alongside 401/403 so the gateway's single renew-and-retry
// covers it.
func mapRemoteStatus(resp *resty.Response, err error) error {
	if err != nil {
		return model.NewRemoteError(model.RemoteTransient, err)
	}
	if resp == nil {
		return model.NewRemoteError(model.RemoteTransient, fmt.Errorf("no response"))
	}

	code := resp.StatusCode()
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusUnauthorized, code == http.StatusForbidden, code == http.StatusMisdirectedRequest:
		return model.NewRemoteError(model.RemoteUnauthorized, fmt.Errorf("status %d", code))
	case code == http.StatusNotFound:
		return model.NewRemoteError(model.RemoteNotFound, fmt.Errorf("status %d", code))
	case code == http.StatusTooManyRequests:
		return model.NewRemoteError(model.RemoteRateLimited, fmt.Errorf("status %d", code))
	case code >= 500:
		return model.NewRemoteError(model.RemoteTransient, fmt.Errorf("status %d", code))
	default:
		return model.NewRemoteError(model.RemoteMalformed, fmt.Errorf("unexpected status %d", code))
	}
}

// malformed wraps a response decoding failure.
func malformed(what string, err error) error {
	return model.NewRemoteError(model.RemoteMalformed, fmt.Errorf("decode %s: %w", what, err))
}
