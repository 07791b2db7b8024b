// Package icloud implements the CloudClient port against the iCloud web API:
// the idmsa auth endpoint family for sign-in and second-factor verification,
// the setup endpoint for session finalization and validation, and the
// per-account web service endpoints for domain data.
package icloud

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"icloudctl/internal/domain/model"
	"icloudctl/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.CloudClient = (*Client)(nil)

const (
	defaultAuthBaseURL  = "https://idmsa.apple.com/appleauth/auth"
	defaultSetupBaseURL = "https://setup.icloud.com/setup/ws/1"
	defaultTimeout      = 30 * time.Second
)

// Client talks to the iCloud web API. It holds no per-account state: every
// call receives an explicit *model.Session carrying tokens and cookies.
type Client struct {
	http      *resty.Client
	authBase  string
	setupBase string
	clientID  string // stable per-install OAuth client id (UUID)
}

// Options configures a Client. Zero values select production endpoints; the
// base URLs exist so tests can point the client at an httptest server.
type Options struct {
	AuthBaseURL  string
	SetupBaseURL string
	ClientID     string
	Timeout      time.Duration
	HTTPClient   *http.Client
}

// NewClient creates a Client for the iCloud web API.
func NewClient(opts Options) *Client {
	if opts.AuthBaseURL == "" {
		opts.AuthBaseURL = defaultAuthBaseURL
	}
	if opts.SetupBaseURL == "" {
		opts.SetupBaseURL = defaultSetupBaseURL
	}
	if opts.ClientID == "" {
		opts.ClientID = uuid.NewString()
	}
	if opts.Timeout == 0 {
		opts.Timeout = defaultTimeout
	}

	rc := resty.New()
	if opts.HTTPClient != nil {
		rc = resty.NewWithClient(opts.HTTPClient)
	}
	// Error mapping is done per call; resty's own retry stays off so the
	// sync engine owns the retry policy.
	rc.SetTimeout(opts.Timeout).
		SetHeader("Origin", "https://www.icloud.com").
		SetHeader("Referer", "https://www.icloud.com/").
		SetHeader("Content-Type", "application/json")

	return &Client{
		http:      rc,
		authBase:  opts.AuthBaseURL,
		setupBase: opts.SetupBaseURL,
		clientID:  opts.ClientID,
	}
}

// signInRequest is the idmsa signin payload.
type signInRequest struct {
	AccountName string   `json:"accountName"`
	Password    string   `json:"password"`
	RememberMe  bool     `json:"rememberMe"`
	TrustTokens []string `json:"trustTokens"`
}

// SignIn performs primary authentication. A 409 from the auth endpoint means
// the account requires a second-factor code; the returned session then
// carries the challenge scope and must be completed with SubmitCode.
// Passing a trust token from an earlier TrustDevice call lets the provider
// skip the challenge, which is how silent renewal works.
func (c *Client) SignIn(ctx context.Context, accountID, password, trustToken string) (*model.Session, bool, error) {
	body := signInRequest{
		AccountName: accountID,
		Password:    password,
		RememberMe:  true,
		TrustTokens: []string{},
	}
	if trustToken != "" {
		body.TrustTokens = []string{trustToken}
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeaders(c.authHeaders()).
		SetBody(body).
		Post(c.authBase + "/signin")
	if err != nil {
		return nil, false, model.NewAuthError(model.AuthNetworkError, err)
	}

	sess := &model.Session{
		AccountID:    accountID,
		SessionToken: resp.Header().Get("X-Apple-Session-Token"),
		SessionID:    resp.Header().Get("X-Apple-ID-Session-Id"),
		Scnt:         resp.Header().Get("scnt"),
		IssuedAt:     time.Now().UTC(),
	}

	switch resp.StatusCode() {
	case http.StatusOK:
		if err := c.finalize(ctx, sess, trustToken); err != nil {
			return nil, false, err
		}
		sess.Trusted = trustToken != ""
		return sess, false, nil
	case http.StatusConflict:
		// Second factor required; the challenge code was pushed to the
		// user's trusted devices by the provider.
		return sess, true, nil
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, false, model.NewAuthError(model.AuthInvalidCredentials,
			fmt.Errorf("signin rejected with status %d", resp.StatusCode()))
	default:
		return nil, false, model.NewAuthError(model.AuthNetworkError,
			fmt.Errorf("unexpected signin status %d", resp.StatusCode()))
	}
}

// submitCodeRequest is the idmsa securitycode payload.
type submitCodeRequest struct {
	SecurityCode struct {
		Code string `json:"code"`
	} `json:"securityCode"`
}

// SubmitCode submits the 6-digit second-factor code for a pending challenge
// and finalizes the session on success.
func (c *Client) SubmitCode(ctx context.Context, sess *model.Session, code string) error {
	var body submitCodeRequest
	body.SecurityCode.Code = code

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeaders(c.authHeaders()).
		SetHeader("X-Apple-ID-Session-Id", sess.SessionID).
		SetHeader("scnt", sess.Scnt).
		SetBody(body).
		Post(c.authBase + "/verify/trusteddevice/securitycode")
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return model.NewAuthError(model.AuthChallengeTimeout, err)
		}
		return model.NewAuthError(model.AuthNetworkError, err)
	}

	switch resp.StatusCode() {
	case http.StatusOK, http.StatusNoContent:
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden:
		return model.NewAuthError(model.AuthChallengeRejected,
			fmt.Errorf("security code rejected with status %d", resp.StatusCode()))
	default:
		return model.NewAuthError(model.AuthNetworkError,
			fmt.Errorf("unexpected securitycode status %d", resp.StatusCode()))
	}

	if tok := resp.Header().Get("X-Apple-Session-Token"); tok != "" {
		sess.SessionToken = tok
	}
	return c.finalize(ctx, sess, "")
}

// TrustDevice asks the provider to trust this client. The returned trust
// token is what makes later renewals silent; the session manager persists it.
func (c *Client) TrustDevice(ctx context.Context, sess *model.Session) (string, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeaders(c.authHeaders()).
		SetHeader("X-Apple-ID-Session-Id", sess.SessionID).
		SetHeader("scnt", sess.Scnt).
		Get(c.authBase + "/2sv/trust")
	if err != nil {
		return "", model.NewAuthError(model.AuthNetworkError, err)
	}
	if resp.StatusCode() != http.StatusOK && resp.StatusCode() != http.StatusNoContent {
		return "", model.NewAuthError(model.AuthNetworkError,
			fmt.Errorf("unexpected trust status %d", resp.StatusCode()))
	}

	token := resp.Header().Get("X-Apple-TwoSV-Trust-Token")
	if token == "" {
		return "", model.NewAuthError(model.AuthNetworkError, errors.New("trust response missing trust token"))
	}
	if tok := resp.Header().Get("X-Apple-Session-Token"); tok != "" {
		sess.SessionToken = tok
	}
	sess.Trusted = true
	return token, nil
}

// accountLoginResponse is the setup endpoint's session payload.
type accountLoginResponse struct {
	DSInfo struct {
		DSID string `json:"dsid"`
	} `json:"dsInfo"`
	WebServices map[string]struct {
		URL    string `json:"url"`
		Status string `json:"status"`
	} `json:"webservices"`
}

// finalize exchanges the session token for web service URLs and cookies via
// the setup endpoint. Called after a successful signin or code verification.
func (c *Client) finalize(ctx context.Context, sess *model.Session, trustToken string) error {
	body := map[string]any{
		"dsWebAuthToken": sess.SessionToken,
		"extended_login": true,
	}
	if trustToken != "" {
		body["trustToken"] = trustToken
	}

	var out accountLoginResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&out).
		Post(c.setupBase + "/accountLogin")
	if err != nil {
		return model.NewAuthError(model.AuthNetworkError, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return model.NewAuthError(model.AuthNetworkError,
			fmt.Errorf("account login failed with status %d", resp.StatusCode()))
	}

	applyLoginResponse(sess, &out, resp.Cookies())
	return nil
}

// Validate is the lightweight probe confirming the session is still accepted.
// It refreshes the session's web service URLs and cookies as a side effect.
func (c *Client) Validate(ctx context.Context, sess *model.Session) error {
	var out accountLoginResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetCookies(restyCookies(sess)).
		SetResult(&out).
		Post(c.setupBase + "/validate")
	if err := mapRemoteStatus(resp, err); err != nil {
		return err
	}

	applyLoginResponse(sess, &out, resp.Cookies())
	return nil
}

// applyLoginResponse folds a setup response into the session.
func applyLoginResponse(sess *model.Session, out *accountLoginResponse, cookies []*http.Cookie) {
	if len(out.WebServices) > 0 {
		sess.WebServices = make(map[string]string, len(out.WebServices))
		for name, ws := range out.WebServices {
			sess.WebServices[name] = ws.URL
		}
	}

	for _, ck := range cookies {
		sess.Cookies = upsertCookie(sess.Cookies, model.SessionCookie{
			Name:    ck.Name,
			Value:   ck.Value,
			Domain:  ck.Domain,
			Path:    ck.Path,
			Expires: ck.Expires,
		})
		// The web auth cookie's expiry bounds the whole session.
		if ck.Name == "X-APPLE-WEBAUTH-TOKEN" && !ck.Expires.IsZero() {
			sess.ExpiresAt = ck.Expires
		}
	}
}

func upsertCookie(cookies []model.SessionCookie, ck model.SessionCookie) []model.SessionCookie {
	for i := range cookies {
		if cookies[i].Name == ck.Name {
			cookies[i] = ck
			return cookies
		}
	}
	return append(cookies, ck)
}

// restyCookies converts stored session cookies for attachment to a request.
func restyCookies(sess *model.Session) []*http.Cookie {
	out := make([]*http.Cookie, 0, len(sess.Cookies))
	for _, ck := range sess.Cookies {
		out = append(out, &http.Cookie{Name: ck.Name, Value: ck.Value, Path: ck.Path})
	}
	return out
}

func (c *Client) authHeaders() map[string]string {
	return map[string]string{
		"X-Apple-OAuth-Client-Id":      c.clientID,
		"X-Apple-OAuth-Client-Type":    "firstPartyAuth",
		"X-Apple-OAuth-Response-Mode":  "web_message",
		"X-Apple-OAuth-Response-Type":  "code",
		"X-Apple-Widget-Key":           c.clientID,
	}
}

// serviceURL resolves the per-account base URL for a web service name.
func serviceURL(sess *model.Session, name string) (string, error) {
	u, ok := sess.WebServices[name]
	if !ok || u == "" {
		return "", model.NewRemoteError(model.RemoteUnauthorized,
			fmt.Errorf("session has no %s service url; re-login required", name))
	}
	return u, nil
}
