package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"wheres-my-food/pkg/config"
)

// Twilio sends SMS through the Twilio Messages REST resource.
type Twilio struct {
	client     *http.Client
	baseURL    string
	accountSID string
	authToken  string
	from       string
}

type twilioResponse struct {
	SID     string `json:"sid"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// NewTwilio bounds each request by cfg.SendTimeout. A zero timeout leaves the
// caller's context as the only deadline.
func NewTwilio(cfg config.NotificationsConfig) *Twilio {
	return &Twilio{
		client:     &http.Client{Timeout: cfg.SendTimeout},
		baseURL:    strings.TrimRight(cfg.TwilioBaseURL, "/"),
		accountSID: cfg.TwilioAccountSID,
		authToken:  cfg.TwilioAuthToken,
		from:       cfg.TwilioFromNumber,
	}
}

// ChannelFromConfig returns Twilio when credentials are complete, else Disabled.
func ChannelFromConfig(cfg config.NotificationsConfig) Channel {
	if !cfg.SMSEnabled() {
		return Disabled{}
	}
	return NewTwilio(cfg)
}

func (t *Twilio) Send(ctx context.Context, to, body string) Result {
	form := url.Values{}
	form.Set("To", to)
	form.Set("From", t.from)
	form.Set("Body", body)

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", t.baseURL, url.PathEscape(t.accountSID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return Result{Reason: err.Error()}
	}
	req.SetBasicAuth(t.accountSID, t.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.client.Do(req)
	if err != nil {
		return Result{Reason: err.Error()}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return Result{Reason: fmt.Sprintf("read response: %v", err)}
	}

	var payload twilioResponse
	_ = json.Unmarshal(raw, &payload)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		reason := payload.Message
		if reason == "" {
			reason = resp.Status
		}
		return Result{Reason: reason}
	}
	return Result{Success: true, ProviderID: payload.SID}
}
