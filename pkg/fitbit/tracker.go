package fitbit

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Device state rides on the dashboard's AJAX service-call endpoint: a form
// field carrying a serialized request envelope, answered with the device
// list buried under several fixed keys.

type serviceCallRequest struct {
	ServiceCalls []serviceCall `json:"serviceCalls"`
	Template     string        `json:"template"`
}

type serviceCall struct {
	Name   string            `json:"name"`
	Method string            `json:"method"`
	Args   map[string]string `json:"args"`
}

type serviceCallResponse struct {
	Result struct {
		Device struct {
			WiredDevices []trackerPayload `json:"getWiredDevices"`
		} `json:"device"`
	} `json:"result"`
}

type trackerPayload struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Battery     string `json:"battery"`
	LastSync    string `json:"lastSync"`
	ProductName string `json:"productName"`
}

// Trackers returns the account's device snapshots: tracker id, hardware
// type, battery state, last sync time and product name.
func (c *Client) Trackers(ctx context.Context) ([]Tracker, error) {
	envelope, err := json.Marshal(serviceCallRequest{
		ServiceCalls: []serviceCall{{
			Name:   "device",
			Method: "getWiredDevices",
			Args:   map[string]string{},
		}},
		Template: "ajax.template",
	})
	if err != nil {
		return nil, execError("encoding service call", err)
	}

	form := url.Values{}
	form.Set("request", string(envelope))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+ajaxPath, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, execError("building device request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, execError("fetching devices", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, execError("fetching devices", errors.Errorf("unexpected status %s", resp.Status))
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, execError("reading device response", err)
	}

	var payload serviceCallResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, execError("decoding device response", err)
	}

	var trackers []Tracker
	for _, d := range payload.Result.Device.WiredDevices {
		lastSync, err := time.ParseInLocation(jsonTimeFormat, d.LastSync, time.Local)
		if err != nil {
			return nil, &UnrecognizedFormatError{Description: d.LastSync}
		}
		trackers = append(trackers, Tracker{
			ID:          d.ID,
			Type:        d.Type,
			Battery:     d.Battery,
			LastSync:    lastSync,
			ProductName: d.ProductName,
		})
	}
	return trackers, nil
}
