package booking

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"zervos/internal/model"
)

// Forwarder delivers a copy of a new appointment to an external system.
type Forwarder interface {
	Forward(ctx context.Context, a *model.Appointment) error
}

// HTTPForwarder posts appointments as JSON to {baseURL}/api/appointments.
type HTTPForwarder struct {
	baseURL    string
	httpClient *http.Client
}

func NewHTTPForwarder(baseURL string, timeout time.Duration) *HTTPForwarder {
	return &HTTPForwarder{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (f *HTTPForwarder) Forward(ctx context.Context, a *model.Appointment) error {
	data, err := json.Marshal(a)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.baseURL+"/api/appointments", bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", a.ID)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("http %d", resp.StatusCode)
	}
	return nil
}
