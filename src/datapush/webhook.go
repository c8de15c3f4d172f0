package datapush

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	retryTimes    = 3
	retryInterval = 2 * time.Second
)

// Notifier posts lifecycle events (data reloads, report generation) to an
// external webhook. An empty URL disables it entirely.
type Notifier struct {
	url    string
	client *http.Client
}

func NewNotifier(url string) *Notifier {
	return &Notifier{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (n *Notifier) Enabled() bool {
	return n.url != ""
}

// Notify delivers one event with bounded retry. Fields are free-form and
// land as-is in the JSON payload next to the event name and timestamp.
func (n *Notifier) Notify(event string, fields map[string]interface{}) error {
	if !n.Enabled() {
		return nil
	}

	payload := map[string]interface{}{
		"event": event,
		"time":  time.Now().Format(time.RFC3339),
	}
	for k, v := range fields {
		payload[k] = v
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding webhook payload failed: %w", err)
	}

	return retry(func() error {
		return n.post(body)
	}, retryTimes, retryInterval)
}

func (n *Notifier) post(body []byte) error {
	resp, err := n.client.Post(n.url, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

func retry(fn func() error, times int, interval time.Duration) error {
	var err error
	for i := 0; i < times; i++ {
		if err = fn(); err == nil {
			return nil
		}
		if i < times-1 {
			time.Sleep(interval)
		}
	}
	return fmt.Errorf("giving up after %d attempts: %v", times, err)
}
