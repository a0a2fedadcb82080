// Package analytics forwards click-out events to a Plausible-compatible
// events endpoint. Delivery is fire-and-forget: failures are logged, never
// retried, and never block the redirect.
package analytics

import (
	"bytes"
	"context"
	"log"
	"net/http"
	"time"

	"github.com/goccy/go-json"
)

const sendTimeout = 5 * time.Second

type Client struct {
	endpoint   string
	domain     string
	httpClient *http.Client
}

// NewClient builds a client; an empty endpoint disables sending entirely.
func NewClient(endpoint, domain string) *Client {
	return &Client{
		endpoint:   endpoint,
		domain:     domain,
		httpClient: &http.Client{Timeout: sendTimeout},
	}
}

type eventProps struct {
	VideoID string `json:"videoId"`
	Country string `json:"country"`
	UA      string `json:"ua"`
}

type event struct {
	Name   string     `json:"name"`
	URL    string     `json:"url"`
	Domain string     `json:"domain"`
	Props  eventProps `json:"props"`
}

// ClickOut emits one click_out event asynchronously.
func (c *Client) ClickOut(videoID, country, userAgent, referrer string) {
	if c.endpoint == "" {
		return
	}
	ev := event{
		Name:   "click_out",
		URL:    referrer,
		Domain: c.domain,
		Props: eventProps{
			VideoID: videoID,
			Country: country,
			UA:      userAgent,
		},
	}
	go c.send(ev)
}

func (c *Client) send(ev event) {
	body, err := json.Marshal(ev)
	if err != nil {
		log.Printf("[analytics] marshal click_out for video %s: %v", ev.Props.VideoID, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		log.Printf("[analytics] build request: %v", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	if ev.Props.UA != "" {
		req.Header.Set("User-Agent", ev.Props.UA)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Printf("[analytics] send click_out for video %s: %v", ev.Props.VideoID, err)
		return
	}
	resp.Body.Close()
}
