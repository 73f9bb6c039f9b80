package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
)

// NotificationSink delivers "you earned a badge" pushes. Fire-and-forget:
// implementations must never block or fail the progression flow.
type NotificationSink interface {
	NotifyAchievement(ownerID, badgeName string)
}

// NotificationClient posts achievement notifications to the companion
// notification service. Delivery runs on its own goroutine; failures are
// logged and dropped.
type NotificationClient struct {
	BaseURL string
	Token   string
	Client  *http.Client
}

func NewNotificationClient(baseURL, token string) *NotificationClient {
	return &NotificationClient{
		BaseURL: baseURL,
		Token:   token,
		Client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *NotificationClient) NotifyAchievement(ownerID, badgeName string) {
	go func() {
		if err := c.send(ownerID, badgeName); err != nil {
			log.Printf("⚠️ Achievement notification failed for %s (%s): %v", ownerID, badgeName, err)
		}
	}()
}

func (c *NotificationClient) send(ownerID, badgeName string) error {
	url := fmt.Sprintf("%s/notifications/achievement", c.BaseURL)

	reqBody := map[string]interface{}{
		"user_id": ownerID,
		"badge":   badgeName,
	}
	jsonData, _ := json.Marshal(reqBody)

	req, err := http.NewRequest("POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.Token)

	resp, err := c.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("notification service returned %d", resp.StatusCode)
	}
	return nil
}

// NopNotifier discards notifications (tests, local dev without the sink).
type NopNotifier struct{}

func (NopNotifier) NotifyAchievement(string, string) {}
