package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

type NotifierConfig struct {
	BaseURL string
	APIKey  string
}

// NotifierRepository sends fire-and-forget user notifications through
// the platform's notification service. Delivery (SMS vs email) is the
// collaborator's concern.
type NotifierRepository struct {
	notifierConfig NotifierConfig
}

func NewNotifierRepository(cfg NotifierConfig) *NotifierRepository {
	return &NotifierRepository{
		cfg,
	}
}

type payloadNotify struct {
	UserID  uint   `json:"user_id"`
	Message string `json:"message"`
}

func (r NotifierRepository) Notify(ctx context.Context, userID uint, message string) error {
	url := r.notifierConfig.BaseURL + "/v1/notifications"

	payload := payloadNotify{
		UserID:  userID,
		Message: message,
	}

	payloadByte, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal json payload: %w", err)
	}

	client := &http.Client{Timeout: 5 * time.Second}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(string(payloadByte)))
	if err != nil {
		return err
	}

	req.Header.Add("Content-Type", "application/json")
	if r.notifierConfig.APIKey != "" {
		req.Header.Add("Authorization", "Bearer "+r.notifierConfig.APIKey)
	}

	res, err := client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode >= 200 && res.StatusCode <= 299 {
		return nil
	}

	return fmt.Errorf("notification service returned negative response %v", res.StatusCode)
}
