package clinicapi

import (
	"context"
	"net/url"

	"careline/internal/models"
)

const (
	opNotifications = "notifications"
	opResults       = "results"
)

// NotificationsByUser lists a patient's notifications.
func (c *Client) NotificationsByUser(ctx context.Context, userID int64, patientID string) ([]models.Notification, error) {
	var notifications []models.Notification
	if err := c.doGet(ctx, userID, "/notifications/user/"+url.PathEscape(patientID), opNotifications, &notifications); err != nil {
		return nil, err
	}
	return notifications, nil
}

// ResultsByUser lists a patient's medical results.
func (c *Client) ResultsByUser(ctx context.Context, userID int64, patientID string) ([]models.TestResult, error) {
	var results []models.TestResult
	if err := c.doGet(ctx, userID, "/results/user/"+url.PathEscape(patientID), opResults, &results); err != nil {
		return nil, err
	}
	return results, nil
}
