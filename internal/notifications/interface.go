package notifications

import "github.com/geolens/visibility-bot/internal/models"

// NotificationInterface defines the contract for report delivery
type NotificationInterface interface {
	SendReport(report *models.Report) error
}
