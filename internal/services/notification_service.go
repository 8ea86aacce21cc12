// internal/services/notification_service.go
package services

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"net/smtp"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/openreq/marketplace-backend/internal/config"
	"github.com/openreq/marketplace-backend/internal/models"
	"github.com/openreq/marketplace-backend/internal/utils"
)

// NotificationService fans marketplace events out to in-app notification
// rows and, when SMTP is configured, email. Senders call it from goroutines;
// failures are logged, never propagated back into the write path.
type NotificationService struct {
	db     *gorm.DB
	config *config.Config
}

type EmailTemplate struct {
	Subject string
	Body    string
}

func NewNotificationService(db *gorm.DB, config *config.Config) *NotificationService {
	return &NotificationService{
		db:     db,
		config: config,
	}
}

// SendWelcomeEmail greets a freshly registered user. No in-app row; the user
// has nothing to read yet.
func (s *NotificationService) SendWelcomeEmail(user *models.User) error {
	data := map[string]interface{}{
		"Username":     user.Username,
		"OnboardURL":   fmt.Sprintf("%s/onboarding", s.config.Frontend.BaseURL),
		"PlatformName": "OpenReq",
	}

	tmpl := s.getEmailTemplate("welcome")
	body, err := s.renderTemplate(tmpl.Body, data)
	if err != nil {
		return fmt.Errorf("failed to render email template: %w", err)
	}

	return s.sendEmail(user.Email, tmpl.Subject, body)
}

// SendOfferSubmittedNotification tells the buyer a new offer arrived on
// their request.
func (s *NotificationService) SendOfferSubmittedNotification(offer *models.Offer) {
	var request models.ProductRequest
	if err := s.db.Preload("User").First(&request, offer.ProductRequestID).Error; err != nil {
		logrus.WithError(err).Error("Failed to load request for offer notification")
		return
	}

	var seller models.User
	if err := s.db.First(&seller, offer.SellerID).Error; err != nil {
		logrus.WithError(err).Error("Failed to load seller for offer notification")
		return
	}

	s.createNotification(&models.Notification{
		UserID:              request.UserID,
		Type:                "offer_submitted",
		Title:               "New offer on your request",
		Message:             fmt.Sprintf("%s offered %.2f for %q with delivery in %d days", seller.Username, offer.Price, request.ProductName, offer.DeliveryTime),
		RelatedResourceType: "offer",
		RelatedResourceID:   &offer.ID,
	})

	data := map[string]interface{}{
		"BuyerName":    request.User.Username,
		"SellerName":   seller.Username,
		"ProductName":  request.ProductName,
		"Price":        offer.Price,
		"DeliveryTime": offer.DeliveryTime,
		"OfferURL":     fmt.Sprintf("%s/requests/%s/offers", s.config.Frontend.BaseURL, request.ID),
	}

	tmpl := s.getEmailTemplate("offer_submitted")
	body, err := s.renderTemplate(tmpl.Body, data)
	if err != nil {
		logrus.WithError(err).Error("Failed to render offer email")
		return
	}
	if err := s.sendEmail(request.User.Email, tmpl.Subject, body); err != nil {
		logrus.WithError(err).Error("Failed to send offer email")
	}
}

// SendOfferResolvedNotification tells the seller the buyer accepted or
// rejected, or tells the buyer the seller withdrew.
func (s *NotificationService) SendOfferResolvedNotification(offer *models.Offer) {
	var request models.ProductRequest
	if err := s.db.Preload("User").First(&request, offer.ProductRequestID).Error; err != nil {
		logrus.WithError(err).Error("Failed to load request for resolution notification")
		return
	}

	recipientID := offer.SellerID
	if offer.Status == models.OfferStatusWithdrawn {
		recipientID = request.UserID
	}

	var recipient models.User
	if err := s.db.First(&recipient, recipientID).Error; err != nil {
		logrus.WithError(err).Error("Failed to load recipient for resolution notification")
		return
	}

	s.createNotification(&models.Notification{
		UserID:              recipientID,
		Type:                "offer_" + string(offer.Status),
		Title:               fmt.Sprintf("Offer %s", offer.Status),
		Message:             fmt.Sprintf("Your offer on %q is now %s", request.ProductName, offer.Status),
		RelatedResourceType: "offer",
		RelatedResourceID:   &offer.ID,
	})

	data := map[string]interface{}{
		"RecipientName": recipient.Username,
		"ProductName":   request.ProductName,
		"Status":        string(offer.Status),
		"OfferURL":      fmt.Sprintf("%s/offers/%s", s.config.Frontend.BaseURL, offer.ID),
	}

	tmpl := s.getEmailTemplate("offer_resolved")
	body, err := s.renderTemplate(tmpl.Body, data)
	if err != nil {
		logrus.WithError(err).Error("Failed to render resolution email")
		return
	}
	if err := s.sendEmail(recipient.Email, tmpl.Subject, body); err != nil {
		logrus.WithError(err).Error("Failed to send resolution email")
	}
}

// SendNegotiationMessageNotification notifies the other party on the thread.
func (s *NotificationService) SendNegotiationMessageNotification(offer *models.Offer, negotiation *models.Negotiation) {
	recipientID := offer.SellerID
	if negotiation.SenderID == offer.SellerID {
		recipientID = offer.ProductRequest.UserID
	}

	s.createNotification(&models.Notification{
		UserID:              recipientID,
		Type:                "negotiation_message",
		Title:               "New negotiation message",
		Message:             negotiation.Message,
		RelatedResourceType: "offer",
		RelatedResourceID:   &offer.ID,
	})
}

// ListNotifications returns a user's in-app notifications, newest first.
func (s *NotificationService) ListNotifications(userID uuid.UUID, params utils.PaginationParams) ([]models.Notification, int64, error) {
	query := s.db.Model(&models.Notification{}).Where("user_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count notifications: %w", err)
	}

	query = query.Order("created_at DESC")
	query = utils.ApplyPagination(query, params)

	var notifications []models.Notification
	if err := query.Find(&notifications).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch notifications: %w", err)
	}

	return notifications, total, nil
}

// MarkNotificationRead stamps ReadAt; marking twice is a no-op.
func (s *NotificationService) MarkNotificationRead(userID, notificationID uuid.UUID) error {
	var notification models.Notification
	if err := s.db.First(&notification, notificationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("notification %w", ErrNotFound)
		}
		return fmt.Errorf("database error: %w", err)
	}

	if notification.UserID != userID {
		return fmt.Errorf("%w: notification belongs to another user", ErrForbidden)
	}
	if notification.ReadAt != nil {
		return nil
	}

	now := time.Now()
	return s.db.Model(&notification).Update("read_at", &now).Error
}

func (s *NotificationService) createNotification(notification *models.Notification) {
	if err := s.db.Create(notification).Error; err != nil {
		logrus.WithError(err).Error("Failed to create notification")
	}
}

func (s *NotificationService) sendEmail(to, subject, body string) error {
	if s.config.Email.SMTPHost == "" {
		logrus.WithFields(logrus.Fields{
			"to":      to,
			"subject": subject,
		}).Debug("SMTP not configured, skipping email")
		return nil
	}

	auth := smtp.PlainAuth("", s.config.Email.SMTPUsername, s.config.Email.SMTPPassword, s.config.Email.SMTPHost)

	msg := []byte(fmt.Sprintf("To: %s\r\nSubject: %s\r\nContent-Type: text/html; charset=\"UTF-8\"\r\n\r\n%s", to, subject, body))

	addr := fmt.Sprintf("%s:%s", s.config.Email.SMTPHost, s.config.Email.SMTPPort)
	return smtp.SendMail(addr, auth, s.config.Email.FromEmail, []string{to}, msg)
}

func (s *NotificationService) renderTemplate(templateStr string, data interface{}) (string, error) {
	tmpl, err := template.New("email").Parse(templateStr)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}

func (s *NotificationService) getEmailTemplate(templateType string) EmailTemplate {
	templates := map[string]EmailTemplate{
		"welcome": {
			Subject: "Welcome to OpenReq",
			Body: `
<!DOCTYPE html>
<html>
<body>
	<h2>Welcome {{.Username}}!</h2>
	<p>Thanks for joining {{.PlatformName}}. Complete your onboarding to start buying or selling:</p>
	<a href="{{.OnboardURL}}">Choose your role</a>
	<p>Best regards,<br>{{.PlatformName}} Team</p>
</body>
</html>`,
		},
		"offer_submitted": {
			Subject: "New offer on your request",
			Body: `
<!DOCTYPE html>
<html>
<body>
	<h2>Hello {{.BuyerName}},</h2>
	<p>{{.SellerName}} submitted an offer on "{{.ProductName}}": {{.Price}} with delivery in {{.DeliveryTime}} days.</p>
	<a href="{{.OfferURL}}">Review the offer</a>
	<p>Best regards,<br>OpenReq Team</p>
</body>
</html>`,
		},
		"offer_resolved": {
			Subject: "Your offer was updated",
			Body: `
<!DOCTYPE html>
<html>
<body>
	<h2>Hello {{.RecipientName}},</h2>
	<p>The offer on "{{.ProductName}}" is now {{.Status}}.</p>
	<a href="{{.OfferURL}}">View the offer</a>
	<p>Best regards,<br>OpenReq Team</p>
</body>
</html>`,
		},
	}

	if tmpl, exists := templates[templateType]; exists {
		return tmpl
	}

	return EmailTemplate{
		Subject: "Notification",
		Body:    "<p>{{.Message}}</p>",
	}
}
