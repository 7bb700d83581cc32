package controllers

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"Agora/gamification"
	"Agora/mailer"
	"Agora/metrics"
	"Agora/models"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const (
	paymentSucceeded   = "payment.succeeded"
	maxWebhookBodySize = 1 << 20
)

var errDuplicatePayment = errors.New("payment event already processed")

type paymentEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		UserID string `json:"user_id"`
	} `json:"data"`
}

// validSignature compares the hex HMAC-SHA256 of body against header.
func validSignature(secret string, body []byte, header string) bool {
	got, err := hex.DecodeString(strings.TrimSpace(header))
	if err != nil || len(got) == 0 {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(got, mac.Sum(nil))
}

// PaymentWebhook grants a month of premium for each successful payment event.
// Every event id is applied at most once.
func (server *Server) PaymentWebhook(c *gin.Context) {
	secret := server.Config.PaymentWebhookSecret
	if secret == "" {
		log.Error().Msg("PAYMENT_WEBHOOK_SECRET is not configured")
		metrics.WebhookEvents.WithLabelValues("misconfigured").Inc()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Webhook is not configured"})
		return
	}

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBodySize))
	if err != nil {
		metrics.WebhookEvents.WithLabelValues("bad_request").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unable to read body"})
		return
	}

	if !validSignature(secret, body, c.GetHeader("X-Signature")) {
		metrics.WebhookEvents.WithLabelValues("invalid_signature").Inc()
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid signature"})
		return
	}

	var event paymentEvent
	if err := json.Unmarshal(body, &event); err != nil {
		metrics.WebhookEvents.WithLabelValues("bad_request").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": "Malformed event"})
		return
	}

	if event.Type != paymentSucceeded {
		metrics.WebhookEvents.WithLabelValues("ignored").Inc()
		c.JSON(http.StatusOK, gin.H{"received": true, "ignored": true})
		return
	}

	event.ID = strings.TrimSpace(event.ID)
	event.Data.UserID = strings.TrimSpace(event.Data.UserID)
	if event.ID == "" || event.Data.UserID == "" {
		metrics.WebhookEvents.WithLabelValues("bad_request").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": "Event id and user id are required"})
		return
	}

	now := server.Clock.Now()
	var profile *models.Profile
	err = server.DB.Transaction(func(tx *gorm.DB) error {
		fresh, err := models.RecordPayment(tx, event.ID, event.Data.UserID, now)
		if err != nil {
			return err
		}
		if !fresh {
			return errDuplicatePayment
		}

		profile, err = models.ExtendPremium(tx, event.Data.UserID, now)
		if err != nil {
			return err
		}
		if _, err := models.GrantBadge(tx, event.Data.UserID, gamification.PremiumBadge); err != nil {
			return err
		}
		notification := models.Notification{
			UserID:  event.Data.UserID,
			Kind:    models.NotificationPremiumActivated,
			Message: "Your premium membership is active until " + profile.PremiumExpiresAt.Format("January 2, 2006") + ".",
		}
		_, err = notification.SaveNotification(tx)
		return err
	})

	switch {
	case errors.Is(err, errDuplicatePayment):
		metrics.WebhookEvents.WithLabelValues("duplicate").Inc()
		log.Info().Str("event_id", event.ID).Msg("duplicate payment event acknowledged")
		c.JSON(http.StatusOK, gin.H{"received": true, "duplicate": true})
		return
	case errors.Is(err, gorm.ErrRecordNotFound):
		metrics.WebhookEvents.WithLabelValues("unknown_user").Inc()
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	case err != nil:
		metrics.WebhookEvents.WithLabelValues("error").Inc()
		log.Error().Err(err).Str("event_id", event.ID).Msg("payment grant failed")
		sentry.CaptureException(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to apply payment"})
		return
	}

	metrics.WebhookEvents.WithLabelValues("granted").Inc()
	log.Info().
		Str("event_id", event.ID).
		Str("user_id", profile.ID).
		Time("premium_expires_at", *profile.PremiumExpiresAt).
		Msg("premium granted")

	server.sendReceipt(c.Request.Context(), profile)

	c.JSON(http.StatusOK, gin.H{
		"received":           true,
		"premium_expires_at": profile.PremiumExpiresAt,
	})
}

// sendReceipt never fails the webhook; delivery problems are only logged.
func (server *Server) sendReceipt(ctx context.Context, profile *models.Profile) {
	if profile.Email == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	err := server.Mailer.SendPremiumReceipt(ctx, mailer.Receipt{
		ToEmail:   profile.Email,
		ToName:    profile.Username,
		ExpiresAt: *profile.PremiumExpiresAt,
	})
	if err != nil {
		log.Warn().Err(err).Str("user_id", profile.ID).Msg("premium receipt not sent")
	}
}
