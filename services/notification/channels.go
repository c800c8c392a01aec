package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"clinq/config"
	"clinq/models"
	"clinq/utils"

	"go.uber.org/zap"
)

// PushSender delivers to the push-notification gateway.
type PushSender interface {
	Send(ctx context.Context, msg models.PushMessage) bool
}

// WhatsAppSender delivers to the WhatsApp gateway.
type WhatsAppSender interface {
	Send(ctx context.Context, msg models.WhatsAppMessage) bool
}

const gatewayTimeout = 10 * time.Second

// GatewayPushSender posts to {PUSH_GATEWAY_URL}/api/send-notification.
type GatewayPushSender struct {
	Client  *http.Client
	BaseURL string
}

func NewGatewayPushSender() *GatewayPushSender {
	return &GatewayPushSender{
		Client:  &http.Client{Timeout: gatewayTimeout},
		BaseURL: config.AppConfig.PushGatewayURL,
	}
}

func (g *GatewayPushSender) Send(ctx context.Context, msg models.PushMessage) bool {
	return postJSON(ctx, g.Client, g.BaseURL+"/api/send-notification", msg, "push")
}

// GatewayWhatsAppSender posts to {SMS_GATEWAY_URL}/api/send-sms.
type GatewayWhatsAppSender struct {
	Client  *http.Client
	BaseURL string
}

func NewGatewayWhatsAppSender() *GatewayWhatsAppSender {
	return &GatewayWhatsAppSender{
		Client:  &http.Client{Timeout: gatewayTimeout},
		BaseURL: config.AppConfig.SMSGatewayURL,
	}
}

func (g *GatewayWhatsAppSender) Send(ctx context.Context, msg models.WhatsAppMessage) bool {
	msg.Channel = "whatsapp"
	return postJSON(ctx, g.Client, g.BaseURL+"/api/send-sms", msg, "whatsapp")
}

func postJSON(ctx context.Context, client *http.Client, url string, payload any, channel string) bool {
	logger := utils.GetLogger()
	body, err := json.Marshal(payload)
	if err != nil {
		logger.Error("gateway payload marshal failed", zap.String("channel", channel), zap.Error(err))
		return false
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		logger.Error("gateway request build failed", zap.String("channel", channel), zap.Error(err))
		return false
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		logger.Warn("gateway send failed", zap.String("channel", channel), zap.Error(err))
		return false
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logger.Warn("gateway rejected send",
			zap.String("channel", channel),
			zap.String("status", fmt.Sprintf("%d", resp.StatusCode)))
		return false
	}
	return true
}
