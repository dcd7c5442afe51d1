package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/barberia/internal/config"
	"github.com/mamadbah2/barberia/internal/domain/models"
	"github.com/mamadbah2/barberia/internal/metrics"
	client "github.com/mamadbah2/barberia/pkg/clients/whatsapp"
)

// ErrNoMessage indicates a webhook delivery that carries no text message to act on.
var ErrNoMessage = errors.New("no text message in payload")

const sendTimeout = 10 * time.Second

// MessagingService describes the operations the HTTP layer can perform.
type MessagingService interface {
	VerifyWebhookToken(mode, verifyToken, challenge string) (string, error)
	HandleWebhook(ctx context.Context, payload models.WebhookPayload) error
	SendOutbound(ctx context.Context, req models.OutboundMessageRequest) error
}

// Conversation consumes customer text messages.
type Conversation interface {
	Handle(ctx context.Context, customerID, text string)
}

// Sender delivers plain text replies through the WhatsApp Cloud API.
type Sender struct {
	client client.Client
	logger *zap.Logger
}

// NewSender wraps a WhatsApp client.
func NewSender(client client.Client, logger *zap.Logger) *Sender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sender{client: client, logger: logger}
}

// Send delivers body to the given WhatsApp id.
func (s *Sender) Send(ctx context.Context, to, body string) error {
	return s.send(ctx, client.SendTextMessageRequest{To: to, Body: body})
}

func (s *Sender) send(ctx context.Context, req client.SendTextMessageRequest) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	resp, err := s.client.SendTextMessage(ctxWithTimeout, req)
	if err != nil {
		return fmt.Errorf("send message to %s: %w", req.To, err)
	}
	if resp != nil && len(resp.Messages) > 0 {
		s.logger.Debug("message sent", zap.String("to", req.To), zap.String("message_id", resp.Messages[0].ID))
	}
	return nil
}

// MetaWhatsAppService is the production implementation backed by WhatsApp Cloud API.
type MetaWhatsAppService struct {
	cfg          config.WhatsAppConfig
	sender       *Sender
	conversation Conversation
	logger       *zap.Logger
}

// NewMetaWhatsAppService wires a new service instance.
func NewMetaWhatsAppService(cfg config.WhatsAppConfig, sender *Sender, conversation Conversation, logger *zap.Logger) *MetaWhatsAppService {
	svc := &MetaWhatsAppService{
		cfg:          cfg,
		sender:       sender,
		conversation: conversation,
		logger:       logger,
	}
	if svc.logger == nil {
		svc.logger = zap.NewNop()
	}
	return svc
}

// VerifyWebhookToken validates the callback verification token.
func (s *MetaWhatsAppService) VerifyWebhookToken(mode, verifyToken, challenge string) (string, error) {
	if mode == "" || verifyToken == "" {
		return "", errors.New("missing mode or verify token")
	}

	if !strings.EqualFold(mode, "subscribe") {
		return "", fmt.Errorf("unsupported hub.mode %s", mode)
	}

	if verifyToken != s.cfg.VerifyToken {
		return "", errors.New("invalid verify token")
	}

	return challenge, nil
}

// HandleWebhook hands the first text message of the delivery to the conversation.
// Deliveries without one return ErrNoMessage.
func (s *MetaWhatsAppService) HandleWebhook(ctx context.Context, payload models.WebhookPayload) error {
	msg, ok := payload.FirstMessage()
	if !ok {
		metrics.IncInbound("empty")
		return ErrNoMessage
	}

	text, ok := msg.TextBody()
	if !ok {
		metrics.IncInbound("non_text")
		s.logger.Debug("ignoring non-text message", zap.String("from", msg.From), zap.String("type", msg.Type))
		return ErrNoMessage
	}

	metrics.IncInbound("text")
	s.logger.Info("inbound message", zap.String("from", msg.From), zap.String("message_id", msg.ID))
	s.conversation.Handle(ctx, msg.From, text)
	return nil
}

// SendOutbound lets internal operators push quick notifications via HTTP.
func (s *MetaWhatsAppService) SendOutbound(ctx context.Context, req models.OutboundMessageRequest) error {
	return s.sender.send(ctx, client.SendTextMessageRequest{
		To:         req.To,
		Body:       req.Message,
		PreviewURL: req.PreviewURL,
	})
}
