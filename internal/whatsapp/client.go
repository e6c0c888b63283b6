package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode"

	"ricemill-backend/internal/config"
	"ricemill-backend/internal/logger"

	"go.uber.org/zap"
)

var (
	ErrNotConfigured = errors.New("WhatsApp Business API is not configured; set WHATSAPP_BUSINESS_PHONE_NUMBER_ID and WHATSAPP_BUSINESS_ACCESS_TOKEN")
	ErrNoRecipient   = errors.New("recipient number is empty")
)

const DefaultCaption = "Please find the attached Purchase Slip"

// Client talks to the WhatsApp Business Cloud API.
type Client struct {
	baseURL       string
	phoneNumberID string
	accessToken   string
	httpClient    *http.Client
}

func NewClient(cfg config.WhatsAppConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:       strings.TrimRight(cfg.APIBaseURL, "/"),
		phoneNumberID: cfg.PhoneNumberID,
		accessToken:   cfg.AccessToken,
		httpClient:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) Configured() bool {
	return c != nil && c.phoneNumberID != "" && c.accessToken != ""
}

// CleanNumber keeps only the digits of a phone number.
func CleanNumber(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, s)
}

// Document is a file attachment fetched by WhatsApp from Link.
type Document struct {
	Link     string `json:"link"`
	Caption  string `json:"caption,omitempty"`
	Filename string `json:"filename,omitempty"`
}

type message struct {
	MessagingProduct string    `json:"messaging_product"`
	RecipientType    string    `json:"recipient_type"`
	To               string    `json:"to"`
	Type             string    `json:"type"`
	Document         *Document `json:"document,omitempty"`
	Text             *text     `json:"text,omitempty"`
}

type text struct {
	Body string `json:"body"`
}

// Result identifies an accepted message.
type Result struct {
	MessageID string `json:"message_id"`
	Recipient string `json:"recipient"`
}

// APIError is a non-2xx answer from the Graph API.
type APIError struct {
	Status  int
	Message string
	Body    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("whatsapp api %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("whatsapp api %d", e.Status)
}

func (c *Client) SendDocument(ctx context.Context, to string, doc Document) (*Result, error) {
	if doc.Caption == "" {
		doc.Caption = DefaultCaption
	}
	if doc.Filename == "" {
		doc.Filename = "Purchase_Slip.pdf"
	}
	return c.send(ctx, to, message{Type: "document", Document: &doc})
}

func (c *Client) SendText(ctx context.Context, to, body string) (*Result, error) {
	return c.send(ctx, to, message{Type: "text", Text: &text{Body: body}})
}

func (c *Client) send(ctx context.Context, to string, msg message) (*Result, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	to = CleanNumber(to)
	if to == "" {
		return nil, ErrNoRecipient
	}
	msg.MessagingProduct = "whatsapp"
	msg.RecipientType = "individual"
	msg.To = to

	body, err := json.Marshal(msg)
	if err != nil {
		return nil, err
	}
	url := fmt.Sprintf("%s/%s/messages", c.baseURL, c.phoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)

	var result struct {
		Messages []struct {
			ID string `json:"id"`
		} `json:"messages"`
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	_ = json.Unmarshal(respBody, &result)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logger.L().Warn("whatsapp message rejected",
			zap.Int("status", resp.StatusCode),
			zap.String("to", to),
			zap.ByteString("body", respBody),
		)
		return nil, &APIError{Status: resp.StatusCode, Message: result.Error.Message, Body: string(respBody)}
	}

	out := &Result{Recipient: to}
	if len(result.Messages) > 0 {
		out.MessageID = result.Messages[0].ID
	}
	logger.L().Info("whatsapp message sent", zap.String("type", msg.Type), zap.String("to", to), zap.String("message_id", out.MessageID))
	return out, nil
}
