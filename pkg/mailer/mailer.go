package mailer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Mailer sends transactional account emails. Callers invoke it
// fire-and-forget: delivery failures are logged by the caller, never
// surfaced, and never roll back the mutation that triggered them.
type Mailer interface {
	SendCustomerWelcomeEmail(email, name, loginURL string) error
	SendSubadminWelcomeEmail(email, plainPassword, adminPanelURL string) error
	GetName() string
}

// HTTPGateway sends email through a transactional mail HTTP API
type HTTPGateway struct {
	apiURL string
	apiKey string
	from   string
	client *http.Client
}

// Config holds configuration for the HTTP mail gateway
type Config struct {
	APIURL      string
	APIKey      string
	FromAddress string
}

// NewHTTPGateway creates a new HTTP mail gateway client
func NewHTTPGateway(cfg Config) *HTTPGateway {
	return &HTTPGateway{
		apiURL: cfg.APIURL,
		apiKey: cfg.APIKey,
		from:   cfg.FromAddress,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// sendRequest represents the mail API request payload
type sendRequest struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Subject  string `json:"subject"`
	TextBody string `json:"text_body"`
}

// sendResponse represents the mail API response
type sendResponse struct {
	Status    string `json:"status"`
	MessageID string `json:"message_id"`
	Comment   string `json:"comment"`
	ErrCode   string `json:"errCode"`
}

func (g *HTTPGateway) send(to, subject, body string) error {
	payload := sendRequest{
		From:     g.from,
		To:       to,
		Subject:  subject,
		TextBody: body,
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal mail request: %w", err)
	}

	url := fmt.Sprintf("%s/messages", g.apiURL)
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create mail request: %w", err)
	}

	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", g.apiKey))
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send mail request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read mail response: %w", err)
	}

	var mailResp sendResponse
	if err := json.Unmarshal(respBody, &mailResp); err != nil {
		return fmt.Errorf("failed to parse mail response: %w", err)
	}

	if mailResp.Status != "success" {
		return fmt.Errorf("mail sending failed: %s (error code: %s)", mailResp.Comment, mailResp.ErrCode)
	}

	return nil
}

// SendCustomerWelcomeEmail sends the post-registration welcome email
func (g *HTTPGateway) SendCustomerWelcomeEmail(email, name, loginURL string) error {
	subject := "Welcome to VisaGate"
	body := fmt.Sprintf(
		"Hi %s,\n\nYour VisaGate account is ready. Sign in at %s to track your visa applications.\n\nRegards,\nThe VisaGate Team",
		name, loginURL,
	)
	return g.send(email, subject, body)
}

// SendSubadminWelcomeEmail sends a new subadmin their initial credentials
func (g *HTTPGateway) SendSubadminWelcomeEmail(email, plainPassword, adminPanelURL string) error {
	subject := "Your VisaGate admin account"
	body := fmt.Sprintf(
		"An administrator account has been created for you.\n\nLogin: %s\nTemporary password: %s\n\nSign in at %s and change your password immediately.",
		email, plainPassword, adminPanelURL,
	)
	return g.send(email, subject, body)
}

// GetName returns the name of this mail gateway
func (g *HTTPGateway) GetName() string {
	return "HTTP Mail Gateway"
}

// DevGateway is the development-mode mailer: it records the last message
// instead of sending anything.
type DevGateway struct {
	LastTo      string
	LastSubject string
}

// NewDevGateway creates a mailer that never sends
func NewDevGateway() *DevGateway {
	return &DevGateway{}
}

// SendCustomerWelcomeEmail records the send without delivering
func (g *DevGateway) SendCustomerWelcomeEmail(email, name, loginURL string) error {
	g.LastTo = email
	g.LastSubject = "Welcome to VisaGate"
	return nil
}

// SendSubadminWelcomeEmail records the send without delivering
func (g *DevGateway) SendSubadminWelcomeEmail(email, plainPassword, adminPanelURL string) error {
	g.LastTo = email
	g.LastSubject = "Your VisaGate admin account"
	return nil
}

// GetName returns the name of this mail gateway
func (g *DevGateway) GetName() string {
	return "Dev Mail Gateway"
}
