package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/moksh-codedeveloper/E-Commerce-app-BE/config"
)

// SMSSender delivers a message body to a phone number with country code.
type SMSSender interface {
	Send(ctx context.Context, to, body string) error
}

type smsTo struct {
	Number string `json:"number"`
}

type smsBody struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

type singleSMS struct {
	AllowedChannels []string `json:"allowedChannels"`
	From            string   `json:"from"`
	To              []smsTo  `json:"to"`
	Body            smsBody  `json:"body"`
}

type smsAuth struct {
	Producttoken string `json:"producttoken"`
}

type smsGatewayRequest struct {
	Messages struct {
		Authentication smsAuth     `json:"authentication"`
		Msg            []singleSMS `json:"msg"`
	} `json:"messages"`
}

// GatewaySMSSender posts messages to an HTTP SMS gateway.
type GatewaySMSSender struct {
	url    string
	apiKey string
	from   string
	client *http.Client
}

func NewGatewaySMSSender(cfg config.SMSConfig) (*GatewaySMSSender, error) {
	if strings.TrimSpace(cfg.GatewayURL) == "" {
		return nil, errors.New("sms gateway url is required")
	}
	return &GatewaySMSSender{
		url:    cfg.GatewayURL,
		apiKey: cfg.GatewayKey,
		from:   cfg.From,
		client: &http.Client{Timeout: 15 * time.Second},
	}, nil
}

func (s *GatewaySMSSender) Send(ctx context.Context, to, body string) error {
	payload := smsGatewayRequest{}
	payload.Messages.Authentication = smsAuth{Producttoken: s.apiKey}
	payload.Messages.Msg = []singleSMS{
		{
			AllowedChannels: []string{"SMS"},
			From:            s.from,
			To:              []smsTo{{Number: to}},
			Body: smsBody{
				Type:    "auto",
				Content: body,
			},
		},
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("sms gateway responded with status %d", resp.StatusCode)
	}
	return nil
}
