package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/option"
)

// fcmBatchLimit is the provider's hard cap on tokens per multicast request.
const fcmBatchLimit = 500

// SendResult is the per-token outcome of a push send. Invalid marks tokens
// the provider rejected permanently (unregistered or malformed); those should
// be pruned. A transient Err leaves the token in place.
type SendResult struct {
	Token   string
	Err     error
	Invalid bool
}

// PushSender delivers a push message to a set of device tokens and reports
// the outcome per token.
type PushSender interface {
	Send(ctx context.Context, tokens []string, title, body string, data map[string]string) ([]SendResult, error)
}

// FCMClient sends pushes through Firebase Cloud Messaging, splitting token
// lists into provider-sized batches sent concurrently.
type FCMClient struct {
	client      *messaging.Client
	timeout     time.Duration
	concurrency int
}

// NewFCMClient builds a messaging client from service-account credentials.
func NewFCMClient(ctx context.Context, projectID, clientEmail, privateKey string, timeout time.Duration, concurrency int) (*FCMClient, error) {
	creds := map[string]string{
		"type":         "service_account",
		"project_id":   projectID,
		"client_email": clientEmail,
		"private_key":  strings.ReplaceAll(privateKey, `\n`, "\n"),
		"token_uri":    "https://oauth2.googleapis.com/token",
	}
	credsJSON, err := json.Marshal(creds)
	if err != nil {
		return nil, fmt.Errorf("marshal firebase credentials: %w", err)
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, option.WithCredentialsJSON(credsJSON))
	if err != nil {
		return nil, fmt.Errorf("init firebase app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("init messaging client: %w", err)
	}

	if concurrency <= 0 {
		concurrency = 4
	}
	return &FCMClient{client: client, timeout: timeout, concurrency: concurrency}, nil
}

// Send pushes the message to every token. Batch-level failures are recorded
// as transient errors on each token of the batch; only per-token provider
// rejections are classified invalid.
func (c *FCMClient) Send(ctx context.Context, tokens []string, title, body string, data map[string]string) ([]SendResult, error) {
	if len(tokens) == 0 {
		return nil, nil
	}

	results := make([]SendResult, len(tokens))
	for i, t := range tokens {
		results[i].Token = t
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)

	for start := 0; start < len(tokens); start += fcmBatchLimit {
		end := start + fcmBatchLimit
		if end > len(tokens) {
			end = len(tokens)
		}
		start, end := start, end

		g.Go(func() error {
			c.sendBatch(ctx, tokens[start:end], title, body, data, results[start:end])
			return nil
		})
	}
	_ = g.Wait()

	return results, nil
}

func (c *FCMClient) sendBatch(ctx context.Context, tokens []string, title, body string, data map[string]string, out []SendResult) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	msg := &messaging.MulticastMessage{
		Tokens: tokens,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
	}

	resp, err := c.client.SendEachForMulticast(ctx, msg)
	if err != nil {
		for i := range out {
			out[i].Err = err
		}
		return
	}

	for i, r := range resp.Responses {
		if r.Success {
			continue
		}
		out[i].Err = r.Error
		if messaging.IsRegistrationTokenNotRegistered(r.Error) || messaging.IsInvalidArgument(r.Error) {
			out[i].Invalid = true
		}
	}
}
