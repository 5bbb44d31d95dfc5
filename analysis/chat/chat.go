// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package chat is a client for OpenAI-compatible chat completion
// endpoints.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/oauth2"
)

// Message roles.
const (
	RoleSystem    = openai.ChatMessageRoleSystem
	RoleUser      = openai.ChatMessageRoleUser
	RoleAssistant = openai.ChatMessageRoleAssistant
)

// A Message is one turn of a conversation.
type Message struct {
	Role    string
	Content string
}

// Params are the sampling parameters sent with every request.
// Zero values are left out of the request.
type Params struct {
	Model       string
	MaxTokens   int
	Temperature float32
	TopP        float32
}

// Errors returned by Complete.
var (
	ErrNoChoices = errors.New("no response choices received from model")
	ErrNoContent = errors.New("no content received from model")
)

// A Client sends conversations to a chat completion endpoint.
type Client struct {
	Params Params
	api    *openai.Client
}

// NewClient returns a Client for the endpoint at baseURL that
// authenticates with apiKey as a bearer token.
func NewClient(ctx context.Context, baseURL, apiKey string, p Params) *Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: apiKey})
	cfg.HTTPClient = oauth2.NewClient(ctx, ts)
	return &Client{Params: p, api: openai.NewClientWithConfig(cfg)}
}

// Complete sends msgs and returns the content of the first choice.
func (c *Client) Complete(ctx context.Context, msgs []Message) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       c.Params.Model,
		MaxTokens:   c.Params.MaxTokens,
		Temperature: c.Params.Temperature,
		TopP:        c.Params.TopP,
		Messages:    make([]openai.ChatCompletionMessage, len(msgs)),
	}
	for i, m := range msgs {
		req.Messages[i] = openai.ChatCompletionMessage{Role: m.Role, Content: m.Content}
	}
	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrNoChoices
	}
	content := resp.Choices[0].Message.Content
	if content == "" {
		return "", ErrNoContent
	}
	return content, nil
}

// Analyze implements analysis.Analyzer.
func (c *Client) Analyze(ctx context.Context, msgs []Message) (string, error) {
	return c.Complete(ctx, msgs)
}
