package service

import (
	"context"
	"fmt"

	"klens/pkg/config"

	"github.com/Role1776/gigago"
	"go.uber.org/zap"
)

// Completer sends one completion request and returns the text of the first choice.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, prompt string) (string, error)
}

type GigaChatCompleter struct {
	client    *gigago.Client
	modelName string
	logger    *zap.Logger
}

// NewGigaChatCompleter authenticates against GigaChat with the configured key.
func NewGigaChatCompleter(ctx context.Context, cfg *config.GigaChatConfig, logger *zap.Logger) (*GigaChatCompleter, error) {
	opts := []gigago.Option{
		gigago.WithCustomScope(cfg.Scope),
	}

	if cfg.InsecureSkipVerify {
		opts = append(opts, gigago.WithCustomInsecureSkipVerify(true))
		logger.Warn("GigaChat TLS certificate verification is disabled")
	}

	client, err := gigago.NewClient(ctx, cfg.APIKey, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GigaChat client: %w", err)
	}

	modelName := cfg.Model
	if modelName == "" {
		modelName = "GigaChat"
	}
	logger.Info("Using GigaChat model", zap.String("model", modelName))

	return &GigaChatCompleter{
		client:    client,
		modelName: modelName,
		logger:    logger,
	}, nil
}

// Complete builds a fresh model per call so concurrent requests never share
// a system instruction.
func (c *GigaChatCompleter) Complete(ctx context.Context, systemPrompt, prompt string) (string, error) {
	model := c.client.GenerativeModel(c.modelName)
	model.SystemInstruction = systemPrompt
	model.Temperature = 0.3

	messages := []gigago.Message{
		{Role: gigago.RoleUser, Content: prompt},
	}

	resp, err := model.Generate(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("failed to generate response: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from LLM")
	}

	return resp.Choices[0].Message.Content, nil
}

func (c *GigaChatCompleter) Close() {
	c.client.Close()
}
