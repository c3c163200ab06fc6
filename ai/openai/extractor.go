// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package openai

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/poiesic/corpus/ai"
	"github.com/poiesic/corpus/core"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// maxExtractionChars bounds how much document text is sent to the model.
// Property attributes cluster at the start of investment documents, so the
// head of the text carries nearly all of the signal.
const maxExtractionChars = 6000

// PropertyExtractor implements ai.PropertyExtractor using OpenAI-compatible chat APIs.
type PropertyExtractor struct {
	client      llms.Model
	maxAttempts int
	logger      *slog.Logger
}

// newPropertyExtractor is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newPropertyExtractor(config *ai.Config) (*PropertyExtractor, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Create OpenAI client configured for chat/extraction
	// Use "none" as token for local OpenAI-compatible services that don't require authentication
	client, err := openai.New(
		openai.WithBaseURL(config.ExtractorHost),
		openai.WithToken("none"),
		openai.WithModel(config.ExtractorModel),
	)
	if err != nil {
		return nil, err
	}

	return &PropertyExtractor{
		client:      client,
		maxAttempts: config.MaxAttempts,
		logger:      slog.Default().With("component", "openai-extractor"),
	}, nil
}

// NewPropertyExtractor creates a new property extractor using the provided configuration.
//
// Returns ai.PropertyExtractor interface to enforce abstraction.
func NewPropertyExtractor(config *ai.Config) (ai.PropertyExtractor, error) {
	return newPropertyExtractor(config)
}

// ExtractProperties extracts structured property attributes from text using an LLM.
// It cleans the raw response and returns nil when the text holds no property data.
func (e *PropertyExtractor) ExtractProperties(ctx context.Context, text string) (*core.PropertyData, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}
	text = truncateRunes(text, maxExtractionChars)

	// Build the system and user prompts
	systemPrompt := buildExtractionPrompt()
	content := []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{
				llms.TextPart(systemPrompt),
			},
		},
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.TextPart(text),
			},
		},
	}

	// Try multiple times in case of malformed JSON
	var raw map[string]interface{}
	var lastErr error
	for attempt := 0; attempt < e.maxAttempts; attempt++ {
		response, err := e.client.GenerateContent(ctx, content, llms.WithTemperature(0.0), llms.WithJSONMode())
		if err != nil {
			e.logger.Error("failed to generate content", "attempt", attempt+1, "err", err)
			return nil, err
		}

		if len(response.Choices) < 1 {
			e.logger.Debug("no choices returned from model")
			return nil, nil
		}

		choice := response.Choices[0]

		// Strip markdown code fences if present
		responseText := strings.TrimSpace(choice.Content)
		responseText = strings.TrimPrefix(responseText, "```json")
		responseText = strings.TrimPrefix(responseText, "```")
		responseText = strings.TrimSuffix(responseText, "```")
		responseText = strings.TrimSpace(responseText)

		// Try to repair common JSON issues
		responseText = repairJSON(responseText)

		raw = nil
		if err := json.Unmarshal([]byte(responseText), &raw); err != nil {
			lastErr = err
			e.logger.Warn("error parsing extractor response",
				"attempt", attempt+1,
				"response", responseText,
				"err", err)
			continue
		}

		// Success
		lastErr = nil
		break
	}

	if lastErr != nil {
		e.logger.Error("failed to parse extractor response after retries", "err", lastErr)
		return nil, lastErr
	}

	properties, fields := cleanExtracted(raw)
	if fields == 0 {
		e.logger.Debug("no property data found")
		return nil, nil
	}

	e.logger.Debug("extracted property data",
		"rawFields", len(raw),
		"cleanedFields", fields)
	return properties, nil
}
