// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// geminiAPIBase is the Gemini generateContent endpoint root. Declared as
// a var so tests can substitute an httptest server.
var geminiAPIBase = "https://generativelanguage.googleapis.com/v1beta/models"

// GeminiClient calls the Gemini REST API.
type GeminiClient struct {
	APIKey string
	Client *http.Client
}

// NewGemini constructs a Gemini client with a 120s timeout; synthesis
// calls over large note payloads can run long.
func NewGemini(apiKey string) *GeminiClient {
	return &GeminiClient{
		APIKey: apiKey,
		Client: &http.Client{Timeout: 120 * time.Second},
	}
}

// Gemini API JSON structures.
type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Role  string       `json:"role"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text             string          `json:"text,omitempty"`
	Thought          bool            `json:"thought,omitempty"`
	FunctionCall     *geminiFuncCall `json:"functionCall,omitempty"`
	FunctionResponse *geminiFuncResp `json:"functionResponse,omitempty"`
	InlineData       *geminiBlob     `json:"inlineData,omitempty"`
}

type geminiFuncCall struct {
	Name string         `json:"name"`
	Args map[string]any `json:"args"`
}

type geminiFuncResp struct {
	Name     string         `json:"name"`
	Response map[string]any `json:"response"`
}

type geminiBlob struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

// Generate issues one generateContent call and returns the concatenated
// text parts of the first candidate. Non-2xx responses become errors
// embedding the status code and body, preserving rate-limit and
// overload markers for retry classification.
func (c *GeminiClient) Generate(ctx context.Context, model, prompt string) (string, error) {
	reqBody := geminiRequest{
		Contents: []geminiContent{
			{Role: "user", Parts: []geminiPart{{Text: prompt}}},
		},
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	url := fmt.Sprintf("%s/%s:generateContent", geminiAPIBase, model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.APIKey)

	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling Gemini API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("Gemini API returned %d: %s", resp.StatusCode, string(body))
	}

	var gr geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return "", fmt.Errorf("decoding Gemini response: %w", err)
	}

	if len(gr.Candidates) == 0 {
		return "", nil
	}

	parts := convertParts(gr.Candidates[0].Content.Parts)
	return JoinText(parts), nil
}

// convertParts maps wire parts onto the tagged Part union.
func convertParts(wire []geminiPart) []Part {
	parts := make([]Part, 0, len(wire))
	for _, w := range wire {
		switch {
		case w.FunctionCall != nil:
			parts = append(parts, Part{
				Kind: PartFunctionCall,
				Name: w.FunctionCall.Name,
				Args: w.FunctionCall.Args,
			})
		case w.FunctionResponse != nil:
			parts = append(parts, Part{
				Kind:     PartFunctionResponse,
				Name:     w.FunctionResponse.Name,
				Response: w.FunctionResponse.Response,
			})
		case w.InlineData != nil:
			data, err := base64.StdEncoding.DecodeString(w.InlineData.Data)
			if err != nil {
				data = nil
			}
			parts = append(parts, Part{
				Kind:     PartBinary,
				MIMEType: w.InlineData.MIMEType,
				Data:     data,
			})
		case w.Thought:
			parts = append(parts, Part{Kind: PartThought, Text: w.Text})
		default:
			parts = append(parts, Part{Kind: PartText, Text: w.Text})
		}
	}
	return parts
}
