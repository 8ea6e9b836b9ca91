package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"pagechat-backend/internal/model"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

const systemPrompt = `You are an intelligent assistant embedded inside a browser extension. You have access to the **full readable content** of a web page that the user is currently viewing.

Your role is to help the user understand, explore, or extract information **strictly based on this page content**.

- ONLY use the information from the provided content.
- DO NOT make up facts or go beyond what is available in the page.
- If the content does not contain enough information to answer the user's query, politely inform them.
- Keep your answers concise, clear, and helpful unless the user asks for detailed explanations.

Here is the webpage content you should use for all answers:
"""
{{.content}}
"""
`

// Page text is passed as template data, never parsed as template source,
// so braces in the page are harmless.
var chatTemplate = prompt.FromMessages(schema.GoTemplate,
	schema.SystemMessage(systemPrompt),
	schema.UserMessage("{{.question}}"),
)

func buildMessages(ctx context.Context, content, question string) ([]*schema.Message, error) {
	messages, err := chatTemplate.Format(ctx, map[string]any{
		"content":  content,
		"question": question,
	})
	if err != nil {
		return nil, fmt.Errorf("format prompt: %w", err)
	}
	return messages, nil
}

// Fingerprint is the response-cache key of a request: the SHA-256 of the
// ordered role/content pairs.
func Fingerprint(messages []*schema.Message) string {
	pairs := make([]model.PromptMessage, len(messages))
	for i, m := range messages {
		pairs[i] = model.PromptMessage{Role: string(m.Role), Content: m.Content}
	}
	// a slice of string pairs always marshals
	data, _ := json.Marshal(pairs)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// truncateRunes keeps the first n runes of s.
func truncateRunes(s string, n int) (string, bool) {
	if n <= 0 {
		return s, false
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i], true
		}
		count++
	}
	return s, false
}
