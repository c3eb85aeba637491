package service

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// ChatService produces the assistant reply for one inbound chat message.
// One upstream call per message, no batching.
type ChatService interface {
	Reply(ctx context.Context, text string) (string, error)
	Close()
}

type chatService struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

func NewChatService(ctx context.Context) (ChatService, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is not set")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}

	model := client.GenerativeModel("gemini-2.5-flash")
	model.SetTemperature(0.7)

	return &chatService{
		client: client,
		model:  model,
	}, nil
}

func (s *chatService) Reply(ctx context.Context, text string) (string, error) {
	prompt := fmt.Sprintf(`You are a friendly study assistant inside a learning-content marketplace.
Answer the student's question concisely in plain text. If the question is about
a specific course, suggest checking its description and materials.

Question:
%s`, text)

	resp, err := s.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", err
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("no response from model")
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			b.WriteString(string(txt))
		}
	}

	reply := strings.TrimSpace(b.String())
	if reply == "" {
		return "", fmt.Errorf("no text content in response")
	}

	return reply, nil
}

func (s *chatService) Close() {
	s.client.Close()
}
