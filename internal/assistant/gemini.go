package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// DefaultModelID is the Gemini model used when none is configured.
const DefaultModelID = "gemini-2.5-flash"

// SystemInstruction primes every session.
const SystemInstruction = `You are "AmbuHelp", an AI emergency assistant for an ambulance booking app in India.
Your goal is to provide calm, immediate first-aid advice and triage support while the user waits for an ambulance.
1. Be concise. In emergencies, people cannot read long text.
2. Prioritize safety. If the user describes life-threatening symptoms (chest pain, severe bleeding, unconsciousness), tell them to ensure the ambulance is booked and perform immediate first aid (CPR, pressure on wound, etc.).
3. Use simple English.
4. If asked about booking, guide them to use the app's booking form.
5. You are not a doctor. Always add a short disclaimer if giving medical advice.
6. Provide specific advice relevant to the Indian context if needed (e.g., heatstroke, snake bite, road accidents).
7. If the user speaks Hindi (or Hinglish), reply in English but acknowledge their language or keep it very simple.`

// GeminiSessionFactory opens Gemini chat sessions.
type GeminiSessionFactory struct {
	apiKey  string
	modelID string
}

// NewGeminiSessionFactory validates the key; the client itself is created
// per session so a failed open can be retried.
func NewGeminiSessionFactory(apiKey, modelID string) (*GeminiSessionFactory, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("assistant: gemini api key is required")
	}
	if strings.TrimSpace(modelID) == "" {
		modelID = DefaultModelID
	}
	return &GeminiSessionFactory{apiKey: apiKey, modelID: modelID}, nil
}

// Open creates a client and starts a chat primed with systemInstruction.
func (f *GeminiSessionFactory) Open(ctx context.Context, systemInstruction string) (Session, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(f.apiKey))
	if err != nil {
		return nil, fmt.Errorf("assistant: failed to create gemini client: %w", err)
	}
	model := client.GenerativeModel(f.modelID)
	if strings.TrimSpace(systemInstruction) != "" {
		model.SystemInstruction = genai.NewUserContent(genai.Text(systemInstruction))
	}
	return &geminiSession{client: client, chat: model.StartChat()}, nil
}

type geminiSession struct {
	client *genai.Client
	chat   *genai.ChatSession
}

func (s *geminiSession) Send(ctx context.Context, text string) (string, error) {
	resp, err := s.chat.SendMessage(ctx, genai.Text(text))
	if err != nil {
		return "", fmt.Errorf("assistant: gemini send failed: %w", err)
	}
	return replyText(resp), nil
}

func (s *geminiSession) Close() error {
	return s.client.Close()
}

// replyText concatenates the text parts of the first candidate.
func replyText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	return strings.TrimSpace(b.String())
}
