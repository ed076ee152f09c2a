// Package query answers user questions over their indexed documents.
// It glues hybrid retrieval to answer generation: retrieved chunks and
// graph facts become the model's context, and the same results come
// back to the caller as citations.
package query

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"

	"github.com/smallnest/graphrag"
	"github.com/smallnest/graphrag/log"
	"github.com/smallnest/graphrag/retriever"
)

const answerPrompt = `You are a helpful assistant answering questions about the user's documents.
Use ONLY the context below to answer. If the context does not contain
the answer, say you don't know rather than guessing.

Context:
%s`

// Retriever is the retrieval surface the service depends on.
type Retriever interface {
	Retrieve(ctx context.Context, question, ownerID string) []graphrag.RetrievalResult
}

// Message is one prior turn of the conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Message roles accepted in history.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Request is a question against one owner's corpus, with optional
// conversation history.
type Request struct {
	Question  string    `json:"question"`
	UserEmail string    `json:"user_email"`
	History   []Message `json:"history,omitempty"`
}

// Response carries the generated answer and the retrieval results it
// was grounded on.
type Response struct {
	Answer     string                     `json:"answer"`
	References []graphrag.RetrievalResult `json:"references"`
}

// Service answers questions using a retriever and a chat model.
type Service struct {
	retriever Retriever
	model     llms.Model
	logger    log.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service's logger.
func WithLogger(logger log.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService creates a Service over the given retriever and model.
func NewService(r Retriever, model llms.Model, opts ...Option) *Service {
	s := &Service{
		retriever: r,
		model:     model,
		logger:    log.GetDefaultLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Answer validates the request, retrieves context and generates an
// answer. Both question and user email are required; a request missing
// either is rejected before any backend is touched.
func (s *Service) Answer(ctx context.Context, req Request) (Response, error) {
	question := strings.TrimSpace(req.Question)
	owner := strings.TrimSpace(req.UserEmail)
	if question == "" || owner == "" {
		return Response{}, fmt.Errorf("question and user_email are required: %w", graphrag.ErrMissingField)
	}

	results := s.retriever.Retrieve(ctx, question, owner)
	s.logger.Debug("retrieved %d results for %s", len(results), owner)

	answer, err := s.generate(ctx, retriever.BuildContext(results), req.History, question)
	if err != nil {
		return Response{}, fmt.Errorf("answer generation failed: %w", err)
	}

	if results == nil {
		results = []graphrag.RetrievalResult{}
	}
	return Response{Answer: answer, References: results}, nil
}

func (s *Service) generate(ctx context.Context, contextBlock string, history []Message, question string) (string, error) {
	messages := make([]llms.MessageContent, 0, len(history)+2)
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, fmt.Sprintf(answerPrompt, contextBlock)))
	for _, m := range history {
		role := llms.ChatMessageTypeHuman
		if m.Role == RoleAssistant {
			role = llms.ChatMessageTypeAI
		}
		messages = append(messages, llms.TextParts(role, m.Content))
	}
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, question))

	resp, err := s.model.GenerateContent(ctx, messages, llms.WithTemperature(0))
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("model returned no choices")
	}
	return resp.Choices[0].Content, nil
}
