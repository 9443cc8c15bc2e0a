package chat

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/eldtechnologies/shopchat/internal/cache"
	"github.com/eldtechnologies/shopchat/internal/metrics"
	"github.com/eldtechnologies/shopchat/internal/models"
	"github.com/eldtechnologies/shopchat/internal/store"
)

// ReplyCache is the slice of the cache handle the service needs.
type ReplyCache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, value string)
}

// Generator produces a support reply from conversation history and the new
// user message.
type Generator interface {
	GenerateReply(ctx context.Context, history []models.Message, userMessage string) (string, error)
}

// Service orchestrates conversation persistence, reply caching, and reply
// generation for one exchange at a time.
type Service struct {
	store     store.Store
	cache     ReplyCache
	generator Generator
	logger    zerolog.Logger
}

// NewService wires the conversation service.
func NewService(st store.Store, rc ReplyCache, gen Generator, logger zerolog.Logger) *Service {
	return &Service{store: st, cache: rc, generator: gen, logger: logger}
}

// GetOrCreateConversation resolves the conversation for a session id,
// creating it lazily on first contact. A concurrent create for the same
// session surfaces as a unique violation and is resolved by one re-read.
func (s *Service) GetOrCreateConversation(ctx context.Context, sessionID uuid.UUID) (*models.Conversation, error) {
	conv, err := s.store.GetConversationBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if conv != nil {
		return conv, nil
	}

	conv, err = s.store.CreateConversation(ctx, models.NewID(), sessionID)
	if err == store.ErrDuplicateSession {
		// Lost the create race; the winner's row is the conversation.
		conv, err = s.store.GetConversationBySession(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		if conv == nil {
			return nil, fmt.Errorf("conversation for session %s disappeared after duplicate create", sessionID)
		}
		return conv, nil
	}
	if err != nil {
		return nil, err
	}

	metrics.ConversationsCreated.Inc()
	return conv, nil
}

// SendMessage runs one exchange: resolve the conversation, serve the reply
// from cache or generate it from bounded history, persist the user message
// then the ai message, and bump the conversation timestamp. The text is
// expected to be validated and truncated by the caller.
func (s *Service) SendMessage(ctx context.Context, sessionID uuid.UUID, text string) (string, error) {
	conv, err := s.GetOrCreateConversation(ctx, sessionID)
	if err != nil {
		return "", err
	}

	key := cache.Key(conv.ID, text)

	reply, ok := s.cache.Get(ctx, key)
	if !ok {
		history, err := s.store.GetConversationHistory(ctx, conv.ID)
		if err != nil {
			return "", err
		}

		reply, err = s.generator.GenerateReply(ctx, history, text)
		if err != nil {
			return "", err
		}

		s.cache.Set(ctx, key, reply)
	}

	if _, err := s.store.SaveMessage(ctx, conv.ID, models.SenderUser, text); err != nil {
		return "", err
	}
	if _, err := s.store.SaveMessage(ctx, conv.ID, models.SenderAI, reply); err != nil {
		return "", err
	}

	// Freshness marker only; the exchange already succeeded.
	if err := s.store.TouchConversation(ctx, conv.ID); err != nil {
		s.logger.Warn().Err(err).Str("conversation_id", conv.ID.String()).Msg("failed to touch conversation")
	}

	metrics.MessagesExchanged.Inc()
	return reply, nil
}

// History returns the full ordered history for a session. The conversation
// is created lazily when the session has none yet, so a fresh session reads
// back an empty history rather than a not-found error.
func (s *Service) History(ctx context.Context, sessionID uuid.UUID) ([]models.Message, error) {
	conv, err := s.GetOrCreateConversation(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.store.GetConversationHistory(ctx, conv.ID)
}
