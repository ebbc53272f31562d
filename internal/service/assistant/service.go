package assistant

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/mamadbah2/repairdesk/internal/domain/models"
	"github.com/mamadbah2/repairdesk/internal/service/reporting"
	"github.com/mamadbah2/repairdesk/pkg/clients/anthropic"
)

const (
	// HistoryTurns bounds the conversation sent to the provider.
	HistoryTurns = 10
	// MaxMessageLength bounds a single user message, in runes.
	MaxMessageLength = 4000

	titleLength = 60
	listLimit   = 50
)

// Store persists conversations.
type Store interface {
	Insert(ctx context.Context, c *models.Conversation) error
	FindForUser(ctx context.Context, id, userID primitive.ObjectID) (*models.Conversation, error)
	ListByUser(ctx context.Context, userID primitive.ObjectID, limit int) ([]models.Conversation, error)
	Append(ctx context.Context, id primitive.ObjectID, msgs ...models.ChatMessage) error
	DeleteForUser(ctx context.Context, id, userID primitive.ObjectID) error
}

// KPISource provides the figures embedded in every prompt.
type KPISource interface {
	KPIs(ctx context.Context) reporting.KPIs
}

// Reply is the outcome of one chat turn.
type Reply struct {
	ConversationID primitive.ObjectID `json:"conversationId"`
	Reponse        string             `json:"reponse"`
	Fallback       bool               `json:"fallback"`
}

// Service answers business questions with a chat-completion provider.
type Service struct {
	store   Store
	kpis    KPISource
	ai      anthropic.Client
	company string
	loc     *time.Location
	logger  *zap.Logger
	now     func() time.Time
}

// NewService wires the assistant. A nil ai client makes every answer the
// fallback summary.
func NewService(store Store, kpis KPISource, ai anthropic.Client, company string, loc *time.Location, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.Local
	}
	return &Service{store: store, kpis: kpis, ai: ai, company: company, loc: loc, logger: logger, now: time.Now}
}

// Chat answers message within conversationID, or in a new conversation when
// conversationID is nil. Provider failures degrade to a summary of the KPIs.
func (s *Service) Chat(ctx context.Context, userID primitive.ObjectID, conversationID *primitive.ObjectID, message string) (*Reply, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, models.Validationf("le message est obligatoire")
	}
	if len([]rune(message)) > MaxMessageLength {
		return nil, models.Validationf("le message dépasse %d caractères", MaxMessageLength)
	}

	conv, err := s.conversation(ctx, userID, conversationID, message)
	if err != nil {
		return nil, err
	}

	kpis := s.kpis.KPIs(ctx)
	answer, fallback := s.complete(ctx, kpis, conv.LastTurns(HistoryTurns), message)

	now := s.now()
	turns := []models.ChatMessage{
		{Role: models.ChatRoleUser, Content: message, Date: now},
		{Role: models.ChatRoleAssistant, Content: answer, Date: now},
	}
	if err := s.store.Append(ctx, conv.ID, turns...); err != nil {
		return nil, err
	}

	return &Reply{ConversationID: conv.ID, Reponse: answer, Fallback: fallback}, nil
}

func (s *Service) conversation(ctx context.Context, userID primitive.ObjectID, id *primitive.ObjectID, first string) (*models.Conversation, error) {
	if id != nil {
		return s.store.FindForUser(ctx, *id, userID)
	}
	now := s.now()
	conv := &models.Conversation{
		UserID:    userID,
		Titre:     title(first),
		Messages:  []models.ChatMessage{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Insert(ctx, conv); err != nil {
		return nil, err
	}
	return conv, nil
}

func (s *Service) complete(ctx context.Context, kpis reporting.KPIs, history []models.ChatMessage, message string) (string, bool) {
	if s.ai == nil {
		return Fallback(kpis), true
	}

	msgs := make([]anthropic.Message, 0, len(history)+1)
	for _, m := range history {
		// The provider requires the exchange to open with a user turn.
		if len(msgs) == 0 && m.Role != models.ChatRoleUser {
			continue
		}
		msgs = append(msgs, anthropic.Message{Role: m.Role, Content: m.Content})
	}
	msgs = append(msgs, anthropic.Message{Role: models.ChatRoleUser, Content: message})

	answer, err := s.ai.Complete(ctx, SystemPrompt(s.company, kpis, s.now().In(s.loc)), msgs)
	if err != nil {
		s.logger.Warn("assistant provider failed, using fallback", zap.Error(err))
		return Fallback(kpis), true
	}
	return answer, false
}

// Conversations lists the caller's conversations without their messages.
func (s *Service) Conversations(ctx context.Context, userID primitive.ObjectID) ([]models.Conversation, error) {
	return s.store.ListByUser(ctx, userID, listLimit)
}

func (s *Service) Conversation(ctx context.Context, id, userID primitive.ObjectID) (*models.Conversation, error) {
	return s.store.FindForUser(ctx, id, userID)
}

func (s *Service) DeleteConversation(ctx context.Context, id, userID primitive.ObjectID) error {
	return s.store.DeleteForUser(ctx, id, userID)
}

// SystemPrompt frames the assistant with the current business figures.
func SystemPrompt(company string, k reporting.KPIs, at time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Tu es l'assistant de gestion de %s, une entreprise de réparation d'électroménager. ", company)
	b.WriteString("Réponds en français, de façon concise, en t'appuyant sur les indicateurs ci-dessous. ")
	b.WriteString("Si une information n'y figure pas, dis-le plutôt que de l'inventer.\n\n")
	fmt.Fprintf(&b, "Indicateurs au %s :\n", at.Format("02/01/2006 15:04"))
	b.WriteString(reporting.Summary(k))
	if len(k.InterventionsParStatut) > 0 {
		b.WriteString("\nInterventions par statut :")
		for _, st := range models.InterventionStatuts {
			if n, ok := k.InterventionsParStatut[string(st)]; ok {
				fmt.Fprintf(&b, " %s=%d", st, n)
			}
		}
	}
	return b.String()
}

// Fallback is the deterministic answer used when the provider is unavailable.
func Fallback(k reporting.KPIs) string {
	return "L'assistant est momentanément indisponible. Voici les indicateurs actuels :\n" + reporting.Summary(k)
}

func title(message string) string {
	line, _, _ := strings.Cut(message, "\n")
	r := []rune(strings.TrimSpace(line))
	if len(r) <= titleLength {
		return string(r)
	}
	return string(r[:titleLength-1]) + "…"
}
