package assistant

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mamadbah2/repairdesk/internal/domain/models"
	"github.com/mamadbah2/repairdesk/internal/service/reporting"
	"github.com/mamadbah2/repairdesk/pkg/clients/anthropic"
)

type memStore struct {
	convs map[primitive.ObjectID]*models.Conversation
}

func newMemStore() *memStore {
	return &memStore{convs: map[primitive.ObjectID]*models.Conversation{}}
}

func (m *memStore) Insert(_ context.Context, c *models.Conversation) error {
	c.ID = primitive.NewObjectID()
	cp := *c
	m.convs[c.ID] = &cp
	return nil
}

func (m *memStore) FindForUser(_ context.Context, id, userID primitive.ObjectID) (*models.Conversation, error) {
	c, ok := m.convs[id]
	if !ok || c.UserID != userID {
		return nil, models.NotFoundf("conversation introuvable")
	}
	cp := *c
	return &cp, nil
}

func (m *memStore) ListByUser(_ context.Context, userID primitive.ObjectID, _ int) ([]models.Conversation, error) {
	var out []models.Conversation
	for _, c := range m.convs {
		if c.UserID == userID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (m *memStore) Append(_ context.Context, id primitive.ObjectID, msgs ...models.ChatMessage) error {
	m.convs[id].Messages = append(m.convs[id].Messages, msgs...)
	return nil
}

func (m *memStore) DeleteForUser(_ context.Context, id, userID primitive.ObjectID) error {
	if _, err := m.FindForUser(context.Background(), id, userID); err != nil {
		return err
	}
	delete(m.convs, id)
	return nil
}

type staticKPIs reporting.KPIs

func (k staticKPIs) KPIs(context.Context) reporting.KPIs { return reporting.KPIs(k) }

type fakeAI struct {
	reply  string
	err    error
	system string
	got    []anthropic.Message
}

func (f *fakeAI) Complete(_ context.Context, system string, msgs []anthropic.Message) (string, error) {
	f.system = system
	f.got = msgs
	return f.reply, f.err
}

var kpis = staticKPIs{InterventionsOuvertes: 7, Clients: 42, CAMois: 1520.5, PretsEnCours: 2, PretsEnRetard: 1}

func newService(store Store, ai anthropic.Client) *Service {
	svc := NewService(store, kpis, ai, "Atelier Test", time.UTC, nil)
	svc.now = func() time.Time { return time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC) }
	return svc
}

func TestChat_UsesProviderWithKPIs(t *testing.T) {
	store := newMemStore()
	ai := &fakeAI{reply: "Vous avez 7 interventions ouvertes."}
	svc := newService(store, ai)
	user := primitive.NewObjectID()

	reply, err := svc.Chat(context.Background(), user, nil, "Combien d'interventions ouvertes ?")
	require.NoError(t, err)
	assert.False(t, reply.Fallback)
	assert.Equal(t, "Vous avez 7 interventions ouvertes.", reply.Reponse)
	assert.Contains(t, ai.system, "Atelier Test")
	assert.Contains(t, ai.system, "Interventions ouvertes : 7")
	require.Len(t, ai.got, 1)

	conv := store.convs[reply.ConversationID]
	require.Len(t, conv.Messages, 2)
	assert.Equal(t, models.ChatRoleUser, conv.Messages[0].Role)
	assert.Equal(t, models.ChatRoleAssistant, conv.Messages[1].Role)
	assert.Equal(t, "Combien d'interventions ouvertes ?", conv.Titre)
}

func TestChat_SendsOnlyLastTurns(t *testing.T) {
	store := newMemStore()
	ai := &fakeAI{reply: "ok"}
	svc := newService(store, ai)
	user := primitive.NewObjectID()

	first, err := svc.Chat(context.Background(), user, nil, "question 0")
	require.NoError(t, err)
	for i := 1; i < 8; i++ {
		_, err := svc.Chat(context.Background(), user, &first.ConversationID, "question")
		require.NoError(t, err)
	}

	// 16 stored turns, the last 10 are sent plus the new message.
	_, err = svc.Chat(context.Background(), user, &first.ConversationID, "dernière")
	require.NoError(t, err)
	require.Len(t, ai.got, HistoryTurns+1)
	assert.Equal(t, models.ChatRoleUser, ai.got[0].Role)
	assert.Equal(t, "dernière", ai.got[len(ai.got)-1].Content)
}

func TestChat_FallbackOnProviderError(t *testing.T) {
	store := newMemStore()
	svc := newService(store, &fakeAI{err: errors.New("timeout")})

	reply, err := svc.Chat(context.Background(), primitive.NewObjectID(), nil, "état du stock ?")
	require.NoError(t, err)
	assert.True(t, reply.Fallback)
	assert.Equal(t, Fallback(reporting.KPIs(kpis)), reply.Reponse)
	assert.Contains(t, reply.Reponse, "Clients : 42")
	assert.Len(t, store.convs[reply.ConversationID].Messages, 2)
}

func TestChat_FallbackWithoutProvider(t *testing.T) {
	svc := newService(newMemStore(), nil)

	reply, err := svc.Chat(context.Background(), primitive.NewObjectID(), nil, "bonjour")
	require.NoError(t, err)
	assert.True(t, reply.Fallback)
}

func TestChat_Validation(t *testing.T) {
	svc := newService(newMemStore(), nil)

	_, err := svc.Chat(context.Background(), primitive.NewObjectID(), nil, "   ")
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestChat_ForeignConversation(t *testing.T) {
	store := newMemStore()
	svc := newService(store, nil)
	owner := primitive.NewObjectID()

	reply, err := svc.Chat(context.Background(), owner, nil, "bonjour")
	require.NoError(t, err)

	_, err = svc.Chat(context.Background(), primitive.NewObjectID(), &reply.ConversationID, "intrus")
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.ErrorIs(t, svc.DeleteConversation(context.Background(), reply.ConversationID, primitive.NewObjectID()), models.ErrNotFound)
	require.NoError(t, svc.DeleteConversation(context.Background(), reply.ConversationID, owner))
}

func TestTitle(t *testing.T) {
	assert.Equal(t, "Bonjour", title("Bonjour\nsuite"))
	long := title("Pouvez-vous me donner la liste complète des interventions en attente de pièces ce mois-ci ?")
	assert.Len(t, []rune(long), titleLength)
}
