package whatsapp

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/user/vida-loka-empire/config"
	"github.com/user/vida-loka-empire/internal/game"
	"github.com/user/vida-loka-empire/internal/types"
	waTypes "go.mau.fi/whatsmeow/types"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// MockGameManager is a mock implementation of GameManager
type MockGameManager struct {
	mock.Mock
}

func (m *MockGameManager) RegisterPlayer(ctx context.Context, name, phone string) (*types.WorldState, error) {
	args := m.Called(ctx, name, phone)
	state, _ := args.Get(0).(*types.WorldState)
	return state, args.Error(1)
}

func (m *MockGameManager) PlayerByPhone(phone string) (string, error) {
	args := m.Called(phone)
	return args.String(0), args.Error(1)
}

func (m *MockGameManager) GetState(playerID string) (*types.WorldState, error) {
	args := m.Called(playerID)
	state, _ := args.Get(0).(*types.WorldState)
	return state, args.Error(1)
}

func (m *MockGameManager) Apply(ctx context.Context, playerID string, action types.Action) (game.Result, error) {
	args := m.Called(ctx, playerID, action)
	return args.Get(0).(game.Result), args.Error(1)
}

const sender = "5521999999999"

func newTestClientManager(gm GameManager) *ClientManager {
	return &ClientManager{
		clients:     make(map[string]*ClientInfo),
		gameManager: gm,
		config:      config.DefaultConfig(),
		logger:      zap.NewNop(),
	}
}

func TestProcessGameCommand(t *testing.T) {
	// Setup
	mockGameManager := new(MockGameManager)
	clientManager := newTestClientManager(mockGameManager)

	// Test case 1: missing slash
	response := clientManager.processGameCommand(sender, "status")
	assert.Contains(t, response, "Comandos devem começar com '/'")

	// Test case 2: unknown command
	response = clientManager.processGameCommand(sender, "/voar")
	assert.Contains(t, response, "Comando não reconhecido")

	// Test case 3: help ignores case
	response = clientManager.processGameCommand(sender, "/AJUDA")
	assert.Contains(t, response, "COMANDOS DO VIDA LOKA")
	assert.Contains(t, response, "/fuga")
	assert.Contains(t, response, "/suborno [valor]")

	// Test case 4: commands for unknown phones
	mockGameManager.On("PlayerByPhone", sender).Return("", game.ErrPlayerNotFound).Once()
	response = clientManager.processGameCommand(sender, "/fim")
	assert.Contains(t, response, "nem começou o jogo")

	mockGameManager.AssertExpectations(t)
}

func TestHandleRegistrationCommand(t *testing.T) {
	// Setup
	mockGameManager := new(MockGameManager)
	clientManager := newTestClientManager(mockGameManager)

	// Test case 1: the name keeps its case and accents
	mockGameManager.On("RegisterPlayer", mock.Anything, "Zé Pequeno", sender).Return(&types.WorldState{
		PlayerName: "Zé Pequeno",
		District:   "favela",
		Money:      2000,
	}, nil).Once()
	response := clientManager.processGameCommand(sender, "/Começar Zé Pequeno")
	assert.Contains(t, response, "E aí, Zé Pequeno!")
	assert.Contains(t, response, "*favela*")
	assert.Contains(t, response, "R$ 2.000")

	// Test case 2: missing name
	response = clientManager.processGameCommand(sender, "/comecar")
	assert.Contains(t, response, "esqueceu seu nome")

	// Test case 3: already registered
	mockGameManager.On("RegisterPlayer", mock.Anything, "Outro", sender).Return(nil, game.ErrPlayerExists).Once()
	response = clientManager.processGameCommand(sender, "/comecar Outro")
	assert.Contains(t, response, "já está no jogo")

	mockGameManager.AssertExpectations(t)
}

func TestHandleStatusCommand(t *testing.T) {
	// Setup
	mockGameManager := new(MockGameManager)
	clientManager := newTestClientManager(mockGameManager)

	mockGameManager.On("PlayerByPhone", sender).Return("p1", nil)
	mockGameManager.On("GetState", "p1").Return(&types.WorldState{
		PlayerName:        "Zé",
		Day:               12,
		Level:             3,
		Money:             12345,
		DirtyMoney:        500,
		Heat:              30,
		HP:                80,
		MaxHP:             110,
		District:          "porto",
		Prison:            &types.PrisonState{DaysRemaining: 3},
		ConqueredFactions: []string{"cartel"},
	}, nil)

	// Test case 1: status lists money, heat and situation
	response := clientManager.processGameCommand(sender, "/status")
	assert.Contains(t, response, "STATUS DE ZÉ")
	assert.Contains(t, response, "Dia 12 · Nível 3")
	assert.Contains(t, response, "Limpo: R$ 12.345")
	assert.Contains(t, response, "Sujo: R$ 500")
	assert.Contains(t, response, "Calor: 30/100")
	assert.Contains(t, response, "Preso (3 dias)")
	assert.Contains(t, response, "1 territórios")
	assert.NotContains(t, response, "Dívida")

	mockGameManager.AssertExpectations(t)
}

func TestActionCommands(t *testing.T) {
	// Setup
	mockGameManager := new(MockGameManager)
	clientManager := newTestClientManager(mockGameManager)
	mockGameManager.On("PlayerByPhone", sender).Return("p1", nil)

	free := &types.WorldState{Day: 1, Money: 2000}
	after := &types.WorldState{
		Day:   2,
		Money: 1500,
		Heat:  10,
		PendingEvent: &types.PendingEvent{
			Day:         2,
			Description: "A vizinha pede ajuda.",
			Choices:     []string{"Ajudar", "Ignorar"},
		},
	}

	// Test case 1: ending the day
	mockGameManager.On("Apply", mock.Anything, "p1", types.Action{Type: types.ActionEndTurn}).Return(game.Result{
		State:   after,
		Changed: true,
		Notifications: []types.Notification{
			{Kind: types.NotifyToast, Title: "Mercado", Body: "Preços mudaram"},
			{Kind: types.NotifyPhone, Title: "Solto", Body: "Você está livre."},
		},
	}, nil).Once()
	response := clientManager.processGameCommand(sender, "/fim")
	assert.Contains(t, response, "✅ *fim* feito.")
	assert.Contains(t, response, "Mercado: Preços mudaram")
	assert.NotContains(t, response, "Solto")
	assert.Contains(t, response, "1. Ajudar")
	assert.Contains(t, response, "2. Ignorar")
	assert.Contains(t, response, "Dia 2 · 💰 R$ 1.500 · 🔥 10/100")

	// Test case 2: a rejected action
	mockGameManager.On("Apply", mock.Anything, "p1", types.Action{Type: types.ActionAttemptEscape}).Return(game.Result{
		State: free,
	}, nil).Once()
	response = clientManager.processGameCommand(sender, "/fuga")
	assert.Contains(t, response, "Não dá pra fazer */fuga* agora")

	// Test case 3: bribing the police on the street
	mockGameManager.On("GetState", "p1").Return(free, nil).Once()
	mockGameManager.On("Apply", mock.Anything, "p1",
		types.NewAction(types.ActionBribePolice, types.AmountPayload{Amount: 2000})).Return(game.Result{
		State:   free,
		Changed: true,
	}, nil).Once()
	response = clientManager.processGameCommand(sender, "/suborno 2.000")
	assert.Contains(t, response, "✅ *suborno* feito.")

	// Test case 4: bribing the guards in prison
	jailed := &types.WorldState{Day: 3, Prison: &types.PrisonState{DaysRemaining: 2}}
	mockGameManager.On("GetState", "p1").Return(jailed, nil).Once()
	mockGameManager.On("Apply", mock.Anything, "p1", types.Action{Type: types.ActionPrisonBribe}).Return(game.Result{
		State:   free,
		Changed: true,
	}, nil).Once()
	response = clientManager.processGameCommand(sender, "/suborno")
	assert.Contains(t, response, "✅ *suborno* feito.")

	// Test case 5: trading, travelling and answering events
	mockGameManager.On("Apply", mock.Anything, "p1",
		types.NewAction(types.ActionTrade, types.TradePayload{Good: "maconha", Qty: 10, Side: types.SideBuy})).Return(game.Result{
		State: free, Changed: true,
	}, nil).Once()
	mockGameManager.On("Apply", mock.Anything, "p1",
		types.NewAction(types.ActionTravel, types.TravelPayload{District: "zona_sul"})).Return(game.Result{
		State: free, Changed: true,
	}, nil).Once()
	mockGameManager.On("Apply", mock.Anything, "p1",
		types.NewAction(types.ActionResolveEvent, types.ChoicePayload{Choice: 1})).Return(game.Result{
		State: free, Changed: true,
	}, nil).Once()

	assert.Contains(t, clientManager.processGameCommand(sender, "/comprar 10 maconha"), "✅ *comprar* feito.")
	assert.Contains(t, clientManager.processGameCommand(sender, "/viajar Zona Sul"), "✅ *viajar* feito.")
	assert.Contains(t, clientManager.processGameCommand(sender, "/evento 2"), "✅ *evento* feito.")

	// Test case 6: malformed arguments never reach the game
	assert.Contains(t, clientManager.processGameCommand(sender, "/vender muito"), "Use: */vender [quantidade] [mercadoria]*")
	assert.Contains(t, clientManager.processGameCommand(sender, "/evento zero"), "Escolha uma opção")

	// Test case 7: game errors are reported
	mockGameManager.On("Apply", mock.Anything, "p1", types.Action{Type: types.ActionLayLow}).Return(game.Result{}, errors.New("disk full")).Once()
	assert.Contains(t, clientManager.processGameCommand(sender, "/sumir"), "disk full")

	mockGameManager.AssertExpectations(t)
}

func TestCleanCommand(t *testing.T) {
	assert.Equal(t, "/comecar ze", cleanCommand("  /Começar   Zé "))
	assert.Equal(t, "/ajuda", cleanCommand("/AJUDA"))
	assert.Equal(t, "/viajar sao cristovao", cleanCommand("/viajar São Cristóvão"))
}

func TestParseJID(t *testing.T) {
	jid, err := parseJID("+5521999999999")
	require.NoError(t, err)
	assert.Equal(t, "5521999999999", jid.User)
	assert.Equal(t, waTypes.DefaultUserServer, jid.Server)

	jid, err = parseJID("12036302@g.us")
	require.NoError(t, err)
	assert.Equal(t, waTypes.GroupServer, jid.Server)
}

func TestLatestSessionFiles(t *testing.T) {
	// Setup
	dir := t.TempDir()
	touch := func(name string, age time.Duration) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, nil, 0644))
		at := time.Now().Add(-age)
		require.NoError(t, os.Chtimes(path, at, at))
		return path
	}
	older := touch("store_5521_a.db", 2*time.Hour)
	newer := touch("store_5521_b.db", time.Hour)
	touch("store_5599_c.db", time.Minute)
	touch("notes.db", 0)

	// Test case 1: newest file per phone, older ones stale
	sessions, err := latestSessionFiles(dir)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, newer, sessions["5521"].file)
	assert.Equal(t, "b", sessions["5521"].sessionID)
	assert.Equal(t, []string{older}, sessions["5521"].stale)
	assert.Equal(t, "c", sessions["5599"].sessionID)
	assert.Empty(t, sessions["5599"].stale)

	// Test case 2: names that do not parse
	_, _, ok := parseStoreName("store_.db")
	assert.False(t, ok)
	phone, session, ok := parseStoreName("store_5521_9f1c-aa.db")
	assert.True(t, ok)
	assert.Equal(t, "5521", phone)
	assert.Equal(t, "9f1c-aa", session)
}

func TestMessageFormatter(t *testing.T) {
	mf := NewMessageFormatter()

	event := mf.FormatEventMessage(&EventMessage{Day: 4, Description: "Blitz na esquina.", Options: []string{"Correr", "Parar"}})
	assert.Contains(t, event, "[Dia 4]")
	assert.Contains(t, event, "1. Correr\n2. Parar")

	assert.Equal(t, "R$ 0", money(0))
	assert.Equal(t, "R$ 1.234.567", money(1234567))
	assert.Equal(t, "R$ 999", money(999))
}

func TestSendMessageWithoutClients(t *testing.T) {
	clientManager := newTestClientManager(new(MockGameManager))
	_, err := clientManager.SendMessage(sender, sender, "oi")
	assert.ErrorContains(t, err, "no client available")
}

func TestWhatsmeowLogsGoToZap(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	waLogger := newWALogger(zap.New(core), "Client").Sub("Socket")

	waLogger.Warnf("frame dropped: %d bytes", 42)
	waLogger.Debugf("ping")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "Client.Socket", entries[0].LoggerName)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	assert.Equal(t, "frame dropped: 42 bytes", entries[0].Message)
}
