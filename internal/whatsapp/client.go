package whatsapp

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/user/vida-loka-empire/config"
	"github.com/user/vida-loka-empire/internal/game"
	"github.com/user/vida-loka-empire/internal/types"
	"go.mau.fi/whatsmeow"
	waProto "go.mau.fi/whatsmeow/binary/proto"
	"go.mau.fi/whatsmeow/store"
	"go.mau.fi/whatsmeow/store/sqlstore"
	waTypes "go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	"go.uber.org/zap"
	"google.golang.org/protobuf/proto"
)

// GameManager is the authoritative game the chat commands drive
type GameManager interface {
	RegisterPlayer(ctx context.Context, name, phone string) (*types.WorldState, error)
	PlayerByPhone(phone string) (string, error)
	GetState(playerID string) (*types.WorldState, error)
	Apply(ctx context.Context, playerID string, action types.Action) (game.Result, error)
}

// ClientManager handles WhatsApp client connections
type ClientManager struct {
	clients     map[string]*ClientInfo
	gameManager GameManager
	config      config.Config
	logger      *zap.Logger
	mutex       sync.RWMutex
}

// ClientInfo holds information about a WhatsApp client connection
type ClientInfo struct {
	UUID        string
	PhoneNumber string
	Client      *whatsmeow.Client
	Store       *store.Device
}

// NewClientManager creates a client manager and restores saved sessions
func NewClientManager(gameManager GameManager, cfg config.Config, logger *zap.Logger) *ClientManager {
	cm := &ClientManager{
		clients:     make(map[string]*ClientInfo),
		gameManager: gameManager,
		config:      cfg,
		logger:      logger,
	}

	cm.restoreExistingSessions()

	return cm
}

func (cm *ClientManager) storePath(phoneNumber, sessionID string) string {
	return fmt.Sprintf("file:%s?_foreign_keys=on",
		filepath.Join(cm.config.WhatsApp.StoreDir, fmt.Sprintf("store_%s_%s.db", phoneNumber, sessionID)))
}

// restoreExistingSessions reconnects the newest saved session of every phone
func (cm *ClientManager) restoreExistingSessions() {
	if err := os.MkdirAll(cm.config.WhatsApp.StoreDir, 0755); err != nil {
		cm.logger.Error("Failed to create store directory", zap.Error(err))
		return
	}

	sessions, err := latestSessionFiles(cm.config.WhatsApp.StoreDir)
	if err != nil {
		cm.logger.Error("Failed to scan for existing sessions", zap.Error(err))
		return
	}

	for phoneNumber, latest := range sessions {
		for _, stale := range latest.stale {
			if err := os.Remove(stale); err != nil {
				cm.logger.Error("Failed to remove old session file",
					zap.String("file", stale),
					zap.Error(err))
				continue
			}
			cm.logger.Info("Removed old session file", zap.String("file", stale))
		}

		container, err := sqlstore.New("sqlite3", cm.storePath(phoneNumber, latest.sessionID), newWALogger(cm.logger, "Database"))
		if err != nil {
			cm.logger.Error("Failed to initialize database",
				zap.String("phone_number", phoneNumber),
				zap.Error(err))
			continue
		}

		deviceStore, err := container.GetFirstDevice()
		if err != nil {
			cm.logger.Info("No valid session found in database",
				zap.String("phone_number", phoneNumber))
			continue
		}

		client := cm.newClient(deviceStore)
		cm.track(phoneNumber, latest.sessionID, client, deviceStore)

		if client.Store.ID == nil {
			cm.logger.Info("Session requires QR code login",
				zap.String("phone_number", phoneNumber))
			continue
		}
		go func(phone string, cli *whatsmeow.Client) {
			if err := cli.Connect(); err != nil {
				cm.logger.Error("Failed to connect restored client",
					zap.String("phone_number", phone),
					zap.Error(err))
				return
			}
			cm.logger.Info("Connected restored client",
				zap.String("phone_number", phone))
		}(phoneNumber, client)
	}
}

type sessionFile struct {
	file      string
	sessionID string
	modTime   time.Time
	stale     []string
}

// latestSessionFiles groups store_<phone>_<session>.db files by phone, keeping
// the newest and listing the older ones as stale
func latestSessionFiles(dir string) (map[string]*sessionFile, error) {
	files, err := filepath.Glob(filepath.Join(dir, "store_*.db"))
	if err != nil {
		return nil, err
	}

	latest := make(map[string]*sessionFile)
	for _, file := range files {
		phoneNumber, sessionID, ok := parseStoreName(filepath.Base(file))
		if !ok {
			continue
		}
		info, err := os.Stat(file)
		if err != nil {
			continue
		}

		current, exists := latest[phoneNumber]
		switch {
		case !exists:
			latest[phoneNumber] = &sessionFile{file: file, sessionID: sessionID, modTime: info.ModTime()}
		case info.ModTime().After(current.modTime):
			current.stale = append(current.stale, current.file)
			current.file, current.sessionID, current.modTime = file, sessionID, info.ModTime()
		default:
			current.stale = append(current.stale, file)
		}
	}
	return latest, nil
}

// parseStoreName splits store_<phone>_<session>.db
func parseStoreName(name string) (phoneNumber, sessionID string, ok bool) {
	trimmed, found := strings.CutPrefix(strings.TrimSuffix(name, ".db"), "store_")
	if !found {
		return "", "", false
	}
	phoneNumber, sessionID, ok = strings.Cut(trimmed, "_")
	if !ok || phoneNumber == "" || sessionID == "" {
		return "", "", false
	}
	return phoneNumber, sessionID, true
}

func (cm *ClientManager) newClient(deviceStore *store.Device) *whatsmeow.Client {
	client := whatsmeow.NewClient(deviceStore, newWALogger(cm.logger, "Client"))
	client.AddEventHandler(cm.handleWhatsAppEvent)
	return client
}

func (cm *ClientManager) newDevice(phoneNumber, sessionID string) (*store.Device, error) {
	if err := os.MkdirAll(cm.config.WhatsApp.StoreDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	container, err := sqlstore.New("sqlite3", cm.storePath(phoneNumber, sessionID), newWALogger(cm.logger, "Database"))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	deviceStore, err := container.GetFirstDevice()
	if err != nil || deviceStore == nil {
		deviceStore = container.NewDevice()
	}
	store.DeviceProps.RequireFullSync = proto.Bool(false)
	store.DeviceProps.Os = proto.String(cm.config.WhatsApp.ClientName)
	return deviceStore, nil
}

// SetupClient initializes a new WhatsApp client
func (cm *ClientManager) SetupClient(sessionID, phoneNumber string) (*whatsmeow.Client, error) {
	deviceStore, err := cm.newDevice(phoneNumber, sessionID)
	if err != nil {
		return nil, err
	}
	client := cm.newClient(deviceStore)
	cm.track(phoneNumber, sessionID, client, deviceStore)
	return client, nil
}

// track records the client serving phoneNumber
func (cm *ClientManager) track(phoneNumber, sessionID string, client *whatsmeow.Client, deviceStore *store.Device) {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()
	cm.clients[phoneNumber] = &ClientInfo{
		UUID:        sessionID,
		PhoneNumber: phoneNumber,
		Client:      client,
		Store:       deviceStore,
	}
}

// GetClient retrieves a WhatsApp client by phone number, reconnecting it when needed
func (cm *ClientManager) GetClient(phoneNumber string) (*whatsmeow.Client, bool) {
	cm.mutex.RLock()
	clientInfo, exists := cm.clients[phoneNumber]
	cm.mutex.RUnlock()

	if !exists {
		return nil, false
	}

	if !clientInfo.Client.IsConnected() && clientInfo.Store.ID != nil {
		if err := clientInfo.Client.Connect(); err != nil {
			cm.logger.Error("Failed to connect client",
				zap.String("phone_number", phoneNumber),
				zap.Error(err))
			return nil, false
		}
		cm.logger.Info("Reconnected client",
			zap.String("phone_number", phoneNumber))
	}

	return clientInfo.Client, true
}

// botClient returns any logged-in client to speak for the game
func (cm *ClientManager) botClient() (*whatsmeow.Client, bool) {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()
	for _, clientInfo := range cm.clients {
		if clientInfo.Client != nil && clientInfo.Store.ID != nil {
			return clientInfo.Client, true
		}
	}
	return nil, false
}

// GetQRChannel starts a fresh pairing for phoneNumber
func (cm *ClientManager) GetQRChannel(phoneNumber string) (<-chan whatsmeow.QRChannelItem, error) {
	cm.mutex.Lock()
	if clientInfo, exists := cm.clients[phoneNumber]; exists {
		clientInfo.Client.Disconnect()
		delete(cm.clients, phoneNumber)
	}
	cm.mutex.Unlock()

	sessionID := uuid.New().String()
	deviceStore, err := cm.newDevice(phoneNumber, sessionID)
	if err != nil {
		return nil, err
	}
	client := cm.newClient(deviceStore)

	qrChan, err := client.GetQRChannel(context.Background())
	if err != nil {
		return nil, fmt.Errorf("failed to get QR channel: %w", err)
	}

	cm.track(phoneNumber, sessionID, client, deviceStore)

	go func() {
		if err := client.Connect(); err != nil {
			cm.logger.Error("Failed to connect client",
				zap.String("phone_number", phoneNumber),
				zap.Error(err))
			return
		}
		cm.logger.Info("Client connected",
			zap.String("phone_number", phoneNumber))
	}()

	return qrChan, nil
}

// Disconnect closes a specific WhatsApp connection
func (cm *ClientManager) Disconnect(phoneNumber string) error {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	clientInfo, exists := cm.clients[phoneNumber]
	if !exists {
		return fmt.Errorf("client not found for phone number: %s", phoneNumber)
	}

	clientInfo.Client.Disconnect()
	delete(cm.clients, phoneNumber)
	return nil
}

// DisconnectAll closes all WhatsApp connections
func (cm *ClientManager) DisconnectAll() {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	for phoneNumber, clientInfo := range cm.clients {
		if clientInfo.Client != nil {
			clientInfo.Client.Disconnect()
			cm.logger.Info("Disconnected client", zap.String("phone_number", phoneNumber))
		}
	}

	cm.clients = make(map[string]*ClientInfo)
}

// SendTextMessage sends a text message through the client of phoneNumber,
// or through the bot client when that phone has none
func (cm *ClientManager) SendTextMessage(phoneNumber, recipient, message string) (string, error) {
	client, exists := cm.GetClient(phoneNumber)
	if !exists {
		client, exists = cm.botClient()
	}
	if !exists {
		return "", fmt.Errorf("no client available for phone number: %s", phoneNumber)
	}

	recipientJID, err := parseJID(recipient)
	if err != nil {
		return "", err
	}

	response, err := client.SendMessage(context.Background(), recipientJID, &waProto.Message{
		Conversation: proto.String(message),
	})
	if err != nil {
		return "", fmt.Errorf("failed to send message: %w", err)
	}

	return response.ID, nil
}

// SendMessage implements interfaces.MessageSender
func (cm *ClientManager) SendMessage(phoneNumber, recipient, message string) (string, error) {
	return cm.SendTextMessage(phoneNumber, recipient, message)
}

// handleWhatsAppEvent processes incoming WhatsApp events
func (cm *ClientManager) handleWhatsAppEvent(evt interface{}) {
	switch v := evt.(type) {
	case *events.Message:
		cm.handleIncomingMessage(v)
	case *events.Connected:
		cm.logger.Info("WhatsApp client connected")
	case *events.Disconnected:
		cm.logger.Info("WhatsApp client disconnected")
	case *events.LoggedOut:
		cm.logger.Info("WhatsApp client logged out")
	}
}

// messageText extracts the command text of a message, or "" when it is not one.
// Group messages must start with "/ ", private ones with "/".
func messageText(message *events.Message) string {
	if message.Info.MessageSource.IsFromMe || message.Message == nil {
		return ""
	}
	content := message.Message.GetConversation()
	if content == "" {
		content = message.Message.GetExtendedTextMessage().GetText()
	}
	content = strings.TrimSpace(content)

	if message.Info.Chat.Server == waTypes.GroupServer {
		rest, ok := strings.CutPrefix(content, "/ ")
		if !ok {
			return ""
		}
		return "/" + rest
	}
	if !strings.HasPrefix(content, "/") {
		return ""
	}
	return content
}

// handleIncomingMessage answers chat commands
func (cm *ClientManager) handleIncomingMessage(message *events.Message) {
	content := messageText(message)
	if content == "" {
		return
	}

	cm.logger.Debug("Received command",
		zap.String("content", content),
		zap.String("sender", message.Info.Sender.User),
		zap.String("chat", message.Info.Chat.User))

	response := cm.processGameCommand(message.Info.Sender.User, content)
	if response == "" {
		return
	}

	client, ok := cm.botClient()
	if !ok {
		cm.logger.Error("No client available to send response")
		return
	}
	if _, err := client.SendMessage(context.Background(), message.Info.Chat, &waProto.Message{
		Conversation: proto.String(response),
	}); err != nil {
		cm.logger.Error("Failed to send response",
			zap.String("sender", message.Info.Sender.User),
			zap.Error(err))
	}
}

// parseJID converts a phone number or full JID string to a WhatsApp JID
func parseJID(jidString string) (waTypes.JID, error) {
	jidString = strings.TrimPrefix(strings.TrimSpace(jidString), "+")
	if !strings.ContainsRune(jidString, '@') {
		return waTypes.NewJID(jidString, waTypes.DefaultUserServer), nil
	}
	return waTypes.ParseJID(jidString)
}
