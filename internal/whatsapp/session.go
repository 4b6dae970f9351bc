package whatsapp

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/skip2/go-qrcode"
	"github.com/user/vida-loka-empire/config"
	"github.com/user/vida-loka-empire/internal/types"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.uber.org/zap"
)

// QRCodeManager handles QR code generation and authentication
type QRCodeManager struct {
	clientManager *ClientManager
	config        config.Config
	logger        *zap.Logger
}

// NewQRCodeManager creates a new QR code manager
func NewQRCodeManager(clientManager *ClientManager, cfg config.Config, logger *zap.Logger) *QRCodeManager {
	return &QRCodeManager{
		clientManager: clientManager,
		config:        cfg,
		logger:        logger,
	}
}

// GenerateQRCode pairs the bot phone, writing the QR code as a PNG under
// the store directory and returning its raw code
func (qm *QRCodeManager) GenerateQRCode(ctx context.Context, phoneNumber string) (string, error) {
	qrChan, err := qm.clientManager.GetQRChannel(phoneNumber)
	if err != nil {
		return "", err
	}

	qrDir := filepath.Join(qm.config.WhatsApp.StoreDir, "qrcodes")
	if err := os.MkdirAll(qrDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create QR code directory: %w", err)
	}

	select {
	case evt, ok := <-qrChan:
		if !ok {
			return "", fmt.Errorf("QR channel closed")
		}
		if evt.Event != "code" {
			return "", fmt.Errorf("unexpected QR event: %s", evt.Event)
		}
		qrPath := filepath.Join(qrDir, phoneNumber+".png")
		if err := qrcode.WriteFile(evt.Code, qrcode.Medium, 256, qrPath); err != nil {
			return "", fmt.Errorf("failed to generate QR code image: %w", err)
		}
		qm.logger.Info("QR code generated",
			zap.String("phone_number", phoneNumber),
			zap.String("path", qrPath))
		return evt.Code, nil
	case <-ctx.Done():
		return "", fmt.Errorf("timeout waiting for QR code: %w", ctx.Err())
	}
}

// SessionManager lists and removes stored WhatsApp sessions
type SessionManager struct {
	storeDir string
	logger   *zap.Logger
}

// NewSessionManager creates a new session manager
func NewSessionManager(storeDir string, logger *zap.Logger) *SessionManager {
	return &SessionManager{
		storeDir: storeDir,
		logger:   logger,
	}
}

// SessionInfo holds information about a WhatsApp session
type SessionInfo struct {
	ID          string    `json:"id"`
	PhoneNumber string    `json:"phone_number"`
	JID         string    `json:"jid"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ListSessions returns the paired sessions found in the store directory
func (sm *SessionManager) ListSessions() ([]SessionInfo, error) {
	if err := os.MkdirAll(sm.storeDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	latest, err := latestSessionFiles(sm.storeDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list session files: %w", err)
	}

	sessions := make([]SessionInfo, 0, len(latest))
	for phoneNumber, file := range latest {
		container, err := sqlstore.New("sqlite3", "file:"+file.file+"?_foreign_keys=on", newWALogger(sm.logger, "Database"))
		if err != nil {
			sm.logger.Warn("Failed to open session database", zap.String("path", file.file))
			continue
		}
		deviceStore, err := container.GetFirstDevice()
		if err != nil || deviceStore == nil || deviceStore.ID == nil {
			sm.logger.Warn("Session is not paired", zap.String("path", file.file))
			continue
		}
		sessions = append(sessions, SessionInfo{
			ID:          file.sessionID,
			PhoneNumber: phoneNumber,
			JID:         deviceStore.ID.String(),
			UpdatedAt:   file.modTime,
		})
	}
	return sessions, nil
}

// DeleteSession removes a WhatsApp session database
func (sm *SessionManager) DeleteSession(phoneNumber, sessionID string) error {
	dbPath := filepath.Join(sm.storeDir, fmt.Sprintf("store_%s_%s.db", phoneNumber, sessionID))
	if err := os.Remove(dbPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete session database: %w", err)
	}
	return nil
}

// MessageFormatter formats game messages for WhatsApp
type MessageFormatter struct{}

// NewMessageFormatter creates a new message formatter
func NewMessageFormatter() *MessageFormatter {
	return &MessageFormatter{}
}

// EventMessage is a popup event to answer by number
type EventMessage struct {
	Day         int
	Description string
	Options     []string
}

// EventFromPending converts a pending popup event
func EventFromPending(ev *types.PendingEvent) *EventMessage {
	return &EventMessage{Day: ev.Day, Description: ev.Description, Options: ev.Choices}
}

// FormatEventMessage formats an event message for WhatsApp
func (mf *MessageFormatter) FormatEventMessage(event *EventMessage) string {
	message := fmt.Sprintf("[Dia %d]\n%s\n", event.Day, event.Description)
	if len(event.Options) > 0 {
		message += "\nResponda com */evento [número]*:\n"
		for i, option := range event.Options {
			message += fmt.Sprintf("%d. %s\n", i+1, option)
		}
	}
	return message
}

// StatusMessage represents a player status message
type StatusMessage struct {
	PlayerName  string
	Day         int
	Level       int
	XP          int
	Money       int
	DirtyMoney  int
	Debt        int
	Heat        int
	HP          int
	MaxHP       int
	District    string
	Situation   string
	Vehicles    int
	Crew        int
	Territories int
}

// StatusFromState summarizes a world state for the status command
func StatusFromState(s *types.WorldState) *StatusMessage {
	situation := "Na rua"
	switch s.Activity() {
	case types.ActivityImprisoned:
		situation = fmt.Sprintf("Preso (%d dias)", s.Prison.DaysRemaining)
	case types.ActivityHospitalized:
		situation = fmt.Sprintf("Internado (%d dias)", s.Hospital.DaysRemaining)
	case types.ActivityInCombat:
		situation = "Em combate"
	case types.ActivityInHeist:
		situation = "No meio de um assalto"
	case types.ActivityGameOver:
		situation = "Fim de jogo"
	}
	return &StatusMessage{
		PlayerName:  s.PlayerName,
		Day:         s.Day,
		Level:       s.Level,
		XP:          s.XP,
		Money:       s.Money,
		DirtyMoney:  s.DirtyMoney,
		Debt:        s.Debt,
		Heat:        s.Heat,
		HP:          s.HP,
		MaxHP:       s.MaxHP,
		District:    s.District,
		Situation:   situation,
		Vehicles:    len(s.Vehicles),
		Crew:        len(s.Crew),
		Territories: len(s.ConqueredFactions),
	}
}

// FormatStatusMessage formats a status message for WhatsApp
func (mf *MessageFormatter) FormatStatusMessage(status *StatusMessage) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📊 *STATUS DE %s* 📊\n\n", strings.ToUpper(status.PlayerName))
	fmt.Fprintf(&b, "📅 Dia %d · Nível %d (%d XP)\n", status.Day, status.Level, status.XP)
	fmt.Fprintf(&b, "📍 %s · %s\n\n", status.District, status.Situation)
	fmt.Fprintf(&b, "💰 Limpo: %s\n", money(status.Money))
	fmt.Fprintf(&b, "💸 Sujo: %s\n", money(status.DirtyMoney))
	if status.Debt > 0 {
		fmt.Fprintf(&b, "🧾 Dívida: %s\n", money(status.Debt))
	}
	fmt.Fprintf(&b, "🔥 Calor: %d/100\n", status.Heat)
	fmt.Fprintf(&b, "❤️ Vida: %d/%d\n\n", status.HP, status.MaxHP)
	fmt.Fprintf(&b, "🚗 %d veículos · 👥 %d na equipe · 🏴 %d territórios", status.Vehicles, status.Crew, status.Territories)
	return b.String()
}

// money formats reais with dot thousands separators
func money(n int) string {
	return "R$ " + strings.ReplaceAll(humanize.Comma(int64(n)), ",", ".")
}
