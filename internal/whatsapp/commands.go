package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/user/vida-loka-empire/internal/game"
	"github.com/user/vida-loka-empire/internal/types"
	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"
)

const commandTimeout = 10 * time.Second

const notRegistered = "Ei, você nem começou o jogo ainda! 😅\nDigite */comecar [seu nome]* para começar."

// processGameCommand handles a chat command from sender's phone
func (cm *ClientManager) processGameCommand(sender, command string) string {
	_, rawArg, _ := strings.Cut(strings.TrimSpace(command), " ")
	command = cleanCommand(command)

	rest, ok := strings.CutPrefix(command, "/")
	if !ok {
		return "Comandos devem começar com '/'. Digite */ajuda* para ver os comandos disponíveis."
	}
	name, arg, _ := strings.Cut(rest, " ")
	arg = strings.TrimSpace(arg)

	switch name {
	case "ajuda", "help":
		return cm.handleHelpCommand()
	case "comecar", "iniciar":
		return cm.handleRegistrationCommand(sender, strings.TrimSpace(rawArg))
	case "status":
		return cm.handleStatusCommand(sender)
	case "fim":
		return cm.apply(sender, "fim", types.Action{Type: types.ActionEndTurn})
	case "fuga":
		return cm.apply(sender, "fuga", types.Action{Type: types.ActionAttemptEscape})
	case "suborno":
		return cm.handleBribeCommand(sender, arg)
	case "sumir":
		return cm.apply(sender, "sumir", types.Action{Type: types.ActionLayLow})
	case "viajar":
		if arg == "" {
			return "Para onde? Digite */viajar [bairro]*"
		}
		return cm.apply(sender, "viajar", types.NewAction(types.ActionTravel, types.TravelPayload{District: strings.ReplaceAll(arg, " ", "_")}))
	case "comprar", "vender":
		return cm.handleTradeCommand(sender, name, arg)
	case "evento":
		choice, err := strconv.Atoi(arg)
		if err != nil || choice < 1 {
			return "Escolha uma opção: */evento [número]*"
		}
		return cm.apply(sender, "evento", types.NewAction(types.ActionResolveEvent, types.ChoicePayload{Choice: choice - 1}))
	}
	return "Comando não reconhecido. Digite */ajuda* para ver os comandos disponíveis."
}

// handleRegistrationCommand processes player registration
func (cm *ClientManager) handleRegistrationCommand(sender, name string) string {
	if name == "" {
		return "Ei, você esqueceu seu nome! 🧐\n\nDigite: */comecar [seu nome]*"
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()
	state, err := cm.gameManager.RegisterPlayer(ctx, name, sender)
	if errors.Is(err, game.ErrPlayerExists) {
		return "Calma aí, você já está no jogo! 😅\n\nDigite */status* para ver sua situação atual."
	}
	if err != nil {
		cm.logger.Error("Failed to register player", zap.String("sender", sender), zap.Error(err))
		return fmt.Sprintf("Ops! Algo deu errado: %s 😱", err.Error())
	}

	return fmt.Sprintf("E aí, %s! Bem-vindo ao *VIDA LOKA*! 🎮\n\n"+
		"Você começa em *%s* com %s no bolso.\n\n"+
		"Digite */ajuda* para ver os comandos disponíveis.", state.PlayerName, state.District, money(state.Money))
}

// handleStatusCommand reports the player's situation
func (cm *ClientManager) handleStatusCommand(sender string) string {
	playerID, err := cm.gameManager.PlayerByPhone(sender)
	if err != nil {
		return notRegistered
	}
	state, err := cm.gameManager.GetState(playerID)
	if err != nil {
		return notRegistered
	}
	return NewMessageFormatter().FormatStatusMessage(StatusFromState(state))
}

// handleBribeCommand bribes the guards when imprisoned, the police otherwise
func (cm *ClientManager) handleBribeCommand(sender, arg string) string {
	playerID, err := cm.gameManager.PlayerByPhone(sender)
	if err != nil {
		return notRegistered
	}
	state, err := cm.gameManager.GetState(playerID)
	if err != nil {
		return notRegistered
	}
	if state.Prison != nil {
		return cm.apply(sender, "suborno", types.Action{Type: types.ActionPrisonBribe})
	}

	amount, err := strconv.Atoi(strings.ReplaceAll(arg, ".", ""))
	if err != nil || amount <= 0 {
		return "Quanto? Digite */suborno [valor]*"
	}
	return cm.apply(sender, "suborno", types.NewAction(types.ActionBribePolice, types.AmountPayload{Amount: amount}))
}

// handleTradeCommand parses "/comprar 10 maconha" and "/vender 10 maconha"
func (cm *ClientManager) handleTradeCommand(sender, verb, arg string) string {
	qtyText, good, _ := strings.Cut(arg, " ")
	qty, err := strconv.Atoi(qtyText)
	good = strings.TrimSpace(good)
	if err != nil || qty <= 0 || good == "" {
		return fmt.Sprintf("Use: */%s [quantidade] [mercadoria]*", verb)
	}
	side := types.SideBuy
	if verb == "vender" {
		side = types.SideSell
	}
	return cm.apply(sender, verb, types.NewAction(types.ActionTrade, types.TradePayload{Good: good, Qty: qty, Side: side}))
}

// apply runs an action for the sender and describes the outcome. Phone
// notifications reach the player separately through the relay.
func (cm *ClientManager) apply(sender, verb string, action types.Action) string {
	playerID, err := cm.gameManager.PlayerByPhone(sender)
	if err != nil {
		return notRegistered
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()
	res, err := cm.gameManager.Apply(ctx, playerID, action)
	if err != nil {
		cm.logger.Error("Failed to apply command",
			zap.String("player_id", playerID),
			zap.String("command", verb),
			zap.Error(err))
		return fmt.Sprintf("Ops! Não deu pra fazer isso: %s 😱", err.Error())
	}
	if !res.Changed {
		return fmt.Sprintf("❌ Não dá pra fazer */%s* agora.", verb)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "✅ *%s* feito.", verb)
	for _, n := range res.Notifications {
		if n.Kind != types.NotifyToast {
			continue
		}
		b.WriteString("\n• " + n.Title)
		if n.Body != "" {
			b.WriteString(": " + n.Body)
		}
	}
	if res.State.PendingEvent != nil {
		b.WriteString("\n\n" + NewMessageFormatter().FormatEventMessage(EventFromPending(res.State.PendingEvent)))
	}
	fmt.Fprintf(&b, "\n\n📅 Dia %d · 💰 %s · 🔥 %d/100", res.State.Day, money(res.State.Money), res.State.Heat)
	return b.String()
}

// handleHelpCommand returns help information
func (cm *ClientManager) handleHelpCommand() string {
	return "🎮 *COMANDOS DO VIDA LOKA* 🎮\n\n" +
		"*BÁSICOS:*\n" +
		"/comecar [nome] - Entrar no jogo\n" +
		"/status - Sua situação\n" +
		"/fim - Encerrar o dia\n" +
		"/ajuda - Esta mensagem\n\n" +
		"*RUA:*\n" +
		"/viajar [bairro] - Ir para outro bairro\n" +
		"/comprar [qtd] [mercadoria] - Comprar no mercado\n" +
		"/vender [qtd] [mercadoria] - Vender no mercado\n" +
		"/sumir - Ficar na moita e baixar o calor\n\n" +
		"*POLÍCIA:*\n" +
		"/suborno [valor] - Molhar a mão do policial\n" +
		"/suborno - Na cadeia, comprar a saída\n" +
		"/fuga - Tentar fugir da cadeia\n\n" +
		"*EVENTOS:*\n" +
		"/evento [número] - Responder a um evento"
}

// cleanCommand lowercases, trims and strips accents
func cleanCommand(command string) string {
	command = strings.ToLower(strings.TrimSpace(command))
	var b strings.Builder
	for _, r := range norm.NFD.String(command) {
		if r >= 0x300 && r <= 0x36f {
			continue
		}
		b.WriteRune(r)
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
