package bot

import "github.com/candyxpe/supportbot/internal/domain"

// KeyboardKind names a reply keyboard layout.
type KeyboardKind uint8

const (
	KeyboardNone KeyboardKind = iota
	KeyboardMain
	KeyboardAI
	KeyboardHuman
	KeyboardAction
	KeyboardAdmin
	KeyboardManageAgents
	KeyboardBanUser
)

type buttonSpec struct {
	command Command
	ru, en  string
	color   domain.ButtonColor
}

var layouts = map[KeyboardKind][]buttonSpec{
	KeyboardMain: {
		{CmdAIAgent, "🤖 ИИ-Агент", "🤖 AI Agent", domain.ColorPrimary},
		{CmdContactAgent, "👨‍💻 Связь с агентом", "👨‍💻 Contact Agent", domain.ColorSecondary},
		{CmdReportStaff, "👤 Жалоба на персонал", "👤 Report Staff", domain.ColorNegative},
		{CmdReportBug, "🐛 Сообщить о баге", "🐛 Report Bug", domain.ColorSecondary},
		{CmdChangeLanguage, "🌐 Смена языка", "🌐 Change Language", domain.ColorPositive},
	},
	KeyboardAI: {
		{CmdEndAI, "🔙 Выйти из ИИ", "🔙 Exit AI", domain.ColorNegative},
	},
	KeyboardHuman: {
		{CmdEndHuman, "🔙 Назад", "🔙 Back", domain.ColorNegative},
	},
	KeyboardAction: {
		{CmdCancel, "❌ Отмена", "❌ Cancel", domain.ColorNegative},
	},
	KeyboardAdmin: {
		{CmdManageAgents, "👥 Управление агентами", "👥 Manage Agents", domain.ColorPrimary},
		{CmdBanUser, "⛔ Баны пользователей", "⛔ User Bans", domain.ColorNegative},
		{CmdBroadcast, "📢 Отправить объявление", "📢 Send Announcement", domain.ColorPositive},
		{CmdCancel, "🔙 Назад", "🔙 Back", domain.ColorNegative},
	},
	KeyboardManageAgents: {
		{CmdAddAgent, "➕ Добавить агента", "➕ Add Agent", domain.ColorPositive},
		{CmdRemoveAgent, "➖ Удалить агента", "➖ Remove Agent", domain.ColorNegative},
		{CmdCancel, "🔙 Назад", "🔙 Back", domain.ColorSecondary},
	},
	KeyboardBanUser: {
		{CmdBan, "⛔ Забанить", "⛔ Ban", domain.ColorNegative},
		{CmdUnban, "✅ Разбанить", "✅ Unban", domain.ColorPositive},
		{CmdCancel, "🔙 Назад", "🔙 Back", domain.ColorSecondary},
	},
}

var adminPanelButton = buttonSpec{CmdAdminPanel, "🛠 Панель администратора", "🛠 Admin Panel", domain.ColorPositive}

// buildKeyboard renders a layout in lang, one button per row. Staff get an
// extra admin panel button on top of the main keyboard.
func buildKeyboard(kind KeyboardKind, lang domain.Language, staff bool) *domain.Keyboard {
	specs, ok := layouts[kind]
	if !ok {
		return nil
	}
	if kind == KeyboardMain && staff {
		specs = append([]buttonSpec{adminPanelButton}, specs...)
	}

	kb := &domain.Keyboard{Rows: make([][]domain.Button, 0, len(specs))}
	for _, s := range specs {
		label := s.ru
		if lang == domain.LangEN {
			label = s.en
		}
		kb.Rows = append(kb.Rows, []domain.Button{{Label: label, Command: s.command.String(), Color: s.color}})
	}
	return kb
}

// modeKeyboard is the keyboard shown to a user left in mode.
func modeKeyboard(mode domain.Mode) KeyboardKind {
	switch {
	case mode.IsAIChat():
		return KeyboardAI
	case mode.IsHandoff():
		return KeyboardHuman
	case !mode.IsIdle():
		return KeyboardAction
	default:
		return KeyboardMain
	}
}
