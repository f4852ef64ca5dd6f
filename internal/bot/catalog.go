package bot

import (
	"fmt"

	"github.com/candyxpe/supportbot/internal/domain"
)

// msgKey identifies a localized message template.
type msgKey string

const (
	msgWelcome              msgKey = "welcome"
	msgUnknown              msgKey = "unknown"
	msgAIOn                 msgKey = "ai_on"
	msgAIOff                msgKey = "ai_off"
	msgAIError              msgKey = "ai_error"
	msgHumanOn              msgKey = "human_on"
	msgHumanOff             msgKey = "human_off"
	msgReportStaff          msgKey = "report_staff"
	msgReportBug            msgKey = "report_bug"
	msgReportStaffSent      msgKey = "report_staff_sent"
	msgReportBugSent        msgKey = "report_bug_sent"
	msgReportStaffFailed    msgKey = "report_staff_failed"
	msgReportBugFailed      msgKey = "report_bug_failed"
	msgLangChanged          msgKey = "lang_changed"
	msgCancel               msgKey = "cancel"
	msgAdminDenied          msgKey = "admin_denied"
	msgAdminPanel           msgKey = "admin_panel"
	msgManageAgents         msgKey = "manage_agents"
	msgBanUser              msgKey = "ban_user"
	msgBroadcastPrompt      msgKey = "broadcast"
	msgAddAgentPrompt       msgKey = "add_agent"
	msgRemoveAgentPrompt    msgKey = "remove_agent"
	msgBanPrompt            msgKey = "ban"
	msgUnbanPrompt          msgKey = "unban"
	msgNoInput              msgKey = "no_input"
	msgBroadcastMessage     msgKey = "broadcast_message"
	msgBroadcastSent        msgKey = "broadcast_sent"
	msgSelfAgent            msgKey = "self_agent"
	msgAlreadyAgent         msgKey = "already_agent"
	msgAgentAdded           msgKey = "agent_added"
	msgAgentAddedNotify     msgKey = "agent_added_notify"
	msgSelfRemove           msgKey = "self_remove"
	msgAgentRemoved         msgKey = "agent_removed"
	msgAgentRemovedNotify   msgKey = "agent_removed_notify"
	msgNotAgent             msgKey = "not_agent"
	msgInvalidFormat        msgKey = "invalid_format"
	msgInvalidID            msgKey = "invalid_id"
	msgSelfBan              msgKey = "self_ban"
	msgAgentBan             msgKey = "agent_ban"
	msgBanned               msgKey = "banned"
	msgBannedNotify         msgKey = "banned_notify"
	msgUnbanned             msgKey = "unbanned"
	msgUnbannedNotify       msgKey = "unbanned_notify"
	msgNotBanned            msgKey = "not_banned"
	msgBannedUser           msgKey = "banned_user"
	msgChatUnavailable      msgKey = "chat_unavailable"
	msgNoChatAccess         msgKey = "no_chat_access"
	msgChatBotDisabled      msgKey = "chat_bot_disabled"
	msgMethodUnavailable    msgKey = "method_unavailable"
	msgError                msgKey = "error"
	msgVersion              msgKey = "version"
	msgStats                msgKey = "stats"
	msgAgentsList           msgKey = "agents_list"
	msgAgentsEmpty          msgKey = "agents_empty"
	msgStaffClientConnected msgKey = "staff_client_connected"
	msgStaffAgentAdded      msgKey = "staff_agent_added"
	msgStaffAgentRemoved    msgKey = "staff_agent_removed"
	msgStaffBanned          msgKey = "staff_banned"
	msgStaffUnbanned        msgKey = "staff_unbanned"
	msgStaffBroadcast       msgKey = "staff_broadcast"
	msgHintAgentFormat      msgKey = "hint_agent_format"
	msgHintBanFormat        msgKey = "hint_ban_format"
)

var catalog = map[domain.Language]map[msgKey]string{
	domain.LangRU: {
		msgWelcome:              "👋 Добро пожаловать в бота тех.поддержки CandyxPE!\nВыберите действие:",
		msgUnknown:              "❌ Неизвестная команда.",
		msgAIOn:                 "🤖 ИИ-Агент активирован! Задавайте вопросы.",
		msgAIOff:                "👋 Вы вышли из режима ИИ.",
		msgAIError:              "❌ Ошибка. Обратитесь к поддержке CandyxPE.",
		msgHumanOn:              "👨‍💻 Вы подключены к агенту. Опишите проблему.",
		msgHumanOff:             "👋 Вы вернулись в режим бота.",
		msgReportStaff:          "⚠️ Жалоба на персонал\nОпишите ситуацию:",
		msgReportBug:            "🐛 Сообщите о баге\nОпишите проблему:",
		msgReportStaffSent:      "✅ Жалоба отправлена.",
		msgReportBugSent:        "✅ Сообщение о баге отправлено.",
		msgReportStaffFailed:    "❌ Ошибка отправки жалобы.",
		msgReportBugFailed:      "❌ Ошибка отправки сообщения о баге.",
		msgLangChanged:          "🌐 Язык изменён на Русский.",
		msgCancel:               "✅ Действие отменено.",
		msgAdminDenied:          "⛔ Доступ запрещён.",
		msgAdminPanel:           "🛠 Панель управления\nВыберите действие:",
		msgManageAgents:         "👥 Управление агентами\nВыберите действие:",
		msgBanUser:              "⛔ Управление банами\nВыберите действие:",
		msgBroadcastPrompt:      "📢 Введите текст объявления:",
		msgAddAgentPrompt:       "➕ Введите ID и роль (agent/admin/manager, например, '123456 agent'):",
		msgRemoveAgentPrompt:    "➖ Введите ID для снятия роли:",
		msgBanPrompt:            "⛔ Введите ID и часы бана (например, '123456 24'):",
		msgUnbanPrompt:          "✅ Введите ID для разбана:",
		msgNoInput:              "❌ Введите данные.",
		msgBroadcastMessage:     "📢 Объявление от CandyxPE:\n%[1]s",
		msgBroadcastSent:        "📢 Объявление отправлено %[1]d пользователям.",
		msgSelfAgent:            "❌ Нельзя назначить себя.",
		msgAlreadyAgent:         "❌ id%[1]d уже агент.",
		msgAgentAdded:           "✅ %[1]s id%[2]d назначен.",
		msgAgentAddedNotify:     "✅ Вы назначены на роль %[1]s в CandyxPE!",
		msgSelfRemove:           "❌ Нельзя снять роль с себя.",
		msgAgentRemoved:         "✅ %[1]s id%[2]d снят.",
		msgAgentRemovedNotify:   "❌ Вы больше не %[1]s CandyxPE.",
		msgNotAgent:             "❌ id%[1]d не агент.",
		msgInvalidFormat:        "❌ Формат: %[1]s. Пример: '%[2]s'.",
		msgInvalidID:            "❌ Введите корректный ID.",
		msgSelfBan:              "❌ Нельзя забанить себя.",
		msgAgentBan:             "❌ Нельзя забанить агента.",
		msgBanned:               "⛔ id%[1]d забанен на %[2]d часов.",
		msgBannedNotify:         "⛔ Вы заблокированы на %[1]d часов.",
		msgUnbanned:             "✅ id%[1]d разбанен.",
		msgUnbannedNotify:       "✅ Вы разблокированы.",
		msgNotBanned:            "❌ id%[1]d не забанен.",
		msgBannedUser:           "⛔ Вы заблокированы. Попробуйте позже.",
		msgChatUnavailable:      "❌ Админ-чат недоступен.",
		msgNoChatAccess:         "❌ Сообщество не имеет прав администратора в чате.",
		msgChatBotDisabled:      "❌ Включите функцию чат-бота в настройках!",
		msgMethodUnavailable:    "❌ Метод недоступен для токена сообщества.",
		msgError:                "❌ Ошибка. Попробуйте снова.",
		msgVersion:              "🚀 CandyxPE v%[1]s (%[2]s)",
		msgStats:                "📊 Статистика\nАгентов: %[1]d\nЗабанено: %[2]d\nСессий: %[3]d (ИИ: %[4]d, агент: %[5]d, ввод: %[6]d)\nАптайм: %[7]s",
		msgAgentsList:           "👥 Агенты:\n%[1]s",
		msgAgentsEmpty:          "👥 Агентов нет.",
		msgStaffClientConnected: "Клиент подключён к агенту.",
		msgStaffAgentAdded:      "%[1]s id%[2]d назначен.",
		msgStaffAgentRemoved:    "%[1]s id%[2]d снят.",
		msgStaffBanned:          "id%[1]d забанен на %[2]d часов.",
		msgStaffUnbanned:        "id%[1]d разбанен.",
		msgStaffBroadcast:       "Объявление отправлено %[1]d пользователям:\n%[2]s",
		msgHintAgentFormat:      "<ID> <agent/admin/manager>",
		msgHintBanFormat:        "<ID> <часы>",
	},
	domain.LangEN: {
		msgWelcome:              "👋 Welcome to CandyxPE!\nChoose an action:",
		msgUnknown:              "❌ Unknown command.",
		msgAIOn:                 "🤖 AI Agent activated! Ask your questions.",
		msgAIOff:                "👋 You have exited AI mode.",
		msgAIError:              "❌ Error. Contact support CandyxPE.",
		msgHumanOn:              "👨‍💻 You are connected to an agent. Describe your issue.",
		msgHumanOff:             "👋 You have returned to bot mode.",
		msgReportStaff:          "⚠️ Staff Complaint\nDescribe the situation:",
		msgReportBug:            "🐛 Report a Bug\nDescribe the issue:",
		msgReportStaffSent:      "✅ Complaint sent.",
		msgReportBugSent:        "✅ Bug report sent.",
		msgReportStaffFailed:    "❌ Failed to send complaint.",
		msgReportBugFailed:      "❌ Failed to send bug report.",
		msgLangChanged:          "🌐 Language changed to English.",
		msgCancel:               "✅ Action canceled.",
		msgAdminDenied:          "⛔ Access denied.",
		msgAdminPanel:           "🛠 Admin Panel\nChoose an action:",
		msgManageAgents:         "👥 Manage Agents\nChoose an action:",
		msgBanUser:              "⛔ User Bans\nChoose an action:",
		msgBroadcastPrompt:      "📢 Enter the announcement text:",
		msgAddAgentPrompt:       "➕ Enter ID and role (agent/admin/manager, e.g., '123456 agent'):",
		msgRemoveAgentPrompt:    "➖ Enter ID to remove role:",
		msgBanPrompt:            "⛔ Enter ID and ban hours (e.g., '123456 24'):",
		msgUnbanPrompt:          "✅ Enter ID to unban:",
		msgNoInput:              "❌ Enter data.",
		msgBroadcastMessage:     "📢 Announcement from CandyxPE:\n%[1]s",
		msgBroadcastSent:        "📢 Announcement sent to %[1]d users.",
		msgSelfAgent:            "❌ Cannot assign yourself.",
		msgAlreadyAgent:         "❌ id%[1]d is already an agent.",
		msgAgentAdded:           "✅ %[1]s id%[2]d assigned.",
		msgAgentAddedNotify:     "✅ You have been assigned as %[1]s of CandyxPE!",
		msgSelfRemove:           "❌ Cannot remove your own role.",
		msgAgentRemoved:         "✅ %[1]s id%[2]d removed.",
		msgAgentRemovedNotify:   "❌ You are no longer a %[1]s of CandyxPE.",
		msgNotAgent:             "❌ id%[1]d is not an agent.",
		msgInvalidFormat:        "❌ Format: %[1]s. Example: '%[2]s'.",
		msgInvalidID:            "❌ Enter a valid ID.",
		msgSelfBan:              "❌ Cannot ban yourself.",
		msgAgentBan:             "❌ Cannot ban an agent.",
		msgBanned:               "⛔ id%[1]d banned for %[2]d hours.",
		msgBannedNotify:         "⛔ You are banned for %[1]d hours.",
		msgUnbanned:             "✅ id%[1]d unbanned.",
		msgUnbannedNotify:       "✅ You have been unbanned.",
		msgNotBanned:            "❌ id%[1]d is not banned.",
		msgBannedUser:           "⛔ You are banned. Try again later.",
		msgChatUnavailable:      "❌ Admin chat unavailable.",
		msgNoChatAccess:         "❌ The community has no admin rights in the chat.",
		msgChatBotDisabled:      "❌ Enable the chat bot feature in the settings!",
		msgMethodUnavailable:    "❌ The method is unavailable for a community token.",
		msgError:                "❌ Error. Try again.",
		msgVersion:              "🚀 CandyxPE v%[1]s (%[2]s)",
		msgStats:                "📊 Statistics\nAgents: %[1]d\nBanned: %[2]d\nSessions: %[3]d (AI: %[4]d, agent: %[5]d, input: %[6]d)\nUptime: %[7]s",
		msgAgentsList:           "👥 Agents:\n%[1]s",
		msgAgentsEmpty:          "👥 No agents.",
		msgStaffClientConnected: "Client connected.",
		msgStaffAgentAdded:      "%[1]s id%[2]d assigned.",
		msgStaffAgentRemoved:    "%[1]s id%[2]d removed.",
		msgStaffBanned:          "id%[1]d banned for %[2]d hours.",
		msgStaffUnbanned:        "id%[1]d unbanned.",
		msgStaffBroadcast:       "Announcement sent to %[1]d users:\n%[2]s",
		msgHintAgentFormat:      "<ID> <agent/admin/manager>",
		msgHintBanFormat:        "<ID> <hours>",
	},
}

// text renders a message in lang, falling back to Russian and finally to
// the key itself.
func text(lang domain.Language, key msgKey, args ...any) string {
	tmpl, ok := catalog[lang][key]
	if !ok {
		tmpl, ok = catalog[domain.LangRU][key]
	}
	if !ok {
		return string(key)
	}
	if len(args) == 0 {
		return tmpl
	}
	return fmt.Sprintf(tmpl, args...)
}
