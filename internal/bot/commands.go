package bot

// User commands.
const (
	CommandStart  = "/start"
	CommandSearch = "/search"
	CommandEnd    = "/end"
	CommandReport = "/report"
	CommandHelp   = "/help"
)

// Operator commands. Prefixed so they never collide with the user surface
// and stay invisible in Telegram's command completion for regular users.
const (
	CommandAdminStats     = "/admin_stats"
	CommandAdminBlock     = "/admin_block"
	CommandAdminUnblock   = "/admin_unblock"
	CommandAdminBroadcast = "/admin_broadcast"
	CommandAdminReports   = "/admin_reports"
	CommandAdminChats     = "/admin_chats"
)
