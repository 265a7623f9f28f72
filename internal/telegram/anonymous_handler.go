package telegram

// handleAnonymousCommand processes /anonymous_on and /anonymous_off. The
// preference applies to complaints this chat files later with /report.
func (s *BotService) handleAnonymousCommand(chatID int64, lang, command string) {
	var key string
	s.mu.Lock()
	switch command {
	case "anonymous_on":
		s.anonymous[chatID] = true
		key = "anonymous_on"
	case "anonymous_off":
		delete(s.anonymous, chatID)
		key = "anonymous_off"
	default:
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	s.client.Reply(chatID, s.localizer.GetString(lang, key), nil)
}
