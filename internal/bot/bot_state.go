package bot

type BotState int

const (
	StateDefault BotState = iota
	StateConfirmingDeletion
	StateConfirmingReset
)

type UserSession struct {
	State BotState
	// ID записей, ожидающих подтверждения удаления
	PendingDeleteIDs []int
}

// session возвращает копию сессии чата, сессии хранятся только под b.mu.
func (b *Bot) session(chatID int64) UserSession {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if session, exists := b.userSessions[chatID]; exists {
		return *session
	}
	return UserSession{State: StateDefault}
}

func (b *Bot) setSession(chatID int64, session UserSession) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.userSessions[chatID] = &session
}

// takeSession забирает сессию, если она в состоянии state.
// Из двух одновременных подтверждений сработает только одно.
func (b *Bot) takeSession(chatID int64, state BotState) (UserSession, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	session, exists := b.userSessions[chatID]
	if !exists || session.State != state {
		return UserSession{}, false
	}
	delete(b.userSessions, chatID)
	return *session, true
}

func (b *Bot) resetSession(chatID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.userSessions, chatID)
}
