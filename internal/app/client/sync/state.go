package sync

// State - состояние движка синхронизации
type State int

const (
	// StateGuest - нет аутентифицированной идентичности, все изменения локальные
	StateGuest State = iota
	// StateOffline - идентичность есть, сеть недоступна; таймер остановлен
	StateOffline
	// StateSyncing - идентичность есть, сеть доступна; таймер запущен
	StateSyncing
	// StateReconnecting - возврат в сеть; выполняется внеочередной проход,
	// после которого таймер запускается снова
	StateReconnecting
)

func (s State) String() string {
	switch s {
	case StateGuest:
		return "guest"
	case StateOffline:
		return "offline"
	case StateSyncing:
		return "syncing"
	case StateReconnecting:
		return "reconnecting"
	default:
		return "unknown"
	}
}

// nextState вычисляет состояние по двум независимым сигналам
func nextState(authenticated, online bool, prev State) State {
	switch {
	case !authenticated:
		return StateGuest
	case !online:
		return StateOffline
	case prev == StateOffline, prev == StateReconnecting:
		return StateReconnecting
	default:
		return StateSyncing
	}
}

// Trigger - источник прохода синхронизации
type Trigger string

const (
	TriggerTick      Trigger = "tick"
	TriggerReconnect Trigger = "reconnect"
	TriggerForce     Trigger = "force"
	TriggerManual    Trigger = "manual"
)

// Outcome - результат фонового прохода
type Outcome string

const (
	OutcomeSynced          Outcome = "synced"
	OutcomeFailed          Outcome = "failed"
	OutcomeDiscarded       Outcome = "discarded"
	OutcomeSkippedGuest    Outcome = "skipped_guest"
	OutcomeSkippedOffline  Outcome = "skipped_offline"
	OutcomeSkippedClean    Outcome = "skipped_clean"
	OutcomeSkippedInFlight Outcome = "skipped_in_flight"
)
