package session

// State: состояние тренировочной сессии
type State string

const (
	StateReady        State = "READY"
	StateQuestion     State = "QUESTION"
	StateRecording    State = "RECORDING"
	StateAwaitingText State = "AWAITING_TEXT"
	StateProcessing   State = "PROCESSING"
	StateDone         State = "DONE"
	StateEarlyExit    State = "EARLY_EXIT"
)

// Terminal сообщает, что из состояния переходов больше нет
func (s State) Terminal() bool {
	return s == StateDone || s == StateEarlyExit
}

// canSkip: пропуск доступен, пока по раунду не начата оценка
func (s State) canSkip() bool {
	return s == StateQuestion || s == StateRecording || s == StateAwaitingText
}

// OutcomeKind: чем закончилась сессия
type OutcomeKind string

const (
	// OutcomeCompleted: пройдены все раунды
	OutcomeCompleted OutcomeKind = "completed"
	// OutcomeEndedEarly: выход до конца, но хотя бы один раунд завершен
	OutcomeEndedEarly OutcomeKind = "ended_early"
	// OutcomeCancelled: выход без единого завершенного раунда, сессия не создается
	OutcomeCancelled OutcomeKind = "cancelled"
)
