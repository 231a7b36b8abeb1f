package navigation

// Phase is the seeker's movement stage.
type Phase string

const (
	PhaseIdle        Phase = "idle"
	PhaseRotating    Phase = "rotating"
	PhaseMoving      Phase = "moving"
	PhaseApproaching Phase = "approaching"
	PhaseInteracting Phase = "interacting"
)

// RecoveryKind labels how a target run ended or was rescued.
type RecoveryKind string

const (
	RecoveryJump        RecoveryKind = "jump"
	RecoveryRecalculate RecoveryKind = "recalculate"
	RecoveryAbandon     RecoveryKind = "abandon"
	RecoveryGiveUp      RecoveryKind = "give_up"
	RecoveryCompleted   RecoveryKind = "completed"
)

// Observer receives phase transitions and recovery events.
type Observer interface {
	PhaseChanged(from, to Phase)
	Recovered(kind RecoveryKind)
}
