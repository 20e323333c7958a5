package table

import "errors"

var (
	ErrTableLocked        = errors.New("table: table locked")
	ErrTableFull          = errors.New("table: table full")
	ErrInsufficientChips  = errors.New("table: insufficient chips")
	ErrInvalidRaiseAmount = errors.New("table: invalid raise amount")
	ErrNotYourTurn        = errors.New("table: not your turn")
	ErrIllegalCheck       = errors.New("table: cannot check facing a bet")
	ErrNotSeated          = errors.New("table: player not seated")
	ErrHandNotInProgress  = errors.New("table: no hand in progress")
	ErrHandInProgress     = errors.New("table: hand already in progress")
	ErrNotEnoughPlayers   = errors.New("table: not enough players")
	ErrTableClosed        = errors.New("table: table closed")
	ErrUnknownAction      = errors.New("table: unknown action")
	ErrInvalidPlayer      = errors.New("table: invalid player")
)

// Code returns the stable wire code for a table error, or "" when err is not one
func Code(err error) string {
	switch {
	case errors.Is(err, ErrTableLocked):
		return "table_locked"
	case errors.Is(err, ErrTableFull):
		return "table_full"
	case errors.Is(err, ErrInsufficientChips):
		return "insufficient_chips"
	case errors.Is(err, ErrInvalidRaiseAmount):
		return "invalid_raise"
	case errors.Is(err, ErrNotYourTurn):
		return "not_your_turn"
	case errors.Is(err, ErrIllegalCheck):
		return "illegal_check"
	case errors.Is(err, ErrNotSeated):
		return "not_seated"
	case errors.Is(err, ErrHandNotInProgress):
		return "hand_not_in_progress"
	case errors.Is(err, ErrHandInProgress):
		return "hand_in_progress"
	case errors.Is(err, ErrNotEnoughPlayers):
		return "not_enough_players"
	case errors.Is(err, ErrTableClosed):
		return "table_closed"
	case errors.Is(err, ErrUnknownAction):
		return "unknown_action"
	case errors.Is(err, ErrInvalidPlayer):
		return "invalid_player"
	default:
		return ""
	}
}
