package domain

import "errors"

// Error classes. Every sentinel below wraps exactly one of them.
var (
	// ErrInvalidAction marks a refused player action. The caller may re-issue
	// the same decision request.
	ErrInvalidAction = errors.New("invalid action")
	// ErrContractViolation marks a call the state machine must never receive
	// from a correct orchestrator.
	ErrContractViolation = errors.New("contract violation")
)

type classifiedError struct {
	msg   string
	class error
}

func (e *classifiedError) Error() string { return e.msg }
func (e *classifiedError) Unwrap() error { return e.class }

func invalidAction(msg string) error { return &classifiedError{msg: msg, class: ErrInvalidAction} }
func contractViolation(msg string) error {
	return &classifiedError{msg: msg, class: ErrContractViolation}
}

// User-input class.
var (
	ErrCardNotInHand    = invalidAction("card not in hand")
	ErrDuplicateCard    = invalidAction("card listed more than once")
	ErrDiscardCount     = invalidAction("wrong number of cards to discard")
	ErrIndexOutOfRange  = invalidAction("index out of range")
	ErrExceedsThirtyOne = invalidAction("card would take the count past 31")
	ErrMustPlay         = invalidAction("cannot say go while holding a playable card")
	ErrInvalidCard      = invalidAction("not a valid card")
)

// Programmer-contract class.
var (
	ErrUnknownPlayer      = contractViolation("player not found")
	ErrWrongPhase         = contractViolation("action not allowed in current phase")
	ErrNotYourTurn        = contractViolation("player is not the one to act")
	ErrAlreadySelected    = contractViolation("player already selected a dealer card")
	ErrAlreadyDiscarded   = contractViolation("player already discarded")
	ErrCribIncomplete     = contractViolation("crib does not hold the expected number of cards")
	ErrPeggingIncomplete  = contractViolation("players still hold pegging cards")
	ErrNoTurnCard         = contractViolation("turn card has not been cut")
	ErrNotDealer          = contractViolation("player is not the dealer")
	ErrAlreadyCounted     = contractViolation("hand already counted")
	ErrRoundNotStarted    = contractViolation("round has not been started")
	ErrRoundStarted       = contractViolation("round already started")
	ErrCountingIncomplete = contractViolation("hands or crib not yet counted")
	ErrDuplicateRequest   = contractViolation("decision request already pending for player and type")
	ErrNoPendingRequest   = contractViolation("no pending decision request")
	ErrGameOver           = contractViolation("game is over")
	ErrInvalidRoster      = contractViolation("invalid player roster")
	ErrHandSize           = contractViolation("hand must hold exactly four cards")
	ErrUnsupportedVersion = contractViolation("unsupported session document version")
	ErrCorruptSession     = contractViolation("session document is inconsistent")
)

// IsInvalidAction reports whether err belongs to the recoverable user-input class.
func IsInvalidAction(err error) bool { return errors.Is(err, ErrInvalidAction) }

// IsContractViolation reports whether err belongs to the fatal programmer class.
func IsContractViolation(err error) bool { return errors.Is(err, ErrContractViolation) }
