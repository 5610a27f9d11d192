// Package vote models the per-(user, answer) voting state machine:
// {no-vote, upvoted, downvoted}. Clicking the same direction again
// retracts; clicking the opposite direction switches. Transition returns
// both the count delta and its inverse so callers can roll back an
// optimistic application when the server rejects it.
package vote

// State is the user's current vote on an answer.
type State int

const (
	NoVote State = iota
	Upvoted
	Downvoted
)

func (s State) String() string {
	switch s {
	case Upvoted:
		return "up"
	case Downvoted:
		return "down"
	default:
		return "none"
	}
}

// Direction is a click on one of the two vote buttons.
type Direction bool

const (
	Up   Direction = true
	Down Direction = false
)

// Delta is the change a transition applies to the displayed counts.
type Delta struct {
	Upvotes   int
	Downvotes int
}

// Inverse returns the delta that undoes d.
func (d Delta) Inverse() Delta {
	return Delta{Upvotes: -d.Upvotes, Downvotes: -d.Downvotes}
}

// Transition applies one click to the current state. It returns the next
// state, the count delta, and the inverse delta for rollback.
func Transition(current State, click Direction) (next State, delta, inverse Delta) {
	switch {
	case current == NoVote && click == Up:
		next, delta = Upvoted, Delta{Upvotes: +1}
	case current == NoVote && click == Down:
		next, delta = Downvoted, Delta{Downvotes: +1}
	case current == Upvoted && click == Up:
		// Retraction.
		next, delta = NoVote, Delta{Upvotes: -1}
	case current == Downvoted && click == Down:
		next, delta = NoVote, Delta{Downvotes: -1}
	case current == Upvoted && click == Down:
		// Switch: decrement old, increment new.
		next, delta = Downvoted, Delta{Upvotes: -1, Downvotes: +1}
	default: // Downvoted, Up
		next, delta = Upvoted, Delta{Upvotes: +1, Downvotes: -1}
	}
	return next, delta, delta.Inverse()
}

// FromUserVote converts the nullable DB representation (nil, true,
// false) to a State.
func FromUserVote(userVote *bool) State {
	switch {
	case userVote == nil:
		return NoVote
	case *userVote:
		return Upvoted
	default:
		return Downvoted
	}
}
