package vote

import "testing"

func TestTransition(t *testing.T) {
	tests := []struct {
		name      string
		current   State
		click     Direction
		wantNext  State
		wantDelta Delta
	}{
		{"upvote from no-vote", NoVote, Up, Upvoted, Delta{Upvotes: +1}},
		{"downvote from no-vote", NoVote, Down, Downvoted, Delta{Downvotes: +1}},
		{"retract upvote", Upvoted, Up, NoVote, Delta{Upvotes: -1}},
		{"retract downvote", Downvoted, Down, NoVote, Delta{Downvotes: -1}},
		{"switch up to down", Upvoted, Down, Downvoted, Delta{Upvotes: -1, Downvotes: +1}},
		{"switch down to up", Downvoted, Up, Upvoted, Delta{Upvotes: +1, Downvotes: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, delta, inverse := Transition(tt.current, tt.click)
			if next != tt.wantNext {
				t.Errorf("next = %v, want %v", next, tt.wantNext)
			}
			if delta != tt.wantDelta {
				t.Errorf("delta = %+v, want %+v", delta, tt.wantDelta)
			}
			if want := tt.wantDelta.Inverse(); inverse != want {
				t.Errorf("inverse = %+v, want %+v", inverse, want)
			}
		})
	}
}

// Applying a delta and then its inverse must always restore the
// starting counts, for every reachable transition.
func TestInverseRestoresCounts(t *testing.T) {
	for _, current := range []State{NoVote, Upvoted, Downvoted} {
		for _, click := range []Direction{Up, Down} {
			_, delta, inverse := Transition(current, click)

			up, down := 10, 4
			up += delta.Upvotes + inverse.Upvotes
			down += delta.Downvotes + inverse.Downvotes

			if up != 10 || down != 4 {
				t.Errorf("Transition(%v, %v): delta+inverse not neutral: up=%d down=%d",
					current, click, up, down)
			}
		}
	}
}

func TestFromUserVote(t *testing.T) {
	truth, falsity := true, false

	if got := FromUserVote(nil); got != NoVote {
		t.Errorf("FromUserVote(nil) = %v, want NoVote", got)
	}
	if got := FromUserVote(&truth); got != Upvoted {
		t.Errorf("FromUserVote(true) = %v, want Upvoted", got)
	}
	if got := FromUserVote(&falsity); got != Downvoted {
		t.Errorf("FromUserVote(false) = %v, want Downvoted", got)
	}
}
