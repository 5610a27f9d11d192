package broker

import (
	"testing"

	"github.com/google/uuid"
)

func TestUserFromNotifySubject(t *testing.T) {
	userID := uuid.New()

	got, err := UserFromNotifySubject(NotifySubject(userID))
	if err != nil {
		t.Fatalf("UserFromNotifySubject() error = %+v", err)
	}
	if got != userID {
		t.Errorf("user ID = %v, want %v", got, userID)
	}

	for _, subject := range []string{
		ConversationSubject(userID),
		StreamName + ".notify.not-a-uuid",
		"other.notify." + userID.String(),
	} {
		if _, err := UserFromNotifySubject(subject); err == nil {
			t.Errorf("UserFromNotifySubject(%q) expected an error", subject)
		}
	}
}
