package server

// NotificationType names a session-scoped event pushed to subscribed clients.
type NotificationType string

const (
	// NotificationStoryAdded carries the full created story.
	NotificationStoryAdded NotificationType = "STORY_ADDED"
	// NotificationStoryEnded carries the ended story id.
	NotificationStoryEnded NotificationType = "STORY_ENDED"
	// NotificationStoryRemoved carries the removed story id.
	NotificationStoryRemoved NotificationType = "STORY_REMOVED"
	// NotificationUserConnected carries the joined user.
	NotificationUserConnected NotificationType = "USER_CONNECTED"
	// NotificationUserDisconnected carries the leaving username.
	NotificationUserDisconnected NotificationType = "USER_DISCONNECTED"
	// NotificationVoteAdded carries the full vote.
	NotificationVoteAdded NotificationType = "VOTE_ADDED"
	// NotificationVoteRemoved carries the removed vote id.
	NotificationVoteRemoved NotificationType = "VOTE_REMOVED"
)

// Notifier pushes a notification to every client subscribed to a session.
//
// Delivery is best effort. Implementations must not block service calls on
// slow subscribers and must never surface delivery failures to callers;
// mutations that already committed stay committed.
type Notifier interface {
	SendNotification(sessionID string, kind NotificationType, payload any)
}

// NopNotifier discards all notifications. It stands in wherever no
// subscription transport is wired, such as unit tests.
type NopNotifier struct{}

// SendNotification implements Notifier by doing nothing.
func (NopNotifier) SendNotification(string, NotificationType, any) {}
