package services

import "github.com/terraincognita07/moodify/internal/realtime"

// ChangePublisher is notified after every write to a user's collection.
type ChangePublisher interface {
	Publish(topic string)
}

type noopPublisher struct{}

func (noopPublisher) Publish(string) {}

func publisherOrNoop(publisher ChangePublisher) ChangePublisher {
	if publisher == nil {
		return noopPublisher{}
	}
	return publisher
}

func publishUserChange(publisher ChangePublisher, userID uint, collection string) {
	publisher.Publish(realtime.UserTopic(userID, collection))
}
