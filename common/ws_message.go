package common

import "teamtask/entity"

// WSMessage is pushed to a connected recipient when a notification lands.
type WSMessage struct {
	Event        string               `json:"event"`
	Notification *entity.Notification `json:"notification,omitempty"`
	UnreadCount  int                  `json:"unread_count"`
	Timestamp    string               `json:"timestamp,omitempty"`
}
