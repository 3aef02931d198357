package messaging

import (
	"time"

	"github.com/matst80/slask-grocery/pkg/types"
)

type ChangeTopic string

const (
	ItemAdded   ChangeTopic = "item_added"
	ItemChanged ChangeTopic = "item_changed"
	ItemDeleted ChangeTopic = "item_deleted"
)

var AllTopics = []ChangeTopic{ItemAdded, ItemChanged, ItemDeleted}

// ItemEvent is the message body for every topic. Item is nil for deletions.
type ItemEvent struct {
	Type      ChangeTopic     `json:"type"`
	Id        types.ItemId    `json:"id"`
	Item      *types.ItemView `json:"item,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}
