package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	ActivityLike     = "like"
	ActivityUnlike   = "unlike"
	ActivityFollow   = "follow"
	ActivityUnfollow = "unfollow"
	ActivityComment  = "comment"
	ActivityPost     = "post"
)

// Activity is an entry of the append-only activity trail stored in MongoDB
type Activity struct {
	ID         primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	ActorID    uint               `json:"actor_id" bson:"actor_id"`
	Verb       string             `json:"verb" bson:"verb"`
	TargetType string             `json:"target_type" bson:"target_type"` // post, user, comment
	TargetID   uint               `json:"target_id" bson:"target_id"`
	CreatedAt  time.Time          `json:"created_at" bson:"created_at"`
}
