package models

import "time"

// Interaction records one user's like, superlike, skip or block of another.
// There is at most one per ordered pair; the latest action wins.
type Interaction struct {
	ID         string    `dynamodbav:"id" json:"id"` // "<from>#<to>"
	FromUserID string    `dynamodbav:"fromUserId" json:"fromUserId"`
	ToUserID   string    `dynamodbav:"toUserId" json:"toUserId"`
	Type       string    `dynamodbav:"type" json:"type"`
	CreatedAt  time.Time `dynamodbav:"createdAt" json:"createdAt"`
}

// InteractionID builds the document id for the ordered pair from -> to.
func InteractionID(from, to string) string {
	return from + "#" + to
}

// IsLike reports whether the interaction expresses interest.
func (i *Interaction) IsLike() bool {
	return i.Type == InteractionTypeLike || i.Type == InteractionTypeSuperLike
}
