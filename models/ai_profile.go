package models

import "time"

// AIProfile is the persona behind a bot user. Its id is also the id of the
// matching User document with IsAI set.
type AIProfile struct {
	ID        string    `dynamodbav:"id" json:"id"`
	Persona   string    `dynamodbav:"persona" json:"persona"`
	Greeting  string    `dynamodbav:"greeting" json:"greeting"`
	Replies   []string  `dynamodbav:"replies" json:"replies"`
	CreatedAt time.Time `dynamodbav:"createdAt" json:"createdAt"`
}

// ReplyFor picks a canned reply, cycling through the persona's replies.
func (p *AIProfile) ReplyFor(n int) string {
	if len(p.Replies) == 0 {
		return p.Greeting
	}
	if n < 0 {
		n = -n
	}
	return p.Replies[n%len(p.Replies)]
}
