package store

// DefaultIndexes lists the global secondary indexes the DynamoDB tables are
// provisioned with, keyed by collection then attribute. Each index is named
// "<attribute>-index".
var DefaultIndexes = map[string]map[string]string{
	"Users":         {"gender": "gender-index"},
	"Interactions":  {"fromUserId": "fromUserId-index", "toUserId": "toUserId-index"},
	"Messages":      {"chatId": "chatId-index"},
	"Notifications": {"userId": "userId-index"},
	"DeviceTokens":  {"userId": "userId-index"},
	"Subscriptions": {"userId": "userId-index", "status": "status-index"},
	"Payments":      {"userId": "userId-index", "providerRef": "providerRef-index"},
	"Calls":         {"chatId": "chatId-index", "callerId": "callerId-index", "calleeId": "calleeId-index"},
}
