package models

// Interaction types recorded from discovery
const (
	InteractionTypeLike      = "like"
	InteractionTypeSuperLike = "superlike"
	InteractionTypeSkip      = "skip"
	InteractionTypeBlock     = "block"
)

// Match statuses
const (
	MatchStatusActive    = "active"
	MatchStatusUnmatched = "unmatched"
)

// Subscription plans and statuses
const (
	PlanPlus = "plus"
	PlanGold = "gold"

	SubscriptionStatusPending   = "pending"
	SubscriptionStatusActive    = "active"
	SubscriptionStatusCancelled = "cancelled"
	SubscriptionStatusExpired   = "expired"
)

// Payment statuses, mirrored from the payment provider
const (
	PaymentStatusRequiresPayment = "requires_payment"
	PaymentStatusProcessing      = "processing"
	PaymentStatusSucceeded       = "succeeded"
	PaymentStatusFailed          = "failed"
	PaymentStatusCancelled       = "cancelled"
)

// Notification types
const (
	NotificationTypeMatch        = "match"
	NotificationTypeMessage      = "message"
	NotificationTypeLike         = "like"
	NotificationTypeCall         = "call"
	NotificationTypeSubscription = "subscription"
	NotificationTypeSystem       = "system"
)

// Call kinds and statuses
const (
	CallKindAudio = "audio"
	CallKindVideo = "video"

	CallStatusRinging  = "ringing"
	CallStatusOngoing  = "ongoing"
	CallStatusEnded    = "ended"
	CallStatusDeclined = "declined"
	CallStatusMissed   = "missed"
)

// Gender preference that disables the gender filter in discovery
const GenderEveryone = "everyone"

// Table names. A deployment prefix is applied by the store.
const (
	UsersTable         = "Users"
	InteractionsTable  = "Interactions"
	MatchesTable       = "Matches"
	ChatsTable         = "Chats"
	MessagesTable      = "Messages"
	OffersTable        = "Offers"
	SubscriptionsTable = "Subscriptions"
	PaymentsTable      = "Payments"
	NotificationsTable = "Notifications"
	DeviceTokensTable  = "DeviceTokens"
	AIProfilesTable    = "AIProfiles"
	CallsTable         = "Calls"
)
