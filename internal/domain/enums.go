package domain

type ActivityType string

const (
	ActivityCall    ActivityType = "call"
	ActivityEmail   ActivityType = "email"
	ActivityMeeting ActivityType = "meeting"
	ActivityTask    ActivityType = "task"
	ActivityNote    ActivityType = "note"
)

// ValidActivityTypes is the canonical set of accepted activity type strings.
var ValidActivityTypes = map[ActivityType]bool{
	ActivityCall: true, ActivityEmail: true, ActivityMeeting: true,
	ActivityTask: true, ActivityNote: true,
}

// ActivityTypes lists the types in display order.
func ActivityTypes() []ActivityType {
	return []ActivityType{ActivityCall, ActivityEmail, ActivityMeeting, ActivityTask, ActivityNote}
}

type StoreMode string

const (
	StoreLocal  StoreMode = "local"
	StoreRemote StoreMode = "remote"
)
