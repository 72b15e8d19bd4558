package mongodb

const (
	CredentialsCollection = "credentials"
	UsersCollection       = "users"
	NotesCollection       = "notes"
	EventLogCollection    = "event_log"
)
