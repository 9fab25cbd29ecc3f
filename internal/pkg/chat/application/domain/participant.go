package chat

// Participant is the display record of a chat member as known by the user directory.
// The directory is owned by the profile service; this core only reads it.
type Participant struct {
	UserID       string `db:"id" json:"_id"`
	Name         string `db:"name" json:"name"`
	ProfileImage string `db:"profile_image" json:"profileImage,omitempty"`
	IsAnonymous  bool   `db:"is_anonymous" json:"isAnonymous"`
}

// UnknownParticipant is used when the directory has no record for userID.
func UnknownParticipant(userID string) Participant {
	return Participant{UserID: userID, Name: "Unknown user"}
}
