package auth

// State is a step of the credential lifecycle.
type State int

const (
	NoCredential State = iota
	HaveValidCredential
	HaveExpiredOrMissingCredential
	AwaitingUserAuthorization
	Failed
)

func (s State) String() string {
	switch s {
	case NoCredential:
		return "NoCredential"
	case HaveValidCredential:
		return "HaveValidCredential"
	case HaveExpiredOrMissingCredential:
		return "HaveExpiredOrMissingCredential"
	case AwaitingUserAuthorization:
		return "AwaitingUserAuthorization"
	case Failed:
		return "Failed"
	default:
		return "Unknown"
	}
}
