package apperr

// Machine-readable error codes returned in the error envelope.
const (
	CodeInternal     = "INTERNAL_ERROR"
	CodeValidation   = "VALIDATION_ERROR"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"
	CodeNotFound     = "NOT_FOUND"
	CodeRateLimited  = "RATE_LIMITED"

	// auth
	CodeAccountExists      = "ACCOUNT_EXISTS"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeAccountDisabled    = "ACCOUNT_DISABLED"

	// friends
	CodeSelfRequest       = "SELF_REQUEST"
	CodeAlreadyFriends    = "ALREADY_FRIENDS"
	CodeRequestPending    = "REQUEST_ALREADY_SENT"
	CodeBlocked           = "BLOCKED"
	CodeFriendshipMissing = "FRIENDSHIP_NOT_FOUND"
	CodeUserNotFound      = "USER_NOT_FOUND"

	// guilds
	CodeGuildNotFound     = "GUILD_NOT_FOUND"
	CodeGuildFull         = "GUILD_FULL"
	CodeGuildPrivate      = "GUILD_PRIVATE"
	CodeGuildNameTaken    = "GUILD_NAME_TAKEN"
	CodeAlreadyMember     = "ALREADY_MEMBER"
	CodeNotMember         = "NOT_A_MEMBER"
	CodeOwnerMustTransfer = "OWNER_MUST_TRANSFER"
	CodeCannotRemoveOwner = "CANNOT_REMOVE_OWNER"
	CodeCannotChangeOwner = "CANNOT_CHANGE_OWNER_ROLE"
	CodeMaxMembersTooLow  = "MAX_MEMBERS_TOO_LOW"

	// teacher
	CodeAssignmentNotFound = "ASSIGNMENT_NOT_FOUND"
	CodeClassroomNotFound  = "CLASSROOM_NOT_FOUND"
	CodeSubmissionNotFound = "SUBMISSION_NOT_FOUND"
	CodeUnknownExercises   = "UNKNOWN_EXERCISES"
	CodeScoreOutOfRange    = "SCORE_OUT_OF_RANGE"
	CodeAlreadySubmitted   = "ALREADY_SUBMITTED"
	CodeNotPublished       = "ASSIGNMENT_NOT_PUBLISHED"
)
