package services

import "github.com/mlopezgez/group-habits-tracking/internal/apperror"

// Domain failures. Each maps to one HTTP status through its apperror.Kind.
var (
	ErrUserNotFound    = apperror.New(apperror.NotFound, "User not found")
	ErrGroupNotFound   = apperror.New(apperror.NotFound, "Group not found")
	ErrHabitNotFound   = apperror.New(apperror.NotFound, "Habit not found")
	ErrCheckInNotFound = apperror.New(apperror.NotFound, "Check-in not found")
	ErrNotTracking     = apperror.New(apperror.NotFound, "Not tracking this habit")
	ErrInvalidCode     = apperror.New(apperror.NotFound, "Invalid invite code")

	ErrNotMember       = apperror.New(apperror.Forbidden, "Not a member of this group")
	ErrNotAdmin        = apperror.New(apperror.Forbidden, "Only admins can create habits")
	ErrNotOwner        = apperror.New(apperror.Forbidden, "Only the group owner can delete the group")
	ErrNotCheckInOwner = apperror.New(apperror.Forbidden, "Unauthorized to delete this check-in")

	ErrMissingName       = apperror.New(apperror.InvalidInput, "Name is required")
	ErrMissingInviteCode = apperror.New(apperror.InvalidInput, "Invite code is required")
	ErrMissingCheckInID  = apperror.New(apperror.InvalidInput, "Check-in ID is required")
	ErrHabitMismatch     = apperror.New(apperror.InvalidInput, "Check-in does not belong to this habit")
	ErrEmptyContent      = apperror.New(apperror.InvalidInput, "Message content is required")
	ErrInvalidDate       = apperror.New(apperror.InvalidInput, "Invalid check-in date")

	ErrAlreadyMember     = apperror.New(apperror.Conflict, "Already a member of this group")
	ErrAlreadySubscribed = apperror.New(apperror.Conflict, "Already tracking this habit")
	ErrAlreadyCheckedIn  = apperror.New(apperror.Conflict, "Already checked in for this date")
	ErrEmailInUse        = apperror.New(apperror.Conflict, "Email belongs to another account")

	ErrMissingIdentityAttribute = apperror.New(apperror.Internal, "Missing identity attribute: email")
)
