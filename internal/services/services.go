package services

import "go.uber.org/zap"

// Services is the set of business services shared by the HTTP layer.
type Services struct {
	Identity *IdentityService
	Access   *AccessService
	Groups   *GroupService
	Habits   *HabitService
	CheckIns *CheckInService
	Chat     *ChatService
	Calendar *Calendar
}

// New wires every service over one store.
func New(store Store, profiles ProfileFetcher, cal *Calendar, logger *zap.Logger) *Services {
	access := NewAccessService(store.Groups, store.Members)
	return &Services{
		Identity: NewIdentityService(store.Users, profiles, logger),
		Access:   access,
		Groups:   NewGroupService(store, access, logger),
		Habits:   NewHabitService(store, access, cal),
		CheckIns: NewCheckInService(store, access, cal),
		Chat:     NewChatService(store, access),
		Calendar: cal,
	}
}
