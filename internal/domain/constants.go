package domain

// Roles are checked by explicit membership in per-operation allow-lists;
// there is no rank ordering between them.
const (
	RolePlayer       = "Игрок"
	RoleSiteOwner    = "Владелец сайта"
	RoleOwner        = "Владелец"
	RoleAdmin        = "Администратор"
	RoleCoder        = "Кодер"
	RoleDataPacker   = "Дата-Пакер"
	RoleResourcePack = "Ресурспакер"
	RoleDesigner     = "Дизайнер"
	RoleMarketer     = "Маркетолог"
	RoleCurator      = "Куратор"
	RoleFounder      = "Основатель"
)

var AllRoles = []string{
	RolePlayer,
	RoleSiteOwner,
	RoleOwner,
	RoleAdmin,
	RoleCoder,
	RoleDataPacker,
	RoleResourcePack,
	RoleDesigner,
	RoleMarketer,
	RoleCurator,
	RoleFounder,
}

const (
	AppTypeServer = "server"
	AppTypeStudio = "studio"
)

const (
	StatusPending  = "pending"
	StatusAccepted = "accepted"
	StatusRejected = "rejected"
)

const (
	NotifyWelcome = "welcome"
	NotifySuccess = "success"
	NotifyWarning = "warning"
	NotifyError   = "error"
	NotifyInfo    = "info"
)

// Privileged operations. Each maps to its own allow-list below.
const (
	OpReviewApplications = "review_applications"
	OpListApplications   = "list_applications"
	OpViewStats          = "view_stats"
	OpListUsers          = "list_users"
	OpChangeRole         = "change_role"
	OpBroadcast          = "broadcast"
	OpStudioRecruitment  = "studio_recruitment"
	OpCleanup            = "cleanup"
)

// Permissions enumerates the exact roles allowed per operation,
// mirroring the per-endpoint lists of the web console.
var Permissions = map[string][]string{
	OpReviewApplications: {RoleSiteOwner, RoleOwner, RoleAdmin, RoleCurator},
	OpListApplications:   {RoleSiteOwner, RoleOwner, RoleAdmin, RoleCurator},
	OpViewStats:          {RoleSiteOwner, RoleOwner, RoleAdmin},
	OpListUsers:          {RoleSiteOwner, RoleOwner, RoleAdmin, RoleCurator},
	OpChangeRole:         {RoleSiteOwner, RoleOwner},
	OpBroadcast:          {RoleSiteOwner, RoleOwner, RoleAdmin},
	OpStudioRecruitment:  {RoleSiteOwner, RoleOwner},
	OpCleanup:            {RoleSiteOwner},
}

// Allowed reports whether role is in the allow-list for op.
func Allowed(op, role string) bool {
	for _, r := range Permissions[op] {
		if r == role {
			return true
		}
	}
	return false
}

// CanGrantRoles reports whether role may overwrite another user's role
// (only the two highest-authority roles).
func CanGrantRoles(role string) bool {
	return role == RoleSiteOwner || role == RoleOwner
}

// ValidRole reports whether role is one of the known roles.
func ValidRole(role string) bool {
	for _, r := range AllRoles {
		if r == role {
			return true
		}
	}
	return false
}

// ValidDecision reports whether s is a terminal decision value.
func ValidDecision(s string) bool {
	return s == StatusAccepted || s == StatusRejected
}

// Settings keys.
const (
	SettingStudioRecruitment = "studio_recruitment" // "open" | "closed"
)
