package rbac

// Default policy. A user may hold several roles at once; a permission
// is granted when any held role carries it.
var RolePermissions = map[string][]string{
	"student": {
		"session:create",
		"session:answer",
		"session:view-own",
		"user:change_password",
	},
	"teacher": {
		"word:upload",
		"unit:delete",
		"wordlist:delete",
		"session:view-all",
		"question:override",
		"users:list",
	},
	"admin": {
		"*", // everything
	},
}
