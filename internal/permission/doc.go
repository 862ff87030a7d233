// Package permission provides two reference PermissionService
// implementations: AllowAll, for development and tests, and Pattern, which
// checks a caller's permission against patterns declared in its
// ModuleDefinition using the same glob syntax as path.Match — the policy
// language itself is explicitly out of scope (see the governance spec's
// non-goals); this is the simplest thing that could plausibly satisfy the
// contract.
package permission
