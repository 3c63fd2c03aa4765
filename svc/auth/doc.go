// Package auth carries the authenticated principal through a request.
//
// Authentication itself happens upstream; Middleware trusts the principal header set by
// the gateway, loads the User and stores it in the context. User implements
// tenant.Principal, so PrincipalFromRequest plugs straight into tenant.WithPrincipalFunc.
package auth
