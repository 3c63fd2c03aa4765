// Package audit records who touched which tenant's data, with what outcome.
//
// The tenant isolation layer writes one event per cross-tenant override call, so every
// bypass of tenant narrowing leaves a trace naming the principal and the target tenant.
//
//	l := audit.NewLogger(audit.NewPgStorage(pool),
//		audit.WithPrincipalIDExtractor(auth.PrincipalIDFromContext),
//		audit.WithRequestIDExtractor(func(ctx context.Context) (string, bool) {
//			id := requestid.FromContext(ctx)
//			return id, id != ""
//		}),
//	)
//
//	err := l.Log(ctx, "tenant.override.list",
//		audit.WithTenantID(target.String()),
//		audit.WithResource("job", ""),
//		audit.WithMetadata("reason", "support ticket 4411"),
//	)
//
// Options passed to Log win over values taken from context by extractors.
// Events without an action or principal are rejected with ErrEventValidation.
package audit
