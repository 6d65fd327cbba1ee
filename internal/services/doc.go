// Package services holds the application layer: org-scoped business
// operations composed from repos and aggregates, plus the best-effort
// side-effect fan-out (email, SSE, notification rows, PDFs, AI calls)
// that runs after a primary mutation commits.
//
// Conventions:
//   - Every operation takes a context carrying ctxutil.RequestData; the
//     org scope on it bounds all queries. Cross-org reads return
//     not_found so ids do not leak existence.
//   - Client-visible failures are *apierr.Error or *aggregates.Error;
//     anything else is treated as internal by the HTTP layer.
//   - Side effects never abort the mutation: they log a warning and
//     move on.
package services
