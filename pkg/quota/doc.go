// Package quota tracks and enforces hierarchical resource limits per
// tenant. Consumption by a child counts against every ancestor that
// tracks the same resource; a request is admitted only when the whole
// chain stays within its limits. The meaning of a zero limit is an
// explicit per-row policy field, either UNLIMITED or BLOCKED_AT_ZERO.
package quota
