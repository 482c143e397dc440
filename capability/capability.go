// Package capability implements capability-grant scope matching and the
// ordered policy rule list that gate every effect intent before it is
// queued (§4.4).
package capability

import (
	"fmt"
	"strings"

	"agentworld/codec"
	"agentworld/world"
)

// CheckGrant verifies that grant authorizes intentKind and has not expired
// as of now. It returns world.ErrCapabilityExpired or
// world.ErrCapabilityNotAllowed on failure.
func CheckGrant(grant world.CapabilityGrant, intentKind string, now int64) error {
	if grant.ExpiresAt != nil && now >= *grant.ExpiresAt {
		return fmt.Errorf("%w: cap_ref %s expired at %d", world.ErrCapabilityExpired, grant.CapRef, *grant.ExpiresAt)
	}
	for _, scope := range grant.Scopes {
		if scopeMatches(scope, intentKind) {
			return nil
		}
	}
	return fmt.Errorf("%w: cap_ref %s has no scope matching %q", world.ErrCapabilityNotAllowed, grant.CapRef, intentKind)
}

// scopeMatches reports whether scope matches kind. A scope ending in "*" is
// a prefix match over the text preceding the star; otherwise the match is
// exact. Matching is case-sensitive (§4.4).
func scopeMatches(scope, kind string) bool {
	if strings.HasSuffix(scope, "*") {
		return strings.HasPrefix(kind, strings.TrimSuffix(scope, "*"))
	}
	return scope == kind
}

// Authorize looks up capRef in grants and checks it against intentKind. It
// returns world.ErrCapabilityMissing if capRef is not a known grant.
func Authorize(grants map[string]world.CapabilityGrant, capRef, intentKind string, now int64) error {
	grant, ok := grants[capRef]
	if !ok {
		return fmt.Errorf("%w: cap_ref %s", world.ErrCapabilityMissing, capRef)
	}
	return CheckGrant(grant, intentKind, now)
}

// Decision is the outcome of evaluating an intent against the policy rule
// list, carried alongside the PolicyDecisionRecorded event it produces.
type Decision struct {
	Verdict    world.PolicyVerdict
	Reason     string
	RuleName   string
}

// Evaluate runs intentKind through rules in order and returns the first
// matching rule's verdict. With no matching rule, the default is Allow —
// policies only need to enumerate restrictions.
func Evaluate(rules []world.PolicyRule, intentKind string) Decision {
	for _, rule := range rules {
		if rule.Match == nil {
			continue
		}
		if rule.Match(intentKind) {
			return Decision{Verdict: rule.Verdict, Reason: rule.Reason, RuleName: rule.Name}
		}
	}
	return Decision{Verdict: world.PolicyAllow, RuleName: "default-allow"}
}

// ErrDenied wraps world.ErrPolicyDenied with the deciding rule's reason.
func ErrDenied(reason string) error {
	if reason == "" {
		return world.ErrPolicyDenied
	}
	return fmt.Errorf("%w: %s", world.ErrPolicyDenied, reason)
}

// AdmitResult is the outcome of admitting one intent: the recorded event
// body, and the error (if any) the caller must surface after appending it.
type AdmitResult struct {
	Event world.PolicyDecisionRecordedBody
	Err   error
}

// Admit runs the full §4.4 pipeline for one intent: capability check, then
// policy evaluation, always producing the PolicyDecisionRecorded event body
// the caller must journal before surfacing a denial or queuing the intent.
func Admit(grants map[string]world.CapabilityGrant, rules []world.PolicyRule, intentKind string, params map[string]any, capRef string, now int64) AdmitResult {
	paramsHash := codec.Hash(codec.BLAKE3, mustCBOR(params))

	if err := Authorize(grants, capRef, intentKind, now); err != nil {
		return AdmitResult{
			Event: world.PolicyDecisionRecordedBody{
				IntentKind: intentKind,
				ParamsHash: paramsHash,
				CapRef:     capRef,
				Allowed:    false,
				DenyReason: err.Error(),
			},
			Err: err,
		}
	}

	decision := Evaluate(rules, intentKind)
	if decision.Verdict == world.PolicyDeny {
		return AdmitResult{
			Event: world.PolicyDecisionRecordedBody{
				IntentKind: intentKind,
				ParamsHash: paramsHash,
				CapRef:     capRef,
				Allowed:    false,
				DenyReason: decision.Reason,
			},
			Err: ErrDenied(decision.Reason),
		}
	}

	return AdmitResult{
		Event: world.PolicyDecisionRecordedBody{
			IntentKind: intentKind,
			ParamsHash: paramsHash,
			CapRef:     capRef,
			Allowed:    true,
		},
	}
}

func mustCBOR(v map[string]any) []byte {
	data, err := codec.MarshalCBOR(v)
	if err != nil {
		return nil
	}
	return data
}
