package consensus

import (
	"fmt"
	"sort"
	"sync"
)

// Decision is the outcome of evaluating attestations for one height.
type Decision string

const (
	DecisionPending   Decision = "Pending"
	DecisionCommitted Decision = "Committed"
	DecisionRejected  Decision = "Rejected"
)

// PendingProposal tracks one height's competing block proposals and the
// attestations gathered for each block hash.
type PendingProposal struct {
	ProposerID string
	ActionRoot string
	Actions    []PendingAction
	// attestations maps block_hash -> validator_id -> approve
	attestations map[string]map[string]bool
}

// Engine tracks one world's validator set and per-height proposal/
// attestation state (§4.11).
type Engine struct {
	mu                 sync.Mutex
	Validators         []Validator
	SupermajorityNum   int
	SupermajorityDenom int
	EpochLengthSlots    uint64

	pending             map[uint64]map[string]*PendingProposal // height -> block_hash -> proposal
	lastCommittedHeight uint64
}

// NewEngine constructs an engine for the given validator set and
// numerator/denominator supermajority threshold (2/3 Ethereum-like by
// default when denom is 0).
func NewEngine(validators []Validator, supermajorityNum, supermajorityDenom int, epochLengthSlots uint64) *Engine {
	if supermajorityDenom == 0 {
		supermajorityNum, supermajorityDenom = 2, 3
	}
	return &Engine{
		Validators:         validators,
		SupermajorityNum:   supermajorityNum,
		SupermajorityDenom: supermajorityDenom,
		EpochLengthSlots:   epochLengthSlots,
		pending:            make(map[uint64]map[string]*PendingProposal),
	}
}

// TotalStake returns the sum of every validator's stake.
func (e *Engine) TotalStake() uint64 {
	var total uint64
	for _, v := range e.Validators {
		total += v.Stake
	}
	return total
}

func (e *Engine) stakeOf(validatorID string) uint64 {
	for _, v := range e.Validators {
		if v.ValidatorID == validatorID {
			return v.Stake
		}
	}
	return 0
}

// SubmitProposal registers a proposer's block for a height, verifying the
// embedded action_root against the deduplicated, ordered action list.
func (e *Engine) SubmitProposal(msg ProposalMessage) error {
	ordered, err := DedupActions(msg.Actions)
	if err != nil {
		return err
	}
	if !VerifyActionRoot(ordered, msg.ActionRoot) {
		return fmt.Errorf("consensus: action_root mismatch for height %d", msg.Height)
	}
	if !msg.Verify() {
		return fmt.Errorf("consensus: proposal signature invalid for height %d", msg.Height)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	byBlock, ok := e.pending[msg.Height]
	if !ok {
		byBlock = make(map[string]*PendingProposal)
		e.pending[msg.Height] = byBlock
	}
	byBlock[msg.BlockHash] = &PendingProposal{
		ProposerID:   msg.ProposerID,
		ActionRoot:   msg.ActionRoot,
		Actions:      ordered,
		attestations: make(map[string]map[string]bool),
	}
	return nil
}

// RecordAttestation folds one validator's vote into its block's tally.
func (e *Engine) RecordAttestation(att AttestationMessage) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	byBlock, ok := e.pending[att.Height]
	if !ok {
		return fmt.Errorf("consensus: no pending proposal at height %d", att.Height)
	}
	proposal, ok := byBlock[att.BlockHash]
	if !ok {
		return fmt.Errorf("consensus: no proposal %s at height %d", att.BlockHash, att.Height)
	}
	if proposal.attestations[att.BlockHash] == nil {
		proposal.attestations[att.BlockHash] = make(map[string]bool)
	}
	proposal.attestations[att.BlockHash][att.ValidatorID] = att.Approve
	return nil
}

// Decide implements the §4.11 decision rule for a height: once
// attestations whose total stake share meets the supermajority threshold
// approve a (height, block_hash), the engine returns Committed for that
// hash; Rejected if no remaining candidate can still reach threshold;
// otherwise Pending. Ties among candidates with equal approving stake are
// broken by (block_hash ASC, validator_id ASC) — here, by block_hash ASC
// since the winner is picked per distinct block_hash.
func (e *Engine) Decide(height uint64) (Decision, string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	byBlock, ok := e.pending[height]
	if !ok {
		return DecisionPending, ""
	}
	total := e.TotalStake()
	threshold := total * uint64(e.SupermajorityNum)

	type candidate struct {
		hash  string
		stake uint64
	}
	var candidates []candidate
	for hash, proposal := range byBlock {
		var approveStake uint64
		for validatorID, approve := range proposal.attestations[hash] {
			if approve {
				approveStake += e.stakeOf(validatorID)
			}
		}
		candidates = append(candidates, candidate{hash: hash, stake: approveStake})
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].stake != candidates[j].stake {
			return candidates[i].stake > candidates[j].stake
		}
		return candidates[i].hash < candidates[j].hash
	})

	for _, c := range candidates {
		if c.stake*uint64(e.SupermajorityDenom) >= threshold {
			if height > e.lastCommittedHeight {
				e.lastCommittedHeight = height
			}
			return DecisionCommitted, c.hash
		}
	}

	// Rejected only once no candidate can still reach threshold even if
	// every remaining undecided validator approved it.
	var maxPossible uint64
	if len(candidates) > 0 {
		maxPossible = candidates[0].stake + (total - sumAllApprovals(byBlock, e))
	}
	if maxPossible*uint64(e.SupermajorityDenom) < threshold {
		return DecisionRejected, ""
	}
	return DecisionPending, ""
}

func sumAllApprovals(byBlock map[string]*PendingProposal, e *Engine) uint64 {
	seen := make(map[string]bool)
	var sum uint64
	for _, proposal := range byBlock {
		for hash, votes := range proposal.attestations {
			for validatorID := range votes {
				key := hash + ":" + validatorID
				if seen[key] {
					continue
				}
				seen[key] = true
				sum += e.stakeOf(validatorID)
			}
		}
	}
	return sum
}

// LastCommittedHeight reports the highest height this engine has committed.
func (e *Engine) LastCommittedHeight() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastCommittedHeight
}

// DedupActions implements the action-ordering validation §4.11 requires:
// actions are deduplicated by (action_id, payload_hash, submitter_player_id)
// and returned ordered by strictly increasing action_id. A conflicting
// payload_hash or submitter_player_id for the same action_id is an error.
func DedupActions(actions []PendingAction) ([]PendingAction, error) {
	byID := make(map[uint64]PendingAction)
	for _, a := range actions {
		id := uint64(a.ActionID)
		if existing, ok := byID[id]; ok {
			if existing.PayloadHash != a.PayloadHash || existing.SubmitterPlayerID != a.SubmitterPlayerID {
				return nil, fmt.Errorf("consensus: action %d has conflicting payload_hash or submitter_player_id", id)
			}
			continue
		}
		byID[id] = a
	}
	ordered := make([]PendingAction, 0, len(byID))
	for _, a := range byID {
		ordered = append(ordered, a)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ActionID < ordered[j].ActionID })
	return ordered, nil
}
