// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"bytes"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/computemarket/capstake/capstake"
	"github.com/computemarket/capstake/config"
	"github.com/computemarket/capstake/ledger"
	"github.com/computemarket/capstake/ledger/commitment"
	"github.com/computemarket/capstake/ledger/metric"
	"github.com/computemarket/capstake/ledger/pool"
	"github.com/computemarket/capstake/ledger/reverts"
)

// Scenario is a list of ledger operations replayed in order.
type Scenario struct {
	Accounts map[string]capstake.Address `yaml:"accounts"`
	Steps    []Step                      `yaml:"steps"`
}

// Step is one operation. Accounts are names, resolved through the scenario's
// accounts, the parameter accounts or derived from the name itself.
type Step struct {
	At      uint32 `yaml:"at"`
	Advance uint32 `yaml:"advance"`
	Op      string `yaml:"op"`
	// revert kind the step must fail with, e.g. "not found"
	Expect string `yaml:"expect"`

	Caller    string `yaml:"caller"`
	Account   string `yaml:"account"`
	Manager   string `yaml:"manager"`
	Processor string `yaml:"processor"`
	Committer string `yaml:"committer"`
	Delegator string `yaml:"delegator"`
	From      string `yaml:"from"`
	To        string `yaml:"to"`

	Pool          string        `yaml:"pool"`
	Name          string        `yaml:"name"`
	Ratio         *uint32       `yaml:"ratio"`
	RatioFrom     uint32        `yaml:"ratio_from"`
	TargetWeight  config.Amount `yaml:"target_weight"`
	MinCommitment config.Amount `yaml:"min_commitment"`

	Amount       config.Amount `yaml:"amount"`
	Cooldown     uint32        `yaml:"cooldown"`
	Commission   uint32        `yaml:"commission"`
	AutoCompound bool          `yaml:"auto_compound"`

	Declarations []PoolValue `yaml:"declarations"`
	Samples      []PoolValue `yaml:"samples"`
}

// PoolValue is a declared metric or a reported sample of one pool.
type PoolValue struct {
	Pool  string        `yaml:"pool"`
	Value config.Amount `yaml:"value"`
}

// ParseScenario decodes a scenario, rejecting unknown fields and ops.
func ParseScenario(data []byte) (*Scenario, error) {
	var s Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, errors.Wrap(err, "decode scenario")
	}
	for i, step := range s.Steps {
		if _, ok := ops[step.Op]; !ok {
			return nil, errors.Errorf("step %d: unknown op %q", i, step.Op)
		}
		if step.At != 0 && step.Advance != 0 {
			return nil, errors.Errorf("step %d: at and advance are exclusive", i)
		}
	}
	return &s, nil
}

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read scenario")
	}
	return ParseScenario(data)
}

// runner applies scenario steps to a ledger.
type runner struct {
	ledger   *ledger.Ledger
	clock    *ledger.ManualClock
	accounts map[string]capstake.Address
	// called after every step, applied or reverted
	afterStep func(height uint32) error
}

func newRunner(l *ledger.Ledger, clock *ledger.ManualClock) *runner {
	p := l.Params()
	return &runner{
		ledger: l,
		clock:  clock,
		accounts: map[string]capstake.Address{
			"operator":   p.Operator,
			"vault":      p.Vault,
			"slash_sink": p.SlashSink,
		},
	}
}

// Run applies every step and stops at the first unexpected outcome.
// It returns the number of steps applied. The scenario's named accounts are
// resolved before the first step.
func (r *runner) Run(s *Scenario) (int, error) {
	for name, addr := range s.Accounts {
		r.accounts[name] = addr
	}
	for i := range s.Steps {
		step := &s.Steps[i]
		if err := r.moveClock(step); err != nil {
			return i, errors.Wrapf(err, "step %d", i)
		}
		err := ops[step.Op](r, step)
		if err := checkOutcome(step, err); err != nil {
			return i, errors.Wrapf(err, "step %d (%s)", i, step.Op)
		}
		logger.Debug("applied step", "index", i, "op", step.Op, "height", r.clock.Height(), "reverted", err != nil)
		if r.afterStep != nil {
			if err := r.afterStep(r.clock.Height()); err != nil {
				return i, err
			}
		}
	}
	return len(s.Steps), nil
}

func (r *runner) moveClock(step *Step) error {
	switch {
	case step.At != 0:
		if step.At < r.clock.Height() {
			return errors.Errorf("height %d is behind the clock at %d", step.At, r.clock.Height())
		}
		r.clock.Set(step.At)
	case step.Advance != 0:
		if uint64(r.clock.Height())+uint64(step.Advance) > uint64(^uint32(0)) {
			return errors.New("height overflows")
		}
		r.clock.Advance(step.Advance)
	}
	return nil
}

func checkOutcome(step *Step, err error) error {
	if step.Expect == "" {
		return err
	}
	if err == nil {
		return errors.Errorf("expected %q, but the step succeeded", step.Expect)
	}
	var revert *reverts.ErrRevert
	if !errors.As(err, &revert) {
		return errors.Wrapf(err, "expected %q", step.Expect)
	}
	if revert.Kind.String() != step.Expect {
		return errors.Errorf("expected %q, got %q: %v", step.Expect, revert.Kind, err)
	}
	return nil
}

// address resolves a scenario account name.
func (r *runner) address(name string) (capstake.Address, error) {
	if name == "" {
		return capstake.Address{}, errors.New("account not given")
	}
	if addr, ok := r.accounts[name]; ok {
		return addr, nil
	}
	if strings.HasPrefix(name, "0x") {
		addr, err := capstake.ParseAddress(name)
		if err != nil {
			return capstake.Address{}, err
		}
		return *addr, nil
	}
	addr := NameAddress(name)
	r.accounts[name] = addr
	return addr, nil
}

// NameAddress derives the address a scenario gives to a named account.
func NameAddress(name string) capstake.Address {
	h := capstake.Blake2b([]byte("capstake-account"), []byte(name))
	return capstake.BytesToAddress(h.Bytes())
}

// addresses resolves several names at once.
func (r *runner) addresses(names ...string) ([]capstake.Address, error) {
	out := make([]capstake.Address, 0, len(names))
	for _, name := range names {
		addr, err := r.address(name)
		if err != nil {
			return nil, err
		}
		out = append(out, addr)
	}
	return out, nil
}

// pool resolves a pool by id or by name.
func (r *runner) pool(ref string) (uint32, error) {
	if id, err := strconv.ParseUint(ref, 10, 32); err == nil {
		return uint32(id), nil
	}
	p, err := r.ledger.PoolByName(ref)
	if err != nil {
		return 0, err
	}
	return p.ID, nil
}

func (r *runner) declarations(values []PoolValue) ([]commitment.Declaration, error) {
	decls := make([]commitment.Declaration, 0, len(values))
	for _, v := range values {
		id, err := r.pool(v.Pool)
		if err != nil {
			return nil, err
		}
		decls = append(decls, commitment.Declaration{Pool: id, Metric: new(uint256.Int).Set(v.Value.Value())})
	}
	return decls, nil
}

func (r *runner) samples(values []PoolValue) ([]metric.Sample, error) {
	samples := make([]metric.Sample, 0, len(values))
	for _, v := range values {
		id, err := r.pool(v.Pool)
		if err != nil {
			return nil, err
		}
		samples = append(samples, metric.Sample{Pool: id, Value: new(uint256.Int).Set(v.Value.Value())})
	}
	return samples, nil
}

func poolConfig(step *Step) pool.Config {
	var cfg pool.Config
	cfg.TargetWeightPerCompute.Set(step.TargetWeight.Value())
	cfg.MinCommitment.Set(step.MinCommitment.Value())
	return cfg
}

type opFunc func(r *runner, s *Step) error

// pair adapts an operation on two accounts.
func pair(f func(l *ledger.Ledger, a, b capstake.Address) error, first, second func(s *Step) string) opFunc {
	return func(r *runner, s *Step) error {
		addrs, err := r.addresses(first(s), second(s))
		if err != nil {
			return err
		}
		return f(r.ledger, addrs[0], addrs[1])
	}
}

// single adapts an operation on one account.
func single(f func(l *ledger.Ledger, a capstake.Address) error, who func(s *Step) string) opFunc {
	return func(r *runner, s *Step) error {
		addr, err := r.address(who(s))
		if err != nil {
			return err
		}
		return f(r.ledger, addr)
	}
}

// funding adapts an operation moving the step's amount from one account.
func funding(f func(l *ledger.Ledger, a capstake.Address, amount *uint256.Int) error) opFunc {
	return func(r *runner, s *Step) error {
		addr, err := r.address(s.Caller)
		if err != nil {
			return err
		}
		return f(r.ledger, addr, s.Amount.Value())
	}
}

func caller(s *Step) string    { return s.Caller }
func manager(s *Step) string   { return s.Manager }
func processor(s *Step) string { return s.Processor }
func committer(s *Step) string { return s.Committer }
func delegator(s *Step) string { return s.Delegator }

var ops = map[string]opFunc{
	"deposit": func(r *runner, s *Step) error {
		addrs, err := r.addresses(s.Caller, s.Account)
		if err != nil {
			return err
		}
		return r.ledger.Deposit(addrs[0], addrs[1], s.Amount.Value())
	},
	"create-pool": func(r *runner, s *Step) error {
		addr, err := r.address(s.Caller)
		if err != nil {
			return err
		}
		var ratio uint32
		if s.Ratio != nil {
			ratio = *s.Ratio
		}
		_, err = r.ledger.CreatePool(addr, s.Name, ratio, poolConfig(s))
		return err
	},
	"modify-pool": func(r *runner, s *Step) error {
		addr, err := r.address(s.Caller)
		if err != nil {
			return err
		}
		id, err := r.pool(s.Pool)
		if err != nil {
			return err
		}
		var (
			name  *string
			ratio *pool.RatioChange
			cfg   *pool.Config
		)
		if s.Name != "" {
			name = &s.Name
		}
		if s.Ratio != nil {
			ratio = &pool.RatioChange{Value: *s.Ratio, From: s.RatioFrom}
		}
		if !s.TargetWeight.IsZero() || !s.MinCommitment.IsZero() {
			c := poolConfig(s)
			cfg = &c
		}
		return r.ledger.ModifyPool(addr, id, name, ratio, cfg)
	},

	"pair-processor": pair((*ledger.Ledger).PairProcessor, manager, processor),
	"report": func(r *runner, s *Step) error {
		addr, err := r.address(s.Processor)
		if err != nil {
			return err
		}
		samples, err := r.samples(s.Samples)
		if err != nil {
			return err
		}
		return r.ledger.Report(addr, samples)
	},
	"withdraw-manager-reward": pair((*ledger.Ledger).WithdrawManagerReward, manager, processor),

	"offer-backing":          pair((*ledger.Ledger).OfferBacking, manager, committer),
	"withdraw-backing-offer": pair((*ledger.Ledger).WithdrawBackingOffer, manager, committer),
	"accept-backing":         pair((*ledger.Ledger).AcceptBackingOffer, committer, manager),

	"commit-compute": func(r *runner, s *Step) error {
		addr, err := r.address(s.Committer)
		if err != nil {
			return err
		}
		decls, err := r.declarations(s.Declarations)
		if err != nil {
			return err
		}
		return r.ledger.CommitCompute(addr, decls, s.Amount.Value(), s.Cooldown, s.Commission, s.AutoCompound)
	},
	"stake-more": func(r *runner, s *Step) error {
		addr, err := r.address(s.Committer)
		if err != nil {
			return err
		}
		decls, err := r.declarations(s.Declarations)
		if err != nil {
			return err
		}
		return r.ledger.StakeMore(addr, s.Amount.Value(), s.Cooldown, s.Commission, s.AutoCompound, decls)
	},
	"cooldown-commitment": single((*ledger.Ledger).CooldownComputeCommitment, committer),
	"end-commitment":      single((*ledger.Ledger).EndComputeCommitment, committer),
	"force-end":           pair((*ledger.Ledger).ForceEndCommitment, caller, committer),
	"withdraw-commitment": single((*ledger.Ledger).WithdrawCommitment, committer),
	"compound-stake":      pair((*ledger.Ledger).CompoundStake, caller, committer),

	"delegate": func(r *runner, s *Step) error {
		addrs, err := r.addresses(s.Delegator, s.Committer)
		if err != nil {
			return err
		}
		return r.ledger.Delegate(addrs[0], addrs[1], s.Amount.Value(), s.Cooldown, s.AutoCompound)
	},
	"delegate-more": func(r *runner, s *Step) error {
		addrs, err := r.addresses(s.Delegator, s.Committer)
		if err != nil {
			return err
		}
		return r.ledger.DelegateMore(addrs[0], addrs[1], s.Amount.Value())
	},
	"cooldown-delegation": pair((*ledger.Ledger).CooldownDelegation, delegator, committer),
	"end-delegation":      pair((*ledger.Ledger).EndDelegation, delegator, committer),
	"kick-out":            pair((*ledger.Ledger).KickOut, committer, delegator),
	"redelegate": func(r *runner, s *Step) error {
		addrs, err := r.addresses(s.Delegator, s.From, s.To)
		if err != nil {
			return err
		}
		return r.ledger.Redelegate(addrs[0], addrs[1], addrs[2])
	},
	"withdraw-delegation": pair((*ledger.Ledger).WithdrawDelegation, delegator, committer),
	"compound-delegation": func(r *runner, s *Step) error {
		addrs, err := r.addresses(s.Caller, s.Delegator, s.Committer)
		if err != nil {
			return err
		}
		return r.ledger.CompoundDelegation(addrs[0], addrs[1], addrs[2])
	},

	"slash":                pair((*ledger.Ledger).Slash, caller, committer),
	"fund-rewards":         funding((*ledger.Ledger).FundRewards),
	"fund-manager-rewards": funding((*ledger.Ledger).FundManagerRewards),
}

// opNames lists the supported ops, sorted.
func opNames() []string {
	names := make([]string, 0, len(ops))
	for name := range ops {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
