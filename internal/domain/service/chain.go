package service

import (
	"sort"

	"xscan/internal/domain/model"
)

// DefaultChainPriority 低手续费优先的链顺序
var DefaultChainPriority = []string{
	"TRC20", "BEP20", "SOL", "MATIC", "ARB", "OP", "TON", "AVAX", "ETH",
}

// ChainStatus 链选择结果
type ChainStatus int

const (
	ChainOK ChainStatus = iota
	ChainNone
	ChainUnknown
)

func (s ChainStatus) String() string {
	switch s {
	case ChainOK:
		return "ok"
	case ChainNone:
		return "no chain"
	default:
		return "unknown chain"
	}
}

// ChainOptions 链选择参数
type ChainOptions struct {
	Priority   []string // 为空时使用 DefaultChainPriority
	Exclude    []string
	IncludeAll bool // 忽略 Exclude
}

// ChainResult 选中的链以及买方提币、卖方充值状态
type ChainResult struct {
	Network  string
	Status   ChainStatus
	Withdraw bool
	Deposit  bool
}

// Usable 链可用且充提均开放
func (r ChainResult) Usable() bool {
	return r.Status == ChainOK && r.Withdraw && r.Deposit
}

func networksByName(c *model.Currency) map[string]model.Network {
	out := make(map[string]model.Network, len(c.Networks))
	for name, n := range c.Networks {
		if n.Name == "" {
			n.Name = name
		}
		key := NormalizeNetwork(name)
		if prev, ok := out[key]; ok {
			prev.Withdraw = prev.Withdraw || n.Withdraw
			prev.Deposit = prev.Deposit || n.Deposit
			n = prev
		}
		out[key] = n
	}
	return out
}

// ResolveChain 在买卖两边共同支持的链中选择一条
// 任一边缺少币种信息时返回 ChainUnknown，两边无交集或全部被排除时返回 ChainNone
func ResolveChain(buy, sell *model.Currency, opts ChainOptions) ChainResult {
	if buy == nil || sell == nil {
		return ChainResult{Status: ChainUnknown}
	}
	bn, sn := networksByName(buy), networksByName(sell)

	common := make([]string, 0, len(bn))
	for name := range bn {
		if _, ok := sn[name]; ok {
			common = append(common, name)
		}
	}
	if len(common) == 0 {
		return ChainResult{Status: ChainNone}
	}
	sort.Strings(common)

	excluded := make(map[string]struct{}, len(opts.Exclude))
	if !opts.IncludeAll {
		for _, e := range opts.Exclude {
			excluded[NormalizeNetwork(e)] = struct{}{}
		}
	}
	priority := opts.Priority
	if len(priority) == 0 {
		priority = DefaultChainPriority
	}

	best := ""
	for _, p := range priority {
		p = NormalizeNetwork(p)
		if _, skip := excluded[p]; skip {
			continue
		}
		if _, ok := bn[p]; !ok {
			continue
		}
		if _, ok := sn[p]; ok {
			best = p
			break
		}
	}
	if best == "" {
		if _, skip := excluded[common[0]]; skip {
			return ChainResult{Status: ChainNone}
		}
		best = common[0]
	}

	return ChainResult{
		Network:  bn[best].Name,
		Status:   ChainOK,
		Withdraw: bn[best].Withdraw,
		Deposit:  sn[best].Deposit,
	}
}
