package exchange

import (
	"xscan/internal/domain/model"
	"xscan/internal/domain/service"
)

// AddNetwork 以统一链名写入币种网络，同名链的充提状态取并集
func AddNetwork(cur *model.Currency, rawName string, withdraw, deposit bool) {
	name := service.NormalizeNetwork(rawName)
	if name == "" {
		return
	}
	if cur.Networks == nil {
		cur.Networks = make(map[string]model.Network)
	}
	n := cur.Networks[name]
	n.Name = name
	n.Withdraw = n.Withdraw || withdraw
	n.Deposit = n.Deposit || deposit
	cur.Networks[name] = n
}
