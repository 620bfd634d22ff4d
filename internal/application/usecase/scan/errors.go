package scan

import (
	"errors"
	"fmt"
)

var (
	// ErrNoExchangesSelected 买入或卖出交易所列表为空，扫描不会开始
	ErrNoExchangesSelected = errors.New("please select at least one buy and one sell exchange")
	// ErrNoExchangesAvailable 所有交易所都初始化失败
	ErrNoExchangesAvailable = errors.New("no exchange could be initialised")
)

// SourceError 单个交易所的数据拉取失败，不影响其它交易所
type SourceError struct {
	Exchange string
	Op       string
	Err      error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Exchange, e.Op, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }
