package console

import (
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	"xscan/internal/application/port"
	"xscan/internal/domain/model"
	dsvc "xscan/internal/domain/service"
)

const (
	ansiReset  = "\033[0m"
	ansiRed    = "\033[31m"
	ansiGreen  = "\033[32m"
	ansiYellow = "\033[33m"
	ansiDim    = "\033[2m"
)

type Options struct {
	Out       io.Writer         // 为空时写 stdout
	Threshold float64           // 利润达到该值标绿
	Color     bool              // 是否输出 ANSI 颜色
	Names     map[string]string // 交易所展示名
	Limit     int               // 最多打印条数，<=0 不限
}

// Sink 把每轮扫描打印成表格
type Sink struct {
	opts Options
}

func NewSink(opts Options) port.Sink {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	return &Sink{opts: opts}
}

func (s *Sink) colorize(str, c string) string {
	if !s.opts.Color {
		return str
	}
	return c + str + ansiReset
}

func (s *Sink) name(id string) string {
	if n, ok := s.opts.Names[id]; ok && n != "" {
		return n
	}
	return id
}

func (s *Sink) WriteScan(report *model.ScanReport) error {
	if report == nil {
		return nil
	}
	var sb strings.Builder

	names := make([]string, len(report.Participants))
	for i, id := range report.Participants {
		names[i] = s.name(id)
	}
	sb.WriteString(s.colorize("[XSCAN] ", ansiDim))
	fmt.Fprintf(&sb, "%s  exchanges: %s  opportunities: %d  took %s\n",
		report.FinishedAt.Format("2006-01-02 15:04:05"),
		strings.Join(names, ", "),
		len(report.Opportunities),
		report.FinishedAt.Sub(report.StartedAt).Round(time.Millisecond))

	if len(report.Opportunities) == 0 {
		sb.WriteString(s.colorize("no opportunities above threshold\n", ansiYellow))
	} else {
		var table strings.Builder
		tw := tabwriter.NewWriter(&table, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "#\tPAIR\tBUY\tSELL\tBUY PRICE\tSELL PRICE\tSPREAD\tPROFIT\tVOLUME\tCHAIN\tSTABILITY\tEXPIRY")
		var profits []float64
		for i := range report.Opportunities {
			if s.opts.Limit > 0 && i >= s.opts.Limit {
				break
			}
			o := &report.Opportunities[i]
			profits = append(profits, o.ProfitPercent)
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%.2f%%\t%s\t%s/%s\t%s\t%s\t%s\n",
				i+1,
				o.Pair,
				s.name(o.BuyExchange),
				s.name(o.SellExchange),
				FormatPrice(o.BuyPrice),
				FormatPrice(o.SellPrice),
				o.SpreadPercent,
				profitText(o.ProfitPercent),
				FormatVolume(o.BuyVolumeUSD),
				FormatVolume(o.SellVolumeUSD),
				o.Chain,
				o.Stability,
				o.Expiry,
			)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		sb.WriteString(s.paintProfits(table.String(), profits))
		if s.opts.Limit > 0 && len(report.Opportunities) > s.opts.Limit {
			sb.WriteString(s.colorize(fmt.Sprintf("... %d more\n", len(report.Opportunities)-s.opts.Limit), ansiDim))
		}
	}

	for _, w := range report.Warnings {
		line := "! "
		if w.Exchange != "" {
			line += s.name(w.Exchange) + " "
		}
		line += w.Op + ": " + w.Message
		sb.WriteString(s.colorize(line, ansiYellow))
		sb.WriteByte('\n')
	}
	sb.WriteByte('\n')

	_, err := io.WriteString(s.opts.Out, sb.String())
	return err
}

func profitText(p float64) string {
	return fmt.Sprintf("%.2f%%", p)
}

func (s *Sink) profitColor(p float64) string {
	switch dsvc.ProfitColor(p, s.opts.Threshold) {
	case +1:
		return ansiGreen
	case -1:
		return ansiRed
	default:
		return ansiYellow
	}
}

// paintProfits 在 tabwriter 排版之后给 PROFIT 列上色，颜色码不能进入单元格，否则会被算进列宽
func (s *Sink) paintProfits(table string, profits []float64) string {
	if !s.opts.Color || len(profits) == 0 {
		return table
	}
	lines := strings.SplitAfter(table, "\n")
	idx := strings.Index(lines[0], "PROFIT")
	if idx < 0 {
		return table
	}
	col := len([]rune(lines[0][:idx]))
	for i, p := range profits {
		if i+1 >= len(lines) {
			break
		}
		row := []rune(lines[i+1])
		text := profitText(p)
		end := col + len(text)
		if end > len(row) || string(row[col:end]) != text {
			continue
		}
		lines[i+1] = string(row[:col]) + s.colorize(text, s.profitColor(p)) + string(row[end:])
	}
	return strings.Join(lines, "")
}

// FormatPrice 去掉多余的 0，小于 1 的价格保留 4 位有效数字
// humanize 最多保留 6 位小数，meme 币价格会被截断，所以小价格单独处理
func FormatPrice(v float64) string {
	if v >= 1 || v <= 0 {
		return humanize.FtoaWithDigits(v, 4)
	}
	decimals := int(math.Ceil(-math.Log10(v))) + 3
	s := strconv.FormatFloat(v, 'f', decimals, 64)
	return strings.TrimRight(strings.TrimRight(s, "0"), ".")
}

// FormatVolume 如 $1.2M、$350K，0 显示为 "-"
func FormatVolume(v float64) string {
	if v <= 0 {
		return "-"
	}
	if v < 1000 {
		return fmt.Sprintf("$%.0f", v)
	}
	n, prefix := humanize.ComputeSI(v)
	if prefix == "k" {
		prefix = "K"
	}
	str := humanize.FtoaWithDigits(n, 1)
	return "$" + str + prefix
}
