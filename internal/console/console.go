// Package console 行式命令控制台：每行按空白切分为参数，第一个参数为按键名或控制台命令。
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/taoyao-code/iohc-gateway/internal/controller"
	"github.com/taoyao-code/iohc-gateway/internal/protocol/iohc"
	"github.com/taoyao-code/iohc-gateway/internal/registry"
	"go.uber.org/zap"
)

// Gateway 控制台依赖的网关操作
type Gateway interface {
	Execute(ctx context.Context, args []string) (controller.Result, error)
	ScanDump(w io.Writer) (int, error)
	Devices() []registry.DeviceRecord
	SaveDevices(ctx context.Context) error
	Memo() iohc.Memo
}

// Console 命令控制台
type Console struct {
	gw     Gateway
	in     io.Reader
	out    io.Writer
	prompt string
	logger *zap.Logger
}

// New 创建控制台
func New(gw Gateway, in io.Reader, out io.Writer, prompt string, logger *zap.Logger) *Console {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Console{gw: gw, in: in, out: out, prompt: prompt, logger: logger}
}

// Tokenize 按空白切分一行
func Tokenize(line string) []string {
	return strings.Fields(line)
}

// Run 逐行读取并执行，输入结束、quit 或 ctx 取消时返回
func (c *Console) Run(ctx context.Context) error {
	sc := bufio.NewScanner(c.in)
	c.printPrompt()
	for sc.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if quit := c.Handle(ctx, sc.Text()); quit {
			return nil
		}
		c.printPrompt()
	}
	return sc.Err()
}

// Handle 执行一行命令，返回是否退出
func (c *Console) Handle(ctx context.Context, line string) bool {
	args := Tokenize(line)
	if len(args) == 0 {
		return false
	}

	switch strings.ToLower(args[0]) {
	case "quit", "exit":
		return true
	case "help", "?":
		fmt.Fprintf(c.out, "buttons: %s\n", controller.HelpText())
		fmt.Fprintln(c.out, "console: scandump list save memo help quit")
	case "scandump":
		if _, err := c.gw.ScanDump(c.out); err != nil {
			c.fail(args, err)
		}
	case "list":
		for i, d := range c.gw.Devices() {
			fmt.Fprintf(c.out, "%d\t%s -> %s\t%s\t%s\n", i, d.Node, d.Destination, d.Type, d.Description)
		}
	case "save":
		if err := c.gw.SaveDevices(ctx); err != nil {
			c.fail(args, err)
			return false
		}
		fmt.Fprintf(c.out, "saved %d devices\n", len(c.gw.Devices()))
	case "memo":
		m := c.gw.Memo()
		fmt.Fprintf(c.out, "cmd %02x data % x\n", m.Command, m.Data)
	default:
		res, err := c.gw.Execute(ctx, args)
		if err != nil {
			c.fail(args, err)
			return false
		}
		if res.Defaulted {
			fmt.Fprintf(c.out, "warning: %q not recognized, template default kept\n", strings.Join(args[1:], " "))
		}
		fmt.Fprintf(c.out, "%s: %d frames queued\n", res.Burst.Button, len(res.Burst.Frames))
	}
	return false
}

func (c *Console) fail(args []string, err error) {
	c.logger.Debug("console command failed", zap.Strings("args", args), zap.Error(err))
	fmt.Fprintf(c.out, "error (%s): %v\n", controller.ErrorKind(err), err)
}

func (c *Console) printPrompt() {
	if c.prompt != "" {
		fmt.Fprint(c.out, c.prompt)
	}
}
