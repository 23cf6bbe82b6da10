package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/marmos91/dittoreg/pkg/metrics"
	"github.com/marmos91/dittoreg/pkg/registry"
	"github.com/marmos91/dittoreg/pkg/store/record"
)

const shellHelp = `Commands:
  create <name> <kind> <size> [description...]
  read <id>
  update <id> <name> <kind> <size> [description...]
  delete <id>
  as <identity>      switch caller identity
  whoami
  stats              next id and operation counters
  help
  quit
`

// errQuit ends a shell session normally.
var errQuit = errors.New("quit")

// shell is an interactive session against one registry. The caller identity
// can be switched at any time to exercise ownership.
type shell struct {
	a      *app
	caller record.Identity
}

func runShell(ctx context.Context, a *app, args []string) error {
	fs := a.newFlagSet("shell")
	as := identityFlag(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	caller, err := requireIdentity(*as)
	if err != nil {
		return err
	}

	sh := &shell{a: a, caller: caller}
	return sh.run(ctx)
}

func (sh *shell) run(ctx context.Context) error {
	scanner := bufio.NewScanner(sh.a.stdin)
	sh.prompt()

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := sh.exec(ctx, strings.Fields(scanner.Text()))
		switch {
		case errors.Is(err, errQuit):
			return nil
		case errors.Is(err, registry.ErrIDSpaceExhausted):
			return err
		case err != nil:
			sh.printf("error: %v\n", err)
		}
		sh.prompt()
	}

	return scanner.Err()
}

func (sh *shell) prompt() {
	sh.printf("%s> ", sh.caller)
}

func (sh *shell) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(sh.a.stdout, format, args...)
}

// exec runs one shell line.
func (sh *shell) exec(ctx context.Context, words []string) error {
	if len(words) == 0 {
		return nil
	}

	cmd, args := strings.ToLower(words[0]), words[1:]
	switch cmd {
	case "quit", "exit":
		return errQuit
	case "help", "?":
		sh.printf("%s", shellHelp)
		return nil
	case "whoami":
		sh.printf("%s\n", sh.caller)
		return nil
	case "as":
		if len(args) != 1 {
			return fmt.Errorf("usage: as <identity>")
		}
		sh.caller = record.Identity(args[0])
		return nil
	case "create":
		return sh.create(ctx, args)
	case "read":
		return sh.read(ctx, args)
	case "update":
		return sh.update(ctx, args)
	case "delete":
		return sh.delete(ctx, args)
	case "stats":
		return sh.stats(ctx)
	default:
		return fmt.Errorf("unknown command %q (try help)", cmd)
	}
}

// parseFields reads "<name> <kind> <size> [description...]".
func parseFields(args []string) (record.Fields, error) {
	if len(args) < 3 {
		return record.Fields{}, fmt.Errorf("expected <name> <kind> <size> [description...]")
	}
	size, err := strconv.ParseUint(args[2], 10, 64)
	if err != nil {
		return record.Fields{}, fmt.Errorf("invalid size %q", args[2])
	}
	return record.Fields{
		Name:        args[0],
		Kind:        record.ParseKind(args[1]),
		Size:        size,
		Description: strings.Join(args[3:], " "),
	}, nil
}

func (sh *shell) create(ctx context.Context, args []string) error {
	fields, err := parseFields(args)
	if err != nil {
		return err
	}
	id, err := sh.a.reg.Create(ctx, sh.a.call(sh.caller), fields)
	if err != nil {
		return err
	}
	sh.printf("created %d\n", id)
	return nil
}

func (sh *shell) read(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: read <id>")
	}
	id, err := record.ParseID(args[0])
	if err != nil {
		return err
	}
	rec, err := sh.a.reg.Read(ctx, id)
	if err != nil {
		return err
	}
	return sh.a.printRecord(rec)
}

func (sh *shell) update(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: update <id> <name> <kind> <size> [description...]")
	}
	id, err := record.ParseID(args[0])
	if err != nil {
		return err
	}
	fields, err := parseFields(args[1:])
	if err != nil {
		return err
	}
	ok, err := sh.a.reg.Update(ctx, sh.a.call(sh.caller), id, fields)
	if err != nil {
		return err
	}
	sh.printf("%t\n", ok)
	return nil
}

func (sh *shell) delete(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: delete <id>")
	}
	id, err := record.ParseID(args[0])
	if err != nil {
		return err
	}
	ok, err := sh.a.reg.Delete(ctx, sh.a.call(sh.caller), id)
	if err != nil {
		return err
	}
	sh.printf("%t\n", ok)
	return nil
}

// stats prints the allocator counter and, when metrics are enabled, the
// operation counters gathered from the Prometheus registry.
func (sh *shell) stats(ctx context.Context) error {
	next, err := sh.a.reg.NextID(ctx)
	if err != nil {
		return err
	}
	sh.printf("next id: %d\n", next)

	if !metrics.IsEnabled() {
		return nil
	}

	families, err := metrics.GetRegistry().Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}

	var lines []string
	for _, family := range families {
		if family.GetName() != "dittoreg_operations_total" {
			continue
		}
		for _, m := range family.GetMetric() {
			labels := make([]string, 0, len(m.GetLabel()))
			for _, label := range m.GetLabel() {
				labels = append(labels, label.GetValue())
			}
			lines = append(lines, fmt.Sprintf("%s: %.0f", strings.Join(labels, "/"), m.GetCounter().GetValue()))
		}
	}
	sort.Strings(lines)
	for _, line := range lines {
		sh.printf("%s\n", line)
	}
	return nil
}
