package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/marmos91/dittoreg/pkg/config"
	"github.com/marmos91/dittoreg/pkg/snapshot"
	"github.com/marmos91/dittoreg/pkg/store/record"
)

type commandFunc func(ctx context.Context, a *app, args []string) error

var commands = map[string]commandFunc{
	"create": runCreate,
	"read":   runRead,
	"update": runUpdate,
	"delete": runDelete,
	"shell":  runShell,
	"export": runExport,
	"import": runImport,
}

// newFlagSet creates a flag set for a subcommand that reports errors instead
// of exiting.
func (a *app) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	return fs
}

// identityFlag registers --as. It defaults to $USER so interactive use does
// not need it spelled out.
func identityFlag(fs *flag.FlagSet) *string {
	return fs.String("as", os.Getenv("USER"), "Caller identity")
}

func requireIdentity(as string) (record.Identity, error) {
	if as == "" {
		return "", fmt.Errorf("a caller identity is required (--as)")
	}
	return record.Identity(as), nil
}

// fieldFlags registers the four mutable record fields.
type fieldFlags struct {
	name        *string
	kind        *string
	size        *uint64
	description *string
}

func registerFieldFlags(fs *flag.FlagSet) fieldFlags {
	return fieldFlags{
		name:        fs.String("name", "", "File name"),
		kind:        fs.String("kind", "unknown", "File kind (pdf, docx, xls, txt, csv, pptx, jpg, png)"),
		size:        fs.Uint64("size", 0, "File size in bytes"),
		description: fs.String("description", "", "Free-form description"),
	}
}

func (f fieldFlags) fields() record.Fields {
	return record.Fields{
		Name:        *f.name,
		Kind:        record.ParseKind(*f.kind),
		Size:        *f.size,
		Description: *f.description,
	}
}

func runCreate(ctx context.Context, a *app, args []string) error {
	fs := a.newFlagSet("create")
	as := identityFlag(fs)
	fields := registerFieldFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	caller, err := requireIdentity(*as)
	if err != nil {
		return err
	}

	id, err := a.reg.Create(ctx, a.call(caller), fields.fields())
	if err != nil {
		return err
	}

	return a.printID(id)
}

func runRead(ctx context.Context, a *app, args []string) error {
	fs := a.newFlagSet("read")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: dittoreg read ID")
	}

	id, err := record.ParseID(fs.Arg(0))
	if err != nil {
		return err
	}

	rec, err := a.reg.Read(ctx, id)
	if err != nil {
		return err
	}

	return a.printRecord(rec)
}

func runUpdate(ctx context.Context, a *app, args []string) error {
	fs := a.newFlagSet("update")
	as := identityFlag(fs)
	rawID := fs.String("id", "", "Record ID")
	fields := registerFieldFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	caller, err := requireIdentity(*as)
	if err != nil {
		return err
	}
	id, err := record.ParseID(*rawID)
	if err != nil {
		return err
	}

	ok, err := a.reg.Update(ctx, a.call(caller), id, fields.fields())
	if err != nil {
		return err
	}

	return a.printBool(ok)
}

func runDelete(ctx context.Context, a *app, args []string) error {
	fs := a.newFlagSet("delete")
	as := identityFlag(fs)
	rawID := fs.String("id", "", "Record ID")
	if err := fs.Parse(args); err != nil {
		return err
	}

	caller, err := requireIdentity(*as)
	if err != nil {
		return err
	}
	id, err := record.ParseID(*rawID)
	if err != nil {
		return err
	}

	ok, err := a.reg.Delete(ctx, a.call(caller), id)
	if err != nil {
		return err
	}

	return a.printBool(ok)
}

func runExport(ctx context.Context, a *app, args []string) error {
	fs := a.newFlagSet("export")
	format := fs.String("format", a.cfg.Snapshot.Format, "Snapshot encoding (json, yaml, xdr)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	codec, err := snapshot.CodecFor(snapshot.Format(*format))
	if err != nil {
		return err
	}

	target, err := config.CreateSnapshotTarget(ctx, &a.cfg.Snapshot)
	if err != nil {
		return err
	}

	key, err := snapshot.Export(ctx, a.store, codec, target)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(a.stdout, target.Describe(key))
	return err
}

func runImport(ctx context.Context, a *app, args []string) error {
	fs := a.newFlagSet("import")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: dittoreg import KEY")
	}

	target, err := config.CreateSnapshotTarget(ctx, &a.cfg.Snapshot)
	if err != nil {
		return err
	}

	state, err := snapshot.Import(ctx, a.store, target, fs.Arg(0))
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(a.stdout, "imported %d records, next id %d\n", len(state.Records), state.NextID)
	return err
}
