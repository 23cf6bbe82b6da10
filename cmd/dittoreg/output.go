package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/marmos91/dittoreg/pkg/store/record"
	"gopkg.in/yaml.v3"
)

// printValue renders v in the selected structured format. Text output is
// handled by the callers.
func (a *app) printValue(v any) error {
	switch a.output {
	case "json":
		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(a.stdout)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		_, err := fmt.Fprintln(a.stdout, v)
		return err
	}
}

func (a *app) printID(id record.ID) error {
	if a.output == "text" {
		_, err := fmt.Fprintln(a.stdout, id)
		return err
	}
	return a.printValue(map[string]uint64{"id": uint64(id)})
}

func (a *app) printBool(ok bool) error {
	if a.output == "text" {
		_, err := fmt.Fprintln(a.stdout, ok)
		return err
	}
	return a.printValue(map[string]bool{"ok": ok})
}

// printRecord prints rec, or a not-found marker when rec is nil.
func (a *app) printRecord(rec *record.Record) error {
	if a.output != "text" {
		return a.printValue(rec)
	}
	if rec == nil {
		_, err := fmt.Fprintln(a.stdout, "not found")
		return err
	}
	return writeRecordText(a.stdout, rec)
}

func writeRecordText(w io.Writer, rec *record.Record) error {
	tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', 0)
	_, _ = fmt.Fprintf(tw, "id:\t%d\n", rec.ID)
	_, _ = fmt.Fprintf(tw, "name:\t%s\n", rec.Name)
	_, _ = fmt.Fprintf(tw, "kind:\t%s\n", rec.Kind)
	_, _ = fmt.Fprintf(tw, "size:\t%d\n", rec.Size)
	_, _ = fmt.Fprintf(tw, "description:\t%s\n", rec.Description)
	_, _ = fmt.Fprintf(tw, "owner:\t%s\n", rec.Owner)
	_, _ = fmt.Fprintf(tw, "created_at:\t%s\n", rec.CreatedAt.Format(time.RFC3339Nano))
	return tw.Flush()
}
