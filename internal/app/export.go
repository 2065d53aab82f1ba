package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/specialistvlad/deploygrid/internal/artifact"
	"github.com/specialistvlad/deploygrid/internal/builder"
	"github.com/specialistvlad/deploygrid/internal/ctxlog"
	"github.com/specialistvlad/deploygrid/internal/executor"
)

// AddressesFile is the name of the exported address book.
const AddressesFile = "deployed_addresses.json"

// exportPath returns where the address book goes, or "" for no export.
func (a *App) exportPath() string {
	if a.config.ExportPath != "" {
		return a.config.ExportPath
	}
	if a.config.JournalBackend == JournalFile && a.config.JournalPath != "" {
		return filepath.Join(filepath.Dir(a.config.JournalPath), AddressesFile)
	}
	return ""
}

// exportAddresses writes deploy id → address for every deploy of the plan.
// encoding/json sorts map keys, which keeps the file stable across runs.
func (a *App) exportAddresses(ctx context.Context, graph *builder.Graph, report *executor.Report) error {
	path := a.exportPath()
	if path == "" {
		return nil
	}

	addresses := make(map[string]string)
	for _, d := range graph.Deploys() {
		if addr, ok := report.Results[d.Key()]; ok {
			addresses[d.Key()] = addr
		}
	}
	data, err := json.MarshalIndent(addresses, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding addresses: %w", err)
	}
	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating export directory: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing addresses: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("writing addresses: %w", err)
	}
	ctxlog.FromContext(ctx).Info("Deployed addresses exported.", "path", path, "count", len(addresses))
	return nil
}

// writeOutputs prints the root module outputs with action results filled in.
func writeOutputs(w io.Writer, graph *builder.Graph, report *executor.Report) error {
	root := graph.RootOutputs()
	if root == nil || len(root.OutputOrder) == 0 {
		return nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "outputs of %s:\n", root.ID)
	for _, name := range root.OutputOrder {
		fmt.Fprintf(&b, "  %s = %s\n", name, renderArg(root.Outputs[name], report.Results))
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func renderArg(arg artifact.Arg, results map[string]string) string {
	switch arg.Kind {
	case artifact.ArgAction:
		if v, ok := results[arg.Action.String()]; ok {
			return v
		}
		return arg.String()
	case artifact.ArgList:
		parts := make([]string, len(arg.Items))
		for i, item := range arg.Items {
			parts[i] = renderArg(item, results)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return arg.String()
	}
}
