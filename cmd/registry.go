package cmd

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/ccpace/internal/cli"
	"github.com/theirongolddev/ccpace/internal/registry"
)

var (
	flagRegistryFilter string
	flagRegistryIn     string
)

var registryCmd = &cobra.Command{
	Use:     "registry",
	Aliases: []string{"reg"},
	Short:   "Browse and launch claude-built skills, CLIs and shortcuts",
	RunE:    runRegistryList,
}

var registryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registry items, favorites first",
	Args:  cobra.NoArgs,
	RunE:  runRegistryList,
}

var registryShowCmd = &cobra.Command{
	Use:   "show <id|name>",
	Short: "Show one item as markdown",
	Args:  cobra.ExactArgs(1),
	RunE:  runRegistryShow,
}

var registryRunCmd = &cobra.Command{
	Use:   "run <id|name>",
	Short: "Launch an item and record the use",
	Args:  cobra.ExactArgs(1),
	RunE:  runRegistryRun,
}

var registryFavCmd = &cobra.Command{
	Use:   "fav <id|name>",
	Short: "Toggle an item's favorite mark",
	Args:  cobra.ExactArgs(1),
	RunE:  runRegistryFav,
}

var registryOpenCmd = &cobra.Command{
	Use:   "open <id|name>",
	Short: "Open an item's file, folder, docs or history",
	Args:  cobra.ExactArgs(1),
	RunE:  runRegistryOpen,
}

var registryRegenCmd = &cobra.Command{
	Use:   "regen",
	Short: "Regenerate the registry file",
	Args:  cobra.NoArgs,
	RunE:  runRegistryRegen,
}

var registryImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Import favorites and usage from the standalone JSON files",
	Args:  cobra.NoArgs,
	RunE:  runRegistryImport,
}

func init() {
	for _, c := range []*cobra.Command{registryCmd, registryListCmd} {
		c.Flags().StringVarP(&flagRegistryFilter, "filter", "f", "all",
			"all, favorites, skill, cli, raycast, alias or tool")
	}
	registryOpenCmd.Flags().StringVar(&flagRegistryIn, "in", "editor", "editor, folder, claude, history or docs")

	registryCmd.AddCommand(registryListCmd, registryShowCmd, registryRunCmd, registryFavCmd,
		registryOpenCmd, registryRegenCmd, registryImportCmd)
	rootCmd.AddCommand(registryCmd)
}

// registrySession bundles the loaded registry with its launcher state.
type registrySession struct {
	dir   string
	reg   *registry.Registry
	exec  *registry.Executor
	close func() error
}

func openRegistry(needFile bool) (*registrySession, error) {
	state, closer, err := openRegistryState(appCfg)
	if err != nil {
		return nil, err
	}
	rs := &registrySession{
		dir:   registry.Dir(appCfg.General.PAIDir),
		exec:  registry.NewExecutor(state, nil),
		close: closer.Close,
	}
	if needFile {
		rs.reg, err = registry.Load(filepath.Join(rs.dir, registry.RegistryFile))
		if err != nil {
			_ = rs.close()
			return nil, friendlyError(err)
		}
	}
	return rs, nil
}

func (rs *registrySession) find(idOrName string) (registry.Item, error) {
	it, ok := rs.reg.Find(idOrName)
	if !ok {
		return registry.Item{}, fmt.Errorf("no registry item %q", idOrName)
	}
	return it, nil
}

func runRegistryList(cmd *cobra.Command, _ []string) error {
	if !registry.ValidFilter(flagRegistryFilter) {
		return fmt.Errorf("unknown filter %q", flagRegistryFilter)
	}
	rs, err := openRegistry(true)
	if err != nil {
		return err
	}
	defer func() { _ = rs.close() }()

	ctx := cmd.Context()
	favs, err := rs.exec.State.Favorites(ctx)
	if err != nil {
		return err
	}
	stats, err := rs.exec.State.Usage(ctx)
	if err != nil {
		return err
	}
	items := registry.ApplyUsage(rs.reg.Items, stats)
	items = registry.SortForDisplay(registry.Filter(items, flagRegistryFilter, favs), favs)
	if len(items) == 0 {
		fmt.Println("\n  No matching items.")
		return nil
	}

	now := time.Now()
	rows := make([][]string, 0, len(items))
	for _, it := range items {
		star := ""
		if favs[it.ID] {
			star = "★"
		}
		rows = append(rows, []string{
			star, it.Name, string(it.Type), truncate(it.Description, 48),
			cli.FormatNumber(int64(it.UseCount)), registry.RelativeTimeString(it.LastUsed, now),
		})
	}
	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   fmt.Sprintf("Claude-Built (%d)", len(items)),
		Headers: []string{"", "Name", "Type", "Description", "Uses", "Last Used"},
		Rows:    rows,
	}))
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func runRegistryShow(_ *cobra.Command, args []string) error {
	rs, err := openRegistry(true)
	if err != nil {
		return err
	}
	defer func() { _ = rs.close() }()

	it, err := rs.find(args[0])
	if err != nil {
		return err
	}
	fmt.Println(registry.Markdown(it))
	return nil
}

func runRegistryRun(cmd *cobra.Command, args []string) error {
	rs, err := openRegistry(true)
	if err != nil {
		return err
	}
	defer func() { _ = rs.close() }()

	it, err := rs.find(args[0])
	if err != nil {
		return err
	}
	msg, err := rs.exec.Execute(cmd.Context(), it)
	if err != nil {
		return err
	}
	if msg != "" {
		fmt.Printf("  %s\n", msg)
	}
	return nil
}

func runRegistryFav(cmd *cobra.Command, args []string) error {
	rs, err := openRegistry(true)
	if err != nil {
		return err
	}
	defer func() { _ = rs.close() }()

	it, err := rs.find(args[0])
	if err != nil {
		return err
	}
	fav, err := rs.exec.State.ToggleFavorite(cmd.Context(), it.ID)
	if err != nil {
		return err
	}
	if fav {
		fmt.Printf("  Added %s to favorites\n", it.Name)
	} else {
		fmt.Printf("  Removed %s from favorites\n", it.Name)
	}
	return nil
}

func runRegistryOpen(cmd *cobra.Command, args []string) error {
	rs, err := openRegistry(true)
	if err != nil {
		return err
	}
	defer func() { _ = rs.close() }()

	it, err := rs.find(args[0])
	if err != nil {
		return err
	}
	return openItem(cmd.Context(), rs.exec, it, flagRegistryIn)
}

func openItem(ctx context.Context, ex *registry.Executor, it registry.Item, in string) error {
	switch strings.ToLower(in) {
	case "editor":
		name, err := ex.OpenInEditor(ctx, it.Path)
		if err != nil {
			return err
		}
		fmt.Printf("  Opened in %s\n", name)
		return nil
	case "folder":
		return ex.OpenFolderInTerminal(ctx, it.Path)
	case "claude":
		return ex.OpenInClaudeCode(ctx, it.Path)
	case "history":
		return ex.GitHistory(ctx, it.Path)
	case "docs":
		doc := registry.FindDocumentation(it.Path)
		if doc == "" {
			return errors.New("no documentation found next to " + it.Path)
		}
		return ex.OpenDocumentation(ctx, doc)
	}
	return fmt.Errorf("unknown target %q (want editor, folder, claude, history or docs)", in)
}

func runRegistryRegen(cmd *cobra.Command, _ []string) error {
	rs, err := openRegistry(false)
	if err != nil {
		return err
	}
	defer func() { _ = rs.close() }()

	progress("Regenerating registry...")
	if err := rs.exec.Regenerate(cmd.Context()); err != nil {
		return err
	}
	reg, err := registry.Load(filepath.Join(rs.dir, registry.RegistryFile))
	if err != nil {
		return friendlyError(err)
	}
	fmt.Printf("  Registry regenerated: %d items\n", len(reg.Items))
	return nil
}

func runRegistryImport(cmd *cobra.Command, _ []string) error {
	rs, err := openRegistry(false)
	if err != nil {
		return err
	}
	defer func() { _ = rs.close() }()

	n, err := rs.exec.State.ImportLegacy(cmd.Context(), rs.dir)
	if err != nil {
		return err
	}
	fmt.Printf("  Imported %d entries from %s\n", n, rs.dir)
	return nil
}
