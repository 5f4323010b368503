package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"hoard-go/internal/app"
	"hoard-go/internal/config"
	"hoard-go/internal/database"
	"hoard-go/internal/worker"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newApp reads the config and creates a HoardApp. The caller must defer app.Close().
// operation identifies the CLI command being run (e.g. "AddFiles", "Search").
func newApp(operation string) (*app.HoardApp, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	a, err := app.NewHoardApp(cfg, operation)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}

	return a, nil
}

func parseIDs(args []string) ([]int64, error) {
	ids := make([]int64, len(args))
	for i, arg := range args {
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid post id %q", arg)
		}
		ids[i] = id
	}
	return ids, nil
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

var rootCmd = &cobra.Command{
	Use:          "hoard",
	Short:        "Local content-addressed media archive",
	SilenceUsage: true,
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration and the archive database",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg := config.NewConfig(defaults["base_dir"])

		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		// Opening the database applies the schema.
		db, err := database.NewDatabaseFromConfig(cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to create database: %w", err)
		}
		db.Close()

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Base Dir: %s\n", defaults["base_dir"])
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults["config_path"])
		fmt.Printf("Base Dir:       %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:        %s\n", cfg.LogDir)
		fmt.Printf("Database:       %s %s\n", cfg.Database.Type, cfg.Database.DataDir)
		fmt.Printf("Files:          %s\n", cfg.Storage.FileRoot)
		fmt.Printf("Thumbnails:     %s\n", cfg.Storage.ThumbnailRoot)
		fmt.Printf("Thumbnail Size: %d (enabled: %v)\n", cfg.Thumbnail.Size, cfg.Thumbnail.Enabled)
		fmt.Printf("Queue Size:     %d\n", cfg.Worker.QueueSize)
		return nil
	},
}

// add command
var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Add files or tags",
}

var addFileCmd = &cobra.Command{
	Use:   "file PATH...",
	Short: "Archive files",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("AddFiles")
		if err != nil {
			return err
		}
		defer a.Close()

		added, err := a.AddFiles(args)
		if err != nil {
			return fmt.Errorf("adding files: %w", err)
		}

		for _, f := range added {
			note := ""
			if !f.Created {
				note = "  (already archived)"
			}
			fmt.Printf("%s -> Post #%d%s\n", f.Path, f.Post.ID, note)
		}
		return nil
	},
}

var addTagCmd = &cobra.Command{
	Use:   "tag NAME...",
	Short: "Create tags",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("CreateTags")
		if err != nil {
			return err
		}
		defer a.Close()

		tags, err := a.CreateTags(args)
		if err != nil {
			return err
		}

		for _, t := range tags {
			fmt.Printf("%s -> Tag #%d\n", t.Name, t.ID)
		}
		return nil
	},
}

// remove command
var removeCmd = &cobra.Command{
	Use:   "remove",
	Short: "Remove posts or tags",
}

var removeFileCmd = &cobra.Command{
	Use:   "file POST_ID...",
	Short: "Delete posts and their stored files",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ids, err := parseIDs(args)
		if err != nil {
			return err
		}

		a, err := newApp("RemovePosts")
		if err != nil {
			return err
		}
		defer a.Close()

		removed, err := a.RemovePosts(ids)
		if err != nil {
			return fmt.Errorf("removing posts: %w", err)
		}

		for _, p := range removed {
			fmt.Printf("Removed post #%d\n", p.ID)
		}
		return nil
	},
}

var removeTagCmd = &cobra.Command{
	Use:   "tag NAME...",
	Short: "Delete tags from every post",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("RemoveTags")
		if err != nil {
			return err
		}
		defer a.Close()

		removed, err := a.RemoveTags(args)
		if err != nil {
			return fmt.Errorf("removing tags: %w", err)
		}

		for _, t := range removed {
			fmt.Printf("Removed '%s' #%d\n", t.Name, t.ID)
		}
		return nil
	},
}

// tag command
var tagCmd = &cobra.Command{
	Use:   "tag POST_ID TAG...",
	Short: "Tag or untag a post",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		remove, _ := cmd.Flags().GetBool("remove")

		ids, err := parseIDs(args[:1])
		if err != nil {
			return err
		}

		a, err := newApp("TagPost")
		if err != nil {
			return err
		}
		defer a.Close()

		post, n, err := a.TagPost(ids[0], args[1:], remove)
		if err != nil {
			return err
		}

		action := "Added"
		if remove {
			action = "Removed"
		}
		fmt.Printf("%s %d tag%s. New %s\n", action, n, plural(n), post)
		return nil
	},
}

// search command
var searchCmd = &cobra.Command{
	Use:   "search TAG... [-TAG...]",
	Short: "Find posts by tag; prefix a tag with - to exclude it",
	// Exclusions look like flags.
	DisableFlagParsing: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return cmd.Help()
		}

		a, err := newApp("Search")
		if err != nil {
			return err
		}
		defer a.Close()

		q, posts, err := a.Search(args)
		if err != nil {
			return err
		}

		fmt.Printf("Searching for %q\n", q.String())
		if len(posts) == 0 {
			fmt.Println("No posts found.")
			return nil
		}
		for _, p := range posts {
			fmt.Println(p)
		}
		return nil
	},
}

// show command
var showCmd = &cobra.Command{
	Use:   "show POST_ID",
	Short: "Show a post and where its files are",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ids, err := parseIDs(args)
		if err != nil {
			return err
		}

		a, err := newApp("Show")
		if err != nil {
			return err
		}
		defer a.Close()

		post, err := a.GetPost(ids[0])
		if err != nil {
			return err
		}

		fmt.Println(post)
		fmt.Printf("File:      %s\n", a.FilePath(post))

		thumbPath := a.ThumbnailPath(post)
		loader := a.NewThumbnailLoader()
		loader.Poll(post.ID, thumbPath)
		loader.Wait()
		if img, _ := loader.Poll(post.ID, thumbPath); img != nil {
			b := img.Bounds()
			fmt.Printf("Thumbnail: %s (%dx%d)\n", thumbPath, b.Dx(), b.Dy())
		} else {
			fmt.Println("Thumbnail: none")
		}
		return nil
	},
}

// tags command
var tagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "List tags with usage counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("ListTags")
		if err != nil {
			return err
		}
		defer a.Close()

		tags, err := a.Tags()
		if err != nil {
			return err
		}

		if len(tags) == 0 {
			fmt.Println("No tags.")
			return nil
		}
		for _, t := range tags {
			fmt.Printf("#%-5d %-24s %d\n", t.ID, t.Name, t.Posts)
		}
		return nil
	},
}

// ingest command
var ingestCmd = &cobra.Command{
	Use:   "ingest PATH...",
	Short: "Archive files and directory trees with progress",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Ingest")
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		w := a.NewWorker()
		w.Start(ctx)
		if err := w.Send(ctx, worker.RequestIngest{Paths: args}); err != nil {
			return err
		}

		bar := newProgress(os.Stdout)
		for ev := range w.Events() {
			bar.apply(ev)
			switch e := ev.(type) {
			case worker.RequestRenderContext:
				// Progress is drawn from the event stream; no repaint hook needed.
			case worker.SetPosts:
				fmt.Printf("Archived %d file%s\n", len(e.Posts), plural(len(e.Posts)))
			case worker.ReportError:
				a.Fail()
				return e.Err
			case worker.ShowProgress:
				if !e.Visible {
					return nil
				}
			}
		}
		return ctx.Err()
	},
}

func init() {
	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	// add and remove subcommands
	addCmd.AddCommand(addFileCmd)
	addCmd.AddCommand(addTagCmd)
	removeCmd.AddCommand(removeFileCmd)
	removeCmd.AddCommand(removeTagCmd)

	// root commands
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(removeCmd)
	rootCmd.AddCommand(tagCmd)
	tagCmd.Flags().BoolP("remove", "r", false, "Remove the tags instead of adding them")
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(tagsCmd)
	rootCmd.AddCommand(ingestCmd)
}
