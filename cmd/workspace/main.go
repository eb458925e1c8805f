// Command workspace drives a remote workspace from the terminal: it loads the
// tree, runs one mutation through a reconciliation session and prints the
// resulting tree.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"idealite/internal/client"
	"idealite/internal/config"
	models "idealite/internal/domain/models/workspace"
	"idealite/internal/workspace/reconcile"
	"idealite/internal/workspace/render"
)

const usage = `usage: workspace [flags] <command> [command flags]

commands:
  tree                                   print the workspace tree
  create-page   -tag T [-folder F] [-kind page|canvas]
  create-folder -tag T [-parent F]
  delete-tag    -tag T [-yes]            without -yes only prints the impact
  move          -page P -tag T [-folder F]
  collapse      (-tag T | -folder F) [-open]
  toggle        (-tag T | -folder F)
  destinations  -page P                  list legal move targets
`

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, config.Load(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, args []string, stdout, stderr io.Writer) error {
	global := flag.NewFlagSet("workspace", flag.ContinueOnError)
	global.SetOutput(stderr)
	global.Usage = func() { fmt.Fprint(stderr, usage) }
	apiURL := global.String("url", cfg.WorkspaceAPIURL, "workspace server base URL")
	token := global.String("token", cfg.WorkspaceToken, "bearer token")
	showIDs := global.Bool("ids", true, "print node IDs in the tree")
	verbose := global.Bool("v", false, "log mutation lifecycle to stderr")
	if err := global.Parse(args); err != nil {
		return err
	}
	if global.NArg() == 0 {
		global.Usage()
		return errors.New("missing command")
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	remote := client.New(*apiURL, *token, cfg.RemoteTimeout, logger)
	notifier := reconcile.NotifierFunc(func(ctx context.Context, n reconcile.Notification) {
		fmt.Fprintf(stderr, "%s: %v\n", n.Message, n.Err)
	})

	session, err := reconcile.Load(ctx, remote, remote,
		reconcile.WithLogger(logger),
		reconcile.WithNotifier(notifier),
	)
	if err != nil {
		return err
	}

	var opts []render.Option
	if *showIDs {
		opts = append(opts, render.WithIDs())
	}
	printTree := func() {
		fmt.Fprintln(stdout, render.Tree(session.Tree(), opts...))
	}

	cmd, cmdArgs := global.Arg(0), global.Args()[1:]
	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	fs.SetOutput(stderr)
	tagID := fs.String("tag", "", "tag ID")
	folderID := fs.String("folder", "", "folder ID")
	pageID := fs.String("page", "", "page ID")
	parentID := fs.String("parent", "", "parent folder ID")
	kind := fs.String("kind", string(models.PageKindPage), "page kind")
	yes := fs.Bool("yes", false, "confirm destructive commands")
	open := fs.Bool("open", false, "expand instead of collapse")
	if err := fs.Parse(cmdArgs); err != nil {
		return err
	}

	switch cmd {
	case "tree":
		printTree()
		return nil

	case "create-page":
		if *tagID == "" {
			return errors.New("create-page: -tag is required")
		}
		page, err := session.CreatePage(ctx, container(*tagID, *folderID), models.PageKind(*kind))
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "created page %q <%s>\n", page.Title, page.ID)

	case "create-folder":
		if *tagID == "" {
			return errors.New("create-folder: -tag is required")
		}
		folder, err := session.CreateFolder(ctx, *tagID, optional(*parentID))
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "created folder %q <%s>\n", folder.Name, folder.ID)

	case "delete-tag":
		if *tagID == "" {
			return errors.New("delete-tag: -tag is required")
		}
		_, message, err := session.PreviewDelete(*tagID)
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, message)
		if !*yes {
			fmt.Fprintln(stdout, "re-run with -yes to delete")
			return nil
		}
		archived, err := session.DeleteTag(ctx, *tagID)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "deleted tag <%s>, archived %d pages\n", *tagID, archived)

	case "move":
		if *pageID == "" || *tagID == "" {
			return errors.New("move: -page and -tag are required")
		}
		page, err := session.MovePage(ctx, *pageID, container(*tagID, *folderID))
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "moved %q to %s\n", page.Title, page.Container())

	case "collapse", "toggle":
		node, err := nodeFlag(*tagID, *folderID)
		if err != nil {
			return fmt.Errorf("%s: %w", cmd, err)
		}
		if cmd == "toggle" {
			err = session.Toggle(ctx, node)
		} else {
			err = session.SetCollapsed(ctx, node, !*open)
		}
		if err != nil {
			return err
		}

	case "destinations":
		if *pageID == "" {
			return errors.New("destinations: -page is required")
		}
		dests, err := session.LegalDestinations(*pageID)
		if err != nil {
			return err
		}
		for _, d := range dests {
			fmt.Fprintln(stdout, d.String())
		}
		return nil

	default:
		global.Usage()
		return fmt.Errorf("unknown command %q", cmd)
	}

	printTree()
	return nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func container(tagID, folderID string) models.ContainerRef {
	if folderID == "" {
		return models.TagContainer(tagID)
	}
	return models.FolderContainer(tagID, folderID)
}

func nodeFlag(tagID, folderID string) (models.NodeRef, error) {
	switch {
	case tagID != "" && folderID != "":
		return models.NodeRef{}, errors.New("pass only one of -tag and -folder")
	case tagID != "":
		return models.TagNode(tagID), nil
	case folderID != "":
		return models.FolderNode(folderID), nil
	default:
		return models.NodeRef{}, errors.New("-tag or -folder is required")
	}
}
