package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/graintrack/syncengine/internal/models"
)

func (a *App) prompt() string {
	s := a.engine.Status()
	state := string(s.State)
	if s.IsSyncing() && s.Phase != "" {
		state = fmt.Sprintf("%s:%s", s.State, s.Phase)
	}
	if s.PendingCount > 0 {
		return fmt.Sprintf("(%s, %d pending)", state, s.PendingCount)
	}
	return fmt.Sprintf("(%s)", state)
}

func (a *App) Root(ctx context.Context) {
	fmt.Println("sync engine shell (type 'help' for commands)")
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Printf("syncctl %s> ", a.prompt())
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}

		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "help":
			fmt.Println("Commands: sync, fullsync, cancel, pause, resume, status,")
			fmt.Println("          pending, dead, revive <id>, conflicts, resolve <id> <strategy>,")
			fmt.Println("          add <table> <field>=<value>..., meta, clear, reset, exit")
		case "sync":
			a.sync(ctx)
		case "fullsync":
			a.fullSync(ctx)
		case "cancel":
			a.engine.CancelSync()
		case "pause":
			a.engine.Pause()
			fmt.Println("automatic syncing paused")
		case "resume":
			a.engine.Resume()
			fmt.Println("automatic syncing resumed")
		case "status":
			a.status()
		case "pending":
			a.pending(ctx)
		case "dead":
			a.deadLetters(ctx)
		case "revive":
			if len(args) != 1 {
				fmt.Println("Usage: revive <entry-id>")
				continue
			}
			a.revive(ctx, args[0])
		case "conflicts":
			a.conflicts()
		case "resolve":
			if len(args) != 2 {
				fmt.Println("Usage: resolve <conflict-id> <keep_local|keep_server|merge|duplicate>")
				continue
			}
			a.resolve(ctx, args[0], args[1])
		case "add":
			if len(args) < 2 {
				fmt.Println("Usage: add <table> <field>=<value>...")
				continue
			}
			a.add(ctx, args[0], args[1:])
		case "meta":
			a.meta(ctx)
		case "clear":
			a.clear(ctx)
		case "reset":
			a.reset(ctx)
		case "exit", "quit":
			fmt.Println("Bye!")
			return
		default:
			fmt.Printf("unknown command %q, type 'help'\n", cmd)
		}
	}
}

// parseStrategy maps a shell argument onto a resolution strategy.
func parseStrategy(arg string) (models.ResolutionStrategy, bool) {
	switch models.ResolutionStrategy(arg) {
	case models.ResolutionKeepLocal, models.ResolutionKeepServer,
		models.ResolutionMerge, models.ResolutionDuplicate:
		return models.ResolutionStrategy(arg), true
	default:
		return "", false
	}
}

// parseFields turns field=value shell arguments into a payload map.
func parseFields(args []string) (map[string]any, error) {
	payload := make(map[string]any, len(args))
	for _, arg := range args {
		key, value, found := strings.Cut(arg, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("expected field=value, got %q", arg)
		}
		payload[key] = value
	}
	return payload, nil
}
