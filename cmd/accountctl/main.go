// accountctl manages accounts in the PostgreSQL store used by database auth.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/l1jgo/realmsync/internal/config"
	"github.com/l1jgo/realmsync/internal/handler"
	"github.com/l1jgo/realmsync/internal/persist"
)

func main() {
	if len(os.Args) < 3 {
		fmt.Fprintln(os.Stderr, "Usage: accountctl create <name> <password>")
		fmt.Fprintln(os.Stderr, "       accountctl show <name>")
		os.Exit(1)
	}
	if err := run(os.Args[1], os.Args[2:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd string, args []string) error {
	cfgPath := "config/server.toml"
	if p := os.Getenv("REALMSYNC_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := persist.Open(ctx, cfg.Database, zap.NewNop())
	if err != nil {
		return err
	}
	defer db.Close()
	repo := persist.NewAccountRepo(db)

	name, err := handler.NormalizeAccount(args[0])
	if err != nil {
		return err
	}

	switch cmd {
	case "create":
		if len(args) < 2 {
			return fmt.Errorf("create needs a password")
		}
		existing, err := repo.Load(ctx, name)
		if err != nil {
			return err
		}
		if existing != nil {
			return fmt.Errorf("account %q already exists", name)
		}
		if _, err := repo.Create(ctx, name, args[1], ""); err != nil {
			return err
		}
		fmt.Printf("created %s\n", name)
	case "show":
		row, err := repo.Load(ctx, name)
		if err != nil {
			return err
		}
		if row == nil {
			return fmt.Errorf("account %q not found", name)
		}
		lastActive := "never"
		if row.LastActive != nil {
			lastActive = row.LastActive.Format(time.RFC3339)
		}
		fmt.Printf("name:        %s\nbanned:      %v\nip:          %s\ncreated:     %s\nlast active: %s\n",
			row.Name, row.Banned, row.IP, row.CreatedAt.Format(time.RFC3339), lastActive)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
	return nil
}
