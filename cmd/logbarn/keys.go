package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/logbarn/logbarn/pkg/config"
	"github.com/logbarn/logbarn/pkg/database"
	"github.com/logbarn/logbarn/pkg/log"
	"github.com/logbarn/logbarn/pkg/security"
	"github.com/logbarn/logbarn/pkg/store"
)

// cliTimeout bounds one key management operation end to end
const cliTimeout = 30 * time.Second

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage agent API keys",
}

var keysCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new API key",
	Long: `Create a new API key and print it once.

Only a bcrypt hash is stored; the plaintext key cannot be recovered
after this command exits.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		description, _ := cmd.Flags().GetString("description")

		key, err := security.GenerateKey()
		if err != nil {
			return err
		}
		hash, err := security.HashKey(key)
		if err != nil {
			return err
		}

		st, ctx, cleanup, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer cleanup()

		created, err := st.CreateAPIKey(ctx, hash, description)
		if err != nil {
			return err
		}

		fmt.Printf("✓ API key %d created\n\n", created.ID)
		fmt.Printf("  %s\n\n", key)
		fmt.Println("Store it now; it cannot be shown again.")
		return nil
	},
}

var keysListCmd = &cobra.Command{
	Use:   "list",
	Short: "List API keys",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, ctx, cleanup, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer cleanup()

		keys, err := st.ListAPIKeys(ctx)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tACTIVE\tDESCRIPTION\tLAST USED\tCREATED")
		for _, k := range keys {
			lastUsed := "never"
			if k.LastUsedAt != nil {
				lastUsed = k.LastUsedAt.UTC().Format(time.RFC3339)
			}
			fmt.Fprintf(w, "%d\t%t\t%s\t%s\t%s\n",
				k.ID, k.IsActive, k.Description, lastUsed, k.CreatedAt.UTC().Format(time.RFC3339))
		}
		return w.Flush()
	},
}

var keysRevokeCmd = &cobra.Command{
	Use:   "revoke ID",
	Short: "Deactivate an API key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid key id %q", args[0])
		}

		st, ctx, cleanup, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer cleanup()

		if err := st.DeactivateAPIKey(ctx, id); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("key %d not found or already revoked", id)
			}
			return err
		}

		fmt.Printf("✓ API key %d revoked\n", id)
		return nil
	},
}

func init() {
	keysCmd.AddCommand(keysCreateCmd)
	keysCmd.AddCommand(keysListCmd)
	keysCmd.AddCommand(keysRevokeCmd)

	keysCreateCmd.Flags().String("description", "", "What this key is for (shown in listings)")
	keysCreateCmd.MarkFlagRequired("description")
}

// openStore connects with the same configuration the server uses. The
// returned context covers the whole operation; cleanup closes the pool.
func openStore(cmd *cobra.Command) (*store.MySQLStore, context.Context, func(), error) {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	// Keep connection retry chatter out of CLI output
	log.Init(log.Config{Level: log.WarnLevel})

	ctx, cancel := context.WithTimeout(context.Background(), cliTimeout)
	db, err := database.Connect(ctx, cfg.DB)
	if err != nil {
		cancel()
		return nil, nil, nil, err
	}

	st := store.NewMySQLStore(db)
	cleanup := func() {
		st.Close()
		cancel()
	}
	return st, ctx, cleanup, nil
}
