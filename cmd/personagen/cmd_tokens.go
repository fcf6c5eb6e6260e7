package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"personagen/internal/tokens"
)

// tokensCmd manages the personalization token profile.
var tokensCmd = &cobra.Command{
	Use:   "tokens",
	Short: "Manage personalization tokens",
	Long: `Manages the token profile used to personalize prompts.

Prompts may reference tokens as [KEY], e.g. "photo of [FIRSTNAME]". Keys are
case-sensitive. Empty values resolve to an empty string; unknown keys are
left as-is in the prompt.`,
}

var tokensListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the current token profile",
	RunE:  runTokensList,
}

var tokensSetCmd = &cobra.Command{
	Use:   "set KEY=VALUE [KEY=VALUE...]",
	Short: "Set one or more tokens",
	Long: `Sets token values and persists them immediately.

Example:
  personagen tokens set FIRSTNAME=Sam COMPANY="Acme Corp"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runTokensSet,
}

var tokensResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset the profile to the default token set",
	RunE:  runTokensReset,
}

func init() {
	tokensCmd.AddCommand(tokensListCmd)
	tokensCmd.AddCommand(tokensSetCmd)
	tokensCmd.AddCommand(tokensResetCmd)
}

// openStore builds a hydrated store for token commands.
func openStore(cmd *cobra.Command) (*tokens.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	persister, err := buildPersister(cfg)
	if err != nil {
		return nil, err
	}

	store := tokens.NewStore(tokens.StoreConfig{
		OwnerID:       cfg.Tokens.OwnerID,
		DebounceDelay: cfg.GetDebounceDelay(),
		Persister:     persister,
		Logger:        logger,
	})
	if err := store.Hydrate(cmd.Context()); err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to load saved tokens: %w", err)
	}
	return store, nil
}

func runTokensList(cmd *cobra.Command, args []string) error {
	store, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	snapshot := store.Snapshot()
	keys := make([]string, 0, len(snapshot))
	for key := range snapshot {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := snapshot[key]
		if value == "" {
			value = "(empty)"
		}
		fmt.Printf("%-12s %s\n", key, value)
	}
	return nil
}

func runTokensSet(cmd *cobra.Command, args []string) error {
	updates := make(map[string]string, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return fmt.Errorf("expected KEY=VALUE, got %q", arg)
		}
		updates[key] = value
	}

	store, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	store.UpdateTokens(updates)
	// A short-lived command cannot wait out the debounce; write now.
	if err := store.Flush(cmd.Context()); err != nil {
		return fmt.Errorf("failed to persist tokens: %w", err)
	}

	fmt.Printf("Updated %d token(s).\n", len(updates))
	return nil
}

func runTokensReset(cmd *cobra.Command, args []string) error {
	store, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	store.ResetTokens()
	if err := store.Flush(cmd.Context()); err != nil {
		return fmt.Errorf("failed to persist tokens: %w", err)
	}

	fmt.Println("Token profile reset to defaults.")
	return nil
}
