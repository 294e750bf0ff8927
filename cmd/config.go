package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/marat/regdesk/internal/config"
	"github.com/marat/regdesk/internal/output"
)

// validConfigKeys lists the supported config keys for set/get.
var validConfigKeys = []string{
	"api.url",
	"sync.page_limit",
	"sync.push_on_sync",
}

func isValidConfigKey(key string) bool {
	for _, k := range validConfigKeys {
		if k == key {
			return true
		}
	}
	return false
}

func parseBool(val string) (bool, error) {
	switch strings.ToLower(val) {
	case "true", "1":
		return true, nil
	case "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid bool value %q (use true/false/1/0)", val)
	}
}

func boolPtr(b bool) *bool { return &b }
func intPtr(n int) *int    { return &n }

var configCmd = &cobra.Command{
	Use:     "config",
	Short:   "Manage regdesk configuration",
	GroupID: "system",
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]

		if !isValidConfigKey(key) {
			output.Error("unknown config key: %s", key)
			fmt.Println("Valid keys:", strings.Join(validConfigKeys, ", "))
			return fmt.Errorf("unknown config key: %s", key)
		}

		cfg, err := config.LoadConfig()
		if err != nil {
			output.Error("load config: %v", err)
			return err
		}

		switch key {
		case "api.url":
			cfg.API.URL = val
		case "sync.page_limit":
			n, err := strconv.Atoi(val)
			if err != nil || n <= 0 {
				output.Error("invalid page limit %q", val)
				return fmt.Errorf("invalid page limit %q", val)
			}
			cfg.Sync.PageLimit = intPtr(n)
		case "sync.push_on_sync":
			b, err := parseBool(val)
			if err != nil {
				output.Error("%v", err)
				return err
			}
			cfg.Sync.PushOnSync = boolPtr(b)
		}

		if err := config.SaveConfig(cfg); err != nil {
			output.Error("save config: %v", err)
			return err
		}

		output.Success("%s = %s", key, val)
		return nil
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a config value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := args[0]

		if !isValidConfigKey(key) {
			output.Error("unknown config key: %s", key)
			return fmt.Errorf("unknown config key: %s", key)
		}

		cfg, err := config.LoadConfig()
		if err != nil {
			output.Error("load config: %v", err)
			return err
		}

		switch key {
		case "api.url":
			fmt.Println(cfg.API.URL)
		case "sync.page_limit":
			if cfg.Sync.PageLimit != nil {
				fmt.Println(*cfg.Sync.PageLimit)
			} else {
				fmt.Println("100 (default)")
			}
		case "sync.push_on_sync":
			if cfg.Sync.PushOnSync != nil {
				fmt.Println(*cfg.Sync.PushOnSync)
			} else {
				fmt.Println("true (default)")
			}
		}
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all config values",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			output.Error("load config: %v", err)
			return err
		}

		fmt.Printf("api.url = %s\n", cfg.API.URL)
		if cfg.Sync.PageLimit != nil {
			fmt.Printf("sync.page_limit = %d\n", *cfg.Sync.PageLimit)
		} else {
			fmt.Println("sync.page_limit = 100 (default)")
		}
		if cfg.Sync.PushOnSync != nil {
			fmt.Printf("sync.push_on_sync = %t\n", *cfg.Sync.PushOnSync)
		} else {
			fmt.Println("sync.push_on_sync = true (default)")
		}
		return nil
	},
}

func init() {
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configListCmd)
	rootCmd.AddCommand(configCmd)
}
