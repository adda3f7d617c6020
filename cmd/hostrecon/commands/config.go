package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/vulntor/hostrecon/pkg/config"
	"github.com/vulntor/hostrecon/pkg/pipeline"
)

// showAllConfig is the --show-config value used when no key is given.
const showAllConfig = "*"

// runShowConfig prints the configuration after merging defaults, the config
// file, HOSTRECON_* environment variables and flags. A key such as
// scan.min_rate prints only that value.
func runShowConfig(cmd *cobra.Command, manager *config.Manager, key string) error {
	if key != showAllConfig {
		value, ok := manager.Lookup(key)
		if !ok {
			return pipeline.NewConfigError(fmt.Errorf("unknown key %q (known keys: %s)", key, strings.Join(manager.Keys(), ", ")))
		}
		_, err := fmt.Fprintln(cmd.OutOrStdout(), value)
		return err
	}

	b, err := yaml.Marshal(manager.Get())
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	_, err = cmd.OutOrStdout().Write(b)
	return err
}
