// File: cmd/helpers_test.go
package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/usmank11/automatic-fisher/internal/observability"
)

// newPristineRootCmd returns a clean command tree with global viper and
// logger state reset, so tests do not leak configuration into each other.
func newPristineRootCmd() *cobra.Command {
	viper.Reset()
	observability.ResetForTest()
	cfgFile = ""
	appConfig = nil
	return newRootCmd()
}
