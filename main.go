// Command tacacs-viewer edits the live TACACS+ and FreeRADIUS configuration
// files, keeping a timestamped backup of every version it replaces.
//
// Run without a subcommand it serves the HTTP API:
//
//	tacacs-viewer --config /etc/tacacs-viewer.yaml
//
// The same operations are available from the shell:
//
//	tacacs-viewer backups list tacacs
//	tacacs-viewer restore tacacs.conf.bak.20240101120000 --restart
//	tacacs-viewer restart freeradius
package main

import (
	"os"

	"github.com/rs/zerolog/log"
)

func main() {
	if err := buildRootCmd().Execute(); err != nil {
		log.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}
