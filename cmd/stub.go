package cmd

import (
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tclemos/catalog-bench/catalog"
	"github.com/tclemos/catalog-bench/catalog/catalogtest"
)

var (
	stubListen string
	stubStore  string
	stubPath   string
)

// stubCmd serves the in-process catalog service, so the benchmarks have
// something local to run against.
var stubCmd = &cobra.Command{
	Use:   "stub",
	Short: "Serve a stub catalog service for local benchmark runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := catalogtest.NewStore(catalogtest.StoreConfig{
			Type: catalogtest.StoreType(stubStore),
			Path: stubPath,
		})
		if err != nil {
			return err
		}
		defer store.Close()

		server := catalogtest.NewServer(store)
		log.Info().
			Stringer("id", server.ID()).
			Str("listen", stubListen).
			Str("store", stubStore).
			Msg("Serving stub catalog")

		return http.ListenAndServe(stubListen, server)
	},
}

func init() {
	rootCmd.AddCommand(stubCmd)

	stubCmd.Flags().StringVar(&stubListen, "listen", fmt.Sprintf(":%d", catalog.DefaultPort), "Listen address")
	stubCmd.Flags().StringVar(&stubStore, "store", "memory", "Store backend: memory or pebble")
	stubCmd.Flags().StringVar(&stubPath, "path", "dbs/catalog", "Pebble store directory")
}
