package cmd

import (
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/kelvie/precache/internal/cachestore"
	"github.com/kelvie/precache/internal/interceptor"
	"github.com/kelvie/precache/internal/metadata"
	"github.com/kelvie/precache/pkg/hashutil"
)

var listenAddr string

// serveCmd runs the request interceptor over a populated store: cache
// hits are served from disk, misses fall back to the network upstream.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve a populated cache store, falling back to the network.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := InitConfigWithError()
		if err != nil {
			return err
		}

		recorder := metadata.NewRecorder()
		opener := cachestore.NewDirOpener(cfg.StoreDir(), hashutil.HashAlgo(cfg.HashAlgo()), &recorder)
		store, openErr := opener.Open(cfg.StoreName())
		if openErr != nil {
			fmt.Fprintf(os.Stderr, "cannot open store %q: %s\n", cfg.StoreName(), openErr)
			return openErr
		}

		upstream := interceptor.NewNetworkUpstream(cfg.BaseURL(), &http.Client{Timeout: cfg.Timeout()})
		handler := interceptor.New(store, cfg.BaseURL(), upstream, &recorder)

		addr := cfg.ListenAddr()
		if listenAddr != "" {
			addr = listenAddr
		}

		base := cfg.BaseURL()
		fmt.Printf("Serving store %q on %s (upstream %s)\n", store.Name(), addr, base.String())
		return http.ListenAndServe(addr, handler)
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	serveCmd.Flags().StringVar(&listenAddr, "listen-addr", "", "address to listen on (default from config)")
	rootCmd.AddCommand(serveCmd)
}
