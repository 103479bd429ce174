package cli

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/treo/strawberry/graphql/server"
)

// newServeCmd runs the harness view on a real listener for manual
// inspection with curl, a browser, or a WebSocket client.
func newServeCmd() *cobra.Command {
	var configPath string
	var listen string
	var ide string
	var disableGET bool
	var multipartUploads bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the harness GraphQL app on a network listener",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadServeConfig(configPath)
			if err != nil {
				return wrapError(fmt.Sprintf("load config %s", configPath), err)
			}
			if cmd.Flags().Changed("listen") {
				cfg.Listen = listen
			}
			if cmd.Flags().Changed("ide") {
				cfg.IDE = ide
			}
			if cmd.Flags().Changed("disable-get") {
				allow := !disableGET
				cfg.AllowGET = &allow
			}
			if cmd.Flags().Changed("multipart-uploads") {
				cfg.MultipartUploads = multipartUploads
			}

			mux := http.NewServeMux()
			mux.Handle("/graphql", server.New(serverOptions(cfg)))

			fmt.Fprintf(cmd.OutOrStdout(), "serving GraphQL at http://%s/graphql\n", cfg.Listen)
			if err := http.ListenAndServe(cfg.Listen, mux); err != nil {
				return wrapError("serve", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "strawberry.yaml", "Path to the harness config file")
	cmd.Flags().StringVar(&listen, "listen", defaultListenAddr, "Listen address")
	cmd.Flags().StringVar(&ide, "ide", string(server.IDEGraphiQL), "Explorer variant (graphiql, apollo-sandbox, none)")
	cmd.Flags().BoolVar(&disableGET, "disable-get", false, "Reject queries sent via GET")
	cmd.Flags().BoolVar(&multipartUploads, "multipart-uploads", false, "Enable multipart file uploads")
	return cmd
}
