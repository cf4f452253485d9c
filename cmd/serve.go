package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	mcpserver "github.com/ziadkadry99/pagedit/internal/mcp"
	"github.com/ziadkadry99/pagedit/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve <page>",
	Short: "Edit a page in the browser",
	Long: `Starts the local editor server for a page. Open the printed address, edit
the page and use "Save page" to download the standalone page. On shutdown the
editable page is written back unless --no-write-back is given.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("port") {
			cfg.Server.Port, _ = cmd.Flags().GetInt("port")
		}
		noWriteBack, _ := cmd.Flags().GetBool("no-write-back")

		// The browser confirms deletes before calling the API.
		ed, err := openPage(cfg, args[0], true)
		if err != nil {
			return err
		}
		defer ed.Close()

		srv := server.New(server.Config{
			Port:     cfg.Server.Port,
			AllowAll: cfg.Server.AllowAllOrigins,
		}, ed)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		err = srv.Run(ctx, func(url string) {
			fmt.Fprintf(os.Stderr, "pagedit %s editing %s\n", Version, args[0])
			fmt.Fprintf(os.Stderr, "  Open %s\n", url)
		})
		if err != nil {
			return err
		}
		if noWriteBack {
			return nil
		}
		page, err := ed.HTML()
		if err != nil {
			return err
		}
		if err := writeFile(args[0], []byte(page)); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Wrote editable page back to %s\n", args[0])
		return nil
	},
}

var mcpCmd = &cobra.Command{
	Use:   "mcp <page>",
	Short: "Start the MCP server for AI agent integration",
	Long:  `Starts a Model Context Protocol (MCP) server on stdio, exposing page editing tools for AI agents. The editable page is written back when the client disconnects.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		// Agents confirm through the delete_photo tool arguments.
		ed, err := openPage(cfg, args[0], true)
		if err != nil {
			return err
		}
		defer ed.Close()

		// Set version from the cmd package variable.
		mcpserver.Version = Version

		products, _ := ed.Products()
		fmt.Fprintf(os.Stderr, "pagedit MCP server started on stdio (page=%s, products=%d)\n", args[0], len(products))

		srv := mcpserver.NewServer(ed, cfg.OutputDir)
		if err := srv.Serve(); err != nil {
			return err
		}
		page, err := ed.HTML()
		if err != nil {
			return err
		}
		return writeFile(args[0], []byte(page))
	},
}

func init() {
	serveCmd.Flags().Int("port", 0, "port to listen on (overrides config)")
	serveCmd.Flags().Bool("no-write-back", false, "leave the page file untouched on shutdown")
	rootCmd.AddCommand(serveCmd, mcpCmd)
}
