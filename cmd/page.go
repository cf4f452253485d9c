package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/pagedit/internal/editor"
)

var prepareCmd = &cobra.Command{
	Use:   "prepare <page>",
	Short: "Make a page editable",
	Long: `Opens a page, restructures its gallery into product carousels and adds the
editing affordances. The editable page replaces the original unless --out is
given.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, _ := cmd.Flags().GetString("out")
		if out == "" {
			out = args[0]
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ed, err := openPage(cfg, args[0], true)
		if err != nil {
			return err
		}
		defer ed.Close()

		page, err := ed.HTML()
		if err != nil {
			return err
		}
		if err := writeFile(out, []byte(page)); err != nil {
			return err
		}
		products, _ := ed.Products()
		fmt.Printf("Prepared %s (%d products)\n", out, len(products))
		return nil
	},
}

var saveCmd = &cobra.Command{
	Use:   "save <page>",
	Short: "Write the standalone page",
	Long: `Generates the standalone page from an editable (or plain) page: editing
markup is stripped, carousels are laid out and the carousel runtime is
embedded. The result is written to the configured output directory.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if dir, _ := cmd.Flags().GetString("out-dir"); dir != "" {
			cfg.OutputDir = dir
		}
		ed, err := openPage(cfg, args[0], true)
		if err != nil {
			return err
		}
		defer ed.Close()

		if stdout, _ := cmd.Flags().GetBool("stdout"); stdout {
			_, err := ed.Save(os.Stdout)
			return err
		}
		path, err := ed.SaveToDir(cfg.OutputDir)
		if err != nil {
			return err
		}
		fmt.Printf("%s -> %s\n", ed.Status().Text, path)
		return nil
	},
}

var textCmd = &cobra.Command{
	Use:   "text",
	Short: "List, change or delete editable text",
}

var textListCmd = &cobra.Command{
	Use:   "list <page>",
	Short: "List the editable text elements",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ed, err := openPage(cfg, args[0], true)
		if err != nil {
			return err
		}
		defer ed.Close()

		texts, err := ed.Texts()
		if err != nil {
			return err
		}
		for _, t := range texts {
			fmt.Printf("%-24s %-8s %s\n", t.ID, t.Tag, t.Content)
		}
		return nil
	},
}

var textSetCmd = &cobra.Command{
	Use:   "set <page> <id> <content>",
	Short: "Replace the content of an editable text element",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		markdown, _ := cmd.Flags().GetBool("markdown")
		return editPage(args[0], true, func(ed *editor.Editor) error {
			if markdown {
				return ed.SetMarkdown(args[1], args[2])
			}
			return ed.SetText(args[1], args[2])
		})
	},
}

var textDeleteCmd = &cobra.Command{
	Use:   "delete <page> <id>",
	Short: "Delete an editable text element",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		yes, _ := cmd.Flags().GetBool("yes")
		return editPage(args[0], yes, func(ed *editor.Editor) error {
			deleted, err := ed.DeleteText(args[1])
			if err == nil && !deleted {
				fmt.Println("Kept the text")
			}
			return err
		})
	},
}

var sectionCmd = &cobra.Command{
	Use:   "section",
	Short: "List or delete page sections",
}

var sectionListCmd = &cobra.Command{
	Use:   "list <page>",
	Short: "List the sections of a page",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ed, err := openPage(cfg, args[0], true)
		if err != nil {
			return err
		}
		defer ed.Close()

		sections, err := ed.Sections()
		if err != nil {
			return err
		}
		for _, s := range sections {
			fmt.Printf("%3d  %-32s %d product(s)\n", s.Index, s.Title, s.Products)
		}
		return nil
	},
}

var sectionDeleteCmd = &cobra.Command{
	Use:   "delete <page> <section>",
	Short: "Delete a section and everything in it",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		i, err := intArg(args[1], "section")
		if err != nil {
			return err
		}
		yes, _ := cmd.Flags().GetBool("yes")
		return editPage(args[0], yes, func(ed *editor.Editor) error {
			deleted, err := ed.DeleteSection(i)
			if err == nil && !deleted {
				fmt.Println("Kept the section")
			}
			return err
		})
	},
}

var productCmd = &cobra.Command{
	Use:   "product",
	Short: "List, add, rename or remove products",
}

var productListCmd = &cobra.Command{
	Use:   "list <page>",
	Short: "List the products of the gallery",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ed, err := openPage(cfg, args[0], true)
		if err != nil {
			return err
		}
		defer ed.Close()

		products, err := ed.Products()
		if err != nil {
			return err
		}
		for _, p := range products {
			fmt.Printf("%3d  %-32s %d photo(s)\n", p.Index, p.Name, p.Photos)
		}
		return nil
	},
}

var productAddCmd = &cobra.Command{
	Use:   "add <page> [name]",
	Short: "Append a product",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var name string
		if len(args) == 2 {
			name = args[1]
		}
		return editPage(args[0], true, func(ed *editor.Editor) error {
			index, err := ed.AddProduct(name)
			if err == nil {
				fmt.Printf("Added product %d\n", index)
			}
			return err
		})
	},
}

var productRenameCmd = &cobra.Command{
	Use:   "rename <page> <product> <name>",
	Short: "Rename a product",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := intArg(args[1], "product")
		if err != nil {
			return err
		}
		return editPage(args[0], true, func(ed *editor.Editor) error {
			return ed.SetName(p, args[2])
		})
	},
}

var nameCmd = &cobra.Command{
	Use:   "name",
	Short: "Change product names",
}

var nameSetCmd = &cobra.Command{
	Use:   "set <page> <product> <name>",
	Short: "Rename a product",
	Args:  cobra.ExactArgs(3),
	RunE:  productRenameCmd.RunE,
}

var productRemoveCmd = &cobra.Command{
	Use:   "remove <page> <product>",
	Short: "Remove a product",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := intArg(args[1], "product")
		if err != nil {
			return err
		}
		yes, _ := cmd.Flags().GetBool("yes")
		return editPage(args[0], yes, func(ed *editor.Editor) error {
			if !yes && !confirmPrompt(fmt.Sprintf("Remove product %d", p)) {
				return fmt.Errorf("cancelled")
			}
			return ed.RemoveProduct(p)
		})
	},
}

func init() {
	prepareCmd.Flags().StringP("out", "o", "", "write the editable page here instead of in place")
	saveCmd.Flags().StringP("out-dir", "o", "", "output directory (overrides config)")
	saveCmd.Flags().Bool("stdout", false, "write the page to stdout")
	textSetCmd.Flags().Bool("markdown", false, "interpret content as Markdown")
	productRemoveCmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation")
	textDeleteCmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation")
	sectionDeleteCmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation")

	textCmd.AddCommand(textListCmd, textSetCmd, textDeleteCmd)
	sectionCmd.AddCommand(sectionListCmd, sectionDeleteCmd)
	productCmd.AddCommand(productListCmd, productAddCmd, productRenameCmd, productRemoveCmd)
	nameCmd.AddCommand(nameSetCmd)
	rootCmd.AddCommand(prepareCmd, saveCmd, textCmd, sectionCmd, productCmd, nameCmd)
}
