package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/pagedit/internal/editor"
	"github.com/ziadkadry99/pagedit/internal/surface"
)

var photoCmd = &cobra.Command{
	Use:   "photo",
	Short: "Manage product photos and images",
}

var photoAddCmd = &cobra.Command{
	Use:   "add <page> <product>",
	Short: "Append an empty photo to a product carousel",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := intArg(args[1], "product")
		if err != nil {
			return err
		}
		return editPage(args[0], true, func(ed *editor.Editor) error {
			n, err := ed.AddPhoto(p)
			if err == nil {
				fmt.Printf("Added photo %d to product %d\n", n, p)
			}
			return err
		})
	},
}

var photoDeleteCmd = &cobra.Command{
	Use:   "delete <page> <product> <photo>",
	Short: "Delete a photo from a product carousel",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := intArg(args[1], "product")
		if err != nil {
			return err
		}
		n, err := intArg(args[2], "photo")
		if err != nil {
			return err
		}
		yes, _ := cmd.Flags().GetBool("yes")
		return editPage(args[0], yes, func(ed *editor.Editor) error {
			deleted, err := ed.DeletePhoto(p, n)
			if err != nil {
				return err
			}
			if !deleted {
				fmt.Println("Kept the photo")
			}
			return nil
		})
	},
}

// navCommand builds a carousel navigation subcommand. Goto takes the target
// photo as an extra argument.
func navCommand(action, short string) *cobra.Command {
	use := action + " <page> <product>"
	nargs := 2
	if action == editor.NavGoto {
		use += " <photo>"
		nargs = 3
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(nargs),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := intArg(args[1], "product")
			if err != nil {
				return err
			}
			nav := editor.Nav{Action: action}
			if action == editor.NavGoto {
				if nav.Index, err = intArg(args[2], "photo"); err != nil {
					return err
				}
			}
			return editPage(args[0], true, func(ed *editor.Editor) error {
				st, err := ed.Navigate(p, nav)
				if err != nil {
					return err
				}
				fmt.Printf("Product %d shows photo %d of %d\n", p, st.Index, st.Count)
				return nil
			})
		},
	}
}

var photoUploadCmd = &cobra.Command{
	Use:   "upload <page> <file>",
	Short: "Embed an image file into a photo or image slot",
	Long: `Reads an image file and embeds it into the page as a data URI. Address a
product photo with --product and --photo, or any other image slot with --id.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := imageTarget(cmd)
		if err != nil {
			return err
		}
		f, err := os.Open(args[1])
		if err != nil {
			return fmt.Errorf("opening image: %w", err)
		}
		defer f.Close()
		return editPage(args[0], true, func(ed *editor.Editor) error {
			return ed.Upload(context.Background(), t, f, filepath.Base(args[1]))
		})
	},
}

var photoScaleCmd = &cobra.Command{
	Use:   "scale <page> [delta]",
	Short: "Zoom an image by percentage points",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := imageTarget(cmd)
		if err != nil {
			return err
		}
		reset, _ := cmd.Flags().GetBool("reset")
		var delta float64
		if !reset {
			if len(args) < 2 {
				return fmt.Errorf("delta is required unless --reset is given")
			}
			if delta, err = strconv.ParseFloat(args[1], 64); err != nil {
				return fmt.Errorf("delta must be a number: %w", err)
			}
		}
		return editPage(args[0], true, func(ed *editor.Editor) error {
			if reset {
				return ed.ResetScale(t)
			}
			scale, err := ed.Scale(t, delta)
			if err == nil {
				fmt.Printf("%s is at %g%%\n", t, scale)
			}
			return err
		})
	},
}

var photoCropCmd = &cobra.Command{
	Use:   "crop <page>",
	Short: "Crop and position an image",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := imageTarget(cmd)
		if err != nil {
			return err
		}
		flags := cmd.Flags()
		c := surface.DefaultCrop
		c.X, _ = flags.GetFloat64("x")
		c.Y, _ = flags.GetFloat64("y")
		c.W, _ = flags.GetFloat64("w")
		c.H, _ = flags.GetFloat64("h")
		c.PosX, _ = flags.GetFloat64("pos-x")
		c.PosY, _ = flags.GetFloat64("pos-y")
		return editPage(args[0], true, func(ed *editor.Editor) error {
			return ed.Crop(t, c)
		})
	},
}

// imageTarget reads the --id or --product/--photo flags.
func imageTarget(cmd *cobra.Command) (editor.Target, error) {
	flags := cmd.Flags()
	if id, _ := flags.GetString("id"); id != "" {
		return editor.ElementTarget(id), nil
	}
	if !flags.Changed("product") {
		return editor.Target{}, fmt.Errorf("either --id or --product is required")
	}
	p, _ := flags.GetInt("product")
	n, _ := flags.GetInt("photo")
	return editor.PhotoTarget(p, n), nil
}

func intArg(s, name string) (int, error) {
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer, got %q", name, s)
	}
	return v, nil
}

func init() {
	photoDeleteCmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation")

	for _, c := range []*cobra.Command{photoUploadCmd, photoScaleCmd, photoCropCmd} {
		c.Flags().String("id", "", "id of the image or of an element inside its slot")
		c.Flags().Int("product", 0, "product index")
		c.Flags().Int("photo", 0, "photo index within the product")
	}
	photoScaleCmd.Flags().Bool("reset", false, "reset the zoom to 100%")

	d := surface.DefaultCrop
	photoCropCmd.Flags().Float64("x", d.X, "crop left edge (%)")
	photoCropCmd.Flags().Float64("y", d.Y, "crop top edge (%)")
	photoCropCmd.Flags().Float64("w", d.W, "crop width (%)")
	photoCropCmd.Flags().Float64("h", d.H, "crop height (%)")
	photoCropCmd.Flags().Float64("pos-x", d.PosX, "horizontal focus (%)")
	photoCropCmd.Flags().Float64("pos-y", d.PosY, "vertical focus (%)")

	photoCmd.AddCommand(
		photoAddCmd,
		photoDeleteCmd,
		navCommand(editor.NavNext, "Show the next photo"),
		navCommand(editor.NavPrev, "Show the previous photo"),
		navCommand(editor.NavGoto, "Show a given photo"),
		photoUploadCmd,
		photoScaleCmd,
		photoCropCmd,
	)
	rootCmd.AddCommand(photoCmd)
}
