package cmd

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ginjaninja78/scorecard-import/internal/template"
)

var templateOutput string

var templateCmd = &cobra.Command{
	Use:   "template",
	Short: "Write the blank import template workbook",
	Long: `The template command writes an xlsx workbook with the import column
headers, one sample row, and a sheet listing the facilities from the
configured facility directory.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := appConfig.LoadDirectory()
		if err != nil {
			return err
		}

		f, err := os.Create(templateOutput)
		if err != nil {
			return eris.Wrapf(err, "cmd: create %s", templateOutput)
		}
		if err := template.Write(f, dir); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return eris.Wrapf(err, "cmd: close %s", templateOutput)
		}

		zap.L().Info("template written", zap.String("path", templateOutput), zap.Int("facilities", dir.Len()))
		fmt.Fprintf(cmd.OutOrStdout(), "Template written to %s\n", templateOutput)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(templateCmd)

	templateCmd.Flags().StringVarP(&templateOutput, "output", "o", "scorecard_import_template.xlsx", "Path of the template to write")
}
