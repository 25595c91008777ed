package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"legalizador/internal/services"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Load invoices from a Headers/Details workbook",
	Long: `Load invoices from an .xlsx or .xls workbook with a "Headers" sheet and a
"Details" sheet, the same format accepted by POST /v1/invoices/import.

Rows that fail are reported and skipped; the rest are committed.`,
	Example: `  legalizador import --file facturas_marzo.xlsx
  legalizador import --file facturas.xls --config config.yaml`,
	RunE: runImport,
}

var templateCmd = &cobra.Command{
	Use:   "template",
	Short: "Write the import template workbook",
	Example: `  legalizador template --out plantilla_facturas.xlsx`,
	RunE: runTemplate,
}

func init() {
	importCmd.Flags().StringP("file", "f", "", "workbook to import")
	_ = importCmd.MarkFlagRequired("file")

	templateCmd.Flags().StringP("out", "o", "plantilla_facturas.xlsx", "output path")
}

func runImport(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("file")
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	importSvc := services.NewImportService(a.invoices, a.cache, a.logger)
	result, err := importSvc.Import(cmd.Context(), filepath.Base(path), data)
	if err != nil {
		return err
	}

	a.logger.Info("Import finished",
		zap.String("file", path),
		zap.Int("success", result.SuccessCount),
		zap.Int("errors", result.ErrorCount))

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func runTemplate(cmd *cobra.Command, args []string) error {
	out, _ := cmd.Flags().GetString("out")

	buf, err := services.NewImportService(nil, nil, zap.NewNop()).Template()
	if err != nil {
		return err
	}
	if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Template written to %s\n", out)
	return nil
}
