package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"carddex/internal/config"
	"carddex/internal/editor"
	"carddex/internal/extract"
	"carddex/internal/logging"
	"carddex/internal/ocr/tesseract"
	"carddex/internal/pipeline"
	"carddex/internal/store"
)

var (
	workDir string
	verbose bool

	cfg     *config.Config
	log     *logging.Logger
	session *store.Session
)

// Execute builds the root command and runs the CLI.
func Execute() error {
	root := &cobra.Command{
		Use:   "carddex",
		Short: "Turn scanned business cards into contact records",
		Long: `carddex reads business-card scans (images or PDFs), runs OCR, guesses
contact fields, and keeps the results in a contacts.csv you can review,
edit, and export for Outlook import.`,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load(workDir)
			if err != nil {
				return fmt.Errorf("startup: %w", err)
			}
			level := cfg.LogLevel
			if verbose {
				level = "debug"
			}
			log = logging.New(level, true)

			session, err = store.Load(cfg.ContactsPath())
			if err != nil {
				return fmt.Errorf("startup: %w", err)
			}
			log.Debug().
				Str("dir", cfg.WorkingDir).
				Int("contacts", session.Len()).
				Msg("session loaded")
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&workDir, "dir", "d", "", "working directory (default: current directory)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(scanCmd(), listCmd(), showCmd(), addCmd(), editCmd(), removeCmd(), exportCmd())
	return root.Execute()
}

// newPipeline assembles the scan pipeline from config.
func newPipeline() (*pipeline.Pipeline, error) {
	imagesDir, err := cfg.ImagesPath()
	if err != nil {
		return nil, err
	}
	return pipeline.New(tesseract.New(), extract.DefaultChain(), log, pipeline.Options{
		Languages: cfg.OCR.Languages,
		DPI:       cfg.OCR.DPI,
		PSM:       cfg.OCR.PSM,
		Timeout:   cfg.OCR.Timeout,
		Workers:   cfg.OCR.Workers,
		ImagesDir: imagesDir,
	}), nil
}

// saveSession persists the in-memory session to the working directory.
func saveSession() error {
	if err := session.Save(cfg.ContactsPath()); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func newEditor() *editor.Editor {
	ed := editor.New(session, os.Stdin, os.Stdout, exportFunc, func(s *store.Session) error {
		return saveSession()
	})
	ed.SetExportPath(cfg.ExportPath())
	return ed
}

// runEditor starts the interactive loop on stdin/stdout.
func runEditor() error {
	return newEditor().Run()
}

// editOne opens a single record by id or prefix.
func editOne(idOrPrefix string) error {
	return newEditor().EditOne(idOrPrefix)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
