package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ntrak-go/nspccore/internal/nspc"
	"github.com/ntrak-go/nspccore/internal/nspccompile"
	"github.com/ntrak-go/nspccore/internal/nspcparser"
	"github.com/ntrak-go/nspccore/internal/nspcverify"
	"github.com/ntrak-go/nspccore/internal/projectfile"
)

func main() {
	setupCleanupOnExit()

	var debugLog string
	root := &cobra.Command{
		Use:   "nspccore",
		Short: "Parse, edit, compile, and verify N-SPC music engine ARAM images",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if debugLog != "" {
				f, err := os.OpenFile(debugLog, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
				if err != nil {
					log.Fatalf("nspccore: opening debug log: %v", err)
				}
				log.SetOutput(f)
				log.SetFlags(log.LstdFlags | log.Lshortfile)
			} else {
				log.SetOutput(io.Discard)
			}
		},
	}
	root.PersistentFlags().StringVar(&debugLog, "debug", "", "if set, write debug logs to this file; empty disables logging")

	root.AddCommand(newParseCmd(), newCompileCmd(), newVerifyCmd(), newSaveIrCmd(), newApplyIrCmd())
	if err := root.Execute(); err != nil {
		log.SetOutput(os.Stderr)
		log.Fatalf("nspccore: %v", err)
	}
}

// setupCleanupOnExit mirrors the host tool's signal handling: nothing to
// clean up at the core level (no device handles, no background processes),
// but a music workstation's top-level binary always owns this hook so a
// host embedding the core inherits the same shutdown discipline.
func setupCleanupOnExit() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		<-c
		os.Exit(0)
	}()
}

func loadEngineConfigs(path string) ([]*nspc.EngineConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading engine configs from %s: %w", path, err)
	}
	cfgs, err := nspc.LoadEngineConfigs(data)
	if err != nil {
		return nil, fmt.Errorf("loading engine configs from %s: %w", path, err)
	}
	return cfgs, nil
}

func parseSpcFile(path, engineConfigPath string) (*nspc.Project, error) {
	cfgs, err := loadEngineConfigs(engineConfigPath)
	if err != nil {
		return nil, err
	}
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	proj, err := nspcparser.Parse(buf, cfgs)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return proj, nil
}

func newParseCmd() *cobra.Command {
	var engineConfigPath string
	cmd := &cobra.Command{
		Use:   "parse <spc-file>",
		Short: "Parse an SPC image and print a summary of its songs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			proj, err := parseSpcFile(args[0], engineConfigPath)
			if err != nil {
				return err
			}
			fmt.Printf("engine: %s\n", proj.EngineConfig.Name)
			for _, s := range proj.Songs {
				fmt.Printf("song %d: name=%q tracks=%d subroutines=%d patterns=%d origin=%v\n",
					s.ID, s.Name, len(s.Tracks), len(s.Subroutines), len(s.Patterns), s.ContentOrigin)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&engineConfigPath, "engine-configs", "engine_configs.json", "path to the engine config JSON document")
	return cmd
}

func newCompileCmd() *cobra.Command {
	var engineConfigPath string
	var songIndex int
	var outPath string
	var compact bool
	cmd := &cobra.Command{
		Use:   "compile <spc-file>",
		Short: "Compile one song and write the patched SPC to --out",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			proj, err := parseSpcFile(args[0], engineConfigPath)
			if err != nil {
				return err
			}
			upload, err := nspccompile.BuildSongScopedUpload(proj, songIndex, nspccompile.Options{CompactAramLayout: compact})
			if err != nil {
				return fmt.Errorf("compile: %w", err)
			}
			for _, w := range upload.Warnings {
				log.Printf("compile warning: %s", w)
			}
			patched := nspccompile.ApplyUploadToSpcImage(upload, proj.SourceSpcData)
			if err := os.WriteFile(outPath, patched, 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", outPath, err)
			}
			fmt.Printf("wrote %d chunks (%d bytes total) to %s\n", len(upload.Chunks), chunkTotalBytes(upload), outPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&engineConfigPath, "engine-configs", "engine_configs.json", "path to the engine config JSON document")
	cmd.Flags().IntVar(&songIndex, "song", 0, "index into project.Songs to compile")
	cmd.Flags().StringVar(&outPath, "out", "out.spc", "output SPC path")
	cmd.Flags().BoolVar(&compact, "compact", false, "pack the ARAM layout tightly instead of reusing original addresses")
	return cmd
}

func chunkTotalBytes(upload *nspccompile.UploadList) int {
	n := 0
	for _, c := range upload.Chunks {
		n += len(c.Bytes)
	}
	return n
}

func newVerifyCmd() *cobra.Command {
	var engineConfigPath string
	cmd := &cobra.Command{
		Use:   "verify <spc-file>",
		Short: "Compile-then-reparse every song and report round-trip equivalence",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			proj, err := parseSpcFile(args[0], engineConfigPath)
			if err != nil {
				return err
			}
			failures := 0
			for i, s := range proj.Songs {
				report, err := nspcverify.VerifySongRoundTrip(proj, i)
				if err != nil {
					fmt.Printf("song %d (id=%d): error: %v\n", i, s.ID, err)
					failures++
					continue
				}
				fmt.Printf("song %d (id=%d): equivalent=%v pointerDiffsIgnored=%d differingBytes=%d\n",
					i, s.ID, report.Equivalent, report.PointerDifferencesIgnored, report.DifferingBytes)
				if !report.Equivalent {
					failures++
					for _, note := range report.Notes {
						fmt.Printf("  - %s\n", note)
					}
				}
			}
			if failures > 0 {
				return fmt.Errorf("%d song(s) failed round-trip verification", failures)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&engineConfigPath, "engine-configs", "engine_configs.json", "path to the engine config JSON document")
	return cmd
}

func newSaveIrCmd() *cobra.Command {
	var engineConfigPath, baseSpcPath string
	cmd := &cobra.Command{
		Use:   "save-ir <spc-file> <ir-file>",
		Short: "Parse an SPC image and save its user-owned overlay as a project IR file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			proj, err := parseSpcFile(args[0], engineConfigPath)
			if err != nil {
				return err
			}
			if baseSpcPath == "" {
				baseSpcPath = args[0]
			}
			if err := projectfile.SaveProjectIrFile(proj, args[1], baseSpcPath); err != nil {
				return fmt.Errorf("save-ir: %w", err)
			}
			fmt.Printf("saved overlay to %s\n", args[1])
			return nil
		},
	}
	cmd.Flags().StringVar(&engineConfigPath, "engine-configs", "engine_configs.json", "path to the engine config JSON document")
	cmd.Flags().StringVar(&baseSpcPath, "base-spc", "", "base SPC path hint to record in the IR file (defaults to the input file)")
	return cmd
}

func newApplyIrCmd() *cobra.Command {
	var engineConfigPath, outPath string
	cmd := &cobra.Command{
		Use:   "apply-ir <spc-file> <ir-file>",
		Short: "Parse a base SPC image, apply a project IR overlay, and write the merged SPC",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			proj, err := parseSpcFile(args[0], engineConfigPath)
			if err != nil {
				return err
			}
			overlay, err := projectfile.LoadProjectIrFile(args[1])
			if err != nil {
				return fmt.Errorf("apply-ir: %w", err)
			}
			if err := projectfile.ApplyProjectIrOverlay(proj, overlay); err != nil {
				return fmt.Errorf("apply-ir: %w", err)
			}
			out := append([]byte(nil), proj.SourceSpcData...)
			copy(out[0x100:], proj.Aram[:])
			if err := os.WriteFile(outPath, out, 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", outPath, err)
			}
			fmt.Printf("applied overlay; %d songs, %d instruments, %d samples remain\n",
				len(proj.Songs), len(proj.Instruments), len(proj.Samples))
			return nil
		},
	}
	cmd.Flags().StringVar(&engineConfigPath, "engine-configs", "engine_configs.json", "path to the engine config JSON document")
	cmd.Flags().StringVar(&outPath, "out", "merged.spc", "output SPC path")
	return cmd
}
