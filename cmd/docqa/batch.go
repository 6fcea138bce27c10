package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/anime-shed/doc-inspector-go/internal/batch"
	"github.com/anime-shed/doc-inspector-go/internal/logger"
)

var defaultExtensions = []string{".png", ".jpg", ".jpeg", ".tif", ".tiff", ".bmp", ".webp", ".gif"}

// NewBatchCmd creates the batch command.
func NewBatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch [path-or-url...]",
		Short: "Analyze many document images concurrently",
		Long: `Batch analyzes every image given as an argument, every matching image
inside directory arguments, and every location listed in --list.

Results are reported in input order. An image that cannot be loaded or
analyzed becomes an error row and does not stop the others.

Examples:
  # CSV comparison table for a folder of scans
  docqa batch -f csv -o results/scans.csv ./scans

  # Walk subdirectories, eight images at a time
  docqa batch -r --concurrency 8 ./archive

  # Locations from a file, one per line
  docqa batch --list urls.txt`,
		Args: cobra.ArbitraryArgs,
		RunE: runBatchCmd,
	}

	addPipelineFlags(cmd)
	cmd.Flags().StringP("list", "l", "",
		"File with one location per line (blank lines and # comments are skipped)")
	cmd.Flags().BoolP("recursive", "r", false, "Descend into subdirectories")
	cmd.Flags().StringSlice("extensions", defaultExtensions,
		"File extensions picked up from directories")
	cmd.Flags().IntP("concurrency", "n", 4, "Number of images analyzed at once")
	cmd.Flags().String("fail-on", gateNone,
		"Return an error when any image is at least this bad: none, warn or fail")

	return cmd
}

// runBatchCmd executes the batch command.
func runBatchCmd(cmd *cobra.Command, args []string) error {
	listPath, err := cmd.Flags().GetString("list")
	if err != nil {
		return err
	}
	recursive, err := cmd.Flags().GetBool("recursive")
	if err != nil {
		return err
	}
	extensions, err := cmd.Flags().GetStringSlice("extensions")
	if err != nil {
		return err
	}
	concurrency, err := cmd.Flags().GetInt("concurrency")
	if err != nil {
		return err
	}
	if concurrency < 1 {
		return fmt.Errorf("--concurrency must be >= 1 (got %d)", concurrency)
	}
	gate, err := cmd.Flags().GetString("fail-on")
	if err != nil {
		return err
	}
	if err := validateGate(gate); err != nil {
		return err
	}

	locations, err := collectLocations(args, listPath, extensions, recursive)
	if err != nil {
		return err
	}
	if len(locations) == 0 {
		return errors.New("no images found (pass files, directories or --list)")
	}

	p, err := newPipeline(cmd)
	if err != nil {
		return err
	}
	defer p.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		mu   sync.Mutex
		done int
	)
	progress := cmd.ErrOrStderr()
	proc := batch.NewProcessor(p.analyzer, p.router,
		batch.WithConcurrency(concurrency),
		batch.WithPublisher(p.publisher),
		batch.WithItemCallback(func(_ int, item batch.Item) {
			if item.OK() && p.store != nil {
				if _, err := p.store.Save(context.WithoutCancel(ctx), item.Record, p.profile); err != nil {
					logger.WithError(err).WithField("file_path", item.FilePath()).
						Warn("failed to store analysis result")
				}
			}

			mu.Lock()
			defer mu.Unlock()
			done++
			status := "error"
			if item.OK() {
				status = string(item.Record.Global.Status)
			}
			fmt.Fprintf(progress, "[%d/%d] %s: %s\n", done, len(locations), item.FilePath(), status)
		}),
	)

	res, procErr := proc.Process(ctx, locations)
	if res != nil {
		w, closeOut, err := reportWriter(cmd)
		if err != nil {
			return err
		}
		if err := w.WriteBatch(res); err != nil {
			closeOut()
			return fmt.Errorf("failed to write report: %w", err)
		}
		if err := closeOut(); err != nil {
			return err
		}
	}
	if procErr != nil {
		return fmt.Errorf("batch interrupted: %w", procErr)
	}

	tripped := 0
	for _, item := range res.Items {
		if item.OK() && gateTripped(gate, item.Record.Global.Status) {
			tripped++
		}
	}
	if tripped > 0 {
		return gateError(gate, tripped)
	}
	return nil
}

// collectLocations expands args and the list file into an ordered list of
// image locations. Directory contents are sorted by path.
func collectLocations(args []string, listPath string, extensions []string, recursive bool) ([]string, error) {
	var locations []string
	for _, arg := range args {
		found, err := expandArg(arg, extensions, recursive)
		if err != nil {
			return nil, err
		}
		locations = append(locations, found...)
	}

	if listPath != "" {
		listed, err := readList(listPath)
		if err != nil {
			return nil, err
		}
		locations = append(locations, listed...)
	}
	return locations, nil
}

func expandArg(arg string, extensions []string, recursive bool) ([]string, error) {
	if isRemote(arg) {
		return []string{arg}, nil
	}

	info, err := os.Stat(arg)
	if err != nil {
		return nil, fmt.Errorf("cannot access %s: %w", arg, err)
	}
	if !info.IsDir() {
		return []string{arg}, nil
	}

	var found []string
	err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != arg && !recursive {
				return filepath.SkipDir
			}
			return nil
		}
		if hasExtension(path, extensions) {
			found = append(found, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", arg, err)
	}
	sort.Strings(found)
	return found, nil
}

func readList(path string) ([]string, error) {
	f, err := os.Open(path) //nolint:gosec // User-provided list path is intentional
	if err != nil {
		return nil, fmt.Errorf("cannot open list file: %w", err)
	}
	defer f.Close()

	var locations []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		locations = append(locations, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read list file: %w", err)
	}
	return locations, nil
}

func isRemote(location string) bool {
	i := strings.Index(location, "://")
	return i > 1 && !strings.EqualFold(location[:i], "file")
}

func hasExtension(path string, extensions []string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range extensions {
		e = strings.ToLower(strings.TrimSpace(e))
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		if ext == e {
			return true
		}
	}
	return false
}
