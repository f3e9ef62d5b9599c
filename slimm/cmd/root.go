// Copyright © 2018-2020 Wei Shen <shenwei356@gmail.com>
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/shenwei356/go-logging"
	"github.com/shenwei356/util/pathutil"
	"github.com/shenwei356/util/stringutil"
	"github.com/spf13/cobra"

	"github.com/shenwei356/slimm"
	"github.com/shenwei356/slimm/internal/discover"
	"github.com/shenwei356/slimm/internal/htsreader"
	"github.com/shenwei356/slimm/internal/report"
	"github.com/shenwei356/slimm/internal/taxdump"
)

// VERSION is the tool's release version.
const VERSION = "0.1.0"

// RootCmd is slimm's single command: there is one operation (profile an
// alignment file or directory of them), so unlike the reference CLI's
// multi-verb layout, every flag attaches directly here.
var RootCmd = &cobra.Command{
	Use:   "slimm",
	Short: "Species Level Identification of Microbes from Metagenomes",
	Long: fmt.Sprintf(`slimm - Species Level Identification of Microbes from Metagenomes

Builds per-taxon relative-abundance profiles from reads aligned against a
reference database, using reference coverage statistics to separate truly
present taxa from spurious multi-mapping noise.

Version: %s
`, VERSION),
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runProfile(cmd, args[0])
	},
}

// Execute adds all child commands to the root command and executes it.
// This is called by main.main(); it only needs to happen once.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	defaultThreads := runtime.NumCPU()
	if defaultThreads > 2 {
		defaultThreads = 2
	}

	RootCmd.Flags().StringP("output-prefix", "o", "", "output path prefix (default: IN)")
	RootCmd.Flags().StringP("mapping-files", "m", "", "directory containing nodes.dmp, names.dmp")
	RootCmd.Flags().IntP("bin-width", "w", 0, "coverage bin width in bp, 0 = auto-discover")
	RootCmd.Flags().IntP("min-reads", "", 0, "minimum reads per reference, 0 = auto (ceil(matched/10000))")
	RootCmd.Flags().StringP("rank", "r", "species", "target taxonomic rank")
	RootCmd.Flags().Float64P("cov-cutoff", "c", 0.99, "coverage quantile cutoff q in [0,1]")
	RootCmd.Flags().BoolP("directory", "d", false, "IN is a directory of alignment files")
	RootCmd.Flags().BoolP("output-raw", "", false, "also emit the per-reference raw TSV")
	RootCmd.Flags().BoolP("verbose", "v", false, "print verbose progress information")
	RootCmd.Flags().IntP("threads", "j", defaultThreads, "number of input files to process concurrently")

	RootCmd.MarkFlagRequired("mapping-files")
}

func runProfile(cmd *cobra.Command, in string) {
	verbose := getFlagBool(cmd, "verbose")
	if verbose {
		logging.SetLevel(logging.INFO, "slimm")
	} else {
		logging.SetLevel(logging.WARNING, "slimm")
	}
	mappingDir := expandPath(getFlagString(cmd, "mapping-files"))
	binWidth := getFlagInt(cmd, "bin-width")
	minReads := getFlagInt(cmd, "min-reads")
	rank := getFlagString(cmd, "rank")
	covCutoff := getFlagFloat64(cmd, "cov-cutoff")
	directory := getFlagBool(cmd, "directory")
	outputRaw := getFlagBool(cmd, "output-raw")
	threads := getFlagPositiveInt(cmd, "threads")

	if covCutoff < 0 || covCutoff > 1 {
		checkError(fmt.Errorf("value of -c/--cov-cutoff should be in [0,1]"))
	}
	runtime.GOMAXPROCS(threads)

	if ok, err := pathutil.Exists(mappingDir); err != nil {
		checkError(errors.Wrap(err, mappingDir))
	} else if !ok {
		checkError(fmt.Errorf("mapping-files directory does not exist: %s", mappingDir))
	}

	if verbose {
		log.Infof("loading taxonomy from %s", mappingDir)
	}
	taxonomy, err := taxdump.Load(mappingDir)
	checkError(err)
	if verbose {
		log.Infof("loaded %d taxa", taxonomy.Len())
	}
	warnIfRankUnknown(taxonomy, rank)

	outputPrefix := getFlagString(cmd, "output-prefix")
	if outputPrefix == "" {
		outputPrefix = in
	}
	outputPrefix = expandPath(outputPrefix)

	files, err := discover.Files(expandPath(in), directory)
	checkError(err)
	if len(files) == 0 {
		checkError(fmt.Errorf("no alignment files found under %s", in))
	}
	if verbose {
		log.Infof("%d input file(s) to process", len(files))
	}

	cfg := slimm.FilterConfig{CovCutoffQuantile: covCutoff, MinReads: minReads}

	var wg sync.WaitGroup
	var fatal int32
	sem := make(chan struct{}, threads)
	for i, file := range files {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, file string) {
			defer wg.Done()
			defer func() { <-sem }()

			prefix := filePrefix(outputPrefix, file, len(files))
			if err := processFile(file, prefix, rank, binWidth, outputRaw, verbose, cfg, taxonomy); err != nil {
				if slimm.IsEmptyInput(err) {
					log.Warningf("%s: no mapped reads, skipping", file)
					return
				}
				log.Errorf("%s: %s", file, err)
				atomic.StoreInt32(&fatal, 1)
			}
		}(i, file)
	}
	wg.Wait()

	// A fatal per-file failure (e.g. MissingTaxonTag) must fail the whole
	// run: spec.md §6.4/§8 require exit 1, not a silently-degraded exit 0.
	if atomic.LoadInt32(&fatal) != 0 {
		os.Exit(1)
	}
}

// filePrefix derives the per-file output prefix (DESIGN.md "Open Question
// decisions" §4): a single input file uses outputPrefix as-is; a directory
// of N files nests each file's own prefix, named after the file, under
// outputPrefix treated as a directory.
func filePrefix(outputPrefix, file string, numFiles int) string {
	if numFiles == 1 {
		return outputPrefix
	}
	base := filepath.Base(file)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(outputPrefix, base)
}

func warnIfRankUnknown(taxonomy *slimm.TaxonomyStore, rank string) {
	counts := taxonomy.RankCounts()
	if _, ok := counts[rank]; ok {
		return
	}
	orders := make([]stringutil.StringCount, 0, len(counts))
	for r, n := range counts {
		orders = append(orders, stringutil.StringCount{Key: r, Count: n})
	}
	sort.Sort(stringutil.ReversedStringCountList{orders})

	top := make([]string, 0, 10)
	for i, o := range orders {
		if i >= 10 {
			break
		}
		top = append(top, o.Key)
	}
	log.Warningf("rank %q not present in loaded taxonomy; most common ranks: %s", rank, strings.Join(top, ", "))
}

func processFile(file, prefix, rank string, binWidth int, outputRaw, verbose bool, cfg slimm.FilterConfig, taxonomy *slimm.TaxonomyStore) error {
	pipeline := slimm.NewPipeline(file)

	reader := htsreader.New()
	if err := reader.Open(file); err != nil {
		return pipeline.Fail(err)
	}
	defer reader.Close()
	pipeline.Enter(slimm.HeaderRead)

	opt := slimm.IngestOptions{BinWidth: binWidth}
	if verbose {
		opt.Progress = func(seen int) {
			log.Infof("%s: %s records processed", file, humanize.Comma(int64(seen)))
		}
	}
	pipeline.Enter(slimm.Ingesting)
	sess, err := slimm.Ingest(reader, opt)
	if err != nil {
		return pipeline.Fail(err)
	}
	pipeline.Enter(slimm.Ingested)

	if sess.NumMatched == 0 {
		if dir := filepath.Dir(prefix); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return pipeline.Fail(err)
			}
		}
		if err := report.WriteAbundance(prefix, rank, nil); err != nil {
			return pipeline.Fail(err)
		}
		return &slimm.Error{Kind: slimm.EmptyInput, Path: file}
	}

	stats := slimm.ComputeStats(sess.Refs)
	pipeline.Enter(slimm.StatsComputed)

	result := slimm.Filter(sess.Refs, stats, cfg, sess.NumMatched)
	pipeline.Enter(slimm.FilteredB)

	reassigned := slimm.Reassign(sess.Reads, sess.Refs, result.Survived)
	pipeline.Enter(slimm.Reassigned)

	counts, droppedAtLCA := slimm.AssignReads(reassigned, sess.Refs, taxonomy, result.ValidTaxonIDs)
	buckets := slimm.AggregateToRank(counts, taxonomy, rank)
	rows := slimm.BuildProfile(buckets, taxonomy, rank)
	pipeline.Enter(slimm.Profiled)

	if dir := filepath.Dir(prefix); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return pipeline.Fail(err)
		}
	}
	if err := report.WriteAbundance(prefix, rank, rows); err != nil {
		return pipeline.Fail(err)
	}
	if outputRaw {
		if err := report.WriteRaw(prefix, report.RawRowsFromTable(sess.Refs)); err != nil {
			return pipeline.Fail(err)
		}
	}
	pipeline.Enter(slimm.Closed)

	log.Infof("%s: %d/%d references passed filtering (cov cutoff %.6g, uniq cutoff %.6g, %d failed by cov, %d failed by uniq cov); "+
		"%d/%d reads matched uniquely; %d reads dropped at LCA",
		file, len(result.Survived), len(stats), result.CovCutoff, result.UniqCutoff,
		result.FailedByCov, result.FailedByUniqCov,
		sess.NumUniquelyMatched, sess.NumMatched, droppedAtLCA)
	return nil
}
