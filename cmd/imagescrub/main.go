// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

// Command imagescrub shows and removes the EXIF metadata of images.
//
// Usage:
//
//	imagescrub -f photo.jpg
//	imagescrub -f photos/ -a clear -o output
//	imagescrub -f photo.jpg -a strip
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/bep/imagescrub"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("imagescrub: ")
	setupConsole()

	if err := run(os.Args[1:], os.Stdout); err != nil {
		log.Fatal(err)
	}
}

type action int

const (
	actionShow action = iota
	actionClear
	actionStrip
)

func parseAction(s string) (action, error) {
	switch strings.ToLower(s) {
	case "show":
		return actionShow, nil
	case "clear":
		return actionClear, nil
	case "strip":
		return actionStrip, nil
	default:
		return 0, fmt.Errorf("unknown action %q, must be one of show, clear, strip", s)
	}
}

type config struct {
	input   string
	action  action
	outDir  string
	quality float64
	timeout time.Duration
	verbose bool
}

func run(args []string, stdout io.Writer) error {
	var (
		cfg       config
		actionArg string
	)

	flags := flag.NewFlagSet("imagescrub", flag.ContinueOnError)
	flags.SetOutput(stdout)
	flags.StringVar(&cfg.input, "f", "", "Input filename or directory")
	flags.StringVar(&actionArg, "a", "show", "Action to perform: show, clear, strip")
	flags.StringVar(&cfg.outDir, "o", "output", "Output directory for clear and strip")
	flags.Float64Var(&cfg.quality, "q", imagescrub.DefaultQuality, "JPEG quality in the range (0, 1] used by clear")
	flags.DurationVar(&cfg.timeout, "t", 30*time.Second, "Timeout for re-encoding a single image")
	flags.BoolVar(&cfg.verbose, "v", false, "Log warnings about skipped EXIF entries")
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	if cfg.input == "" {
		flags.PrintDefaults()
		return errors.New("no input filename provided")
	}
	var err error
	if cfg.action, err = parseAction(actionArg); err != nil {
		return err
	}

	s := newScrubber(cfg, stdout)

	fi, err := os.Stat(cfg.input)
	if err != nil {
		return err
	}
	if !fi.IsDir() {
		return s.processFile(cfg.input)
	}

	return s.processDir(cfg.input)
}

type scrubber struct {
	cfg config
	p   printer

	warnf func(string, ...any)
}

func newScrubber(cfg config, w io.Writer) *scrubber {
	warnf := func(string, ...any) {}
	if cfg.verbose {
		warnf = log.Printf
	}
	return &scrubber{cfg: cfg, p: printer{w: w}, warnf: warnf}
}

func (s *scrubber) processDir(dir string) error {
	var processed, total int
	outDir, _ := filepath.Abs(s.cfg.outDir)

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			log.Printf("error walking %s: %s", path, err)
			return nil
		}
		if d.IsDir() {
			if abs, _ := filepath.Abs(path); abs == outDir && s.cfg.action != actionShow {
				return filepath.SkipDir
			}
			return nil
		}
		total++
		if err := s.processFile(path); err != nil {
			log.Printf("%s: %s", path, err)
			return nil
		}
		processed++
		return nil
	})
	if err != nil {
		return err
	}

	s.p.Printf("Processed %d files out of %d files in folder %s\n", processed, total, dir)

	return nil
}

func (s *scrubber) processFile(filename string) error {
	b, err := os.ReadFile(filename)
	if err != nil {
		return err
	}

	format := imagescrub.DetectFormat(b)
	if format == imagescrub.ImageFormatAuto {
		return fmt.Errorf("unsupported file format")
	}

	switch s.cfg.action {
	case actionClear:
		return s.clear(filename, b)
	case actionStrip:
		if format != imagescrub.JPEG {
			return imagescrub.ErrNotJPEG
		}
		return s.strip(filename, b)
	default:
		return s.show(filename, b)
	}
}

func (s *scrubber) show(filename string, b []byte) error {
	s.p.Header("%s", filename)

	m, err := imagescrub.Decode(b, imagescrub.Options{Warnf: s.warnf})
	if err != nil {
		if imagescrub.IsInvalidFormat(err) {
			s.p.Println(true, "EXIF data is present but unreadable:", err)
			return nil
		}
		return err
	}
	if !m.Found {
		s.p.Println(true, "No EXIF data")
		return nil
	}

	var labelWidth int
	for _, e := range m.Entries {
		labelWidth = max(labelWidth, utf8.RuneCountInString(e.Label))
	}
	for _, e := range m.Entries {
		s.p.Form(true, e.Label, e.Value, labelWidth)
	}
	if m.Len() == 0 {
		s.p.Println(true, "EXIF data found, but none of the reported tags")
	}
	if m.Truncated {
		s.p.Println(true, "The file is truncated, EXIF data was read as far as it goes")
	}
	if m.Skipped > 0 {
		s.p.Printf("  %d entries could not be read\n", m.Skipped)
	}
	if m.HasGPS {
		s.p.Warning(true, "Contains GPS location data, run with -a clear to remove it")
	}

	return nil
}

func (s *scrubber) clear(filename string, b []byte) error {
	res, err := imagescrub.Redact(b, imagescrub.RedactOptions{
		Quality: s.cfg.quality,
		Timeout: s.cfg.timeout,
	})
	if err != nil {
		return err
	}

	return s.write(filename, res.Data, res.Format.Extension())
}

func (s *scrubber) strip(filename string, b []byte) error {
	stripped, err := imagescrub.StripEXIF(b)
	if err != nil {
		return err
	}

	return s.write(filename, stripped, filepath.Ext(filename))
}

func (s *scrubber) write(filename string, data []byte, ext string) error {
	if err := os.MkdirAll(s.cfg.outDir, 0o755); err != nil {
		return err
	}
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	outFilename := filepath.Join(s.cfg.outDir, base+"_clean"+ext)
	if err := os.WriteFile(outFilename, data, 0o644); err != nil {
		return err
	}

	s.p.Printf("Wrote %s (%d bytes)\n", outFilename, len(data))

	return nil
}
